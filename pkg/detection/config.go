// Package detection provides face detection using computer vision
package detection

// Stock OpenCV frontal-face cascades.
const (
	FrontalDefault = "haarcascade_frontalface_default.xml"
	FrontalAlt2    = "haarcascade_frontalface_alt2.xml"

	// DefaultCascadeDir is where distro OpenCV packages install cascades.
	DefaultCascadeDir = "/usr/share/opencv4/haarcascades"
)

// ModelConfig tunes one cascade model.
type ModelConfig struct {
	// File is the cascade XML, relative to Config.CascadeDir unless absolute.
	File string `json:"file" validate:"required"`

	// ScaleFactor is how much the search window grows between passes.
	ScaleFactor float64 `json:"scale_factor" validate:"gt=1,lte=2"`

	// MinNeighbors is how many overlapping hits a candidate needs before it
	// counts as a face. Higher means fewer false positives and more misses.
	MinNeighbors int `json:"min_neighbors" validate:"gte=0,lte=50"`

	// MinSize is the smallest face, in pixels, that is reported.
	MinSize int `json:"min_size" validate:"gte=1"`
}

// Config holds detector configuration
type Config struct {
	CascadeDir string        `json:"cascade_dir"`
	Models     []ModelConfig `json:"models" validate:"min=1,dive"`
}

// DefaultModel returns the production tuning for a cascade file.
func DefaultModel(file string) ModelConfig {
	return ModelConfig{
		File:         file,
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      60,
	}
}

// DefaultConfig returns production defaults: the default and alt2 frontal
// cascades, voted together.
func DefaultConfig() Config {
	return Config{
		CascadeDir: DefaultCascadeDir,
		Models: []ModelConfig{
			DefaultModel(FrontalDefault),
			DefaultModel(FrontalAlt2),
		},
	}
}

// Tune applies the same search parameters to every model.
func (c *Config) Tune(scaleFactor float64, minNeighbors, minSize int) {
	for i := range c.Models {
		if scaleFactor > 0 {
			c.Models[i].ScaleFactor = scaleFactor
		}
		if minNeighbors >= 0 {
			c.Models[i].MinNeighbors = minNeighbors
		}
		if minSize > 0 {
			c.Models[i].MinSize = minSize
		}
	}
}
