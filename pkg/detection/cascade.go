package detection

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/teslashibe/facelight/internal/log"
	"github.com/teslashibe/facelight/pkg/presence"
	"gocv.io/x/gocv"
)

// cascadeScaleImage is OpenCV's CASCADE_SCALE_IMAGE flag.
const cascadeScaleImage = 2

// matFrame is any frame backed by an OpenCV image.
type matFrame interface {
	Mat() gocv.Mat
}

// Cascade counts faces with an OpenCV Haar cascade.
type Cascade struct {
	name       string
	classifier gocv.CascadeClassifier
	config     ModelConfig
	mu         sync.Mutex // Protects inference
}

// NewCascade loads the cascade described by mc.
func NewCascade(dir string, mc ModelConfig) (*Cascade, error) {
	path := mc.File
	if !filepath.IsAbs(path) && dir != "" {
		path = filepath.Join(dir, path)
	}

	// Check if model file exists first
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("cascade file not found: %s", path)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade %s", path)
	}

	return &Cascade{
		name:       ModelName(mc.File),
		classifier: classifier,
		config:     mc,
	}, nil
}

// Name returns the model name, e.g. "frontalface_alt2".
func (c *Cascade) Name() string {
	return c.name
}

// CountFaces returns the number of faces the cascade finds in f.
// Frames that are not backed by an OpenCV image count as 0.
func (c *Cascade) CountFaces(f presence.Frame) int {
	mf, ok := f.(matFrame)
	if !ok {
		log.Debug("cascade got a frame it cannot read", "model", c.name, "type", fmt.Sprintf("%T", f))
		return 0
	}
	img := mf.Mat()
	if img.Empty() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	minSize := image.Pt(c.config.MinSize, c.config.MinSize)
	rects := c.classifier.DetectMultiScaleWithParams(
		img,
		c.config.ScaleFactor,
		c.config.MinNeighbors,
		cascadeScaleImage,
		minSize,
		image.Pt(0, 0), // no upper bound
	)
	return len(rects)
}

// Close releases the detector resources
func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}

// Set is a group of loaded cascades voted together.
type Set []*Cascade

// Load opens every model in cfg. On error nothing stays open.
func Load(cfg Config) (Set, error) {
	set := make(Set, 0, len(cfg.Models))
	for _, mc := range cfg.Models {
		c, err := NewCascade(cfg.CascadeDir, mc)
		if err != nil {
			set.Close()
			return nil, err
		}
		log.Info("cascade loaded",
			"model", c.Name(),
			"scale_factor", mc.ScaleFactor,
			"min_neighbors", mc.MinNeighbors,
			"min_size", mc.MinSize)
		set = append(set, c)
	}
	return set, nil
}

// Detectors returns the set as presence detectors.
func (s Set) Detectors() []presence.Detector {
	dets := make([]presence.Detector, len(s))
	for i, c := range s {
		dets[i] = c
	}
	return dets
}

// Close releases every cascade in the set.
func (s Set) Close() error {
	var errs []error
	for _, c := range s {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ModelName derives a short model name from a cascade file name.
func ModelName(file string) string {
	name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	return strings.TrimPrefix(name, "haarcascade_")
}
