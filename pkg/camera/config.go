// Package camera opens webcams through OpenCV and hands out grayscale,
// histogram-equalized frames for face detection.
package camera

import "github.com/teslashibe/facelight/pkg/presence"

// Config holds the capture settings for one presence burst.
type Config struct {
	// Index is the OpenCV device index. 0 is the default webcam.
	Index int `json:"index" validate:"gte=0"`

	// Width and Height request a capture resolution from the driver.
	// 0 keeps the driver default. Detection cost grows with resolution.
	Width  int `json:"width" validate:"gte=0,lte=4096"`
	Height int `json:"height" validate:"gte=0,lte=4096"`

	// WarmupFrames are read and dropped before the burst so auto-exposure
	// and gain can settle. The first frames off a freshly opened webcam are
	// usually too dark or too bright.
	WarmupFrames int `json:"warmup_frames" validate:"gte=0,lte=300"`

	// BurstFrames is the number of frames voted on per check.
	BurstFrames int `json:"burst_frames" validate:"gte=1,lte=30"`
}

// DefaultConfig returns the settings used for a laptop webcam.
func DefaultConfig() Config {
	return Config{
		Index:        0,
		Width:        0,
		Height:       0,
		WarmupFrames: presence.DefaultWarmupFrames,
		BurstFrames:  presence.DefaultBurstFrames,
	}
}

// Sampler returns a presence sampler reading from cam with these settings.
func (c Config) Sampler(cam presence.Camera) *presence.Sampler {
	return &presence.Sampler{
		Camera: cam,
		Index:  c.Index,
		Warmup: c.WarmupFrames,
		Burst:  c.BurstFrames,
	}
}
