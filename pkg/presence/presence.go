// Package presence decides whether a person is in front of the camera and
// maps that decision to a display brightness level.
//
// A check samples a short burst of frames, runs every configured face
// detector on every frame, and keeps the largest face count seen anywhere in
// the burst. One face in one frame under one model is enough to count as
// present: a person turning their head should not dim the screen.
//
// The Monitor repeats checks on an interval and publishes each Outcome into
// a State that HTTP handlers, websocket clients and MQTT read from.
package presence

import "context"

// Frame is one grayscale, histogram-equalized image. Frames are owned by
// the Sampler and closed as soon as detection on them is done.
type Frame interface {
	Close() error
}

// Source is an open camera.
type Source interface {
	// Read returns the next frame, or false if the device returned no data.
	Read() (Frame, bool)

	// Close releases the device.
	Close() error
}

// Camera opens video sources by device index.
type Camera interface {
	Open(index int) (Source, error)
}

// Detector counts faces in a frame. A detector that finds nothing returns
// 0; detectors never fail.
type Detector interface {
	Name() string
	CountFaces(f Frame) int
}

// Actuator applies a brightness percentage to a display.
type Actuator interface {
	SetBrightness(ctx context.Context, percent int) error
}
