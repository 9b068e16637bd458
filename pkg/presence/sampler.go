package presence

import (
	"context"
	"fmt"

	"github.com/teslashibe/facelight/internal/log"
)

// Default burst shape.
const (
	DefaultWarmupFrames = 20 // discarded while auto-exposure settles
	DefaultBurstFrames  = 3
)

// Sampler reads one burst of frames from a camera.
type Sampler struct {
	Camera Camera
	Index  int // device index, 0 is the default webcam
	Warmup int // frames read and discarded before the burst
	Burst  int // frames handed to the visitor
}

// NewSampler creates a sampler with the default warm-up and burst sizes.
func NewSampler(cam Camera, index int) *Sampler {
	return &Sampler{
		Camera: cam,
		Index:  index,
		Warmup: DefaultWarmupFrames,
		Burst:  DefaultBurstFrames,
	}
}

// Sample opens the camera, discards the warm-up frames, then calls visit
// once per usable frame of the burst. Each frame is closed after visit
// returns, and the camera is released on every return path.
//
// Reads that return no data are skipped. If ctx ends partway through the
// burst, the frames already visited still count. Sample fails with
// KindCameraUnavailable if the device cannot be opened and with
// KindFrameRead if no frame of the burst was usable.
func (s *Sampler) Sample(ctx context.Context, visit func(Frame)) (int, error) {
	src, err := s.Camera.Open(s.Index)
	if err != nil {
		return 0, &Error{
			Kind: KindCameraUnavailable,
			Err:  fmt.Errorf("%w: open device %d: %w", ErrCameraUnavailable, s.Index, err),
		}
	}
	defer func() {
		if err := src.Close(); err != nil {
			log.Warn("camera release failed", "device", s.Index, "error", err)
		}
	}()

	for i := 0; i < s.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return 0, s.readError(err)
		}
		if f, ok := src.Read(); ok {
			f.Close()
		}
	}

	burst := s.Burst
	if burst <= 0 {
		burst = DefaultBurstFrames
	}

	usable := 0
	for i := 0; i < burst; i++ {
		if err := ctx.Err(); err != nil {
			if usable == 0 {
				return 0, s.readError(err)
			}
			log.Warn("burst cut short", "device", s.Index, "usable", usable, "wanted", burst, "error", err)
			break
		}
		f, ok := src.Read()
		if !ok {
			log.Debug("empty frame in burst", "device", s.Index, "frame", i)
			continue
		}
		func() {
			defer f.Close()
			visit(f)
		}()
		usable++
	}

	if usable == 0 {
		return 0, s.readError(fmt.Errorf("%d reads returned no data", burst))
	}
	return usable, nil
}

func (s *Sampler) readError(cause error) error {
	return &Error{
		Kind: KindFrameRead,
		Err:  fmt.Errorf("%w: device %d: %w", ErrFrameRead, s.Index, cause),
	}
}
