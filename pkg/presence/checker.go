package presence

import (
	"context"
	"sync"
	"time"

	"github.com/teslashibe/facelight/internal/log"
)

// DefaultCheckTimeout bounds a single presence check.
const DefaultCheckTimeout = 20 * time.Second

// Outcome is the result of one presence check. Err is nil on success; on
// failure Faces and Brightness carry no information.
type Outcome struct {
	Faces      int
	Brightness int
	Frames     int        // usable frames in the burst
	Votes      VoteRecord // per-frame, per-model counts

	// ActuatorErr is set when the level was computed but could not be
	// applied. The check still counts as a success.
	ActuatorErr error

	Err       error
	CheckedAt time.Time
}

// Failed reports whether the check produced no face count.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Kind returns the error kind of a failed outcome, or "" on success.
func (o Outcome) Kind() ErrorKind {
	k, _ := KindOf(o.Err)
	return k
}

// PresenceChecker runs one end-to-end presence check.
type PresenceChecker interface {
	Check(ctx context.Context) Outcome
}

// Checker wires Sampler, detectors, VoteRecord and Policy into one check.
// Checks are serialized so two callers never hold the camera at once.
type Checker struct {
	sampler   *Sampler
	detectors []Detector
	policy    Policy
	timeout   time.Duration

	mu  sync.Mutex
	now func() time.Time
}

// NewChecker creates a checker. A zero timeout disables the per-check bound.
func NewChecker(sampler *Sampler, detectors []Detector, actuator Actuator, timeout time.Duration) *Checker {
	return &Checker{
		sampler:   sampler,
		detectors: detectors,
		policy:    Policy{Actuator: actuator},
		timeout:   timeout,
		now:       time.Now,
	}
}

// Check samples a burst, counts faces with every detector on every frame,
// keeps the maximum and applies the matching brightness.
func (c *Checker) Check(ctx context.Context) Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The timeout bounds sampling only; a burst it cuts short still gets
	// its level applied.
	sampleCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		sampleCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := c.now()
	var votes VoteRecord
	frames, err := c.sampler.Sample(sampleCtx, func(f Frame) {
		for _, d := range c.detectors {
			n := d.CountFaces(f)
			log.Debug("detector vote", "model", d.Name(), "faces", n)
			votes.Add(n)
		}
	})
	if err != nil {
		log.Warn("presence check failed", "error", err)
		return Outcome{
			Brightness: BrightnessUnset,
			Err:        err,
			CheckedAt:  c.now(),
		}
	}

	out := Outcome{
		Faces:     votes.Aggregate(),
		Frames:    frames,
		Votes:     votes,
		CheckedAt: c.now(),
	}

	level, aerr := c.policy.Apply(ctx, out.Faces)
	out.Brightness = level
	if aerr != nil {
		out.ActuatorErr = aerr
		log.Warn("brightness not applied", "level", level, "error", aerr)
	}

	log.Info("presence check",
		"faces", out.Faces,
		"brightness", out.Brightness,
		"frames", frames,
		"votes", len(votes),
		"took", out.CheckedAt.Sub(start))
	return out
}
