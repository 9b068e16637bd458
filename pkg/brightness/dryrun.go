package brightness

import (
	"context"
	"sync"

	"github.com/teslashibe/facelight/internal/log"
)

// DryRun logs brightness changes without touching hardware.
type DryRun struct {
	mu    sync.Mutex
	level int
	calls int
}

// NewDryRun returns a dry-run actuator with no level set.
func NewDryRun() *DryRun {
	return &DryRun{level: -1}
}

// SetBrightness records percent.
func (d *DryRun) SetBrightness(_ context.Context, percent int) error {
	d.mu.Lock()
	d.level = Clamp(percent)
	d.calls++
	d.mu.Unlock()

	log.Info("💡 brightness (dry run)", "percent", percent)
	return nil
}

// Level returns the last level set, or -1.
func (d *DryRun) Level() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.level
}

// Calls returns how many times SetBrightness ran.
func (d *DryRun) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
