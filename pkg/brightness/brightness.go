// Package brightness applies display brightness levels.
//
// Three backends are available: Linux sysfs backlight devices, an external
// command such as brightnessctl, and a dry-run backend that only logs.
package brightness

import (
	"errors"
	"fmt"

	"github.com/teslashibe/facelight/pkg/presence"
)

// Backend names.
const (
	BackendSysfs   = "sysfs"
	BackendCommand = "command"
	BackendDryRun  = "dryrun"
)

// Sentinel errors
var (
	// ErrUnknownBackend is returned by New for an unrecognized backend.
	ErrUnknownBackend = errors.New("brightness: unknown backend")

	// ErrNoDevice is returned when no backlight device can be found.
	ErrNoDevice = errors.New("brightness: no backlight device")

	// ErrEmptyCommand is returned when the command backend has no command.
	ErrEmptyCommand = errors.New("brightness: empty command")
)

// Config selects and configures the brightness backend.
type Config struct {
	Backend string `json:"backend" validate:"oneof=sysfs command dryrun"`

	// Device is the sysfs backlight name (e.g. "intel_backlight"). Empty
	// picks the first device under Root.
	Device string `json:"device"`

	// Root is the sysfs backlight class directory.
	Root string `json:"root"`

	// Command is the command template for the command backend. The token
	// {percent} is replaced with the level.
	Command string `json:"command" validate:"required_if=Backend command"`
}

// DefaultConfig returns a dry-run configuration, safe on any machine.
func DefaultConfig() Config {
	return Config{
		Backend: BackendDryRun,
		Root:    DefaultSysfsRoot,
		Command: "brightnessctl set {percent}%",
	}
}

// New builds the actuator for cfg.
func New(cfg Config) (presence.Actuator, error) {
	switch cfg.Backend {
	case BackendSysfs:
		return NewSysfs(cfg.Root, cfg.Device)
	case BackendCommand:
		return NewCommand(cfg.Command)
	case BackendDryRun, "":
		return NewDryRun(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}

// Clamp limits percent to [0,100].
func Clamp(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}
