package brightness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/teslashibe/facelight/internal/log"
)

// DefaultSysfsRoot is the Linux backlight class directory.
const DefaultSysfsRoot = "/sys/class/backlight"

// Sysfs writes brightness to a Linux backlight device.
type Sysfs struct {
	dir string
	max int
}

// NewSysfs opens the backlight device name under root. An empty name
// selects the first device in lexical order.
func NewSysfs(root, name string) (*Sysfs, error) {
	if root == "" {
		root = DefaultSysfsRoot
	}
	if name == "" {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrNoDevice, err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("%w under %s", ErrNoDevice, root)
		}
		sort.Strings(names)
		name = names[0]
	}

	dir := filepath.Join(root, name)
	maxRaw, err := readInt(filepath.Join(dir, "max_brightness"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNoDevice, name, err)
	}
	if maxRaw <= 0 {
		return nil, fmt.Errorf("%w: %s reports max_brightness %d", ErrNoDevice, name, maxRaw)
	}

	log.Info("backlight device opened", "device", name, "max_brightness", maxRaw)
	return &Sysfs{dir: dir, max: maxRaw}, nil
}

// SetBrightness scales percent to the device range and writes it.
func (s *Sysfs) SetBrightness(ctx context.Context, percent int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw := Clamp(percent) * s.max / 100
	path := filepath.Join(s.dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(raw)), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	log.Debug("backlight set", "percent", percent, "raw", raw)
	return nil
}

// Max returns the device's max_brightness.
func (s *Sysfs) Max() int {
	return s.max
}

func readInt(path string) (int, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return n, nil
}
