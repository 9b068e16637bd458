package brightness

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/teslashibe/facelight/internal/log"
)

// Command runs an external program to set brightness.
type Command struct {
	args []string
}

// NewCommand parses a whitespace-separated command template. Every
// occurrence of {percent} is replaced with the level at run time.
func NewCommand(template string) (*Command, error) {
	args := strings.Fields(template)
	if len(args) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Command{args: args}, nil
}

// Args returns the command line for percent.
func (c *Command) Args(percent int) []string {
	p := strconv.Itoa(Clamp(percent))
	out := make([]string, len(c.args))
	for i, a := range c.args {
		out[i] = strings.ReplaceAll(a, "{percent}", p)
	}
	return out
}

// SetBrightness runs the command and fails on a non-zero exit.
func (c *Command) SetBrightness(ctx context.Context, percent int) error {
	args := c.Args(percent)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", args[0], err, msg)
		}
		return fmt.Errorf("%s: %w", args[0], err)
	}

	log.Debug("brightness command ran", "args", args)
	return nil
}
