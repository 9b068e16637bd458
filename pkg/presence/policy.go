package presence

import (
	"context"
	"fmt"
)

// Brightness levels.
const (
	BrightnessOff = 0
	BrightnessOn  = 100

	// BrightnessUnset marks a State that has not completed a check yet.
	BrightnessUnset = -1
)

// BrightnessFor maps an aggregated face count to a brightness level.
func BrightnessFor(faces int) int {
	if faces >= 1 {
		return BrightnessOn
	}
	return BrightnessOff
}

// Policy turns a face count into a brightness level and applies it.
type Policy struct {
	Actuator Actuator
}

// Apply computes the level for faces and sends it to the actuator. The
// level is returned even when the actuator fails; the error then has kind
// KindActuator.
func (p Policy) Apply(ctx context.Context, faces int) (int, error) {
	level := BrightnessFor(faces)
	if p.Actuator == nil {
		return level, nil
	}
	if err := p.Actuator.SetBrightness(ctx, level); err != nil {
		return level, &Error{
			Kind: KindActuator,
			Err:  fmt.Errorf("%w: set %d%%: %w", ErrActuator, level, err),
		}
	}
	return level, nil
}
