package presence

import (
	"errors"
)

// ErrorKind classifies why a presence check failed.
type ErrorKind string

const (
	// KindCameraUnavailable means the camera device could not be opened.
	KindCameraUnavailable ErrorKind = "camera_unavailable"

	// KindFrameRead means a burst produced zero usable frames.
	KindFrameRead ErrorKind = "frame_read_failure"

	// KindActuator means the brightness level could not be applied.
	// It never fails a check on its own.
	KindActuator ErrorKind = "actuator_failure"

	// KindUpstreamUnreachable means the API serving presence checks could
	// not be reached. Only produced by API clients.
	KindUpstreamUnreachable ErrorKind = "upstream_unreachable"
)

// Sentinel errors for each error kind.
var (
	ErrCameraUnavailable   = errors.New("camera not accessible")
	ErrFrameRead           = errors.New("camera returned no usable frames")
	ErrActuator            = errors.New("brightness could not be applied")
	ErrUpstreamUnreachable = errors.New("presence API unreachable")
)

// Error carries an ErrorKind alongside the underlying cause.
type Error struct {
	Kind ErrorKind
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the ErrorKind of err. It understands *Error values
// anywhere in the chain as well as bare sentinel errors.
func KindOf(err error) (ErrorKind, bool) {
	if err == nil {
		return "", false
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, true
	}

	switch {
	case errors.Is(err, ErrCameraUnavailable):
		return KindCameraUnavailable, true
	case errors.Is(err, ErrFrameRead):
		return KindFrameRead, true
	case errors.Is(err, ErrActuator):
		return KindActuator, true
	case errors.Is(err, ErrUpstreamUnreachable):
		return KindUpstreamUnreachable, true
	}
	return "", false
}
