package facelandmarker

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by detection calls made after Close.
var ErrClosed = errors.New("face landmarker has been closed")

// InitializationError means a Landmarker could not be constructed: the
// options were invalid, the model path was bad, the model failed to load,
// or the engine could not be built.
type InitializationError struct {
	ModelPath string
	Cause     error
}

func (e *InitializationError) Error() string {
	if e.ModelPath == "" {
		return fmt.Sprintf("failed to initialize face landmarker: %v", e.Cause)
	}
	return fmt.Sprintf("failed to initialize face landmarker with model %q: %v", e.ModelPath, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *InitializationError) Unwrap() error { return e.Cause }

// InvalidInputError means the image handed to a detection call cannot be
// used, e.g. a pixel buffer in a pixel format detection does not support.
type InvalidInputError struct {
	Reason string
	Cause  error
}

func (e *InvalidInputError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid input image: %v", e.Cause)
	}
	return fmt.Sprintf("invalid input image: %s", e.Reason)
}

// Unwrap returns the underlying cause, if any.
func (e *InvalidInputError) Unwrap() error { return e.Cause }

// InvalidModeError means a detection call does not match the running mode
// the Landmarker was constructed with.
type InvalidModeError struct {
	Op   string
	Mode RunningMode
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("%s cannot be called on a face landmarker in %q running mode", e.Op, e.Mode)
}

// SequencingError means the timestamp of a video or live stream frame did
// not increase over the previous call on the same Landmarker.
type SequencingError struct {
	TimestampMS     int64
	LastTimestampMS int64
}

func (e *SequencingError) Error() string {
	return fmt.Sprintf("frame timestamps must be strictly increasing, got %dms after %dms",
		e.TimestampMS, e.LastTimestampMS)
}
