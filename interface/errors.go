package iface

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidOutput    = errors.New("invalid output vector")
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrEngineNotLoaded  = errors.New("engine not loaded")
	ErrEngineBusy       = errors.New("engine is busy")
)

// ResourceLoadError means the engine could not load its model at startup.
type ResourceLoadError struct {
	Backend string
	Path    string
	Err     error
}

func (e *ResourceLoadError) Error() string {
	return fmt.Sprintf("load %s model %q: %v", e.Backend, e.Path, e.Err)
}

func (e *ResourceLoadError) Unwrap() error {
	return e.Err
}

// InferenceError is scoped to a single frame.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

// InvalidOutputError reports an output vector that does not line up with
// the class label table. Got is the vector length, Want the table length.
type InvalidOutputError struct {
	Got  int
	Want int
}

func (e *InvalidOutputError) Error() string {
	if e.Got == 0 {
		return fmt.Sprintf("%v: empty, want %d scores", ErrInvalidOutput, e.Want)
	}
	return fmt.Sprintf("%v: got %d scores, want %d", ErrInvalidOutput, e.Got, e.Want)
}

func (e *InvalidOutputError) Is(target error) bool {
	return target == ErrInvalidOutput
}
