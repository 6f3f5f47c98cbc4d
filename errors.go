package termgrid

import (
	"errors"
	"fmt"
)

// Sentinel errors for the termgrid package.
var (
	// ErrContextClosed is returned when a RenderContext is used after Close.
	ErrContextClosed = errors.New("termgrid: render context is closed")

	// ErrNilCanvas is returned when RenderFrame receives a nil canvas.
	ErrNilCanvas = errors.New("termgrid: canvas cannot be nil")

	// ErrNilDevice is returned when New receives a nil device.
	ErrNilDevice = errors.New("termgrid: device cannot be nil")
)

// ValidationError reports invalid caller-supplied frame input. The frame is
// aborted before any cache mutation when validation fails, but callers must
// not assume drawing is atomic: a frame that fails later in the pipeline may
// have partially painted.
type ValidationError struct {
	// Field names the offending parameter ("rows", "grid", "dirty_rect", ...).
	Field string

	// Row and Col locate the problem inside the grid when it is cell-shaped;
	// both are -1 for scalar parameters.
	Row, Col int

	// Reason describes what was wrong with the value.
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Row >= 0 || e.Col >= 0 {
		return fmt.Sprintf("termgrid: invalid %s at (%d, %d): %s", e.Field, e.Row, e.Col, e.Reason)
	}
	return fmt.Sprintf("termgrid: invalid %s: %s", e.Field, e.Reason)
}

// validationErr builds a ValidationError for a scalar parameter.
func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Row: -1, Col: -1, Reason: reason}
}

// cellErr builds a ValidationError located at a grid cell.
func cellErr(field string, row, col int, reason string) error {
	return &ValidationError{Field: field, Row: row, Col: col, Reason: reason}
}

// ResourceError reports a failed native resource construction (color, font,
// or attribute set). It is fatal for the current frame and is never retried.
type ResourceError struct {
	// Kind is the resource class: "color", "font", or "attribute set".
	Kind string

	// Err is the underlying device error.
	Err error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("termgrid: failed to create %s: %v", e.Kind, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
