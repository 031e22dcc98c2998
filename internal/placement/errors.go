package placement

import (
	"errors"
	"fmt"
)

// Record-level decode failures. Each is returned wrapped, so callers should
// match with errors.Is.
var (
	ErrInvalidTimestamp      = errors.New("invalid timestamp")
	ErrInvalidCoordinate     = errors.New("invalid coordinate")
	ErrInvalidColorIndex     = errors.New("invalid color index")
	ErrInvalidCoordinateList = errors.New("invalid coordinate list")
)

// FieldError reports which source field failed to decode and why.
type FieldError struct {
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q value %q: %v", e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }
