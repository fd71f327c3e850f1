package tracer

import (
	"errors"
	"fmt"
)

// ErrNotUpdated is returned by Render before the first successful Update.
var ErrNotUpdated = errors.New("tracer: Update has not been called")

// UnsupportedStratifierError reports a pixel sampler whose stratifier is not implemented.
type UnsupportedStratifierError struct {
	Stratifier Stratifier
}

func (e *UnsupportedStratifierError) Error() string {
	return fmt.Sprintf("tracer: unsupported pixel sampler stratifier %q", string(e.Stratifier))
}
