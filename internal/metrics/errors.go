package metrics

import (
	"errors"
	"fmt"
)

// ErrUnsupported reports that a runtime cannot observe a category.
var ErrUnsupported = errors.New("category not supported")

// UnsupportedError returns an error wrapping ErrUnsupported for c.
func UnsupportedError(c Category) error {
	return fmt.Errorf("observe %s: %w", c, ErrUnsupported)
}
