package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks input errors that the handler layer reports as 400
// without touching storage.
var ErrValidation = errors.New("validation failed")

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
