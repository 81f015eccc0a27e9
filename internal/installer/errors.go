package installer

import (
	"errors"
	"fmt"
)

// ErrInvalidPackage is returned when a manifest entry cannot be installed as written.
var ErrInvalidPackage = errors.New("invalid package")

// BinaryNotFoundError is returned when the build finished but the expected binary is absent.
type BinaryNotFoundError struct {
	Path string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("binary not found at: %s", e.Path)
}

func invalidPackage(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidPackage, fmt.Sprintf(format, a...))
}
