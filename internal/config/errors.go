package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfigNotFound is returned when no manifest exists at the resolved path.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrEmptyConfig is returned when the manifest parses but declares no packages.
	ErrEmptyConfig = errors.New("no packages found in configuration file")
)

// ParseError reports a malformed manifest along with the parser's message.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("error parsing configuration %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PackageNotFoundError is returned by Lookup for a name missing from the manifest.
// Available holds every known package name, sorted.
type PackageNotFoundError struct {
	Name      string
	Available []string
}

func (e *PackageNotFoundError) Error() string {
	return fmt.Sprintf("package '%s' not found in configuration (available: %s)",
		e.Name, strings.Join(e.Available, ", "))
}
