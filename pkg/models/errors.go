package models

import (
	"errors"
	"fmt"
)

// ErrConfiguration is matched by every ConfigurationError
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError reports a search space, budget or oracle setup that cannot be used.
// It is raised at construction time, before any trial runs.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "invalid configuration: " + e.Reason
	}
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) true for any ConfigurationError
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// ConfigErrorf builds a ConfigurationError for field with a formatted reason
func ConfigErrorf(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
