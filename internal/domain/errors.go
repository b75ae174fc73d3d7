package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned for target names that were never registered.
// Handlers map it to 404; an empty history is not the same thing.
var ErrNotFound = errors.New("target not found")

// ConfigError is a fatal startup problem with the loaded configuration:
// duplicate target names, malformed URLs, missing or out-of-range fields.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

// NewConfigError builds a ConfigError for the given field.
func NewConfigError(field, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
