package rhythm

import (
	"errors"
	"fmt"
)

// ConfigurationError is returned when a setting is rejected. The previous value is always kept.
type ConfigurationError struct {
	Field string

	// Value is the rejected value, or nil when the field has no single value to show (a name, a section list)
	Value  interface{}
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// IsConfigurationError reports whether err is, or wraps, a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

func newConfigurationError(field string, value int, reason string) error {
	return &ConfigurationError{Field: field, Value: value, Reason: reason}
}
