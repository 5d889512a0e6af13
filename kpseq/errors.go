package kpseq

import (
	"errors"
	"fmt"
)

// Common error types shared across packages
var (
	ErrConfiguration  = errors.New("configuration error")
	ErrEmptyCorpus    = errors.New("corpus is empty")
	ErrUnknownProfile = errors.New("unknown dataset profile")
	ErrMissingSplit   = errors.New("required split is missing")
	ErrShapeMismatch  = errors.New("shape mismatch")
)

// ConfigurationError reports an invalid setting detected before any processing starts.
// It matches ErrConfiguration with errors.Is, plus the wrapped cause if any.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, reason string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(reason, args...)}
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Wrap attaches a sentinel cause so callers can test for it with errors.Is.
func (e *ConfigurationError) Wrap(err error) *ConfigurationError {
	e.Err = err
	return e
}

// IsConfigurationError reports whether err is fatal configuration state.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
