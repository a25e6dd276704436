package core

import (
	"errors"
	"fmt"
)

// ErrNoData is returned by read operations before the first successful load.
var ErrNoData = errors.New("no data loaded yet")

// ConfigurationError reports invalid step or record input.
// It is fatal to a build attempt; the previous graph stays authoritative.
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

// DataUnavailableError reports that the upstream load failed or has not completed.
type DataUnavailableError struct {
	Object string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("data unavailable: %v", e.Err)
	}
	return fmt.Sprintf("data unavailable for %s: %v", e.Object, e.Err)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// SelectionMiscomputedWarning describes a selection parameter that resolved
// to nothing. It is never returned as an error; the selection falls back to
// "no restriction" and the warning is only logged.
type SelectionMiscomputedWarning struct {
	Reason string
}

func (w *SelectionMiscomputedWarning) Error() string {
	return "selection resolved to nothing: " + w.Reason
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsDataUnavailable reports whether err is or wraps a DataUnavailableError.
func IsDataUnavailable(err error) bool {
	var de *DataUnavailableError
	return errors.As(err, &de)
}
