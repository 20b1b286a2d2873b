package relq

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors.
var (
	// ErrUnsupportedDialect is returned when a query is rendered for a backend
	// that has no placeholder or paging rules. It is a programming error.
	ErrUnsupportedDialect = errors.New("relq: unsupported dialect")

	// ErrInvalidConfig is returned for invalid builder or generator configuration.
	ErrInvalidConfig = errors.New("relq: invalid configuration")

	// ErrInvalidMerge is returned when a manifest is merged with introspection
	// output that describes a different table.
	ErrInvalidMerge = errors.New("relq: invalid manifest merge")
)

// ConfigError represents a configuration error found while rendering or
// generating code.
type ConfigError struct {
	Option  string // Option or input that was invalid
	Value   any    // Offending value (optional)
	Message string
	Cause   error
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	var b strings.Builder
	b.WriteString("relq: invalid ")
	b.WriteString(e.Option)
	if e.Value != nil {
		fmt.Fprintf(&b, " %q", fmt.Sprint(e.Value))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// NewConfigError returns a new ConfigError.
func NewConfigError(option string, value any, message string) *ConfigError {
	return &ConfigError{Option: option, Value: value, Message: message}
}

// UnsupportedDialectError returns a ConfigError wrapping ErrUnsupportedDialect
// for the given backend name.
func UnsupportedDialectError(backend string) *ConfigError {
	return &ConfigError{
		Option:  "dialect",
		Value:   backend,
		Message: "no placeholder or paging rules are defined",
		Cause:   ErrUnsupportedDialect,
	}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// MergeError is returned when a previous manifest and a fresh introspection
// result do not describe the same table.
type MergeError struct {
	Previous string // Identity of the persisted manifest
	Fresh    string // Identity of the introspected table
}

// Error returns the error string.
func (e *MergeError) Error() string {
	return fmt.Sprintf("relq: cannot merge table %q into manifest of %q", e.Fresh, e.Previous)
}

// Is reports whether the target matches ErrInvalidMerge.
func (e *MergeError) Is(target error) bool {
	return target == ErrInvalidMerge
}

// NewMergeError returns a new MergeError.
func NewMergeError(previous, fresh string) *MergeError {
	return &MergeError{Previous: previous, Fresh: fresh}
}

// IsMergeError returns true if the error is a MergeError.
func IsMergeError(err error) bool {
	if err == nil {
		return false
	}
	var e *MergeError
	return errors.As(err, &e) || errors.Is(err, ErrInvalidMerge)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "relq: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("relq: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
