package rel

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes compilation errors.
type ErrorKind string

const (
	// KindType marks a wrong element kind or shape fed to an operation:
	// non-numeric input to a numeric aggregate, a multi-column relation
	// where one column is required, an edge relation missing src or dst.
	KindType ErrorKind = "TypeError"

	// KindValue marks an invalid parameter value: a non-positive sample
	// size, a negative bias, a sample larger than its table.
	KindValue ErrorKind = "ValueError"

	// KindConfiguration marks an unusable target configuration, above
	// all an unrecognized dialect identifier. Fatal at startup.
	KindConfiguration ErrorKind = "ConfigurationError"
)

// Error is a structured compilation error.
//
// Every operation validates its inputs eagerly and returns an Error
// before assembling any SQL, so a rejected call never leaves partial
// fragments behind. Cardinality violations are not represented here;
// those belong to the executor at evaluation time.
type Error struct {
	// Kind identifies the error category.
	Kind ErrorKind

	// Message is a human-readable description naming the violated
	// constraint.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewTypeError creates a TypeError with a formatted message.
func NewTypeError(format string, args ...any) *Error {
	return &Error{Kind: KindType, Message: fmt.Sprintf(format, args...)}
}

// NewValueError creates a ValueError with a formatted message.
func NewValueError(format string, args ...any) *Error {
	return &Error{Kind: KindValue, Message: fmt.Sprintf(format, args...)}
}

// NewConfigError creates a ConfigurationError with a formatted message.
func NewConfigError(format string, args ...any) *Error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// IsTypeError reports whether err is a TypeError.
// Uses errors.As to handle wrapped errors.
func IsTypeError(err error) bool {
	return isKind(err, KindType)
}

// IsValueError reports whether err is a ValueError.
// Uses errors.As to handle wrapped errors.
func IsValueError(err error) bool {
	return isKind(err, KindValue)
}

// IsConfigError reports whether err is a ConfigurationError.
// Uses errors.As to handle wrapped errors.
func IsConfigError(err error) bool {
	return isKind(err, KindConfiguration)
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
