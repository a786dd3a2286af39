package shielding

import (
	"errors"
	"fmt"
)

// ErrorKind classifies calculation failures. Every kind is terminal for the
// current attempt; the user corrects the input and retries.
type ErrorKind int

const (
	MissingInput ErrorKind = iota + 1
	InvalidInput
	UnresolvedCoefficient
	NonPhysical
)

func (k ErrorKind) String() string {
	switch k {
	case MissingInput:
		return "missing_input"
	case InvalidInput:
		return "invalid_input"
	case UnresolvedCoefficient:
		return "unresolved_coefficient"
	case NonPhysical:
		return "non_physical"
	}
	return "unknown"
}

// Sentinels for errors.Is; a *CalcError matches the sentinel of its kind.
var (
	ErrMissingInput          = errors.New("missing input")
	ErrInvalidInput          = errors.New("invalid input")
	ErrUnresolvedCoefficient = errors.New("unresolved attenuation coefficient")
	ErrNonPhysical           = errors.New("non-physical result")
)

// CalcError is the single class of user-facing calculation error.
type CalcError struct {
	Kind    ErrorKind
	Field   string
	Message string
}

func (e *CalcError) Error() string {
	if e.Field == "" {
		return "calculation error: " + e.Message
	}
	return fmt.Sprintf("calculation error: %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrInvalidInput) and friends match by kind.
func (e *CalcError) Is(target error) bool {
	switch target {
	case ErrMissingInput:
		return e.Kind == MissingInput
	case ErrInvalidInput:
		return e.Kind == InvalidInput
	case ErrUnresolvedCoefficient:
		return e.Kind == UnresolvedCoefficient
	case ErrNonPhysical:
		return e.Kind == NonPhysical
	}
	return false
}

// NewError builds a CalcError; other packages use it to report resolver and
// parsing failures in the same class.
func NewError(kind ErrorKind, field, format string, args ...any) *CalcError {
	return &CalcError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of a calculation error, or 0 if err is not one.
func KindOf(err error) ErrorKind {
	var ce *CalcError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func missing(field string) error {
	return NewError(MissingInput, field, "required")
}

func invalid(field, value string) error {
	return NewError(InvalidInput, field, "invalid value %q", value)
}
