// Package ecoerr defines the structured error taxonomy shared by the flow
// engine packages. Every error produced by the engine carries a Kind so
// callers can distinguish structural failures (missing data, dimension
// mismatch, bad parameters) from validation failures and caller errors
// (unsupported model) without string matching.
package ecoerr

import (
	"errors"

	"github.com/rotisserie/eris"
)

// Kind classifies an engine error.
type Kind string

const (
	KindMissingData       Kind = "missing_data"
	KindDimensionMismatch Kind = "dimension_mismatch"
	KindInvalidParameter  Kind = "invalid_parameter"
	KindValidation        Kind = "validation"
	KindUnsupportedModel  Kind = "unsupported_model"
)

// KindedError wraps an error with its Kind.
type KindedError struct {
	Kind Kind
	Err  error
}

func (e *KindedError) Error() string {
	return e.Err.Error()
}

func (e *KindedError) Unwrap() error {
	return e.Err
}

// New creates a kinded error with a fresh eris root.
func New(kind Kind, msg string) error {
	return &KindedError{Kind: kind, Err: eris.New(msg)}
}

// Errorf creates a kinded error with a formatted message.
func Errorf(kind Kind, format string, args ...any) error {
	return &KindedError{Kind: kind, Err: eris.Errorf(format, args...)}
}

// Wrap annotates err with a message and a Kind. Returns nil if err is nil.
func Wrap(err error, kind Kind, msg string) error {
	if err == nil {
		return nil
	}
	return &KindedError{Kind: kind, Err: eris.Wrap(err, msg)}
}

// KindOf returns the Kind of the first KindedError in the chain, or "" when
// the error carries no kind.
func KindOf(err error) Kind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ""
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
