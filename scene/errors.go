package scene

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorKind is the conversion error taxonomy. Every error crossing the
// orchestrator boundary is classified into one of these.
type ErrorKind int

const (
	ErrUnknown ErrorKind = iota
	// ErrMalformedHierarchy: cycle in the raw tree or unparseable node kind.
	// Fatal, aborts the whole conversion.
	ErrMalformedHierarchy
	// ErrUnsupportedAnimation: animation category requested for a format
	// that cannot represent it. Recoverable per shape via fallback or skip.
	ErrUnsupportedAnimation
	// ErrAmbiguousDiscovery: depth bound reached without resolution, or
	// several shapes found at the same depth. Recoverable, first shape wins.
	ErrAmbiguousDiscovery
)

func (k ErrorKind) String() string {
	switch k {
	case ErrMalformedHierarchy:
		return "MalformedHierarchy"
	case ErrUnsupportedAnimation:
		return "UnsupportedAnimationForFormat"
	case ErrAmbiguousDiscovery:
		return "AmbiguousShapeDiscovery"
	default:
		return "Unknown"
	}
}

type ConversionError struct {
	Kind ErrorKind
	err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.err)
}

func (e *ConversionError) Cause() error  { return e.err }
func (e *ConversionError) Unwrap() error { return e.err }

func MalformedHierarchyf(format string, args ...interface{}) error {
	return &ConversionError{Kind: ErrMalformedHierarchy, err: errors.Errorf(format, args...)}
}

func UnsupportedAnimationf(format string, args ...interface{}) error {
	return &ConversionError{Kind: ErrUnsupportedAnimation, err: errors.Errorf(format, args...)}
}

func AmbiguousDiscoveryf(format string, args ...interface{}) error {
	return &ConversionError{Kind: ErrAmbiguousDiscovery, err: errors.Errorf(format, args...)}
}

// WrapKind attaches a taxonomy kind to an arbitrary error.
func WrapKind(err error, kind ErrorKind, msg string) error {
	if err == nil {
		return nil
	}
	return &ConversionError{Kind: kind, err: errors.Wrap(err, msg)}
}

// KindOf classifies an error chain, ErrUnknown when no classified error is
// found.
func KindOf(err error) ErrorKind {
	for err != nil {
		if ce, ok := err.(*ConversionError); ok {
			return ce.Kind
		}
		cause, ok := err.(interface{ Cause() error })
		if !ok {
			return ErrUnknown
		}
		err = cause.Cause()
	}
	return ErrUnknown
}
