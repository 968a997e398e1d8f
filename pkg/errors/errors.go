// Package errors provides structured error kinds for the outline pipeline.
//
// Every pipeline stage reports failures as an *Error carrying a machine-readable
// Kind. The orchestrator tags the error with the Stage it came from, so a
// caller receives a single failure that names both what went wrong and where.
//
//	err := errors.New(errors.KindShape, "channels", "unsupported channel count %d", c)
//	if errors.Is(err, errors.KindShape) {
//	    // reject the input image
//	}
package errors

import (
	"errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	KindShape             Kind = "SHAPE_ERROR"
	KindUnsupportedMethod Kind = "UNSUPPORTED_METHOD"
	KindInvalidSize       Kind = "INVALID_SIZE"
	KindProcessing        Kind = "PROCESSING_ERROR"
	KindInvalidParameter  Kind = "INVALID_PARAMETER"
)

// Stage names the pipeline step that produced an error.
type Stage string

const (
	StageGrayscale  Stage = "grayscale"
	StageExposure   Stage = "exposure"
	StageThreshold  Stage = "threshold"
	StageBoundary   Stage = "boundary"
	StagePostFilter Stage = "postfilter"
	StageCompositor Stage = "compositor"
)

// Error is a structured pipeline error.
type Error struct {
	Kind    Kind   // Machine-readable category
	Stage   Stage  // Originating stage, set by the orchestrator
	Field   string // Offending input or configuration field (optional)
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	prefix := string(e.Kind)
	if e.Stage != "" {
		prefix = fmt.Sprintf("%s [%s]", e.Kind, e.Stage)
	}
	if e.Field != "" {
		prefix = fmt.Sprintf("%s %s", prefix, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind for field with a formatted message.
func New(kind Kind, field, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error of the given kind wrapping cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// WithStage tags err with stage. Structured errors keep their kind and field;
// any other error becomes a KindProcessing error wrapping it. A stage that is
// already set is left alone so the innermost stage wins.
func WithStage(err error, stage Stage) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Stage != "" {
			return err
		}
		tagged := *e
		tagged.Stage = stage
		return &tagged
	}
	return &Error{
		Kind:    KindProcessing,
		Stage:   stage,
		Message: "stage failed",
		Cause:   err,
	}
}

// Is reports whether err has the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the kind from err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// StageOf extracts the originating stage from err, or "" if unknown.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// UserMessage returns the message without the kind prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
