// Package apperr provides coded domain errors for the lesson player.
//
// Usage:
//
//	if !slices.Contains(rates, r) {
//	    return apperr.InvalidRatef("unsupported rate %v", r)
//	}
//
//	if errors.Is(err, apperr.ErrInvalidRate) {
//	    ...
//	}
package apperr

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	CodeLoadFailed    Code = "LOAD_FAILED"
	CodeInvalidRate   Code = "INVALID_RATE"
	CodeInvalidSeek   Code = "INVALID_SEEK"
	CodeLoopOrder     Code = "LOOP_ORDER"
	CodeNotReady      Code = "NOT_READY"
	CodeInvalidLesson Code = "INVALID_LESSON"
	CodeInvalidTrack  Code = "INVALID_TRACK"
	CodeEndOfUnit     Code = "END_OF_UNIT"
)

// Error is a domain error with a code and message.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithCause returns a copy of e wrapping err.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, cause: err}
}

// Sentinels for errors.Is.
var (
	ErrLoadFailed    = &Error{Code: CodeLoadFailed, Message: "failed to load audio"}
	ErrInvalidRate   = &Error{Code: CodeInvalidRate, Message: "invalid playback rate"}
	ErrInvalidSeek   = &Error{Code: CodeInvalidSeek, Message: "invalid seek target"}
	ErrLoopOrder     = &Error{Code: CodeLoopOrder, Message: "loop point B must come after point A"}
	ErrNotReady      = &Error{Code: CodeNotReady, Message: "media not ready"}
	ErrInvalidLesson = &Error{Code: CodeInvalidLesson, Message: "invalid lesson"}
	ErrInvalidTrack  = &Error{Code: CodeInvalidTrack, Message: "invalid subtitle track"}
	ErrEndOfUnit     = &Error{Code: CodeEndOfUnit, Message: "no further lesson in the unit"}
)

// Load wraps a transport failure as a LOAD_FAILED error.
func Load(err error) *Error {
	return ErrLoadFailed.WithCause(err)
}

// InvalidRatef creates an INVALID_RATE error.
func InvalidRatef(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidRate, Message: fmt.Sprintf(format, args...)}
}

// LoopOrder creates a LOOP_ORDER error.
func LoopOrder(msg string) *Error {
	return &Error{Code: CodeLoopOrder, Message: msg}
}

// NotReady creates a NOT_READY error.
func NotReady(msg string) *Error {
	return &Error{Code: CodeNotReady, Message: msg}
}

// InvalidLesson creates an INVALID_LESSON error wrapping cause (may be nil).
func InvalidLesson(msg string, cause error) *Error {
	return &Error{Code: CodeInvalidLesson, Message: msg, cause: cause}
}

// InvalidTrackf creates an INVALID_TRACK error.
func InvalidTrackf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTrack, Message: fmt.Sprintf(format, args...)}
}

// EndOfUnitf creates an END_OF_UNIT error.
func EndOfUnitf(format string, args ...any) *Error {
	return &Error{Code: CodeEndOfUnit, Message: fmt.Sprintf(format, args...)}
}

// CodeOf returns the code of err, or "" if err is not an *Error.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
