// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"errors"
	"fmt"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Lesson operations
	OpLessonOpen    Op = "open lesson"
	OpSubtitlesLoad Op = "load subtitles"
	OpLessonStep    Op = "change lesson"

	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpRateChange    Op = "change playback speed"

	// Repeat loop
	OpLoopSetA Op = "set repeat start"
	OpLoopSetB Op = "set repeat end"

	// Subtitles
	OpCueSeek Op = "jump to subtitle"

	// Persistence
	OpPrefsLoad   Op = "load preferences"
	OpPrefsSave   Op = "save preferences"
	OpHistoryLoad Op = "load listening history"

	// Initialization
	OpInitialize Op = "initialize application"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %s", op, Describe(err))
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %s", op, context, Describe(err))
}

// Describe words err for a listener. Coded errors drop their technical cause,
// except load failures where the cause is the useful part.
func Describe(err error) string {
	var e *apperr.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	switch e.Code {
	case apperr.CodeLoadFailed:
		if cause := errors.Unwrap(e); cause != nil {
			return "audio unavailable (" + cause.Error() + ")"
		}
		return "audio unavailable"
	case apperr.CodeNotReady:
		return "audio is still loading"
	default:
		return e.Message
	}
}
