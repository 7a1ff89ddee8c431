package errmsg

import (
	"errors"
	"testing"

	"github.com/llehouerou/k12listen/internal/apperr"
)

func TestFormat(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpLessonOpen,
			err:      nil,
			expected: "",
		},
		{
			name:     "formats plain error with operation",
			op:       OpLessonOpen,
			err:      errors.New("file not found"),
			expected: "Failed to open lesson: file not found",
		},
		{
			name:     "rate error keeps its message",
			op:       OpRateChange,
			err:      apperr.InvalidRatef("unsupported playback rate 3x"),
			expected: "Failed to change playback speed: unsupported playback rate 3x",
		},
		{
			name:     "loop order error",
			op:       OpLoopSetB,
			err:      apperr.LoopOrder("set point A first"),
			expected: "Failed to set repeat end: set point A first",
		},
		{
			name:     "not ready hides internals",
			op:       OpLoopSetA,
			err:      apperr.NotReady("cannot set loop point before the audio is loaded"),
			expected: "Failed to set repeat start: audio is still loading",
		},
		{
			name:     "load failure shows cause",
			op:       OpPlaybackStart,
			err:      apperr.Load(errors.New("unexpected status 404")),
			expected: "Failed to start playback: audio unavailable (unexpected status 404)",
		},
		{
			name:     "invalid lesson drops cause",
			op:       OpLessonOpen,
			err:      apperr.InvalidLesson("lesson validation failed", errors.New("id: is required")),
			expected: "Failed to open lesson: lesson validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Format(tt.op, tt.err)
			if result != tt.expected {
				t.Errorf("Format(%q, %v) = %q, want %q", tt.op, tt.err, result, tt.expected)
			}
		})
	}
}

func TestFormatWith(t *testing.T) {
	tests := []struct {
		name     string
		op       Op
		context  string
		err      error
		expected string
	}{
		{
			name:     "nil error returns empty string",
			op:       OpSubtitlesLoad,
			context:  "unit1.srt",
			err:      nil,
			expected: "",
		},
		{
			name:     "includes context",
			op:       OpSubtitlesLoad,
			context:  "unit1.srt",
			err:      errors.New("permission denied"),
			expected: "Failed to load subtitles 'unit1.srt': permission denied",
		},
		{
			name:     "empty context falls back to Format",
			op:       OpCueSeek,
			context:  "",
			err:      apperr.InvalidTrackf("no cue 9 in a track of 3"),
			expected: "Failed to jump to subtitle: no cue 9 in a track of 3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatWith(tt.op, tt.context, tt.err)
			if result != tt.expected {
				t.Errorf("FormatWith(%q, %q, %v) = %q, want %q", tt.op, tt.context, tt.err, result, tt.expected)
			}
		})
	}
}
