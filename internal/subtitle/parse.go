package subtitle

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Parse picks a parser from the file extension, or from the content when the
// extension is unknown. end closes the last cue of formats without end times.
func Parse(name string, data []byte, end time.Duration) (*Track, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return ParseJSON(data)
	case ".lrc":
		return ParseLRC(bytes.NewReader(data), end)
	case ".srt":
		return ParseSRT(bytes.NewReader(data))
	}

	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0:
		return NewTrack(nil)
	case json.Valid(trimmed):
		return ParseJSON(trimmed)
	case trimmed[0] == '[':
		return ParseLRC(bytes.NewReader(trimmed), end)
	case bytes.Contains(trimmed, []byte("-->")):
		return ParseSRT(bytes.NewReader(trimmed))
	}
	return nil, apperr.InvalidTrackf("unrecognized subtitle format for %q", name)
}
