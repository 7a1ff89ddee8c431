package subtitle

import (
	"bytes"
	"encoding/json"
	"math"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// jsonCue is one entry of a lesson's subtitle_text, times in seconds.
type jsonCue struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	En    string  `json:"en"`
	Zh    string  `json:"zh"`
}

type jsonDocument struct {
	Subtitles []jsonCue `json:"subtitles"`
}

// ParseJSON decodes {"subtitles":[{"start":0,"end":2.5,"en":"...","zh":"..."}]}.
// A bare array of entries is accepted too. English is the primary line.
func ParseJSON(data []byte) (*Track, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return NewTrack(nil)
	}

	var entries []jsonCue
	if data[0] == '[' {
		if err := json.Unmarshal(data, &entries); err != nil {
			return nil, apperr.ErrInvalidTrack.WithCause(err)
		}
	} else {
		var doc jsonDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, apperr.ErrInvalidTrack.WithCause(err)
		}
		entries = doc.Subtitles
	}

	cues := make([]Cue, 0, len(entries))
	for i, e := range entries {
		if !validSeconds(e.Start) || !validSeconds(e.End) {
			return nil, apperr.InvalidTrackf("cue %d has an invalid time", i)
		}
		cues = append(cues, Cue{
			Start:     seconds(e.Start),
			End:       seconds(e.End),
			Primary:   e.En,
			Secondary: e.Zh,
		})
	}
	return NewTrack(cues)
}

func validSeconds(s float64) bool {
	return !math.IsNaN(s) && !math.IsInf(s, 0) && s < math.MaxInt64/float64(time.Second)
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}
