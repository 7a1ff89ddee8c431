// Package subtitle models timed subtitle cues and keeps a scrolling view of them in
// step with playback.
package subtitle

import (
	"cmp"
	"slices"
	"sort"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Cue is one subtitle line, active over the half-open interval [Start, End).
type Cue struct {
	Start     time.Duration
	End       time.Duration
	Primary   string
	Secondary string // translation, optional
}

// Contains reports whether pos falls inside the cue.
func (c Cue) Contains(pos time.Duration) bool {
	return pos >= c.Start && pos < c.End
}

// Track is an immutable list of cues sorted by Start with no overlaps.
type Track struct {
	cues []Cue
}

// NewTrack validates and normalizes cues. Cues are sorted by Start; a cue that runs
// into the next one is cut at the next Start, and a cue left empty by the cut is
// dropped. Negative starts or End <= Start fail with INVALID_TRACK.
func NewTrack(cues []Cue) (*Track, error) {
	for i, c := range cues {
		if c.Start < 0 {
			return nil, apperr.InvalidTrackf("cue %d starts before zero (%v)", i, c.Start)
		}
		if c.End <= c.Start {
			return nil, apperr.InvalidTrackf("cue %d ends at %v, not after its start %v", i, c.End, c.Start)
		}
	}

	sorted := slices.Clone(cues)
	slices.SortStableFunc(sorted, func(a, b Cue) int {
		return cmp.Compare(a.Start, b.Start)
	})

	out := make([]Cue, 0, len(sorted))
	for i, c := range sorted {
		if i+1 < len(sorted) && c.End > sorted[i+1].Start {
			c.End = sorted[i+1].Start
		}
		if c.End > c.Start {
			out = append(out, c)
		}
	}
	return &Track{cues: out}, nil
}

// Len returns the number of cues. A nil Track has none.
func (t *Track) Len() int {
	if t == nil {
		return 0
	}
	return len(t.cues)
}

// Empty reports whether the track has no cues.
func (t *Track) Empty() bool {
	return t.Len() == 0
}

// Cue returns the cue at i.
func (t *Track) Cue(i int) Cue {
	return t.cues[i]
}

// Cues returns a copy of all cues.
func (t *Track) Cues() []Cue {
	if t == nil {
		return nil
	}
	return slices.Clone(t.cues)
}

// FindActive returns the index of the cue containing pos, or -1 when pos falls
// before the first cue, in a gap, or past the last one.
func (t *Track) FindActive(pos time.Duration) int {
	if t.Empty() {
		return -1
	}
	// Last cue starting at or before pos.
	i := sort.Search(len(t.cues), func(i int) bool {
		return t.cues[i].Start > pos
	}) - 1
	if i >= 0 && t.cues[i].Contains(pos) {
		return i
	}
	return -1
}

// NextAfter returns the index of the first cue starting after pos, or Len()
// when there is none.
func (t *Track) NextAfter(pos time.Duration) int {
	if t.Empty() {
		return 0
	}
	return sort.Search(len(t.cues), func(i int) bool {
		return t.cues[i].Start > pos
	})
}

// Duration returns the end of the last cue.
func (t *Track) Duration() time.Duration {
	if t.Empty() {
		return 0
	}
	return t.cues[len(t.cues)-1].End
}
