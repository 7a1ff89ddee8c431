package subtitle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/k12listen/internal/apperr"
)

func sec(n float64) time.Duration { return time.Duration(n * float64(time.Second)) }

func mustTrack(t *testing.T, cues ...Cue) *Track {
	t.Helper()
	tr, err := NewTrack(cues)
	require.NoError(t, err)
	return tr
}

func TestTrack_FindActive(t *testing.T) {
	tr := mustTrack(t,
		Cue{Start: sec(0), End: sec(5), Primary: "a"},
		Cue{Start: sec(5), End: sec(10), Primary: "b"},
		Cue{Start: sec(12), End: sec(15), Primary: "c"},
	)

	tests := []struct {
		name string
		pos  time.Duration
		want string
	}{
		{"inside first", sec(3), "a"},
		{"boundary belongs to next", sec(5), "b"},
		{"just before boundary", sec(5) - time.Nanosecond, "a"},
		{"gap", sec(11), ""},
		{"end is exclusive", sec(15), ""},
		{"past end", sec(20), ""},
		{"start", 0, "a"},
		{"negative", -time.Second, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i := tr.FindActive(tt.pos)
			if tt.want == "" {
				assert.Equal(t, -1, i)
				return
			}
			require.GreaterOrEqual(t, i, 0)
			assert.Equal(t, tt.want, tr.Cue(i).Primary)
		})
	}
}

func TestTrack_EmptyAndNil(t *testing.T) {
	var nilTrack *Track
	assert.Equal(t, -1, nilTrack.FindActive(sec(1)))
	assert.True(t, nilTrack.Empty())
	assert.Nil(t, nilTrack.Cues())

	empty := mustTrack(t)
	assert.Equal(t, -1, empty.FindActive(0))
	assert.Zero(t, empty.Duration())
}

func TestNewTrack_SortsAndClipsOverlaps(t *testing.T) {
	tr := mustTrack(t,
		Cue{Start: sec(5), End: sec(12), Primary: "b"},
		Cue{Start: sec(0), End: sec(6), Primary: "a"},
		Cue{Start: sec(10), End: sec(15), Primary: "c"},
	)

	cues := tr.Cues()
	require.Len(t, cues, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{cues[0].Primary, cues[1].Primary, cues[2].Primary})
	assert.Equal(t, sec(5), cues[0].End)
	assert.Equal(t, sec(10), cues[1].End)
	assert.Equal(t, sec(15), cues[2].End)
	assert.Equal(t, sec(15), tr.Duration())
}

func TestNewTrack_DropsCueEmptiedByClipping(t *testing.T) {
	tr := mustTrack(t,
		Cue{Start: sec(1), End: sec(3), Primary: "first"},
		Cue{Start: sec(1), End: sec(4), Primary: "second"},
	)
	require.Equal(t, 1, tr.Len())
	assert.Equal(t, "second", tr.Cue(0).Primary)
}

func TestNewTrack_RejectsInvalidCues(t *testing.T) {
	_, err := NewTrack([]Cue{{Start: sec(2), End: sec(2)}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTrack)

	_, err = NewTrack([]Cue{{Start: sec(3), End: sec(1)}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTrack)

	_, err = NewTrack([]Cue{{Start: -sec(1), End: sec(1)}})
	assert.ErrorIs(t, err, apperr.ErrInvalidTrack)
}

func TestNewTrack_DoesNotAliasInput(t *testing.T) {
	in := []Cue{{Start: 0, End: sec(1), Primary: "x"}}
	tr := mustTrack(t, in...)
	in[0].Primary = "changed"
	assert.Equal(t, "x", tr.Cue(0).Primary)
}

func TestTrack_NextAfter(t *testing.T) {
	tr := mustTrack(t,
		Cue{Start: sec(0), End: sec(5), Primary: "a"},
		Cue{Start: sec(5), End: sec(10), Primary: "b"},
		Cue{Start: sec(12), End: sec(15), Primary: "c"},
	)

	assert.Equal(t, 1, tr.NextAfter(sec(0)))
	assert.Equal(t, 2, tr.NextAfter(sec(11)))
	assert.Equal(t, 3, tr.NextAfter(sec(12)))
	assert.Equal(t, 0, (*Track)(nil).NextAfter(sec(3)))
}
