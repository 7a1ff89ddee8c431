package subtitle

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/k12listen/internal/apperr"
)

type seekRecorder struct {
	seeks []time.Duration
}

func (r *seekRecorder) Seek(pos time.Duration) { r.seeks = append(r.seeks, pos) }

// tenSecondCues builds n back-to-back cues of 10s each.
func tenSecondCues(t *testing.T, n int) *Track {
	t.Helper()
	cues := make([]Cue, n)
	for i := range cues {
		cues[i] = Cue{
			Start:   time.Duration(i) * 10 * time.Second,
			End:     time.Duration(i+1) * 10 * time.Second,
			Primary: fmt.Sprintf("line %d", i),
		}
	}
	return mustTrack(t, cues...)
}

func TestSynchronizer_UpdateOnlyOnChange(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 5)
	s.SetTrack(tenSecondCues(t, 3))

	assert.True(t, s.Update(sec(1)))
	assert.False(t, s.Update(sec(2)))
	assert.False(t, s.Update(sec(9.9)))
	assert.Equal(t, 0, s.Active())

	assert.True(t, s.Update(sec(10)))
	assert.Equal(t, 1, s.Active())

	assert.True(t, s.Update(sec(45)))
	assert.Equal(t, -1, s.Active())
}

func TestSynchronizer_AutoScrollOnlyWhenHidden(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 4)
	s.SetTrack(tenSecondCues(t, 20))

	s.Update(sec(25)) // cue 2, visible in rows 0..3
	off, _ := s.Viewport()
	assert.Equal(t, 0, off)

	s.Update(sec(45)) // cue 4, hidden: centered
	off, _ = s.Viewport()
	assert.Equal(t, 2, off)
	assert.True(t, s.Visible(4))

	s.Update(sec(55)) // cue 5, already visible in rows 2..5
	off, _ = s.Viewport()
	assert.Equal(t, 2, off)

	s.Update(sec(195)) // last cue: offset clamps at the end
	off, _ = s.Viewport()
	assert.Equal(t, 16, off)
}

func TestSynchronizer_ManualScrollSuspendsAutoScroll(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 4)
	s.SetTrack(tenSecondCues(t, 20))

	s.ScrollBy(3)
	assert.False(t, s.AutoScroll())
	off, _ := s.Viewport()
	assert.Equal(t, 3, off)

	s.Update(sec(150)) // cue 15 hidden, but the user is browsing
	off, _ = s.Viewport()
	assert.Equal(t, 3, off)

	s.Recenter()
	assert.True(t, s.AutoScroll())
	off, _ = s.Viewport()
	assert.Equal(t, 13, off)

	s.ScrollBy(-100)
	off, _ = s.Viewport()
	assert.Equal(t, 0, off)
	s.ScrollBy(100)
	off, _ = s.Viewport()
	assert.Equal(t, 16, off)
}

func TestSynchronizer_ClickCueSeeksToStart(t *testing.T) {
	rec := &seekRecorder{}
	s := NewSynchronizer(rec, 4)
	s.SetTrack(tenSecondCues(t, 20))
	s.ScrollBy(1)

	require.NoError(t, s.ClickCue(12))

	assert.Equal(t, []time.Duration{sec(120)}, rec.seeks)
	assert.Equal(t, 12, s.Active())
	assert.True(t, s.Visible(12))
	assert.True(t, s.AutoScroll())

	err := s.ClickCue(20)
	assert.ErrorIs(t, err, apperr.ErrInvalidTrack)
	assert.Len(t, rec.seeks, 1)
}

func TestSynchronizer_EmptyTrack(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 4)
	assert.Equal(t, NoSubtitles, s.Status())

	s.SetTrack(mustTrack(t))
	assert.Equal(t, NoSubtitles, s.Status())
	assert.False(t, s.Update(sec(3)))
	assert.Equal(t, -1, s.Active())
	assert.ErrorIs(t, s.ClickCue(0), apperr.ErrInvalidTrack)

	s.SetTrack(tenSecondCues(t, 1))
	assert.Empty(t, s.Status())
}

func TestSynchronizer_SetTrackResets(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 4)
	s.SetTrack(tenSecondCues(t, 20))
	s.Update(sec(150))
	s.ScrollBy(1)

	s.SetTrack(tenSecondCues(t, 2))

	assert.Equal(t, -1, s.Active())
	off, _ := s.Viewport()
	assert.Equal(t, 0, off)
	assert.True(t, s.AutoScroll())
}

func TestSynchronizer_SetHeight(t *testing.T) {
	s := NewSynchronizer(&seekRecorder{}, 10)
	s.SetTrack(tenSecondCues(t, 20))
	s.Update(sec(185)) // cue 18
	off, h := s.Viewport()
	assert.Equal(t, 10, h)
	assert.Equal(t, 10, off)

	s.SetHeight(2)
	off, _ = s.Viewport()
	assert.True(t, s.Visible(18), "offset %d", off)
}
