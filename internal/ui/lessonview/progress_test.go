package lessonview

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/llehouerou/k12listen/internal/abloop"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/ui/testutil"
)

func TestCellRange(t *testing.T) {
	tests := []struct {
		name             string
		start, width     float64
		cells            int
		visible          bool
		wantFrom, wantTo int
	}{
		{"hidden", 0.1, 0.2, 100, false, 0, 0},
		{"band", 0.1, 0.2, 100, true, 10, 30},
		{"narrow band keeps one cell", 0.5, 0.001, 20, true, 10, 11},
		{"band at the end", 0.95, 0.05, 20, true, 19, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to := cellRange(tt.start, tt.width, tt.cells, tt.visible)
			assert.Equal(t, tt.wantFrom, from)
			assert.Equal(t, tt.wantTo, to)
		})
	}
}

func TestRenderProgress(t *testing.T) {
	snap := lessonplayer.Snapshot{
		Playback: playback.State{
			URL:      "a.mp3",
			Playing:  true,
			Position: 30 * time.Second,
			Duration: 2 * time.Minute,
		},
	}

	bar, markers := renderProgress(snap, 60)
	plain := testutil.StripANSI(bar)
	assert.True(t, strings.HasPrefix(plain, "▶  0:30  "), plain)
	assert.True(t, strings.HasSuffix(plain, "  2:00"), plain)
	assert.Equal(t, 60, testutil.MeasureWidth(bar))
	assert.Empty(t, markers)

	// 45 bar cells between "▶  0:30  " and "  2:00", a quarter of them played
	assert.Equal(t, 11, strings.Count(plain, filledCell))
}

func TestRenderProgress_TooNarrow(t *testing.T) {
	snap := lessonplayer.Snapshot{
		Playback: playback.State{URL: "a.mp3", Position: 5 * time.Second, Duration: time.Minute},
	}
	bar, markers := renderProgress(snap, 12)
	assert.Equal(t, "⏸  0:05 / 1:00", testutil.StripANSI(bar))
	assert.Empty(t, markers)
}

func TestRenderProgress_LoopMarkers(t *testing.T) {
	snap := lessonplayer.Snapshot{
		Playback: playback.State{URL: "a.mp3", Playing: true, Duration: 100 * time.Second},
		Loop: abloop.Loop{
			A: 10 * time.Second, B: 60 * time.Second,
			HasA: true, HasB: true, Enabled: true,
		},
		LoopStart:   0.1,
		LoopWidth:   0.5,
		LoopVisible: true,
	}

	bar, markers := renderProgress(snap, 60)
	plainBar := []rune(testutil.StripANSI(bar))
	plainMarkers := []rune(testutil.StripANSI(markers))

	offset := len([]rune("▶  0:00  "))
	cells := 60 - offset - len("  1:40")
	aCol := offset + cells/10
	bCol := offset + cells*6/10

	assert.Equal(t, 'A', plainMarkers[aCol])
	assert.Equal(t, 'B', plainMarkers[bCol])
	assert.Len(t, plainMarkers, bCol+1)
	assert.Equal(t, len(plainBar), 60)
}

func TestRenderProgress_OnlyPointA(t *testing.T) {
	snap := lessonplayer.Snapshot{
		Playback: playback.State{URL: "a.mp3", Duration: 100 * time.Second},
		Loop:     abloop.Loop{A: 50 * time.Second, HasA: true},
	}

	_, markers := renderProgress(snap, 60)
	plain := testutil.StripANSI(markers)
	assert.Equal(t, 1, strings.Count(plain, "A"))
	assert.NotContains(t, plain, "B")
}

func TestLayoutFor(t *testing.T) {
	def := layoutFor(16, 60, false)
	assert.Equal(t, 60, def.textWidth)
	assert.Equal(t, 2, def.linesPerCue())
	assert.False(t, def.bold)

	small := layoutFor(14, 60, true)
	assert.Equal(t, 60, small.textWidth, "smaller text never exceeds the column")
	assert.Equal(t, 3, small.linesPerCue())

	large := layoutFor(24, 60, true)
	assert.Equal(t, 40, large.textWidth)
	assert.True(t, large.bold)
	assert.True(t, large.spacer)
	assert.Equal(t, 5, large.linesPerCue())
	assert.Equal(t, 3, large.rows(16))
	assert.Equal(t, 1, large.rows(2), "at least one cue row")
}
