package lessonview

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/k12listen/internal/icons"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/ui"
	"github.com/llehouerou/k12listen/internal/ui/render"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

const (
	filledCell = "━"
	emptyCell  = "─"
)

// renderProgress renders the position bar and, under it, the loop marker row.
// Format:
//
//	▶  1:23  ━━━━━━━━━───────────  4:56
//	                A     B
//
// Cells inside an armed loop are drawn in the loop color.
func renderProgress(s lessonplayer.Snapshot, width int) (bar, markers string) {
	st := s.Playback
	status := statusSymbol(st.Status())
	pos := render.Clock(st.Position)
	dur := render.Clock(st.Duration)

	left := status + "  " + pos + "  "
	right := "  " + dur
	barWidth := width - lipgloss.Width(left) - lipgloss.Width(right)
	if barWidth < ui.MinProgressBarWidth {
		// Too narrow for a bar, just show times
		return status + "  " + pos + " / " + dur, ""
	}

	filled := min(int(float64(barWidth)*st.Progress()), barWidth)
	loopFrom, loopTo := cellRange(s.LoopStart, s.LoopWidth, barWidth, s.LoopVisible)

	sty := styles.T().S()
	var b strings.Builder
	for i := range barWidth {
		cell := emptyCell
		style := sty.Empty
		if i < filled {
			cell = filledCell
			style = sty.Filled
		}
		if i >= loopFrom && i < loopTo {
			style = sty.Loop
		}
		b.WriteString(style.Render(cell))
	}

	return left + b.String() + right, loopMarkers(s, lipgloss.Width(left), barWidth)
}

// cellRange maps a band given as fractions of the duration onto bar cells.
// A visible band always covers at least one cell.
func cellRange(start, width float64, cells int, visible bool) (from, to int) {
	if !visible || cells == 0 {
		return 0, 0
	}
	from = min(int(start*float64(cells)), cells-1)
	to = max(int((start+width)*float64(cells)+0.5), from+1)
	return from, min(to, cells)
}

// loopMarkers places A and B under their bar cells.
func loopMarkers(s lessonplayer.Snapshot, offset, cells int) string {
	loop := s.Loop
	dur := s.Playback.Duration
	if !loop.HasA || dur <= 0 {
		return ""
	}

	row := []rune(strings.Repeat(" ", offset+cells))
	at := func(frac float64) int {
		return offset + max(0, min(int(frac*float64(cells)), cells-1))
	}
	row[at(float64(loop.A)/float64(dur))] = 'A'
	if loop.HasB {
		row[at(float64(loop.B)/float64(dur))] = 'B'
	}
	return styles.T().S().Loop.Render(strings.TrimRight(string(row), " "))
}

func statusSymbol(s playback.Status) string {
	ic := icons.Current()
	switch s {
	case playback.StatusPlaying:
		return ic.Playing
	case playback.StatusPaused:
		return ic.Paused
	case playback.StatusLoading:
		return ic.Loading
	case playback.StatusEnded:
		return ic.Ended
	case playback.StatusFailed:
		return ic.Failed
	case playback.StatusIdle:
	}
	return ic.Idle
}
