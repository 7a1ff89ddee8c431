package lessonview

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/k12listen/internal/subtitle"
	"github.com/llehouerou/k12listen/internal/ui"
	"github.com/llehouerou/k12listen/internal/ui/render"
)

// Terminals have one glyph size, so the subtitle font size is rendered as
// text column width and line budget: larger sizes get a narrower column,
// more wrapped lines, bold text and, at the top size, a blank line between cues.
const (
	boldFontSize   = 20
	spacerFontSize = 24
	minTextWidth   = 8
)

type cueLayout struct {
	textWidth    int
	primaryLines int
	translation  bool
	bold         bool
	spacer       bool
}

// layoutFor sizes cue text for a column avail cells wide. translated
// reserves a line for the secondary text.
func layoutFor(fontSize, avail int, translated bool) cueLayout {
	if fontSize <= 0 {
		fontSize = subtitle.DefaultFontSize
	}
	avail = max(avail, minTextWidth)
	width := avail * subtitle.DefaultFontSize / fontSize

	l := cueLayout{
		textWidth:    max(minTextWidth, min(width, avail)),
		primaryLines: 2,
		translation:  translated,
		bold:         fontSize >= boldFontSize,
		spacer:       fontSize >= spacerFontSize,
	}
	if l.bold {
		l.primaryLines = 3
	}
	return l
}

// linesPerCue is the most lines one cue can take.
func (l cueLayout) linesPerCue() int {
	n := l.primaryLines
	if l.translation {
		n++
	}
	if l.spacer {
		n++
	}
	return n
}

// rows returns how many cues fit in height lines.
func (l cueLayout) rows(height int) int {
	return max(ui.MinCueRows, height/l.linesPerCue())
}

func hasTranslation(t *subtitle.Track) bool {
	for i := range t.Len() {
		if t.Cue(i).Secondary != "" {
			return true
		}
	}
	return false
}

// clockWidth fits the start time of every cue in t.
func clockWidth(t *subtitle.Track) int {
	return max(len(render.Clock(t.Duration())), 4)
}

// prefixWidth is the marker column, the start time and a space on each side.
func prefixWidth(t *subtitle.Track) int {
	return markerWidth + 1 + clockWidth(t) + 1
}

func (m Model) layout() cueLayout {
	avail := m.InnerWidth() - prefixWidth(m.snap.Track)
	return layoutFor(m.snap.FontSize, avail, hasTranslation(m.snap.Track))
}

// cuePanelHeight is the number of lines inside the subtitle panel border.
func (m Model) cuePanelHeight() int {
	used := ui.HeaderHeight + ui.ProgressHeight + ui.StatusHeight + ui.BorderHeight + m.helpHeight()
	return max(m.Height()-used, ui.MinCueRows)
}

func (m Model) helpHeight() int {
	return lipgloss.Height(m.helpView())
}
