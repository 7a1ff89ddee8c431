package lessonview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/k12listen/internal/abloop"
	"github.com/llehouerou/k12listen/internal/icons"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/ui/render"
	"github.com/llehouerou/k12listen/internal/ui/styles"
)

const appTitle = "K12 Listen"

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.Width() == 0 {
		return "Loading..."
	}

	sty := styles.T().S()
	width := m.Width()

	bar, markers := renderProgress(m.snap, width)

	panelHeight := m.cuePanelHeight()
	lines := renderCues(m.snap, m.selected(), m.layout(), m.InnerWidth(), panelHeight)
	for len(lines) < panelHeight {
		lines = append(lines, "")
	}
	panel := sty.Panel.
		Padding(0, 1).
		Width(width - 2).
		Render(strings.Join(lines, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		render.Fit(m.titleRow(width), width),
		render.Fit(m.infoRow(width), width),
		bar,
		markers,
		panel,
		m.statusLine(width),
		m.helpView(),
	)
}

func (m Model) titleRow(width int) string {
	t := styles.T()
	left := t.Title(appTitle)
	if name := m.lessonName(); name != "" {
		avail := width - lipgloss.Width(left) - 2 - len(m.statusWord()) - 1
		left += "  " + t.S().Title.Render(render.Truncate(name, max(avail, 0)))
	}
	return render.Row(left, t.S().Muted.Render(m.statusWord()), width)
}

func (m Model) statusWord() string {
	return m.snap.Playback.Status().String()
}

// infoRow shows the lesson position in the unit, speed, volume, text size
// and the loop points.
func (m Model) infoRow(width int) string {
	sty := styles.T().S()
	st := m.snap.Playback

	volume := fmt.Sprintf("Volume %d%%", int(st.Volume*100+0.5))
	if m.snap.Muted {
		volume = "Muted"
	}
	parts := []string{
		"Speed " + playback.FormatRate(st.Rate),
		volume,
		fmt.Sprintf("Text %d", m.snap.FontSize),
	}
	if m.snap.LessonCount > 1 {
		parts = append([]string{fmt.Sprintf("Lesson %d/%d", m.snap.LessonIndex+1, m.snap.LessonCount)}, parts...)
	}
	info := sty.Muted.Render(strings.Join(parts, " · "))

	if loop := loopLabel(m.snap.Loop); loop != "" {
		info += sty.Muted.Render(" · ") + sty.Loop.Render(loop)
	}

	follow := "following"
	if !m.snap.AutoScroll {
		follow = "scrolled (r to follow)"
	}
	return render.Row(info, sty.Subtle.Render(follow), width)
}

func loopLabel(l abloop.Loop) string {
	switch l.Phase() {
	case abloop.Looping:
		return icons.WithLoop(fmt.Sprintf("Loop %s → %s", render.Clock(l.A), render.Clock(l.B)))
	case abloop.ArmedA:
		return icons.WithLoop(fmt.Sprintf("Loop %s → ?", render.Clock(l.A)))
	case abloop.Idle:
	}
	return ""
}

func (m Model) statusLine(width int) string {
	sty := styles.T().S()
	switch {
	case m.errText != "":
		return sty.Error.Render(render.Truncate(m.errText, width))
	case m.notice != "":
		return sty.Success.Render(render.Truncate(m.notice, width))
	case m.snap.Playback.Status() == playback.StatusLoading:
		return sty.Muted.Render("Loading audio...")
	case m.snap.Loop.Phase() == abloop.ArmedA:
		return sty.Warning.Render("Loop start set. Press b at the loop end.")
	}
	return ""
}

func (m Model) helpView() string {
	if m.showHelp {
		return m.help.FullHelpView(m.keys.FullHelp())
	}
	return m.help.ShortHelpView(m.keys.ShortHelp())
}
