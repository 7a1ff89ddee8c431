package lessonview

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/k12listen/internal/apperr"
	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/keymap"
	"github.com/llehouerou/k12listen/internal/playback"
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		m.help.Width = msg.Width
		m.resizeViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case PlayerEventMsg:
		m.refresh()
		return m, m.watchEvents()

	case PlayerErrorMsg:
		m.refresh()
		m.errText = formatEvent(m.lessonName(), msg.Event)
		return m, m.watchEvents()

	case PlayerClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case clearNoticeMsg:
		if msg.seq == m.noticeSeq {
			m.notice = ""
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	action := m.keys.Resolve(key)
	if action == "" {
		return m, nil
	}

	m.clearError()
	var cmd tea.Cmd

	switch action {
	case keymap.ActionQuit:
		m.quitting = true
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
		m.resizeViewport()

	case keymap.ActionPlayPause:
		m.player.Toggle()
	case keymap.ActionSeekBack:
		m.player.SeekBy(-seekStep)
	case keymap.ActionSeekForward:
		m.player.SeekBy(seekStep)
	case keymap.ActionSeekBackLong:
		m.player.SeekBy(-seekStepLong)
	case keymap.ActionSeekForwardLong:
		m.player.SeekBy(seekStepLong)
	case keymap.ActionRateDown:
		cmd = m.notify("Speed " + playback.FormatRate(m.player.StepRate(-1)))
	case keymap.ActionRateUp:
		cmd = m.notify("Speed " + playback.FormatRate(m.player.StepRate(1)))
	case keymap.ActionRateCycle:
		cmd = m.notify("Speed " + playback.FormatRate(m.player.CycleRate()))
	case keymap.ActionVolumeDown:
		m.player.AdjustVolume(-volumeStep)
	case keymap.ActionVolumeUp:
		m.player.AdjustVolume(volumeStep)
	case keymap.ActionMute:
		if m.player.ToggleMute() {
			cmd = m.notify("Muted")
		} else {
			cmd = m.notify("Sound on")
		}
	case keymap.ActionNextLesson:
		cmd = m.stepLesson(m.player.NextLesson(), "This is the last lesson")
	case keymap.ActionPrevLesson:
		cmd = m.stepLesson(m.player.PreviousLesson(), "This is the first lesson")

	case keymap.ActionLoopSetA:
		if err := m.player.SetPointA(); err != nil {
			m.fail(errmsg.OpLoopSetA, err)
		}
	case keymap.ActionLoopSetB:
		if err := m.player.SetPointB(); err != nil {
			m.fail(errmsg.OpLoopSetB, err)
		}
	case keymap.ActionLoopClear:
		m.player.ClearLoop()

	case keymap.ActionCursorUp:
		m.moveCursor(-1)
	case keymap.ActionCursorDown:
		m.moveCursor(1)
	case keymap.ActionPageUp:
		m.player.ScrollSubtitles(-max(m.snap.ViewHeight-1, 1))
	case keymap.ActionPageDown:
		m.player.ScrollSubtitles(max(m.snap.ViewHeight-1, 1))
	case keymap.ActionSeekToCue:
		if sel := m.selected(); sel >= 0 {
			if err := m.player.ClickCue(sel); err != nil {
				m.fail(errmsg.OpCueSeek, err)
			}
			m.cursor = -1
		}
	case keymap.ActionNextCue:
		if err := m.player.StepCue(1); err != nil {
			m.fail(errmsg.OpCueSeek, err)
		}
		m.cursor = -1
	case keymap.ActionPrevCue:
		if err := m.player.StepCue(-1); err != nil {
			m.fail(errmsg.OpCueSeek, err)
		}
		m.cursor = -1
	case keymap.ActionRecenter:
		m.cursor = -1
		m.player.Recenter()
	case keymap.ActionFontLarger:
		cmd = m.notify(fmt.Sprintf("Text size %d", m.player.FontLarger()))
		m.refresh()
		m.resizeViewport()
	case keymap.ActionFontSmaller:
		cmd = m.notify(fmt.Sprintf("Text size %d", m.player.FontSmaller()))
		m.refresh()
		m.resizeViewport()
	}

	m.refresh()
	return m, cmd
}

// stepLesson reports the outcome of a lesson change. Running off either end
// of the unit is a notice, not an error.
func (m *Model) stepLesson(err error, edge string) tea.Cmd {
	switch {
	case errors.Is(err, apperr.ErrEndOfUnit):
		return m.notify(edge)
	case err != nil:
		m.fail(errmsg.OpLessonStep, err)
		return nil
	}
	m.cursor = -1
	return nil
}

// moveCursor selects the neighboring cue and scrolls it into view.
func (m *Model) moveCursor(delta int) {
	n := m.snap.Track.Len()
	if n == 0 {
		return
	}
	top := m.snap.ViewOffset
	bottom := top + m.snap.ViewHeight

	// With nothing selected, start from the edge of the viewport.
	from := m.selected()
	if from < 0 {
		from = top - 1
		if delta < 0 {
			from = min(bottom, n)
		}
	}
	next := max(0, min(from+delta, n-1))
	m.cursor = next

	switch {
	case next < top:
		m.player.ScrollSubtitles(next - top)
	case next >= bottom:
		m.player.ScrollSubtitles(next - bottom + 1)
	}
}

func (m *Model) notify(text string) tea.Cmd {
	m.noticeSeq++
	m.notice = text
	return clearNoticeAfter(m.noticeSeq)
}

// resizeViewport fits the subtitle viewport to the cue panel.
func (m *Model) resizeViewport() {
	if m.Height() == 0 {
		return
	}
	m.player.SetViewportHeight(m.layout().rows(m.cuePanelHeight()))
	m.refresh()
}

func (m Model) lessonName() string {
	if l := m.snap.Lesson; l != nil {
		if l.Name != "" {
			return l.Name
		}
		return l.ID
	}
	return ""
}

func formatEvent(lesson string, e playback.ErrorEvent) string {
	op := errmsg.OpPlaybackStart
	switch e.Operation {
	case "load":
		return errmsg.FormatWith(errmsg.OpLessonOpen, lesson, e.Err)
	case "seek":
		op = errmsg.OpPlaybackSeek
	}
	return errmsg.Format(op, e.Err)
}
