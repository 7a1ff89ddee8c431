package lessonview

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/k12listen/internal/playback"
)

// PlayerEventMsg reports that player state changed.
type PlayerEventMsg struct{}

// PlayerErrorMsg carries a transport or load failure.
type PlayerErrorMsg struct {
	Event playback.ErrorEvent
}

// PlayerClosedMsg is sent once the player has shut down.
type PlayerClosedMsg struct{}

// clearNoticeMsg expires the notice with the matching sequence number.
type clearNoticeMsg struct {
	seq int
}

// watchEvents returns a command that waits for the next player event.
// Every handled event re-arms it.
func (m Model) watchEvents() tea.Cmd {
	sub := m.sub
	if sub == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-sub.StateChanged:
			return PlayerEventMsg{}
		case <-sub.PositionChanged:
			return PlayerEventMsg{}
		case <-sub.CueChanged:
			return PlayerEventMsg{}
		case <-sub.Ended:
			return PlayerEventMsg{}
		case e := <-sub.Error:
			return PlayerErrorMsg{Event: e}
		case <-sub.Done:
			return PlayerClosedMsg{}
		}
	}
}

func clearNoticeAfter(seq int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}
