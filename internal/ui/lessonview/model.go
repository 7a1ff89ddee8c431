// Package lessonview is the terminal player screen: lesson header, progress
// bar with the AB loop band, and the scrolling subtitle list.
package lessonview

import (
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/keymap"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/ui"
)

const (
	seekStep     = 5 * time.Second
	seekStepLong = 30 * time.Second
	volumeStep   = 0.05

	// noticeTTL is how long a confirmation such as "speed 1.25x" stays up.
	noticeTTL = 2 * time.Second
)

// Controller is the lesson player as seen by the view.
type Controller interface {
	Snapshot() lessonplayer.Snapshot
	Subscribe() *lessonplayer.Subscription

	Toggle()
	SeekBy(delta time.Duration)
	StepRate(dir int) float64
	CycleRate() float64
	AdjustVolume(delta float64)
	ToggleMute() bool
	NextLesson() error
	PreviousLesson() error

	SetPointA() error
	SetPointB() error
	ClearLoop()

	ClickCue(i int) error
	StepCue(dir int) error
	ScrollSubtitles(delta int)
	Recenter()
	SetViewportHeight(h int)
	FontLarger() int
	FontSmaller() int
}

var _ Controller = (*lessonplayer.Player)(nil)

// Model is the bubbletea model of the player screen.
type Model struct {
	ui.Base

	player Controller
	sub    *lessonplayer.Subscription
	keys   *keymap.Resolver
	help   help.Model
	logger *slog.Logger

	snap     lessonplayer.Snapshot
	showHelp bool

	// cursor is the selected cue, or -1 to follow the active cue.
	cursor int

	errText   string
	notice    string
	noticeSeq int
	quitting  bool
}

// New creates the view for player. The view subscribes to player events
// immediately so none are missed before Init runs.
func New(player Controller, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	return Model{
		player: player,
		sub:    player.Subscribe(),
		keys:   keymap.NewResolver(keymap.All),
		help:   help.New(),
		logger: logger,
		snap:   player.Snapshot(),
		cursor: -1,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.watchEvents()
}

// Quitting reports whether the listener asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

// selected returns the cue the cursor points at.
func (m Model) selected() int {
	if m.cursor >= 0 {
		return m.cursor
	}
	return m.snap.ActiveCue
}

func (m *Model) refresh() {
	m.snap = m.player.Snapshot()
	if n := m.snap.Track.Len(); m.cursor >= n {
		m.cursor = n - 1
	}
}

func (m *Model) fail(op errmsg.Op, err error) {
	m.errText = errmsg.Format(op, err)
	m.logger.Debug("player action failed", slog.String("op", string(op)), slog.Any("error", err))
}

func (m *Model) clearError() {
	m.errText = ""
}
