package testutil

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Harness drives a tea.Model in tests without a program. Returned commands
// are collected, never run, so commands that block on channels are safe.
type Harness struct {
	model tea.Model
	cmds  []tea.Cmd
}

// NewHarness wraps m and records its Init command.
func NewHarness(m tea.Model) *Harness {
	h := &Harness{model: m}
	h.record(m.Init())
	return h
}

// Model returns the current model for type assertion.
func (h *Harness) Model() tea.Model {
	return h.model
}

// View renders the current model.
func (h *Harness) View() string {
	return h.model.View()
}

// Send delivers msg and returns the resulting command.
func (h *Harness) Send(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	h.model, cmd = h.model.Update(msg)
	h.record(cmd)
	return cmd
}

// Resize sends a window size message.
func (h *Harness) Resize(width, height int) {
	h.Send(tea.WindowSizeMsg{Width: width, Height: height})
}

// Key sends a key press named like tea.KeyMsg.String: "enter", "left",
// "ctrl+c", " " for space, or printable runes such as "a" or "[".
func (h *Harness) Key(name string) tea.Cmd {
	return h.Send(KeyMsg(name))
}

// Commands returns every non-nil command collected so far.
func (h *Harness) Commands() []tea.Cmd {
	return h.cmds
}

func (h *Harness) record(cmd tea.Cmd) {
	if cmd != nil {
		h.cmds = append(h.cmds, cmd)
	}
}

var specialKeys = map[string]tea.KeyType{
	"enter":       tea.KeyEnter,
	"esc":         tea.KeyEsc,
	"left":        tea.KeyLeft,
	"right":       tea.KeyRight,
	"up":          tea.KeyUp,
	"down":        tea.KeyDown,
	"shift+left":  tea.KeyShiftLeft,
	"shift+right": tea.KeyShiftRight,
	"pgup":        tea.KeyPgUp,
	"pgdown":      tea.KeyPgDown,
	"ctrl+c":      tea.KeyCtrlC,
	"ctrl+d":      tea.KeyCtrlD,
	"ctrl+u":      tea.KeyCtrlU,
	" ":           tea.KeySpace,
}

// KeyMsg builds the tea.KeyMsg whose String() is name.
func KeyMsg(name string) tea.KeyMsg {
	if t, ok := specialKeys[name]; ok {
		if t == tea.KeySpace {
			return tea.KeyMsg{Type: t, Runes: []rune{' '}}
		}
		return tea.KeyMsg{Type: t}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
}
