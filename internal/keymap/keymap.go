package keymap

import "github.com/charmbracelet/bubbles/key"

// Binding describes a single key binding.
type Binding struct {
	Action      Action
	Keys        []string
	Description string
	Context     string // "global", "playback", "loop", "subtitles"
}

// Contexts lists binding contexts in help display order.
var Contexts = []string{"playback", "loop", "subtitles", "global"}

// All contains every key binding of the player view.
var All = []Binding{
	// Global
	{ActionQuit, []string{"q", "ctrl+c"}, "Quit", "global"},
	{ActionHelp, []string{"?"}, "Toggle help", "global"},

	// Playback
	{ActionPlayPause, []string{" "}, "Play/pause", "playback"},
	{ActionSeekBack, []string{"left", "h"}, "Seek -5s", "playback"},
	{ActionSeekForward, []string{"right", "l"}, "Seek +5s", "playback"},
	{ActionSeekBackLong, []string{"shift+left", "H"}, "Seek -30s", "playback"},
	{ActionSeekForwardLong, []string{"shift+right", "L"}, "Seek +30s", "playback"},
	{ActionRateDown, []string{"["}, "Slower", "playback"},
	{ActionRateUp, []string{"]"}, "Faster", "playback"},
	{ActionRateCycle, []string{"s"}, "Cycle speed", "playback"},
	{ActionVolumeDown, []string{"9", "<"}, "Volume down", "playback"},
	{ActionVolumeUp, []string{"0", ">"}, "Volume up", "playback"},
	{ActionMute, []string{"m"}, "Mute/unmute", "playback"},
	{ActionPrevLesson, []string{"P"}, "Previous lesson", "playback"},
	{ActionNextLesson, []string{"N"}, "Next lesson", "playback"},

	// AB loop
	{ActionLoopSetA, []string{"a"}, "Set loop start", "loop"},
	{ActionLoopSetB, []string{"b"}, "Set loop end", "loop"},
	{ActionLoopClear, []string{"c", "esc"}, "Clear loop", "loop"},

	// Subtitles
	{ActionCursorUp, []string{"k", "up"}, "Select previous line", "subtitles"},
	{ActionCursorDown, []string{"j", "down"}, "Select next line", "subtitles"},
	{ActionPageUp, []string{"pgup", "ctrl+u"}, "Scroll up", "subtitles"},
	{ActionPageDown, []string{"pgdown", "ctrl+d"}, "Scroll down", "subtitles"},
	{ActionSeekToCue, []string{"enter"}, "Jump to selected line", "subtitles"},
	{ActionPrevCue, []string{"p"}, "Previous line", "subtitles"},
	{ActionNextCue, []string{"n"}, "Next line", "subtitles"},
	{ActionRecenter, []string{"r"}, "Follow playback", "subtitles"},
	{ActionFontLarger, []string{"+", "="}, "Larger text", "subtitles"},
	{ActionFontSmaller, []string{"-"}, "Smaller text", "subtitles"},
}

// ByContext returns key bindings filtered by context.
func ByContext(context string) []Binding {
	var result []Binding
	for _, kb := range All {
		if kb.Context == context {
			result = append(result, kb)
		}
	}
	return result
}

// Key converts b into a bubbles key binding for help rendering.
func (b Binding) Key() key.Binding {
	return key.NewBinding(
		key.WithKeys(b.Keys...),
		key.WithHelp(helpKey(b.Keys), b.Description),
	)
}

// helpKey is the label of the first key, with the space bar spelled out.
func helpKey(keys []string) string {
	if len(keys) == 0 {
		return ""
	}
	if keys[0] == " " {
		return "space"
	}
	return keys[0]
}
