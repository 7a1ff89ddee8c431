// Package keymap defines key bindings and action dispatch for the player view.
package keymap

// Action represents a user-triggerable action.
type Action string

const (
	// Global actions
	ActionQuit Action = "quit"
	ActionHelp Action = "help"

	// Playback actions
	ActionPlayPause       Action = "play_pause"
	ActionSeekBack        Action = "seek_back"
	ActionSeekForward     Action = "seek_forward"
	ActionSeekBackLong    Action = "seek_back_long"
	ActionSeekForwardLong Action = "seek_forward_long"
	ActionRateDown        Action = "rate_down"
	ActionRateUp          Action = "rate_up"
	ActionRateCycle       Action = "rate_cycle"
	ActionVolumeDown      Action = "volume_down"
	ActionVolumeUp        Action = "volume_up"
	ActionMute            Action = "mute"
	ActionNextLesson      Action = "next_lesson"
	ActionPrevLesson      Action = "prev_lesson"

	// AB loop actions
	ActionLoopSetA  Action = "loop_set_a"
	ActionLoopSetB  Action = "loop_set_b"
	ActionLoopClear Action = "loop_clear"

	// Subtitle actions
	ActionCursorUp    Action = "cursor_up"
	ActionCursorDown  Action = "cursor_down"
	ActionPageUp      Action = "page_up"
	ActionPageDown    Action = "page_down"
	ActionSeekToCue   Action = "seek_to_cue"
	ActionNextCue     Action = "next_cue"
	ActionPrevCue     Action = "prev_cue"
	ActionRecenter    Action = "recenter"
	ActionFontLarger  Action = "font_larger"
	ActionFontSmaller Action = "font_smaller"
)
