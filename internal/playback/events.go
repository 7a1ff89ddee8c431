package playback

import "time"

// StateChange is emitted after every mutation of the engine state.
type StateChange struct {
	Previous Status
	Current  Status
	State    State
}

// PositionChange is emitted on every poll tick and after a seek.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// EndEvent is emitted once per playthrough when the media reaches its end.
type EndEvent struct {
	URL string
}

// ErrorEvent is emitted when a load or transport operation fails.
type ErrorEvent struct {
	Operation string // "load", "play", "seek"
	URL       string
	Err       error
}
