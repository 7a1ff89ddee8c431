// internal/playback/state.go
package playback

import (
	"time"

	"github.com/llehouerou/k12listen/internal/player"
)

// Status summarizes a State for display and event consumers.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusPaused
	StatusPlaying
	StatusEnded
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "Idle"
	case StatusLoading:
		return "Loading"
	case StatusPaused:
		return "Paused"
	case StatusPlaying:
		return "Playing"
	case StatusEnded:
		return "Ended"
	case StatusFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// IsActive returns true if media is loaded and not finished (playing or paused).
func (s Status) IsActive() bool {
	return s == StatusPlaying || s == StatusPaused
}

// State is a snapshot of the engine. The engine is its only writer.
//
// Invariants: Position <= Duration once Duration > 0, and Err != nil implies !Playing.
type State struct {
	URL      string
	Info     *player.TrackInfo
	Playing  bool
	Loading  bool
	Ended    bool
	Position time.Duration
	Duration time.Duration
	Volume   float64
	Rate     float64
	Err      error

	// Generation increments on every Load and Close.
	Generation uint64
}

// Status derives the display status.
func (s State) Status() Status {
	switch {
	case s.Err != nil:
		return StatusFailed
	case s.Loading:
		return StatusLoading
	case s.URL == "":
		return StatusIdle
	case s.Playing:
		return StatusPlaying
	case s.Ended:
		return StatusEnded
	default:
		return StatusPaused
	}
}

// Ready reports whether media is loaded and playable.
func (s State) Ready() bool {
	return s.URL != "" && !s.Loading && s.Err == nil
}

// Progress returns Position/Duration in [0, 1], or 0 while the duration is unknown.
func (s State) Progress() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return min(float64(s.Position)/float64(s.Duration), 1)
}
