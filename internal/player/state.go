// internal/player/state.go
package player

// State is the output state of one Source.
//
//	┌──────────┐      Play       ┌──────────┐
//	│  Stopped │ ───────────────▶│  Playing │
//	└──────────┘                 └──────────┘
//	     ▲  ▲                         │ │
//	     │  │ end of media      Pause │ │ Play
//	     │  └─────────────────────────┘ ▼
//	     │                       ┌──────────┐
//	     └──── Seek + Play ──────│  Paused  │
//	                             └──────────┘
//
// A freshly opened Source is Stopped at position 0. Reaching the end of the media
// moves it back to Stopped; a Seek followed by Play restarts output.
// Play on Playing and Pause on anything but Playing are ignored.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

// String returns the state name for debugging.
func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Playing:
		return "Playing"
	case Paused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a stream is in progress (Playing or Paused).
func (s State) IsActive() bool {
	return s == Playing || s == Paused
}

// CanPause returns true if the state allows pausing.
func (s State) CanPause() bool {
	return s == Playing
}

// CanPlay returns true if Play would start output.
func (s State) CanPlay() bool {
	return s != Playing
}
