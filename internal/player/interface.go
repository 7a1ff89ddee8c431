// internal/player/interface.go
package player

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by operations on a closed Source.
var ErrClosed = errors.New("player: source closed")

// Loader opens media sources. Open blocks until the media is fetched and decoded,
// or ctx is cancelled.
type Loader interface {
	Open(ctx context.Context, url string) (Source, error)
}

// Source is one decoded media stream bound to the audio output.
//
// Implementations are safe for concurrent use. The finished callback runs on its
// own goroutine and never while an internal lock is held.
type Source interface {
	Info() *TrackInfo
	Duration() time.Duration
	Position() time.Duration
	State() State

	Play() error
	Pause()
	Seek(pos time.Duration) error
	SetVolume(level float64)
	SetRate(rate float64)

	// OnFinished registers fn to be called when output reaches the end of the media.
	OnFinished(fn func())
	Close() error
}

// TrackInfo describes a decoded media stream.
type TrackInfo struct {
	URL        string
	Title      string
	Artist     string
	Album      string
	Format     string
	SampleRate int
	Size       int64
	Duration   time.Duration
}

// Verify implementations at compile time.
var (
	_ Loader = (*Speaker)(nil)
	_ Source = (*speakerSource)(nil)
	_ Loader = (*Simulated)(nil)
	_ Source = (*SimulatedSource)(nil)
)
