package player

import (
	"context"
	"math"
	"sync"
	"time"
)

// Simulated is a Loader whose sources advance with the clock instead of producing
// audio. It backs silent mode and tests; under testing/synctest it follows the
// bubble's fake clock.
type Simulated struct {
	// Length reports the media length for a URL.
	Length func(ctx context.Context, url string) (time.Duration, error)
	// Delay is added before Open returns, honoring ctx cancellation.
	Delay time.Duration

	mu      sync.Mutex
	sources []*SimulatedSource
}

// NewSimulated returns a Simulated loader where every URL lasts duration.
func NewSimulated(duration time.Duration) *Simulated {
	return &Simulated{
		Length: func(context.Context, string) (time.Duration, error) {
			return duration, nil
		},
	}
}

func (s *Simulated) Open(ctx context.Context, url string) (Source, error) {
	if s.Delay > 0 {
		t := time.NewTimer(s.Delay)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		}
	}

	dur, err := s.Length(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := &SimulatedSource{
		info:  &TrackInfo{URL: url, Title: baseName(url), Format: "SIM", Duration: dur},
		rate:  1,
		level: 1,
	}
	s.mu.Lock()
	s.sources = append(s.sources, src)
	s.mu.Unlock()
	return src, nil
}

// Sources returns every source opened so far, oldest first.
func (s *Simulated) Sources() []*SimulatedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*SimulatedSource(nil), s.sources...)
}

// Last returns the most recently opened source, or nil.
func (s *Simulated) Last() *SimulatedSource {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sources) == 0 {
		return nil
	}
	return s.sources[len(s.sources)-1]
}

// SimulatedSource is a Source whose position is base + elapsed*rate while playing.
type SimulatedSource struct {
	info *TrackInfo

	mu         sync.Mutex
	state      State
	base       time.Duration
	startedAt  time.Time
	rate       float64
	level      float64
	end        *time.Timer
	gen        uint64
	onFinished func()
	closed     bool

	seekErr error
	seeks   []time.Duration
	plays   int
}

func (s *SimulatedSource) Info() *TrackInfo        { return s.info }
func (s *SimulatedSource) Duration() time.Duration { return s.info.Duration }

func (s *SimulatedSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *SimulatedSource) Position() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position()
}

func (s *SimulatedSource) position() time.Duration {
	if s.state != Playing {
		return s.base
	}
	elapsed := time.Duration(float64(time.Since(s.startedAt)) * s.rate)
	return min(s.base+elapsed, s.info.Duration)
}

func (s *SimulatedSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.plays++
	if s.state == Playing {
		return nil
	}
	if s.base >= s.info.Duration {
		s.base = 0
	}
	s.state = Playing
	s.startedAt = time.Now()
	s.armEnd()
	return nil
}

// armEnd schedules the finished callback for the current segment. Caller holds mu.
func (s *SimulatedSource) armEnd() {
	s.disarmEnd()
	gen := s.gen
	remaining := time.Duration(float64(s.info.Duration-s.base) / s.rate)
	s.end = time.AfterFunc(remaining, func() { s.finished(gen) })
}

func (s *SimulatedSource) disarmEnd() {
	s.gen++
	if s.end != nil {
		s.end.Stop()
		s.end = nil
	}
}

func (s *SimulatedSource) finished(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.gen || s.state != Playing {
		s.mu.Unlock()
		return
	}
	s.base = s.info.Duration
	s.state = Stopped
	s.end = nil
	fn := s.onFinished
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *SimulatedSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != Playing {
		return
	}
	s.base = s.position()
	s.state = Paused
	s.disarmEnd()
}

func (s *SimulatedSource) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.seeks = append(s.seeks, pos)
	if s.seekErr != nil {
		return s.seekErr
	}

	s.base = min(max(pos, 0), s.info.Duration)
	if s.state == Playing {
		s.startedAt = time.Now()
		s.armEnd()
	}
	return nil
}

func (s *SimulatedSource) SetVolume(level float64) {
	level, ok := clampLevel(level)
	if !ok {
		return
	}
	s.mu.Lock()
	s.level = level
	s.mu.Unlock()
}

func (s *SimulatedSource) SetRate(rate float64) {
	if rate <= 0 || math.IsNaN(rate) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Playing {
		s.base = s.position()
		s.startedAt = time.Now()
		s.rate = rate
		s.armEnd()
		return
	}
	s.rate = rate
}

func (s *SimulatedSource) OnFinished(fn func()) {
	s.mu.Lock()
	s.onFinished = fn
	s.mu.Unlock()
}

func (s *SimulatedSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.base = s.position()
	s.closed = true
	s.state = Stopped
	s.disarmEnd()
	return nil
}

// FailSeeks makes subsequent Seek calls return err without moving. nil restores normal seeking.
func (s *SimulatedSource) FailSeeks(err error) {
	s.mu.Lock()
	s.seekErr = err
	s.mu.Unlock()
}

// Seeks returns every requested seek target, including failed ones.
func (s *SimulatedSource) Seeks() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.seeks...)
}

// Plays returns how many times Play was called.
func (s *SimulatedSource) Plays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays
}

func (s *SimulatedSource) Rate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rate
}

func (s *SimulatedSource) Volume() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

func (s *SimulatedSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
