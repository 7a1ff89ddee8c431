// Package abloop tracks a user-defined repeat region [A, B) within one media track.
//
// The controller never touches the transport. The owner calls Check with the
// position of every poll tick and seeks when it reports a jump, so the loop can
// overshoot B by up to one poll interval. Regions shorter than the poll interval
// still loop, but play for at least one interval per pass.
package abloop

import (
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// Phase is the controller's position in Idle -> ArmedA -> Looping.
type Phase int

const (
	Idle Phase = iota
	ArmedA
	Looping
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "Idle"
	case ArmedA:
		return "ArmedA"
	case Looping:
		return "Looping"
	default:
		return "Unknown"
	}
}

// Loop is a snapshot of the loop points.
type Loop struct {
	A, B       time.Duration
	HasA, HasB bool
	Enabled    bool // both points set and A < B
}

// Phase derives the controller phase from the snapshot.
func (l Loop) Phase() Phase {
	switch {
	case l.Enabled:
		return Looping
	case l.HasA:
		return ArmedA
	default:
		return Idle
	}
}

// Controller holds the loop points for the current lesson.
type Controller struct {
	logger *slog.Logger

	mu   sync.Mutex
	loop Loop
}

// New creates an idle Controller.
func New(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger.With(slog.String("component", "abloop"))}
}

// State returns the current loop points.
func (c *Controller) State() Loop {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loop
}

// SetPointA captures A at now, clamped to [0, duration]. It fails with NOT_READY
// before the media duration is known, and with LOOP_ORDER if B is set and A would
// not precede it. A failed call changes nothing.
func (c *Controller) SetPointA(now, duration time.Duration) error {
	if duration <= 0 {
		return apperr.NotReady("cannot set loop point before the audio is loaded")
	}
	now = min(max(now, 0), duration)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop.HasB && now >= c.loop.B {
		c.logger.Debug("rejected point A after point B",
			slog.Duration("a", now), slog.Duration("b", c.loop.B))
		return apperr.LoopOrder("point A must come before point B")
	}
	c.loop.A = now
	c.loop.HasA = true
	c.loop.Enabled = c.loop.HasB
	return nil
}

// SetPointB captures B at now and enables the loop. A must be set and precede B.
func (c *Controller) SetPointB(now, duration time.Duration) error {
	if duration <= 0 {
		return apperr.NotReady("cannot set loop point before the audio is loaded")
	}
	now = min(max(now, 0), duration)

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loop.HasA {
		c.logger.Warn("point B set without point A", slog.Duration("b", now))
		return apperr.LoopOrder("set point A first")
	}
	if now <= c.loop.A {
		c.logger.Warn("point B not after point A",
			slog.Duration("a", c.loop.A), slog.Duration("b", now))
		return apperr.LoopOrder("point B must come after point A")
	}
	c.loop.B = now
	c.loop.HasB = true
	c.loop.Enabled = true
	return nil
}

// Clear removes both points.
func (c *Controller) Clear() {
	c.mu.Lock()
	c.loop = Loop{}
	c.mu.Unlock()
}

// Check reports where to seek when pos has reached or passed B with the loop enabled.
func (c *Controller) Check(pos time.Duration) (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop.Enabled && pos >= c.loop.B {
		return c.loop.A, true
	}
	return 0, false
}

// InterceptEnd returns A when the loop is enabled. The media can only end past B,
// so an enabled loop always takes over the end of playback.
func (c *Controller) InterceptEnd() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loop.Enabled {
		return c.loop.A, true
	}
	return 0, false
}

// Region returns the loop band as fractions of duration for progress rendering.
func (c *Controller) Region(duration time.Duration) (start, width float64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loop.Enabled || duration <= 0 {
		return 0, 0, false
	}
	start = float64(c.loop.A) / float64(duration)
	width = float64(c.loop.B-c.loop.A) / float64(duration)
	return start, width, true
}
