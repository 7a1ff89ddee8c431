// Package playback owns the single media source of the player: loading, transport
// control, and the position polling loop.
//
// All state lives behind one mutex and is mutated only by Engine methods and the
// engine's own callbacks. Events and the tick handler run after the lock is released.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
	"github.com/llehouerou/k12listen/internal/player"
)

const (
	// DefaultPollInterval is the tick period while playing.
	DefaultPollInterval = 50 * time.Millisecond
	// MaxPollInterval bounds AB-loop overshoot and subtitle latency.
	MaxPollInterval = 100 * time.Millisecond
)

// ErrClosed is returned by Load after Close.
var ErrClosed = errors.New("playback: engine closed")

// Options configures an Engine.
type Options struct {
	Loader       player.Loader
	PollInterval time.Duration // clamped to (0, MaxPollInterval]; 0 means DefaultPollInterval
	Scheduler    Scheduler     // defaults to ClockScheduler
	Logger       *slog.Logger
	Volume       float64 // initial volume in (0, 1]; 0 means 1
	Rate         float64 // initial rate, must be canonical; defaults to DefaultRate
}

// TickFunc receives the position read by a poll tick and the generation of the
// source it was read from. A handler running after a Load or Unload sees an older
// generation than State().Generation.
type TickFunc func(pos time.Duration, gen uint64)

// EndInterceptor is consulted when the media reaches its end. Returning (target, true)
// restarts playback at target instead of ending.
type EndInterceptor func() (target time.Duration, ok bool)

// Engine plays one media source at a time.
type Engine struct {
	loader player.Loader
	poll   time.Duration
	sched  Scheduler
	logger *slog.Logger

	mu         sync.Mutex
	state      State
	src        player.Source
	cancelLoad context.CancelFunc
	stopTick   func() bool
	tickID     uint64
	onTick     TickFunc
	intercept  EndInterceptor
	onEnd      func(gen uint64)
	autoplay   bool // start output when the load in flight completes
	closed     bool

	subs   []*Subscription
	subsMu sync.RWMutex
}

// New creates an idle Engine.
func New(opts Options) *Engine {
	poll := opts.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	poll = min(poll, MaxPollInterval)

	sched := opts.Scheduler
	if sched == nil {
		sched = ClockScheduler{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	volume := 1.0
	if opts.Volume > 0 {
		volume = min(opts.Volume, 1)
	}
	rate := DefaultRate
	if ValidateRate(opts.Rate) == nil {
		rate = opts.Rate
	}

	return &Engine{
		loader: opts.Loader,
		poll:   poll,
		sched:  sched,
		logger: logger.With(slog.String("component", "playback")),
		state:  State{Volume: volume, Rate: rate},
	}
}

// PollInterval returns the effective tick period.
func (e *Engine) PollInterval() time.Duration {
	return e.poll
}

// SetTickHandler installs the function called with the position of every tick.
func (e *Engine) SetTickHandler(fn TickFunc) {
	e.mu.Lock()
	e.onTick = fn
	e.mu.Unlock()
}

// SetEndInterceptor installs the function consulted when the media ends.
func (e *Engine) SetEndInterceptor(fn EndInterceptor) {
	e.mu.Lock()
	e.intercept = fn
	e.mu.Unlock()
}

// OnEnd installs the function called once per playthrough at the end of the media.
// fn receives the generation of the source that ended.
func (e *Engine) OnEnd(fn func(gen uint64)) {
	e.mu.Lock()
	e.onEnd = fn
	e.mu.Unlock()
}

// State returns a snapshot of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe creates a new event subscription.
func (e *Engine) Subscribe() *Subscription {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	sub := newSubscription()
	e.subs = append(e.subs, sub)
	return sub
}

// Load releases the current source and starts fetching url in the background.
// Rate and volume carry over to the new source.
func (e *Engine) Load(url string) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return ErrClosed
	}
	prev := e.state.Status()
	e.teardownLocked()

	ctx, cancel := context.WithCancel(context.Background())
	e.cancelLoad = cancel
	e.state = State{
		URL:        url,
		Loading:    true,
		Volume:     e.state.Volume,
		Rate:       e.state.Rate,
		Generation: e.state.Generation + 1,
	}
	gen := e.state.Generation
	snap := e.state
	e.mu.Unlock()

	e.logger.Debug("loading media", slog.String("url", url), slog.Uint64("generation", gen))
	e.publishState(prev, snap)

	go e.load(ctx, gen, url)
	return nil
}

// Unload releases the current source and returns the state it had, with the
// position read from the transport one last time. Rate and volume are kept and
// the generation moves on, so callbacks already in flight for the old source
// can tell they are stale.
func (e *Engine) Unload() State {
	e.mu.Lock()
	final := e.state
	if e.closed {
		e.mu.Unlock()
		return final
	}
	if e.src != nil && final.Ready() {
		final.Position = e.clampLocked(e.src.Position())
	}
	prev := final.Status()
	e.teardownLocked()
	e.state = State{
		Volume:     final.Volume,
		Rate:       final.Rate,
		Generation: final.Generation + 1,
	}
	snap := e.state
	e.mu.Unlock()

	e.logger.Debug("media unloaded", slog.String("url", final.URL), slog.Duration("position", final.Position))
	if prev != snap.Status() {
		e.publishState(prev, snap)
	}
	return final
}

func (e *Engine) load(ctx context.Context, gen uint64, url string) {
	src, err := e.loader.Open(ctx, url)

	e.mu.Lock()
	if e.closed || gen != e.state.Generation {
		e.mu.Unlock()
		if src != nil {
			_ = src.Close()
		}
		e.logger.Debug("dropping stale load", slog.String("url", url), slog.Uint64("generation", gen))
		return
	}
	e.cancelLoad = nil

	prev := e.state.Status()
	if err != nil {
		e.state.Loading = false
		e.state.Err = apperr.Load(err)
		snap := e.state
		e.mu.Unlock()

		e.logger.Warn("load failed", slog.String("url", url), slog.Any("error", err))
		e.publishError(ErrorEvent{Operation: "load", URL: url, Err: snap.Err})
		e.publishState(prev, snap)
		return
	}

	e.src = src
	src.SetRate(e.state.Rate)
	src.SetVolume(e.state.Volume)
	src.OnFinished(func() { e.finished(gen) })

	e.state.Loading = false
	e.state.Info = src.Info()
	e.state.Duration = src.Duration()
	if e.autoplay {
		e.autoplay = false
		if err := src.Play(); err != nil {
			e.failLocked(prev, "play", err)
			return
		}
		e.state.Playing = true
		e.scheduleTickLocked()
	}
	snap := e.state
	e.mu.Unlock()

	e.logger.Info("media loaded",
		slog.String("url", url),
		slog.Duration("duration", snap.Duration),
		slog.Bool("playing", snap.Playing))
	e.publishState(prev, snap)
}

// PlayWhenReady plays now if the media is ready, or as soon as the load in
// flight completes. A later Load, Unload or Close cancels the request.
func (e *Engine) PlayWhenReady() {
	e.mu.Lock()
	if e.state.Loading {
		e.autoplay = true
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()
	e.Play()
}

// Play starts or resumes output. It is a no-op while loading, after a failure, or
// with nothing loaded. After the media ended it restarts from the beginning.
func (e *Engine) Play() {
	e.mu.Lock()
	if e.src == nil || !e.state.Ready() {
		status := e.state.Status()
		e.mu.Unlock()
		e.logger.Debug("play ignored", slog.String("status", status.String()))
		return
	}
	if e.state.Playing {
		e.mu.Unlock()
		return
	}

	prev := e.state.Status()
	if e.state.Ended {
		e.state.Ended = false
		e.state.Position = 0
		if err := e.src.Seek(0); err != nil {
			e.failLocked(prev, "seek", err)
			return
		}
	}
	if err := e.src.Play(); err != nil {
		e.failLocked(prev, "play", err)
		return
	}
	e.state.Playing = true
	e.scheduleTickLocked()
	snap := e.state
	e.mu.Unlock()

	e.publishState(prev, snap)
}

// Pause stops output and the polling loop. It is a no-op unless playing.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.state.Playing {
		e.mu.Unlock()
		return
	}
	prev := e.state.Status()
	e.src.Pause()
	e.state.Playing = false
	e.state.Position = e.clampLocked(e.src.Position())
	e.stopTickLocked()
	snap := e.state
	e.mu.Unlock()

	e.publishState(prev, snap)
}

// Toggle pauses when playing and plays otherwise.
func (e *Engine) Toggle() {
	if e.State().Playing {
		e.Pause()
		return
	}
	e.Play()
}

// Seek moves to pos, clamped to [0, Duration]. The new position is visible
// immediately; if the transport refuses the seek, the position re-syncs from it.
func (e *Engine) Seek(pos time.Duration) {
	e.mu.Lock()
	if e.src == nil || !e.state.Ready() {
		e.mu.Unlock()
		e.logger.Debug("seek ignored, nothing loaded")
		return
	}

	target := e.clampLocked(pos)
	if target != pos {
		e.logger.Debug("seek target clamped",
			slog.String("code", string(apperr.CodeInvalidSeek)),
			slog.Duration("requested", pos),
			slog.Duration("target", target))
	}

	prev := e.state.Status()
	e.state.Position = target
	if target < e.state.Duration {
		e.state.Ended = false
	}
	if err := e.src.Seek(target); err != nil {
		e.state.Position = e.clampLocked(e.src.Position())
		e.logger.Warn("seek failed, re-synced from transport",
			slog.Duration("target", target),
			slog.Duration("position", e.state.Position),
			slog.Any("error", err))
	}
	snap := e.state
	e.mu.Unlock()

	e.publishPosition(snap)
	if prev != snap.Status() {
		e.publishState(prev, snap)
	}
}

// SeekSeconds seeks to a position given in seconds. NaN and negative values seek to 0.
func (e *Engine) SeekSeconds(sec float64) {
	if math.IsNaN(sec) || sec < 0 {
		sec = 0
	}
	if sec >= math.MaxInt64/float64(time.Second) {
		e.Seek(math.MaxInt64)
		return
	}
	e.Seek(time.Duration(sec * float64(time.Second)))
}

// SetVolume clamps v to [0, 1]. NaN is ignored.
func (e *Engine) SetVolume(v float64) {
	if math.IsNaN(v) {
		return
	}
	v = min(max(v, 0), 1)

	e.mu.Lock()
	prev := e.state.Status()
	e.state.Volume = v
	if e.src != nil {
		e.src.SetVolume(v)
	}
	snap := e.state
	e.mu.Unlock()

	e.publishState(prev, snap)
}

// SetRate changes the playback speed without changing pitch. Rates outside the
// supported set return an INVALID_RATE error and change nothing.
func (e *Engine) SetRate(r float64) error {
	if err := ValidateRate(r); err != nil {
		return err
	}

	e.mu.Lock()
	if e.state.Rate == r {
		e.mu.Unlock()
		return nil
	}
	prev := e.state.Status()
	e.state.Rate = r
	if e.src != nil {
		e.src.SetRate(r)
	}
	snap := e.state
	e.mu.Unlock()

	e.publishState(prev, snap)
	return nil
}

// Close releases the source, cancels any in-flight load, stops all timers, and
// closes every subscription.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.teardownLocked()
	e.state.Playing = false
	e.state.Generation++
	e.mu.Unlock()

	e.subsMu.Lock()
	for _, sub := range e.subs {
		sub.close()
	}
	e.subs = nil
	e.subsMu.Unlock()
	return nil
}

// teardownLocked cancels the in-flight load, stops the tick, and closes the source.
func (e *Engine) teardownLocked() {
	e.autoplay = false
	if e.cancelLoad != nil {
		e.cancelLoad()
		e.cancelLoad = nil
	}
	e.stopTickLocked()
	if e.src != nil {
		e.src.OnFinished(nil)
		if err := e.src.Close(); err != nil {
			e.logger.Warn("closing source", slog.Any("error", err))
		}
		e.src = nil
	}
}

// failLocked records a terminal transport error and unlocks.
func (e *Engine) failLocked(prev Status, op string, err error) {
	e.state.Playing = false
	e.state.Err = err
	e.stopTickLocked()
	snap := e.state
	e.mu.Unlock()

	e.logger.Error("transport failure", slog.String("op", op), slog.Any("error", err))
	e.publishError(ErrorEvent{Operation: op, URL: snap.URL, Err: err})
	e.publishState(prev, snap)
}

func (e *Engine) clampLocked(pos time.Duration) time.Duration {
	return min(max(pos, 0), e.state.Duration)
}

// scheduleTickLocked arms the next tick unless one is already pending.
func (e *Engine) scheduleTickLocked() {
	if e.stopTick != nil {
		return
	}
	e.tickID++
	id := e.tickID
	e.stopTick = e.sched.AfterFunc(e.poll, func() { e.tick(id) })
}

func (e *Engine) stopTickLocked() {
	if e.stopTick != nil {
		e.stopTick()
		e.stopTick = nil
	}
}

func (e *Engine) tick(id uint64) {
	e.mu.Lock()
	if e.closed || id != e.tickID || e.stopTick == nil || !e.state.Playing {
		e.mu.Unlock()
		return
	}
	e.stopTick = nil

	pos := e.clampLocked(e.src.Position())
	e.state.Position = pos
	e.scheduleTickLocked()
	handler := e.onTick
	snap := e.state
	e.mu.Unlock()

	e.publishPosition(snap)
	if handler != nil {
		handler(pos, snap.Generation)
	}
}

// finished runs when the transport reaches the end of the media.
func (e *Engine) finished(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.state.Generation || !e.state.Playing {
		e.mu.Unlock()
		return
	}
	prev := e.state.Status()

	if e.intercept != nil {
		if target, ok := e.intercept(); ok {
			target = e.clampLocked(target)
			e.state.Position = target
			if err := e.src.Seek(target); err != nil {
				e.failLocked(prev, "seek", err)
				return
			}
			if err := e.src.Play(); err != nil {
				e.failLocked(prev, "play", err)
				return
			}
			snap := e.state
			e.mu.Unlock()

			e.logger.Debug("end intercepted", slog.Duration("target", target))
			e.publishPosition(snap)
			return
		}
	}

	e.state.Playing = false
	e.state.Ended = true
	e.state.Position = e.state.Duration
	e.stopTickLocked()
	onEnd := e.onEnd
	snap := e.state
	e.mu.Unlock()

	e.logger.Debug("playback ended", slog.String("url", snap.URL))
	e.publishPosition(snap)
	e.publishState(prev, snap)
	e.subsMu.RLock()
	for _, sub := range e.subs {
		sub.sendEnd(EndEvent{URL: snap.URL})
	}
	e.subsMu.RUnlock()
	if onEnd != nil {
		onEnd(snap.Generation)
	}
}

func (e *Engine) publishState(prev Status, snap State) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendState(StateChange{Previous: prev, Current: snap.Status(), State: snap})
	}
}

func (e *Engine) publishPosition(snap State) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendPosition(snap.Position, snap.Duration)
	}
}

func (e *Engine) publishError(ev ErrorEvent) {
	e.subsMu.RLock()
	defer e.subsMu.RUnlock()
	for _, sub := range e.subs {
		sub.sendError(ev)
	}
}
