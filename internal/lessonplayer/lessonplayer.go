// Package lessonplayer composes the playback engine, the AB loop and the
// subtitle synchronizer into one player per open lesson.
//
// Every poll tick hands one position to the AB loop first and then to the
// subtitle synchronizer. Listener preferences (rate, volume, font size) are
// re-applied on every lesson and written back whenever they change.
//
// The lessons of a unit are kept in order; when one ends the next opens and
// plays on its own.
package lessonplayer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/llehouerou/k12listen/internal/abloop"
	"github.com/llehouerou/k12listen/internal/apperr"
	"github.com/llehouerou/k12listen/internal/history"
	"github.com/llehouerou/k12listen/internal/lesson"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/player"
	"github.com/llehouerou/k12listen/internal/playlist"
	"github.com/llehouerou/k12listen/internal/subtitle"
)

// DefaultViewportHeight is the number of cue rows shown when unset.
const DefaultViewportHeight = 7

// Preferences is the persisted listener settings store.
type Preferences interface {
	Rate() float64
	SetRate(rate float64)
	FontSize() int
	SetFontSize(size int)
	Volume() float64
	SetVolume(volume float64)
}

// Options configures a Player.
type Options struct {
	Loader         player.Loader
	PollInterval   time.Duration
	Scheduler      playback.Scheduler
	Prefs          Preferences       // nil keeps preferences in memory only
	Reporter       *history.Reporter // optional; not closed by the Player
	FontSizes      []int
	ViewportHeight int
	Logger         *slog.Logger
}

// Player is the lesson player facade. Its methods are safe for concurrent use
// and never panic on a missing lesson; actions without a lesson are no-ops.
type Player struct {
	engine   *playback.Engine
	loop     *abloop.Controller
	sync     *subtitle.Synchronizer
	font     *subtitle.FontScale
	prefs    Preferences
	reporter *history.Reporter
	logger   *slog.Logger

	// switching is held across a lesson change and by every engine callback,
	// so a callback never sees half of a lesson change.
	switching sync.Mutex
	// nav orders lesson changes; it is taken before switching.
	nav sync.Mutex

	mu      sync.Mutex
	queue   *playlist.Queue
	lesson  *lesson.Lesson
	gen     uint64  // engine generation playing lesson, 0 while switching
	unmuted float64 // volume to restore, 0 when not muted
	subs    []*Subscription
	closed  bool
}

// New creates a Player with no lesson open.
func New(opts Options) *Player {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefs := opts.Prefs
	if prefs == nil {
		prefs = &memoryPrefs{rate: playback.DefaultRate, volume: 1, font: subtitle.DefaultFontSize}
	}

	rate := prefs.Rate()
	if err := playback.ValidateRate(rate); err != nil {
		logger.Warn("ignoring stored rate", slog.Float64("rate", rate), slog.Any("error", err))
		rate = playback.DefaultRate
	}

	engine := playback.New(playback.Options{
		Loader:       opts.Loader,
		PollInterval: opts.PollInterval,
		Scheduler:    opts.Scheduler,
		Logger:       logger,
		Volume:       prefs.Volume(),
		Rate:         rate,
	})

	height := opts.ViewportHeight
	if height <= 0 {
		height = DefaultViewportHeight
	}

	p := &Player{
		engine:   engine,
		loop:     abloop.New(logger),
		font:     subtitle.NewFontScale(opts.FontSizes, prefs.FontSize()),
		prefs:    prefs,
		reporter: opts.Reporter,
		logger:   logger.With(slog.String("component", "lessonplayer")),
		queue:    playlist.NewQueue(),
	}
	p.sync = subtitle.NewSynchronizer(engineSeeker{engine}, height)

	engine.SetTickHandler(p.onTick)
	engine.SetEndInterceptor(p.loop.InterceptEnd)
	engine.OnEnd(p.onEnd)
	return p
}

// engineSeeker lets cue clicks seek the engine without touching play state.
type engineSeeker struct{ e *playback.Engine }

func (s engineSeeker) Seek(pos time.Duration) { s.e.Seek(pos) }

// Open replaces the lesson list with l alone and opens it. The previous source
// is released first, then the AB loop is cleared, the subtitle track is
// replaced, and the stored rate and volume are applied to the new source.
// Playback does not start on its own.
func (p *Player) Open(l *lesson.Lesson) error {
	return p.OpenUnit([]*lesson.Lesson{l}, 0)
}

// OpenUnit replaces the lesson list with lessons and opens lessons[start] the
// way Open does. Every lesson must have media.
func (p *Player) OpenUnit(lessons []*lesson.Lesson, start int) error {
	for i, l := range lessons {
		if l == nil || l.MediaURL == "" {
			return apperr.InvalidLesson(fmt.Sprintf("lesson %d has no media", i+1), nil)
		}
	}
	q := playlist.NewQueue(lessons...)
	l := q.JumpTo(start)
	if l == nil {
		return apperr.InvalidLesson(fmt.Sprintf("no lesson at position %d of %d", start+1, q.Len()), nil)
	}

	p.nav.Lock()
	defer p.nav.Unlock()

	p.mu.Lock()
	p.queue = q
	p.mu.Unlock()
	return p.open(l)
}

// NextLesson opens the lesson after the current one. It returns END_OF_UNIT
// on the last lesson.
func (p *Player) NextLesson() error {
	p.nav.Lock()
	defer p.nav.Unlock()
	return p.stepLesson(1)
}

// PreviousLesson opens the lesson before the current one. It returns
// END_OF_UNIT on the first lesson.
func (p *Player) PreviousLesson() error {
	p.nav.Lock()
	defer p.nav.Unlock()
	return p.stepLesson(-1)
}

// Unit returns the lessons of the open unit and the index of the open one.
func (p *Player) Unit() ([]*lesson.Lesson, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.Lessons(), p.queue.CurrentIndex()
}

// stepLesson moves through the lesson list; nav must be held.
func (p *Player) stepLesson(dir int) error {
	p.mu.Lock()
	var l *lesson.Lesson
	if dir > 0 {
		l = p.queue.Next()
	} else {
		l = p.queue.Previous()
	}
	idx, n := p.queue.CurrentIndex(), p.queue.Len()
	p.mu.Unlock()

	if l == nil {
		if dir > 0 {
			return apperr.EndOfUnitf("lesson %d of %d is the last", idx+1, n)
		}
		return apperr.EndOfUnitf("lesson %d of %d is the first", idx+1, n)
	}
	return p.open(l)
}

// advance opens and plays the next lesson after gen ended, unless the
// listener has already moved on.
func (p *Player) advance(gen uint64) {
	p.nav.Lock()
	defer p.nav.Unlock()

	if _, ok := p.current(gen); !ok || !p.engine.State().Ended {
		return
	}
	if err := p.stepLesson(1); err != nil {
		p.logger.Warn("opening next lesson", slog.Any("error", err))
		return
	}
	p.engine.PlayWhenReady()
}

// open switches to l; nav must be held.
func (p *Player) open(l *lesson.Lesson) error {
	p.switching.Lock()
	defer p.switching.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return playback.ErrClosed
	}
	prev := p.lesson
	p.gen = 0
	p.mu.Unlock()

	final := p.engine.Unload()
	if prev != nil {
		p.flushReport(prev, final.Position)
	}

	p.loop.Clear()
	p.sync.SetTrack(l.Track)

	if p.reporter != nil {
		if _, err := p.reporter.NewSession(); err != nil {
			p.logger.Warn("starting history session", slog.Any("error", err))
		}
	}

	if err := p.engine.SetRate(p.prefs.Rate()); err != nil {
		p.logger.Warn("stored rate rejected", slog.Any("error", err))
	}
	if !p.Muted() {
		p.engine.SetVolume(p.prefs.Volume())
	}

	p.mu.Lock()
	p.lesson = l
	p.mu.Unlock()

	p.logger.Info("opening lesson",
		slog.String("lesson", l.ID),
		slog.String("name", l.Name),
		slog.Int("cues", l.Track.Len()))
	if err := p.engine.Load(l.MediaURL); err != nil {
		return err
	}
	gen := p.engine.State().Generation

	p.mu.Lock()
	p.gen = gen
	p.mu.Unlock()

	p.publishCue(-1)
	return nil
}

// current returns the open lesson if gen is the generation playing it.
func (p *Player) current(gen uint64) (*lesson.Lesson, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.lesson == nil || gen == 0 || gen != p.gen {
		return nil, false
	}
	return p.lesson, true
}

// Lesson returns the open lesson, or nil.
func (p *Player) Lesson() *lesson.Lesson {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lesson
}

// Engine exposes the playback engine for read-only consumers such as MPRIS.
func (p *Player) Engine() *playback.Engine { return p.engine }

// onTick runs after every poll with the position the engine just read. Ticks
// read from a source that has since been replaced are dropped.
func (p *Player) onTick(pos time.Duration, gen uint64) {
	p.switching.Lock()
	defer p.switching.Unlock()

	l, ok := p.current(gen)
	if !ok {
		p.logger.Debug("dropping stale tick", slog.Uint64("generation", gen), slog.Duration("position", pos))
		return
	}
	if target, ok := p.loop.Check(pos); ok {
		p.logger.Debug("loop back", slog.Duration("from", pos), slog.Duration("to", target))
		p.engine.Seek(target)
	}
	if p.sync.Update(pos) {
		p.publishCue(p.sync.Active())
	}
	if p.reporter != nil {
		p.reporter.Track(history.Report{LessonID: l.ID, LessonName: l.Name, Position: pos})
	}
}

// onEnd records the finished lesson and moves on to the next one, if any.
// The switch runs on its own goroutine since it needs switching.
func (p *Player) onEnd(gen uint64) {
	p.switching.Lock()
	defer p.switching.Unlock()

	l, ok := p.current(gen)
	if !ok {
		return
	}
	p.flushReport(l, p.engine.State().Duration)

	p.mu.Lock()
	next := p.queue.HasNext()
	p.mu.Unlock()
	if next {
		go p.advance(gen)
	}
}

// Play starts or resumes playback.
func (p *Player) Play() { p.engine.Play() }

// Pause pauses playback and records the position.
func (p *Player) Pause() {
	p.engine.Pause()
	st := p.engine.State()
	if l, ok := p.current(st.Generation); ok {
		p.flushReport(l, st.Position)
	}
}

// Toggle switches between playing and paused.
func (p *Player) Toggle() {
	if p.engine.State().Playing {
		p.Pause()
		return
	}
	p.Play()
}

// Seek moves to pos and refreshes the active cue, so a paused player shows
// the cue at the new position.
func (p *Player) Seek(pos time.Duration) {
	p.engine.Seek(pos)
	p.refreshCue()
}

// SeekBy moves relative to the current position.
func (p *Player) SeekBy(delta time.Duration) {
	p.Seek(p.engine.State().Position + delta)
}

// SeekSeconds seeks to a position in seconds; NaN and negatives go to 0.
func (p *Player) SeekSeconds(sec float64) {
	p.engine.SeekSeconds(sec)
	p.refreshCue()
}

func (p *Player) refreshCue() {
	if p.sync.Update(p.engine.State().Position) {
		p.publishCue(p.sync.Active())
	}
}

// SetRate changes speed and stores it as the listener's preference.
func (p *Player) SetRate(r float64) error {
	if err := p.engine.SetRate(r); err != nil {
		return err
	}
	p.prefs.SetRate(r)
	return nil
}

// StepRate moves one step up (dir > 0) or down the rate list, clamping at the ends.
func (p *Player) StepRate(dir int) float64 {
	r := playback.StepRate(p.engine.State().Rate, dir)
	if err := p.SetRate(r); err != nil {
		p.logger.Warn("step rate", slog.Any("error", err))
	}
	return p.engine.State().Rate
}

// CycleRate advances to the next rate, wrapping to the slowest.
func (p *Player) CycleRate() float64 {
	r := playback.NextRate(p.engine.State().Rate)
	if err := p.SetRate(r); err != nil {
		p.logger.Warn("cycle rate", slog.Any("error", err))
	}
	return p.engine.State().Rate
}

// SetVolume sets the volume, clamped to [0, 1], and stores it. It unmutes.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	p.unmuted = 0
	p.mu.Unlock()
	p.engine.SetVolume(v)
	p.prefs.SetVolume(p.engine.State().Volume)
}

// ToggleMute silences the output, or restores the volume it had before. The
// stored volume is left alone. It reports whether the player is now muted.
func (p *Player) ToggleMute() bool {
	p.mu.Lock()
	restore := p.unmuted
	p.mu.Unlock()

	if restore > 0 {
		p.SetVolume(restore)
		return false
	}
	vol := p.engine.State().Volume
	if vol <= 0 {
		// Already silent from a volume of zero: unmute to full.
		p.SetVolume(1)
		return false
	}
	p.mu.Lock()
	p.unmuted = vol
	p.mu.Unlock()
	p.engine.SetVolume(0)
	return true
}

// Muted reports whether ToggleMute silenced the output.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unmuted > 0
}

// AdjustVolume changes the volume by delta.
func (p *Player) AdjustVolume(delta float64) {
	p.SetVolume(p.engine.State().Volume + delta)
}

// SetPointA marks the loop start at the current position.
func (p *Player) SetPointA() error {
	st := p.engine.State()
	return p.loop.SetPointA(st.Position, st.Duration)
}

// SetPointB marks the loop end at the current position and arms the loop.
func (p *Player) SetPointB() error {
	st := p.engine.State()
	return p.loop.SetPointB(st.Position, st.Duration)
}

// ClearLoop removes the AB loop. Playback state is unchanged.
func (p *Player) ClearLoop() { p.loop.Clear() }

// ClickCue seeks to cue i without starting playback.
func (p *Player) ClickCue(i int) error {
	if err := p.sync.ClickCue(i); err != nil {
		return err
	}
	p.publishCue(i)
	return nil
}

// StepCue jumps to the next (dir > 0) or previous cue relative to the active
// one, or to the nearest cue around a gap. It returns INVALID_TRACK past either end.
func (p *Player) StepCue(dir int) error {
	track := p.sync.Track()
	pos := p.engine.State().Position
	active := p.sync.Active()

	var target int
	switch {
	case active >= 0 && dir > 0:
		target = active + 1
	case active >= 0:
		target = active - 1
	case dir > 0:
		target = track.NextAfter(pos)
	default:
		target = track.NextAfter(pos) - 1
	}
	return p.ClickCue(target)
}

// ScrollSubtitles scrolls the cue list by delta rows and pauses auto-scroll.
func (p *Player) ScrollSubtitles(delta int) { p.sync.ScrollBy(delta) }

// Recenter resumes auto-scroll around the active cue.
func (p *Player) Recenter() { p.sync.Recenter() }

// SetViewportHeight resizes the visible cue window.
func (p *Player) SetViewportHeight(h int) { p.sync.SetHeight(h) }

// FontLarger steps the subtitle font size up and stores it.
func (p *Player) FontLarger() int {
	p.mu.Lock()
	size := p.font.Larger()
	p.mu.Unlock()
	p.prefs.SetFontSize(size)
	return size
}

// FontSmaller steps the subtitle font size down and stores it.
func (p *Player) FontSmaller() int {
	p.mu.Lock()
	size := p.font.Smaller()
	p.mu.Unlock()
	p.prefs.SetFontSize(size)
	return size
}

// Close records the final position, releases the source and stops all timers.
func (p *Player) Close() error {
	p.nav.Lock()
	defer p.nav.Unlock()
	p.switching.Lock()
	defer p.switching.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	l := p.lesson
	p.subs = nil
	p.mu.Unlock()

	if final := p.engine.Unload(); l != nil {
		p.flushReport(l, final.Position)
	}
	return p.engine.Close()
}

func (p *Player) flushReport(l *lesson.Lesson, pos time.Duration) {
	if p.reporter == nil || pos <= 0 {
		return
	}
	p.reporter.Flush(history.Report{LessonID: l.ID, LessonName: l.Name, Position: pos})
}

// memoryPrefs holds preferences for a Player without a store.
type memoryPrefs struct {
	mu     sync.Mutex
	rate   float64
	volume float64
	font   int
}

func (m *memoryPrefs) Rate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

func (m *memoryPrefs) SetRate(r float64) {
	m.mu.Lock()
	m.rate = r
	m.mu.Unlock()
}

func (m *memoryPrefs) FontSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.font
}

func (m *memoryPrefs) SetFontSize(size int) {
	m.mu.Lock()
	m.font = size
	m.mu.Unlock()
}

func (m *memoryPrefs) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

func (m *memoryPrefs) SetVolume(v float64) {
	m.mu.Lock()
	m.volume = v
	m.mu.Unlock()
}
