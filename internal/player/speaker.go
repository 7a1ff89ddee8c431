package player

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/spf13/afero"

	"github.com/llehouerou/k12listen/internal/timestretch"
)

// seekMute is how long output stays silent after a seek to hide the discontinuity.
const seekMute = 100 * time.Millisecond

// The speaker is process-global and runs at the rate of the first opened media.
var (
	speakerMu          sync.Mutex
	speakerInitialized bool
	speakerSampleRate  beep.SampleRate
)

func initSpeaker(rate beep.SampleRate) (beep.SampleRate, error) {
	speakerMu.Lock()
	defer speakerMu.Unlock()
	if !speakerInitialized {
		if err := speaker.Init(rate, rate.N(time.Second/10)); err != nil {
			return 0, err
		}
		speakerSampleRate = rate
		speakerInitialized = true
	}
	return speakerSampleRate, nil
}

// SpeakerConfig configures a Speaker.
type SpeakerConfig struct {
	Client   *http.Client // defaults to http.DefaultClient
	Fs       afero.Fs     // filesystem for file:// and plain paths; defaults to the OS
	MaxBytes int64        // 0 means unlimited
	Logger   *slog.Logger
}

// Speaker opens media for playback on the system audio device.
type Speaker struct {
	fetcher fetcher
	logger  *slog.Logger
}

// NewSpeaker creates a Speaker. The audio device is initialized on the first Open.
func NewSpeaker(cfg SpeakerConfig) *Speaker {
	if cfg.Client == nil {
		cfg.Client = http.DefaultClient
	}
	if cfg.Fs == nil {
		cfg.Fs = afero.NewOsFs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Speaker{
		fetcher: fetcher{client: cfg.Client, fs: cfg.Fs, maxBytes: cfg.MaxBytes},
		logger:  cfg.Logger,
	}
}

// Inspect fetches and decodes url without touching the audio device.
func (s *Speaker) Inspect(ctx context.Context, url string) (*TrackInfo, error) {
	m, d, err := s.load(ctx, url)
	if err != nil {
		return nil, err
	}
	defer d.streamer.Close()
	return readTrackInfo(url, m, d), nil
}

// Open fetches and decodes url. The returned Source is Stopped at position 0.
func (s *Speaker) Open(ctx context.Context, url string) (Source, error) {
	m, d, err := s.load(ctx, url)
	if err != nil {
		return nil, err
	}

	outRate, err := initSpeaker(d.format.SampleRate)
	if err != nil {
		d.streamer.Close()
		return nil, err
	}

	var stream beep.Streamer = d.streamer
	if d.format.SampleRate != outRate {
		stream = beep.Resample(4, d.format.SampleRate, outRate, d.streamer)
	}
	stretch := timestretch.New(stream, outRate)
	ctrl := &beep.Ctrl{Streamer: stretch, Paused: true}

	src := &speakerSource{
		info:    readTrackInfo(url, m, d),
		dec:     d,
		outRate: outRate,
		stretch: stretch,
		ctrl:    ctrl,
		volume:  &effects.Volume{Streamer: ctrl, Base: 2},
		state:   Stopped,
	}
	s.logger.Debug("media opened",
		slog.String("url", url),
		slog.String("format", d.name),
		slog.Int("sample_rate", int(d.format.SampleRate)),
		slog.Duration("duration", src.info.Duration))
	return src, nil
}

func (s *Speaker) load(ctx context.Context, url string) (*media, *decoded, error) {
	m, err := s.fetcher.fetch(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	d, err := decode(m)
	if err != nil {
		return nil, nil, err
	}
	return m, d, nil
}

// speakerSource plays one decoded stream through
// decoder -> resampler -> time stretcher -> ctrl -> volume -> speaker.
//
// Lock order is mu, then speaker.Lock. The end-of-stream callback runs under the
// speaker lock, so it only hands off to a goroutine.
type speakerSource struct {
	info    *TrackInfo
	dec     *decoded
	outRate beep.SampleRate
	stretch *timestretch.Stretcher
	ctrl    *beep.Ctrl
	volume  *effects.Volume

	mu         sync.Mutex
	state      State
	attached   bool   // volume is currently in the speaker mixer
	seq        uint64 // identifies the current attachment
	onFinished func()
	unmute     *time.Timer
	closed     bool
}

func (s *speakerSource) Info() *TrackInfo        { return s.info }
func (s *speakerSource) Duration() time.Duration { return s.info.Duration }

func (s *speakerSource) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Position is the decoder position minus the audio the stretcher holds but has not emitted.
func (s *speakerSource) Position() time.Duration {
	speaker.Lock()
	decoded := s.dec.streamer.Position()
	buffered := s.stretch.Buffered()
	speaker.Unlock()

	pos := s.dec.format.SampleRate.D(decoded) - s.outRate.D(buffered)
	return min(max(pos, 0), s.info.Duration)
}

func (s *speakerSource) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state == Playing {
		return nil
	}

	if s.attached {
		speaker.Lock()
		s.ctrl.Paused = false
		speaker.Unlock()
		s.state = Playing
		return nil
	}

	if s.dec.streamer.Position() >= s.dec.streamer.Len() {
		if err := s.dec.streamer.Seek(0); err != nil {
			return err
		}
		s.stretch.Reset()
	}
	s.ctrl.Paused = false
	s.attach()
	s.state = Playing
	return nil
}

// attach adds the chain to the speaker mixer. Caller holds mu.
func (s *speakerSource) attach() {
	s.seq++
	seq := s.seq
	s.attached = true
	speaker.Play(beep.Seq(s.volume, beep.Callback(func() {
		go s.finished(seq)
	})))
}

func (s *speakerSource) finished(seq uint64) {
	s.mu.Lock()
	if s.closed || seq != s.seq {
		s.mu.Unlock()
		return
	}
	s.attached = false
	s.state = Stopped
	fn := s.onFinished
	s.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (s *speakerSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != Playing {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
	s.state = Paused
}

// Seek moves the decoder to pos, clamped to [0, Duration], and briefly mutes output.
func (s *speakerSource) Seek(pos time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	pos = min(max(pos, 0), s.info.Duration)
	sample := min(s.dec.format.SampleRate.N(pos), s.dec.streamer.Len())

	speaker.Lock()
	err := s.dec.streamer.Seek(sample)
	s.stretch.Reset()
	s.volume.Silent = true
	speaker.Unlock()

	if s.unmute != nil {
		s.unmute.Stop()
	}
	s.unmute = time.AfterFunc(seekMute, func() {
		speaker.Lock()
		s.volume.Silent = false
		speaker.Unlock()
	})
	return err
}

func (s *speakerSource) SetVolume(level float64) {
	level, ok := clampLevel(level)
	if !ok {
		return
	}
	speaker.Lock()
	s.volume.Volume = levelToVolume(level)
	speaker.Unlock()
}

func (s *speakerSource) SetRate(rate float64) {
	speaker.Lock()
	s.stretch.SetRatio(rate)
	speaker.Unlock()
}

func (s *speakerSource) OnFinished(fn func()) {
	s.mu.Lock()
	s.onFinished = fn
	s.mu.Unlock()
}

// Close detaches the stream from the mixer and releases the decoder.
// A nil Ctrl streamer makes the mixer drop it on the next buffer.
func (s *speakerSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.seq++
	s.state = Stopped

	if s.unmute != nil {
		s.unmute.Stop()
	}

	speaker.Lock()
	s.ctrl.Streamer = nil
	speaker.Unlock()

	return s.dec.streamer.Close()
}
