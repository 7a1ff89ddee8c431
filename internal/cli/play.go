package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/llehouerou/k12listen/internal/config"
	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/history"
	"github.com/llehouerou/k12listen/internal/icons"
	"github.com/llehouerou/k12listen/internal/lesson"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/logger"
	"github.com/llehouerou/k12listen/internal/mpris"
	"github.com/llehouerou/k12listen/internal/notify"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/player"
	"github.com/llehouerou/k12listen/internal/state"
	"github.com/llehouerou/k12listen/internal/stderr"
	"github.com/llehouerou/k12listen/internal/ui/lessonview"
)

// silentFallback is the simulated length of a lesson that states no duration.
const silentFallback = 10 * time.Minute

type playOptions struct {
	media    string
	subs     string
	id       string
	name     string
	start    int
	silent   bool
	resume   bool
	autoplay bool
}

func newPlayCmd(a *app) *cobra.Command {
	var opts playOptions

	cmd := &cobra.Command{
		Use:   "play [lesson.json | unit.json]...",
		Short: "Open lessons in the player",
		Long: `Open one or more lessons in the player. A unit file lists the lessons of a
textbook unit; lessons given together play in order and N/P move between them.`,
		Example: `  k12listen play unit3/lesson2.json
  k12listen play unit3/unit.json --start 2
  k12listen play unit3/lesson1.json unit3/lesson2.json --autoplay
  k12listen play --media https://k12.example.com/audio/l2.mp3 --subs l2.srt
  k12listen play lesson.json --silent --resume`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.play(cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.media, "media", "m", "", "Media path or URL to play without a lesson file")
	f.StringVarP(&opts.subs, "subs", "s", "", "Subtitle file (SRT, LRC or JSON cues) for --media")
	f.StringVar(&opts.id, "id", "", "Lesson id for --media (default: media file name)")
	f.StringVar(&opts.name, "name", "", "Lesson name for --media (default: media file name)")
	f.IntVar(&opts.start, "start", 1, "Lesson to open first, counting from 1")
	f.BoolVar(&opts.silent, "silent", false, "Simulate playback without an audio device")
	f.BoolVarP(&opts.resume, "resume", "r", false, "Start where the lesson was left last time")
	f.BoolVarP(&opts.autoplay, "autoplay", "p", false, "Start playing as soon as the audio is ready")
	lo.Must0(cmd.MarkFlagFilename("subs", "srt", "lrc", "json"))

	return cmd
}

// openLessons resolves the lesson list from lesson and unit files or from --media.
func openLessons(loader *lesson.Loader, files []string, opts playOptions) ([]*lesson.Lesson, error) {
	switch {
	case len(files) > 0 && opts.media != "":
		return nil, errors.New("give either lesson files or --media, not both")
	case len(files) > 0:
		if opts.subs != "" || opts.id != "" || opts.name != "" {
			return nil, errors.New("--subs, --id and --name only apply to --media")
		}
		return loader.LoadAll(files...)
	case opts.media != "":
		l, err := loader.FromMedia(opts.id, opts.name, opts.media, opts.subs)
		if err != nil {
			return nil, err
		}
		return []*lesson.Lesson{l}, nil
	default:
		return nil, errors.New("a lesson file or --media is required")
	}
}

// startIndex turns the 1-based --start into an index into lessons.
func startIndex(lessons []*lesson.Lesson, start int) (int, error) {
	if start < 1 || start > len(lessons) {
		return 0, fmt.Errorf("--start %d is out of range: %d lessons given", start, len(lessons))
	}
	return start - 1, nil
}

func (a *app) play(cmd *cobra.Command, files []string, opts playOptions) error {
	lessons, err := openLessons(lesson.NewLoader(nil), files, opts)
	if err != nil {
		return err
	}
	first, err := startIndex(lessons, opts.start)
	if err != nil {
		return err
	}

	// The terminal belongs to the player from here on.
	lc := a.cfg.GetLogConfig()
	log, logFile, err := logger.OpenFile(lc.File, lc.Format, lc.Level)
	if err != nil {
		return err
	}
	defer logFile.Close()

	if err := stderr.Start(log); err != nil {
		log.Warn("stderr capture unavailable", slog.Any("error", err))
	}
	defer stderr.Stop()

	s, err := a.newSession(opts, lessons, first, log)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.start(opts); err != nil {
		return errors.New(errmsg.FormatWith(errmsg.OpLessonOpen, lessons[first].Name, err))
	}

	log.Debug("icon set", slog.String("style", string(icons.Init(a.cfg.Icons))))
	prog := tea.NewProgram(
		lessonview.New(s.player, log),
		tea.WithAltScreen(),
		tea.WithContext(cmd.Context()),
		tea.WithInput(cmd.InOrStdin()),
		tea.WithOutput(cmd.OutOrStdout()),
	)
	if _, err := prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run player: %w", err)
	}
	return nil
}

// session is everything one play command keeps open.
type session struct {
	lessons  []*lesson.Lesson
	first    int
	store    *state.Manager
	reporter *history.Reporter
	player   *lessonplayer.Player
	media    io.Closer
	logger   *slog.Logger
}

func (a *app) newSession(opts playOptions, lessons []*lesson.Lesson, first int, log *slog.Logger) (*session, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, err
	}
	store.SetLogger(log)

	pc := a.cfg.GetPlaybackConfig()
	sc := a.cfg.GetSubtitleConfig()
	hc := a.cfg.GetHistoryConfig()

	sinks := history.Multi{history.StoreSink{Store: store}}
	if a.cfg.HasHistoryEndpoint() {
		sinks = append(sinks, history.HTTPSink{
			Client:   &http.Client{Timeout: 10 * time.Second},
			Endpoint: hc.Endpoint,
			Token:    hc.Token,
		})
	}
	reporter := history.NewReporter(sinks, hc.ReportInterval, log)

	p := lessonplayer.New(lessonplayer.Options{
		Loader:         transport(opts, lessons, pc, log),
		PollInterval:   pc.PollInterval,
		Prefs:          store,
		Reporter:       reporter,
		FontSizes:      sc.FontSizes,
		ViewportHeight: sc.ViewportHeight,
		Logger:         log,
	})

	s := &session{
		lessons:  lessons,
		first:    first,
		store:    store,
		reporter: reporter,
		player:   p,
		logger:   log,
	}

	if a.cfg.MPRISEnabled() {
		adapter, err := mpris.New(p, log)
		if err != nil {
			log.Warn("mpris unavailable", slog.Any("error", err))
		} else {
			s.media = adapter
		}
	}

	if a.cfg.Notifications {
		announcer := notify.NewAnnouncer(notify.New(), log)
		go announcer.Watch(p.Subscribe().Subscription, func() (string, string) {
			l := p.Lesson()
			if l == nil {
				return "", ""
			}
			return l.Name, mpris.FindCoverArt(l.MediaURL)
		})
	}
	return s, nil
}

// transport picks the audio device, or a clock-driven stand-in for --silent.
// Silent lessons last as long as their declared duration or their last cue.
func transport(opts playOptions, lessons []*lesson.Lesson, pc config.PlaybackConfig, log *slog.Logger) player.Loader {
	if opts.silent {
		lengths := make(map[string]time.Duration, len(lessons))
		for _, l := range lessons {
			if d := max(l.Duration, l.Track.Duration()); d > 0 {
				lengths[l.MediaURL] = d
			}
		}
		sim := player.NewSimulated(silentFallback)
		sim.Length = func(_ context.Context, url string) (time.Duration, error) {
			if d, ok := lengths[url]; ok {
				return d, nil
			}
			return silentFallback, nil
		}
		return sim
	}
	return player.NewSpeaker(player.SpeakerConfig{
		Client:   &http.Client{Timeout: pc.FetchTimeout},
		MaxBytes: pc.MaxMediaBytes,
		Logger:   log,
	})
}

// start opens the first lesson and, when asked, seeks to its last position and
// starts playback once the audio is ready.
func (s *session) start(opts playOptions) error {
	var from time.Duration
	if opts.resume {
		pos, ok, err := s.store.LastPosition(s.lessons[s.first].ID)
		switch {
		case err != nil:
			s.logger.Warn("reading last position", slog.Any("error", err))
		case ok:
			from = pos
		}
	}

	if from > 0 || opts.autoplay {
		go whenReady(s.player.Subscribe().Subscription, func() {
			if from > 0 {
				s.player.Seek(from)
			}
			if opts.autoplay {
				s.player.Play()
			}
		})
	}
	return s.player.OpenUnit(s.lessons, s.first)
}

// whenReady runs fn once the first load on sub finishes, and not at all if it fails.
func whenReady(sub *playback.Subscription, fn func()) {
	for {
		select {
		case <-sub.Done:
			return
		case ch := <-sub.StateChanged:
			switch {
			case ch.Current == playback.StatusFailed:
				return
			case ch.Previous == playback.StatusLoading && ch.State.Ready():
				fn()
				return
			}
		}
	}
}

// Close releases the player first so its final position report reaches the store.
func (s *session) Close() error {
	var errs []error
	if s.media != nil {
		errs = append(errs, s.media.Close())
	}
	errs = append(errs, s.player.Close())
	s.reporter.Close()
	errs = append(errs, s.store.Close())
	return errors.Join(errs...)
}
