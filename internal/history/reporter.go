package history

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing of throttled reports.
const DefaultInterval = 10 * time.Second

const reportTimeout = 5 * time.Second

// Reporter throttles position reports and delivers them to a Sink on its
// own goroutine, so callers on the playback tick never block on I/O.
// Only the latest undelivered report of each lesson is kept.
type Reporter struct {
	sink    Sink
	limiter *rate.Limiter
	logger  *slog.Logger

	mu      sync.Mutex
	session string
	pending []Report // at most one per lesson, oldest lesson first
	closed  bool

	wake chan struct{}
	done chan struct{}
}

// NewReporter starts a reporter. interval <= 0 disables throttling.
func NewReporter(sink Sink, interval time.Duration, logger *slog.Logger) *Reporter {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	r := &Reporter{
		sink:    sink,
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// NewSession starts a new listening session and returns its id.
func (r *Reporter) NewSession() (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	r.mu.Lock()
	r.session = id
	r.mu.Unlock()
	return id, nil
}

// Session returns the current session id.
func (r *Reporter) Session() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Track queues rep if the throttle allows it. It reports whether rep was queued.
func (r *Reporter) Track(rep Report) bool {
	if !r.limiter.Allow() {
		return false
	}
	return r.enqueue(rep)
}

// Flush queues rep regardless of the throttle. Use it on pause, lesson
// switch and shutdown.
func (r *Reporter) Flush(rep Report) bool {
	return r.enqueue(rep)
}

func (r *Reporter) enqueue(rep Report) bool {
	if rep.LessonID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return false
	}
	if rep.Session == "" {
		rep.Session = r.session
	}
	if rep.At.IsZero() {
		rep.At = time.Now()
	}
	if i := slices.IndexFunc(r.pending, func(p Report) bool { return p.LessonID == rep.LessonID }); i >= 0 {
		r.pending[i] = rep
	} else {
		r.pending = append(r.pending, rep)
	}

	select {
	case r.wake <- struct{}{}:
	default:
	}
	return true
}

func (r *Reporter) run() {
	defer close(r.done)
	for range r.wake {
		r.mu.Lock()
		batch := r.pending
		r.pending = nil
		r.mu.Unlock()

		for _, rep := range batch {
			r.deliver(rep)
		}
	}
}

func (r *Reporter) deliver(rep Report) {
	ctx, cancel := context.WithTimeout(context.Background(), reportTimeout)
	defer cancel()
	if err := r.sink.Report(ctx, rep); err != nil {
		r.logger.Warn("history report failed", "lesson", rep.LessonID, "error", err)
	}
}

// Close delivers any queued report and stops the reporter.
func (r *Reporter) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		<-r.done
		return
	}
	r.closed = true
	close(r.wake)
	r.mu.Unlock()
	<-r.done
}
