// Package notify sends desktop notifications for lesson events.
package notify

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/llehouerou/k12listen/internal/errmsg"
	"github.com/llehouerou/k12listen/internal/playback"
)

// Urgency represents notification priority levels per freedesktop spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// finishedTimeout is how long the lesson-finished bubble stays up, in ms.
const finishedTimeout = 5000

// Notification contains data for a desktop notification.
type Notification struct {
	Title      string  // Summary text (required)
	Body       string  // Body text (optional, supports basic markup)
	Icon       string  // Path to image file or icon name (optional)
	Timeout    int32   // ms, -1 = server default, 0 = never expire
	ReplacesID uint32  // 0 = new notification, >0 = replace existing
	Urgency    Urgency // Low, Normal, Critical
}

// Notifier sends desktop notifications.
type Notifier interface {
	// Notify sends a notification and returns its ID.
	// Returns 0 and nil error if notifications are disabled or unavailable.
	Notify(n Notification) (uint32, error)
	// Close closes a notification by ID.
	Close(id uint32) error
}

// Announcer turns lesson events into notifications. Each announcement
// replaces the previous one so a session shows a single bubble.
type Announcer struct {
	notifier Notifier
	logger   *slog.Logger

	mu     sync.Mutex
	lastID uint32
}

// NewAnnouncer creates an Announcer. A nil logger uses slog.Default.
func NewAnnouncer(n Notifier, logger *slog.Logger) *Announcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Announcer{notifier: n, logger: logger}
}

// LessonFinished announces that a lesson played to its end.
func (a *Announcer) LessonFinished(name, icon string) {
	a.send(Notification{
		Title:   "Lesson finished",
		Body:    name,
		Icon:    icon,
		Timeout: finishedTimeout,
		Urgency: UrgencyLow,
	})
}

// LoadFailed announces that a lesson's audio could not be loaded.
func (a *Announcer) LoadFailed(name string, err error) {
	a.send(Notification{
		Title:   "Cannot play " + name,
		Body:    errmsg.Describe(err),
		Timeout: -1,
		Urgency: UrgencyCritical,
	})
}

// Watch announces end and load-failure events from sub until its Done
// channel closes. current names the lesson the events belong to.
func (a *Announcer) Watch(sub *playback.Subscription, current func() (name, icon string)) {
	for {
		select {
		case <-sub.Done:
			return
		case <-sub.Ended:
			name, icon := current()
			a.LessonFinished(name, icon)
		case ev := <-sub.Error:
			if ev.Operation != "load" {
				continue
			}
			name, _ := current()
			a.LoadFailed(name, ev.Err)
		}
	}
}

// Dismiss closes the last notification, if any.
func (a *Announcer) Dismiss() {
	a.mu.Lock()
	id := a.lastID
	a.lastID = 0
	a.mu.Unlock()

	if id == 0 {
		return
	}
	if err := a.notifier.Close(id); err != nil {
		a.logger.Debug("close notification", slog.Any("error", err))
	}
}

func (a *Announcer) send(n Notification) {
	a.mu.Lock()
	defer a.mu.Unlock()

	n.ReplacesID = a.lastID
	id, err := a.notifier.Notify(n)
	if err != nil {
		a.logger.Warn("desktop notification failed",
			slog.String("title", n.Title), slog.Any("error", err))
		return
	}
	a.lastID = id
}

// String renders a notification for logs.
func (n Notification) String() string {
	if n.Body == "" {
		return n.Title
	}
	return fmt.Sprintf("%s: %s", n.Title, n.Body)
}
