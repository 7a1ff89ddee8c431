package playback

import "time"

// Scheduler runs f once after d. The returned stop function cancels the call and
// reports whether it was still pending, like (*time.Timer).Stop.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// ClockScheduler schedules on the runtime timer.
type ClockScheduler struct{}

func (ClockScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}
