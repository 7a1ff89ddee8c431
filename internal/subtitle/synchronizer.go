package subtitle

import (
	"sync"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
)

// NoSubtitles is the status shown for a lesson without cues.
const NoSubtitles = "No subtitles available"

// Seeker moves playback to a position without changing play/pause state.
type Seeker interface {
	Seek(pos time.Duration)
}

// Synchronizer tracks the active cue for the playback position and keeps it inside
// a scrolling viewport of Height cue rows.
//
// Auto-scroll centers the active cue only when it is outside the viewport. Manual
// scrolling suspends auto-scroll until Recenter.
type Synchronizer struct {
	seeker Seeker

	mu         sync.Mutex
	track      *Track
	active     int
	offset     int
	height     int
	autoScroll bool
}

// NewSynchronizer creates a Synchronizer showing height rows at a time.
func NewSynchronizer(seeker Seeker, height int) *Synchronizer {
	return &Synchronizer{
		seeker:     seeker,
		active:     -1,
		height:     max(height, 1),
		autoScroll: true,
	}
}

// SetTrack replaces the track wholesale and resets the view.
func (s *Synchronizer) SetTrack(t *Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.track = t
	s.active = -1
	s.offset = 0
	s.autoScroll = true
}

// Track returns the current track, possibly nil.
func (s *Synchronizer) Track() *Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.track
}

// Status returns NoSubtitles for an empty track and "" otherwise.
func (s *Synchronizer) Status() string {
	if s.Track().Empty() {
		return NoSubtitles
	}
	return ""
}

// Update recomputes the active cue for pos and reports whether it changed.
// Repeated calls within one cue do nothing.
func (s *Synchronizer) Update(pos time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.track.FindActive(pos)
	if idx == s.active {
		return false
	}
	s.active = idx
	if s.autoScroll {
		s.revealLocked(idx)
	}
	return true
}

// Active returns the active cue index, or -1.
func (s *Synchronizer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// ClickCue seeks to the start of cue i and makes it active. It never starts playback.
func (s *Synchronizer) ClickCue(i int) error {
	s.mu.Lock()
	if i < 0 || i >= s.track.Len() {
		n := s.track.Len()
		s.mu.Unlock()
		return apperr.InvalidTrackf("no cue %d in a track of %d", i, n)
	}
	start := s.track.Cue(i).Start
	s.active = i
	s.autoScroll = true
	s.revealLocked(i)
	s.mu.Unlock()

	s.seeker.Seek(start)
	return nil
}

// Viewport returns the first visible cue row and the number of rows.
func (s *Synchronizer) Viewport() (offset, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offset, s.height
}

// SetHeight resizes the viewport and keeps the active cue visible when auto-scrolling.
func (s *Synchronizer) SetHeight(h int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.height = max(h, 1)
	s.offset = min(s.offset, s.maxOffsetLocked())
	if s.autoScroll {
		s.revealLocked(s.active)
	}
}

// ScrollBy moves the viewport by delta rows and suspends auto-scroll.
func (s *Synchronizer) ScrollBy(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoScroll = false
	s.offset = max(0, min(s.offset+delta, s.maxOffsetLocked()))
}

// Recenter resumes auto-scroll and centers the active cue.
func (s *Synchronizer) Recenter() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoScroll = true
	s.centerLocked(s.active)
}

// AutoScroll reports whether the view follows the active cue.
func (s *Synchronizer) AutoScroll() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.autoScroll
}

// Visible reports whether cue i is inside the viewport.
func (s *Synchronizer) Visible(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visibleLocked(i)
}

func (s *Synchronizer) visibleLocked(i int) bool {
	return i >= s.offset && i < s.offset+s.height
}

// revealLocked centers cue i unless it is already visible.
func (s *Synchronizer) revealLocked(i int) {
	if i < 0 || s.visibleLocked(i) {
		return
	}
	s.centerLocked(i)
}

func (s *Synchronizer) centerLocked(i int) {
	if i < 0 {
		return
	}
	s.offset = i - s.height/2
	s.offset = max(0, min(s.offset, s.maxOffsetLocked()))
}

func (s *Synchronizer) maxOffsetLocked() int {
	return max(s.track.Len()-s.height, 0)
}
