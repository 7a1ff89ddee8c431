package lessonplayer

import (
	"github.com/llehouerou/k12listen/internal/abloop"
	"github.com/llehouerou/k12listen/internal/lesson"
	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/subtitle"
)

// Snapshot is a read-only view of everything the presentation layer renders.
type Snapshot struct {
	Lesson   *lesson.Lesson
	Playback playback.State
	Muted    bool

	LessonIndex int // position of Lesson in the unit, -1 when none
	LessonCount int

	Loop        abloop.Loop
	LoopStart   float64 // loop band as fractions of the duration
	LoopWidth   float64
	LoopVisible bool

	Track          *subtitle.Track
	ActiveCue      int
	ViewOffset     int
	ViewHeight     int
	AutoScroll     bool
	SubtitleStatus string

	FontSize  int
	FontSizes []int
	CanGrow   bool
	CanShrink bool
}

// Snapshot returns the consolidated player state.
func (p *Player) Snapshot() Snapshot {
	st := p.engine.State()
	offset, height := p.sync.Viewport()
	start, width, visible := p.loop.Region(st.Duration)

	p.mu.Lock()
	l := p.lesson
	muted := p.unmuted > 0
	index, count := p.queue.CurrentIndex(), p.queue.Len()
	fontSize := p.font.Size()
	fontSizes := p.font.Sizes()
	canGrow := p.font.CanGrow()
	canShrink := p.font.CanShrink()
	p.mu.Unlock()

	return Snapshot{
		Lesson:         l,
		Playback:       st,
		Muted:          muted,
		LessonIndex:    index,
		LessonCount:    count,
		Loop:           p.loop.State(),
		LoopStart:      start,
		LoopWidth:      width,
		LoopVisible:    visible,
		Track:          p.sync.Track(),
		ActiveCue:      p.sync.Active(),
		ViewOffset:     offset,
		ViewHeight:     height,
		AutoScroll:     p.sync.AutoScroll(),
		SubtitleStatus: p.sync.Status(),
		FontSize:       fontSize,
		FontSizes:      fontSizes,
		CanGrow:        canGrow,
		CanShrink:      canShrink,
	}
}
