package mpris

import (
	"errors"
	"time"

	"github.com/llehouerou/k12listen/internal/apperr"
	"github.com/llehouerou/k12listen/internal/lessonplayer"
)

// Controller is the part of the lesson player driven by media keys.
type Controller interface {
	Snapshot() lessonplayer.Snapshot
	Play()
	Pause()
	Toggle()
	Seek(pos time.Duration)
	SeekBy(delta time.Duration)
	SetRate(r float64) error
	SetVolume(v float64)
	StepCue(dir int) error
	NextLesson() error
	PreviousLesson() error
	ClearLoop()
}

var _ Controller = (*lessonplayer.Player)(nil)

// step moves one cue in dir, or to the neighboring lesson past the first or
// last cue. Running off either end of the unit is not an error.
func step(c Controller, dir int) error {
	err := c.StepCue(dir)
	if !errors.Is(err, apperr.ErrInvalidTrack) {
		return err
	}
	if dir > 0 {
		err = c.NextLesson()
	} else {
		err = c.PreviousLesson()
	}
	if errors.Is(err, apperr.ErrEndOfUnit) {
		return nil
	}
	return err
}

// lessonMeta is the media-key view of the open lesson.
type lessonMeta struct {
	ID     string
	Title  string
	Artist string
	Album  string
	Length time.Duration
	ArtURL string
}

// describe builds lessonMeta from a snapshot. Embedded tags fill in what the
// lesson document leaves out. ok is false when no lesson is open.
func describe(s lessonplayer.Snapshot) (lessonMeta, bool) {
	if s.Lesson == nil {
		return lessonMeta{}, false
	}
	m := lessonMeta{
		ID:     s.Lesson.ID,
		Title:  s.Lesson.Name,
		Length: s.Playback.Duration,
	}
	if m.Length <= 0 {
		m.Length = s.Lesson.Duration
	}
	if info := s.Playback.Info; info != nil {
		if m.Title == "" {
			m.Title = info.Title
		}
		m.Artist = info.Artist
		m.Album = info.Album
	}
	if m.Title == "" {
		m.Title = m.ID
	}
	if art := FindCoverArt(s.Lesson.MediaURL); art != "" {
		m.ArtURL = "file://" + art
	}
	return m, true
}
