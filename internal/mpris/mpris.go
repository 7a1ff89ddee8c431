//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"

	"github.com/llehouerou/k12listen/internal/lessonplayer"
	"github.com/llehouerou/k12listen/internal/playback"
)

// Adapter exposes the lesson player to MPRIS over D-Bus.
type Adapter struct {
	server *server.Server
	logger *slog.Logger
}

// New creates and starts a new MPRIS adapter.
func New(player Controller, logger *slog.Logger) (*Adapter, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Adapter{logger: logger}
	a.server = server.NewServer("k12listen", &rootAdapter{}, &playerAdapter{player: player})

	// Start the server in background
	go func() {
		if err := a.server.Listen(); err != nil {
			a.logger.Warn("mpris server stopped", slog.Any("error", err))
		}
	}()

	return a, nil
}

// Close stops the adapter and releases D-Bus resources.
func (a *Adapter) Close() error {
	return a.server.Stop()
}

// rootAdapter implements OrgMprisMediaPlayer2Adapter.
type rootAdapter struct{}

func (r *rootAdapter) Raise() error {
	return nil // Not supported
}

func (r *rootAdapter) Quit() error {
	return nil // Not supported - app manages its own lifecycle
}

func (r *rootAdapter) CanQuit() (bool, error) {
	return false, nil
}

func (r *rootAdapter) CanRaise() (bool, error) {
	return false, nil
}

func (r *rootAdapter) HasTrackList() (bool, error) {
	return false, nil
}

func (r *rootAdapter) Identity() (string, error) {
	return "K12 Listen", nil
}

//nolint:revive // Method name required by interface.
func (r *rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"file", "http", "https"}, nil
}

func (r *rootAdapter) SupportedMimeTypes() ([]string, error) {
	return []string{"audio/mpeg", "audio/flac", "audio/wav", "audio/ogg"}, nil
}

// playerAdapter implements OrgMprisMediaPlayer2PlayerAdapter and LoopStatus.
// Next and Previous step through subtitle cues, then through the lessons of
// the unit.
type playerAdapter struct {
	player Controller
}

func (p *playerAdapter) Next() error {
	return step(p.player, 1)
}

func (p *playerAdapter) Previous() error {
	return step(p.player, -1)
}

func (p *playerAdapter) Pause() error {
	p.player.Pause()
	return nil
}

func (p *playerAdapter) PlayPause() error {
	p.player.Toggle()
	return nil
}

func (p *playerAdapter) Stop() error {
	p.player.Pause()
	p.player.Seek(0)
	return nil
}

func (p *playerAdapter) Play() error {
	p.player.Play()
	return nil
}

func (p *playerAdapter) Seek(offset types.Microseconds) error {
	p.player.SeekBy(time.Duration(offset) * time.Microsecond)
	return nil
}

func (p *playerAdapter) SetPosition(_ string, position types.Microseconds) error {
	p.player.Seek(time.Duration(position) * time.Microsecond)
	return nil
}

//nolint:revive // Method name required by interface.
func (p *playerAdapter) OpenUri(_ string) error {
	return nil // Lessons are opened from the CLI
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	return playbackStatus(p.player.Snapshot().Playback.Status()), nil
}

func (p *playerAdapter) Rate() (float64, error) {
	return p.player.Snapshot().Playback.Rate, nil
}

func (p *playerAdapter) SetRate(rate float64) error {
	return p.player.SetRate(playback.NearestRate(rate))
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	return metadata(p.player.Snapshot()), nil
}

func (p *playerAdapter) Volume() (float64, error) {
	return p.player.Snapshot().Playback.Volume, nil
}

func (p *playerAdapter) SetVolume(volume float64) error {
	p.player.SetVolume(volume)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.player.Snapshot().Playback.Position.Microseconds(), nil
}

func (p *playerAdapter) MinimumRate() (float64, error) {
	return playback.Rates()[0], nil
}

func (p *playerAdapter) MaximumRate() (float64, error) {
	rates := playback.Rates()
	return rates[len(rates)-1], nil
}

func (p *playerAdapter) CanGoNext() (bool, error) {
	s := p.player.Snapshot()
	return s.Track.Len() > 0 || s.LessonIndex < s.LessonCount-1, nil
}

func (p *playerAdapter) CanGoPrevious() (bool, error) {
	s := p.player.Snapshot()
	return s.Track.Len() > 0 || s.LessonIndex > 0, nil
}

func (p *playerAdapter) CanPlay() (bool, error) {
	return p.player.Snapshot().Playback.Ready(), nil
}

func (p *playerAdapter) CanPause() (bool, error) {
	return true, nil
}

func (p *playerAdapter) CanSeek() (bool, error) {
	return p.player.Snapshot().Playback.Ready(), nil
}

func (p *playerAdapter) CanControl() (bool, error) {
	return true, nil
}

// LoopStatus reports an armed AB loop as a track loop.
func (p *playerAdapter) LoopStatus() (types.LoopStatus, error) {
	if p.player.Snapshot().Loop.Enabled {
		return types.LoopStatusTrack, nil
	}
	return types.LoopStatusNone, nil
}

// SetLoopStatus clears the AB loop on None. Loop points can only be set
// from the player, so other values are ignored.
func (p *playerAdapter) SetLoopStatus(status types.LoopStatus) error {
	if status == types.LoopStatusNone {
		p.player.ClearLoop()
	}
	return nil
}

func (p *playerAdapter) Shuffle() (bool, error) {
	return false, nil
}

func (p *playerAdapter) SetShuffle(_ bool) error {
	return nil // Cue order is fixed
}

func metadata(s lessonplayer.Snapshot) types.Metadata {
	m, ok := describe(s)
	if !ok {
		return types.Metadata{TrackId: trackID("")}
	}
	meta := types.Metadata{
		TrackId: trackID(m.ID),
		Length:  types.Microseconds(m.Length.Microseconds()),
		Title:   m.Title,
		Album:   m.Album,
		ArtUrl:  m.ArtURL,
	}
	if m.Artist != "" {
		meta.Artist = []string{m.Artist}
	}
	return meta
}

func playbackStatus(s playback.Status) types.PlaybackStatus {
	switch s {
	case playback.StatusPlaying:
		return types.PlaybackStatusPlaying
	case playback.StatusPaused:
		return types.PlaybackStatusPaused
	case playback.StatusIdle, playback.StatusLoading, playback.StatusEnded, playback.StatusFailed:
		return types.PlaybackStatusStopped
	}
	return types.PlaybackStatusStopped
}

func formatTrackID(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/mpris/MediaPlayer2/Track/%x", h.Sum64())
}

// trackID is the object path for the open lesson.
func trackID(lessonID string) dbus.ObjectPath {
	if lessonID == "" {
		return dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")
	}
	return dbus.ObjectPath(formatTrackID(lessonID))
}
