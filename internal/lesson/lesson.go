// Package lesson loads lesson descriptors: the media URL and subtitle track
// the player needs to open a lesson.
package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"

	"github.com/llehouerou/k12listen/internal/apperr"
	"github.com/llehouerou/k12listen/internal/subtitle"
)

// Lesson is what the player opens.
type Lesson struct {
	ID       string
	Name     string
	MediaURL string
	// Duration is advisory, as stored with the lesson; the transport reports the real one.
	Duration time.Duration
	Track    *subtitle.Track
}

// File is the on-disk lesson descriptor, mirroring a lesson row.
type File struct {
	ID            string          `json:"id" validate:"required"`
	Name          string          `json:"name" validate:"required,max=200"`
	AudioURL      string          `json:"audio_url" validate:"required"`
	AudioDuration float64         `json:"audio_duration" validate:"gte=0"`
	SubtitleText  json.RawMessage `json:"subtitle_text,omitempty"`
	SubtitleFile  string          `json:"subtitle_file,omitempty"`
}

// Loader reads lesson files and subtitle files from a filesystem.
type Loader struct {
	fs       afero.Fs
	validate *validator.Validate
}

// NewLoader returns a Loader over fs (the OS filesystem when nil).
func NewLoader(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	v := validator.New()
	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return &Loader{fs: fs, validate: v}
}

// Load reads and validates a lesson file. A relative audio_url or
// subtitle_file is resolved against the lesson file's directory.
func (l *Loader) Load(name string) (*Lesson, error) {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return nil, apperr.InvalidLesson("read lesson "+name, err)
	}
	return l.decode(name, data)
}

func (l *Loader) decode(name string, data []byte) (*Lesson, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, apperr.InvalidLesson("decode lesson "+name, err)
	}
	return l.build(f, filepath.Dir(name))
}

func (l *Loader) build(f File, dir string) (*Lesson, error) {
	if err := l.validate.Struct(f); err != nil {
		return nil, apperr.InvalidLesson("lesson validation failed", describe(err))
	}

	duration := time.Duration(math.Round(f.AudioDuration * float64(time.Second)))
	lesson := &Lesson{
		ID:       f.ID,
		Name:     f.Name,
		MediaURL: resolve(dir, f.AudioURL),
		Duration: duration,
	}

	track, err := parseSubtitleText(f.SubtitleText, duration)
	if err != nil {
		return nil, apperr.InvalidLesson("subtitle_text", err)
	}
	if track == nil && f.SubtitleFile != "" {
		track, err = l.ParseSubtitles(resolve(dir, f.SubtitleFile), duration)
		if err != nil {
			return nil, err
		}
	}
	lesson.Track = track
	return lesson, nil
}

// FromMedia builds a lesson from a media URL and an optional subtitle file.
// id and name default to the media file name.
func (l *Loader) FromMedia(id, name, mediaURL, subtitles string) (*Lesson, error) {
	base := path.Base(mediaURL)
	if u, err := url.Parse(mediaURL); err == nil && u.Path != "" {
		base = path.Base(u.Path)
	}
	if id == "" {
		id = strings.TrimSuffix(base, path.Ext(base))
	}
	if name == "" {
		name = base
	}

	lesson, err := l.build(File{ID: id, Name: name, AudioURL: mediaURL}, ".")
	if err != nil {
		return nil, err
	}
	if subtitles != "" {
		track, err := l.ParseSubtitles(subtitles, 0)
		if err != nil {
			return nil, err
		}
		lesson.Track = track
	}
	return lesson, nil
}

// ParseSubtitles reads a subtitle file in any supported format. end closes
// the final cue of formats without end times.
func (l *Loader) ParseSubtitles(name string, end time.Duration) (*subtitle.Track, error) {
	data, err := afero.ReadFile(l.fs, name)
	if err != nil {
		return nil, apperr.InvalidLesson("read subtitles "+name, err)
	}
	track, err := subtitle.Parse(name, data, end)
	if err != nil {
		return nil, apperr.InvalidLesson("parse subtitles "+name, err)
	}
	return track, nil
}

// parseSubtitleText accepts the cue document itself, a string holding any
// supported subtitle format, or null.
func parseSubtitleText(raw json.RawMessage, end time.Duration) (*subtitle.Track, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return subtitle.Parse("", []byte(text), end)
	}
	return subtitle.ParseJSON(raw)
}

func resolve(dir, ref string) string {
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return ref
	}
	if filepath.IsAbs(ref) || dir == "" {
		return ref
	}
	return filepath.Join(dir, ref)
}

// describe flattens validation errors into "field tag" pairs.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, e := range verrs {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field(), friendlyMessage(e)))
	}
	return errors.New(strings.Join(parts, "; "))
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "min":
		return fmt.Sprintf("must have at least %s entries", e.Param())
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
