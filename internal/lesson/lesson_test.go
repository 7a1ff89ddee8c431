package lesson

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/k12listen/internal/apperr"
)

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestLoad_WithSubtitleDocument(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/lessons/u1/l1.json", `{
		"id": "l1",
		"name": "Unit 1 Lesson 1",
		"audio_url": "l1.mp3",
		"audio_duration": 180,
		"subtitle_text": {"subtitles": [
			{"start": 0, "end": 5, "en": "Hello.", "zh": "你好。"},
			{"start": 5, "end": 10, "en": "How are you?"}
		]}
	}`)

	l, err := NewLoader(fs).Load("/lessons/u1/l1.json")
	require.NoError(t, err)

	assert.Equal(t, "l1", l.ID)
	assert.Equal(t, "Unit 1 Lesson 1", l.Name)
	assert.Equal(t, filepath.Join("/lessons/u1", "l1.mp3"), l.MediaURL)
	assert.Equal(t, 180*time.Second, l.Duration)
	require.NotNil(t, l.Track)
	require.Equal(t, 2, l.Track.Len())
	assert.Equal(t, "你好。", l.Track.Cue(0).Secondary)
}

func TestLoad_RemoteURLKept(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/l.json", `{"id":"x","name":"X","audio_url":"https://cdn.example.com/a.mp3"}`)

	l, err := NewLoader(fs).Load("/l.json")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp3", l.MediaURL)
	assert.Nil(t, l.Track)
}

func TestLoad_SubtitleTextAsLRCString(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/l.json", `{
		"id":"x","name":"X","audio_url":"a.mp3","audio_duration":20,
		"subtitle_text":"[00:01.00]One\n[00:04.00]Two"
	}`)

	l, err := NewLoader(fs).Load("/l.json")
	require.NoError(t, err)
	require.Equal(t, 2, l.Track.Len())
	assert.Equal(t, 4*time.Second, l.Track.Cue(0).End)
	assert.Equal(t, 20*time.Second, l.Track.Cue(1).End)
}

func TestLoad_SubtitleFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/d/l.json", `{"id":"x","name":"X","audio_url":"a.mp3","subtitle_file":"a.srt"}`)
	writeFile(t, fs, "/d/a.srt", "1\n00:00:01,000 --> 00:00:02,500\nHello\n")

	l, err := NewLoader(fs).Load("/d/l.json")
	require.NoError(t, err)
	require.Equal(t, 1, l.Track.Len())
	assert.Equal(t, "Hello", l.Track.Cue(0).Primary)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing id", `{"name":"X","audio_url":"a.mp3"}`, "id: is required"},
		{"missing audio", `{"id":"x","name":"X"}`, "audio_url: is required"},
		{"negative duration", `{"id":"x","name":"X","audio_url":"a","audio_duration":-1}`, "audio_duration"},
		{"bad json", `{"id":`, "decode lesson"},
		{"bad cues", `{"id":"x","name":"X","audio_url":"a","subtitle_text":{"subtitles":[{"start":3,"end":1}]}}`, "subtitle_text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, "/l.json", tt.content)

			_, err := NewLoader(fs).Load("/l.json")
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidLesson)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := NewLoader(afero.NewMemMapFs()).Load("/nope.json")
	assert.ErrorIs(t, err, apperr.ErrInvalidLesson)
}

func TestFromMedia(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/subs/a.lrc", "[00:00.00]Hi\n[00:02.00]Bye\n")

	l, err := NewLoader(fs).FromMedia("", "", "https://cdn.example.com/audio/unit3.mp3?sig=1", "/subs/a.lrc")
	require.NoError(t, err)
	assert.Equal(t, "unit3", l.ID)
	assert.Equal(t, "unit3.mp3", l.Name)
	require.Equal(t, 2, l.Track.Len())
}
