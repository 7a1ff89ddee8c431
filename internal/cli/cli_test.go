package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/k12listen/internal/config"
	"github.com/llehouerou/k12listen/internal/lesson"
	"github.com/llehouerou/k12listen/internal/logger"
	"github.com/llehouerou/k12listen/internal/state"
	"github.com/llehouerou/k12listen/internal/ui/testutil"
)

const lessonJSON = `{
	"id": "u3l2",
	"name": "Unit 3 Lesson 2",
	"audio_url": "u3l2.mp3",
	"audio_duration": 120,
	"subtitle_text": {"subtitles": [
		{"start": 0, "end": 5, "en": "Good morning.", "zh": "早上好。"},
		{"start": 5, "end": 10, "en": "Open your books."}
	]}
}`

// unitJSON is a two-lesson unit; the first lesson is a fraction of a second long.
const unitJSON = `{
	"id": "u4",
	"name": "Unit 4",
	"lessons": [
		{"id": "u4l1", "name": "Unit 4 Lesson 1", "audio_url": "u4l1.mp3", "audio_duration": 0.3},
		{"id": "u4l2", "name": "Unit 4 Lesson 2", "audio_url": "u4l2.mp3",
			"subtitle_text": "1\n00:00:00,000 --> 00:00:05,000\nWelcome back.\n"}
	]
}`

const srtDoc = `1
00:00:00,000 --> 00:00:03,000
Good morning, class.
同学们早上好。

2
00:00:03,000 --> 00:00:07,500
Open your books to page ten.

3
00:00:08,000 --> 00:00:12,000
How are you today?
`

// testEnv writes a config pointing the database and log file into a temp dir.
func testEnv(t *testing.T) (dir, cfgPath string) {
	t.Helper()
	dir = t.TempDir()
	cfgPath = filepath.Join(dir, "config.toml")
	content := "database = \"" + filepath.Join(dir, "k12.db") + "\"\n" +
		"mpris = false\n" +
		"[log]\n" +
		"file = \"" + filepath.Join(dir, "k12.log") + "\"\n" +
		"level = \"warn\"\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	return dir, cfgPath
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return testutil.StripANSI(out.String()), err
}

func TestRoot_RejectsUnknownLogLevel(t *testing.T) {
	_, cfgPath := testEnv(t)
	_, err := execute(t, "prefs", "-c", cfgPath, "--log-level", "loud")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestPrefs_ShowsDefaults(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "prefs", "-c", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Speed:  1x")
	assert.Contains(t, out, "16 (14 16 18 20 24)")
	assert.Contains(t, out, "100%")
}

func TestPrefs_SetPersists(t *testing.T) {
	_, cfgPath := testEnv(t)

	_, err := execute(t, "prefs", "set", "rate", "1.25x", "-c", cfgPath)
	require.NoError(t, err)
	_, err = execute(t, "prefs", "set", "font", "17", "-c", cfgPath)
	require.NoError(t, err)
	_, err = execute(t, "prefs", "set", "volume", "80%", "-c", cfgPath)
	require.NoError(t, err)

	out, err := execute(t, "prefs", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "1.25x")
	assert.Contains(t, out, "16 (", "17 snaps down to the nearest size")
	assert.Contains(t, out, "80%")
}

func TestPrefs_SetRejectsBadValues(t *testing.T) {
	_, cfgPath := testEnv(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"rate", "3"}, "unsupported playback rate"},
		{[]string{"rate", "fast"}, "is not a number"},
		{[]string{"font", "big"}, "not a whole number"},
		{[]string{"volume", "150%"}, "out of range"},
		{[]string{"volume", "0"}, "out of range"},
		{[]string{"pitch", "1"}, "unknown preference"},
	}
	for _, tt := range tests {
		t.Run(tt.args[0]+" "+tt.args[1], func(t *testing.T) {
			args := append([]string{"prefs", "set"}, tt.args...)
			_, err := execute(t, append(args, "-c", cfgPath)...)
			assert.ErrorContains(t, err, tt.want)
		})
	}

	out, err := execute(t, "prefs", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Speed:  1x", "rejected values leave the store untouched")
}

func TestParseVolume(t *testing.T) {
	v, err := parseVolume("0.5")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, v, 1e-9)

	v, err = parseVolume("35%")
	require.NoError(t, err)
	assert.InDelta(t, 0.35, v, 1e-9)
}

func TestHistory_Empty(t *testing.T) {
	_, cfgPath := testEnv(t)

	out, err := execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No lessons played yet.")
}

func TestHistory_ListsMostRecentFirst(t *testing.T) {
	dir, cfgPath := testEnv(t)

	store, err := state.Open(filepath.Join(dir, "k12.db"), state.Preferences{})
	require.NoError(t, err)
	now := time.Now()
	require.NoError(t, store.RecordPosition(state.PlayRecord{
		LessonID: "u1l1", LessonName: "Unit 1 Lesson 1", Position: 95 * time.Second,
		Session: "a", PlayedAt: now.Add(-3 * time.Hour),
	}))
	require.NoError(t, store.RecordPosition(state.PlayRecord{
		LessonID: "u1l2", Position: 12 * time.Second,
		Session: "b", PlayedAt: now.Add(-2 * time.Minute),
	}))
	require.NoError(t, store.Close())

	out, err := execute(t, "history", "-c", cfgPath)
	require.NoError(t, err)

	lines := testutil.PlainLines(out)
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "Last played")
	assert.Contains(t, lines[1], "u1l2", "a lesson without a name shows its id")
	assert.Contains(t, lines[1], "0:12")
	assert.Contains(t, lines[1], "2 minutes ago")
	assert.Contains(t, lines[2], "Unit 1 Lesson 1")
	assert.Contains(t, lines[2], "1:35")
	assert.Contains(t, lines[2], "3 hours ago")

	out, err = execute(t, "history", "-n", "1", "-c", cfgPath)
	require.NoError(t, err)
	assert.Len(t, testutil.PlainLines(out), 2)
}

func TestCues_ListsAll(t *testing.T) {
	dir, cfgPath := testEnv(t)
	srt := writeFile(t, dir, "l2.srt", srtDoc)

	out, err := execute(t, "cues", srt, "-c", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "   1  0:00-0:03  Good morning, class.")
	assert.Contains(t, out, "同学们早上好。")
	assert.Contains(t, out, "   2  0:03-0:07  Open your books to page ten.")
	assert.Contains(t, out, "   3  0:08-0:12  How are you today?")
}

func TestCues_WrapsLongText(t *testing.T) {
	dir, cfgPath := testEnv(t)
	srt := writeFile(t, dir, "l2.srt", srtDoc)

	out, err := execute(t, "cues", srt, "-w", "30", "-c", cfgPath)
	require.NoError(t, err)

	for _, line := range testutil.PlainLines(out) {
		assert.LessOrEqual(t, testutil.MeasureWidth(line), 30, line)
	}
	assert.Contains(t, out, "   2  0:03-0:07  Open your")
}

func TestCues_At(t *testing.T) {
	dir, cfgPath := testEnv(t)
	srt := writeFile(t, dir, "l2.srt", srtDoc)

	out, err := execute(t, "cues", srt, "--at", "4", "--at", "7.7", "-c", cfgPath)
	require.NoError(t, err)

	lines := testutil.PlainLines(out)
	require.Len(t, lines, 3)
	assert.Equal(t, "@ 0:04 (4s)", lines[0])
	assert.Contains(t, lines[1], "Open your books")
	assert.Contains(t, lines[2], "@ 0:07 (7.7s)")
	assert.Contains(t, lines[2], "no cue")
}

func TestCues_Find(t *testing.T) {
	dir, cfgPath := testEnv(t)
	srt := writeFile(t, dir, "l2.srt", srtDoc)

	out, err := execute(t, "cues", srt, "--find", "HOW YOU", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "How are you today?")
	assert.NotContains(t, out, "Good morning")

	out, err = execute(t, "cues", srt, "-f", "zebra", "-c", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `No cue matches "zebra".`)
}

func TestCues_AtAndFindExclusive(t *testing.T) {
	dir, cfgPath := testEnv(t)
	srt := writeFile(t, dir, "l2.srt", srtDoc)

	_, err := execute(t, "cues", srt, "--at", "1", "--find", "x", "-c", cfgPath)
	assert.Error(t, err)
}

func TestCues_UnknownFormat(t *testing.T) {
	dir, cfgPath := testEnv(t)
	txt := writeFile(t, dir, "notes.txt", "hello")

	_, err := execute(t, "cues", txt, "-c", cfgPath)
	assert.Error(t, err)
}

func TestOpenLessons(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "u3l2.json", lessonJSON)
	loader := lesson.NewLoader(nil)

	lessons, err := openLessons(loader, []string{file}, playOptions{})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "u3l2", lessons[0].ID)
	assert.Equal(t, 2, lessons[0].Track.Len())

	lessons, err = openLessons(loader, nil, playOptions{media: "https://k12.example.com/a/u1.mp3", name: "Unit 1"})
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	assert.Equal(t, "u1", lessons[0].ID)
	assert.Equal(t, "Unit 1", lessons[0].Name)

	_, err = openLessons(loader, nil, playOptions{})
	assert.ErrorContains(t, err, "is required")

	_, err = openLessons(loader, []string{file}, playOptions{media: "x.mp3"})
	assert.ErrorContains(t, err, "not both")

	_, err = openLessons(loader, []string{file}, playOptions{subs: "x.srt"})
	assert.ErrorContains(t, err, "only apply to --media")
}

func TestOpenLessons_FilesAndUnits(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "u3l2.json", lessonJSON)
	unit := writeFile(t, dir, "unit4.json", unitJSON)

	lessons, err := openLessons(lesson.NewLoader(nil), []string{first, unit}, playOptions{})
	require.NoError(t, err)

	ids := lo.Map(lessons, func(l *lesson.Lesson, _ int) string { return l.ID })
	assert.Equal(t, []string{"u3l2", "u4l1", "u4l2"}, ids)

	idx, err := startIndex(lessons, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, idx)
	_, err = startIndex(lessons, 4)
	assert.ErrorContains(t, err, "out of range")
	_, err = startIndex(lessons, 0)
	assert.Error(t, err)
}

func TestPlay_StartOutOfRange(t *testing.T) {
	dir, cfgPath := testEnv(t)
	file := writeFile(t, dir, "u3l2.json", lessonJSON)

	_, err := execute(t, "play", file, "--start", "2", "--silent", "-c", cfgPath)
	assert.ErrorContains(t, err, "--start 2 is out of range")
}

func newTestApp(t *testing.T, cfgPath string) *app {
	t.Helper()
	cfg, err := config.LoadFrom(cfgPath)
	require.NoError(t, err)
	return &app{cfg: cfg, logger: logger.Discard()}
}

func TestSession_SilentResumeAndAutoplay(t *testing.T) {
	dir, cfgPath := testEnv(t)
	a := newTestApp(t, cfgPath)

	store, err := state.Open(filepath.Join(dir, "k12.db"), state.Preferences{})
	require.NoError(t, err)
	require.NoError(t, store.RecordPosition(state.PlayRecord{LessonID: "u3l2", Position: 30 * time.Second, Session: "old"}))
	require.NoError(t, store.Close())

	lessons, err := openLessons(lesson.NewLoader(nil), []string{writeFile(t, dir, "u3l2.json", lessonJSON)}, playOptions{})
	require.NoError(t, err)

	opts := playOptions{silent: true, resume: true, autoplay: true}
	s, err := a.newSession(opts, lessons, 0, logger.Discard())
	require.NoError(t, err)
	require.NoError(t, s.start(opts))

	assert.Eventually(t, func() bool {
		st := s.player.Snapshot().Playback
		return st.Playing && st.Position >= 30*time.Second
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 120*time.Second, s.player.Snapshot().Playback.Duration)

	require.NoError(t, s.Close())

	store, err = state.Open(filepath.Join(dir, "k12.db"), state.Preferences{})
	require.NoError(t, err)
	defer store.Close()
	records, err := store.History(0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.GreaterOrEqual(t, records[0].Position, 30*time.Second)
	assert.Equal(t, 2, records[0].PlayCount, "a new session counts as another play")
}

func TestSession_OpensPausedWithoutFlags(t *testing.T) {
	dir, cfgPath := testEnv(t)
	a := newTestApp(t, cfgPath)

	lessons, err := openLessons(lesson.NewLoader(nil), []string{writeFile(t, dir, "u3l2.json", lessonJSON)}, playOptions{})
	require.NoError(t, err)

	opts := playOptions{silent: true}
	s, err := a.newSession(opts, lessons, 0, logger.Discard())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.start(opts))

	assert.Eventually(t, func() bool {
		return s.player.Snapshot().Playback.Ready()
	}, 2*time.Second, 10*time.Millisecond)
	st := s.player.Snapshot().Playback
	assert.False(t, st.Playing)
	assert.Zero(t, st.Position)
}

func TestSession_UnitPlaysThrough(t *testing.T) {
	dir, cfgPath := testEnv(t)
	a := newTestApp(t, cfgPath)

	lessons, err := openLessons(lesson.NewLoader(nil), []string{writeFile(t, dir, "unit4.json", unitJSON)}, playOptions{})
	require.NoError(t, err)

	opts := playOptions{silent: true, autoplay: true}
	s, err := a.newSession(opts, lessons, 0, logger.Discard())
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.start(opts))

	assert.Eventually(t, func() bool {
		snap := s.player.Snapshot()
		return snap.Lesson.ID == "u4l2" && snap.Playback.Playing
	}, 3*time.Second, 10*time.Millisecond, "the second lesson follows the first")
	assert.Equal(t, 5*time.Second, s.player.Snapshot().Playback.Duration, "silent length from the last cue")
}
