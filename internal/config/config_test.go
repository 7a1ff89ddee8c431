package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/llehouerou/k12listen/internal/playback"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("Could not get home dir: %v", err)
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde expands to home",
			input:    "~/music",
			expected: filepath.Join(home, "music"),
		},
		{
			name:     "tilde with nested path",
			input:    "~/music/library/albums",
			expected: filepath.Join(home, "music", "library", "albums"),
		},
		{
			name:     "absolute path unchanged",
			input:    "/usr/local/music",
			expected: "/usr/local/music",
		},
		{
			name:     "relative path unchanged",
			input:    "music/albums",
			expected: "music/albums",
		},
		{
			name:     "empty string unchanged",
			input:    "",
			expected: "",
		},
		{
			name:     "tilde only",
			input:    "~",
			expected: home,
		},
		{
			name:     "tilde with slash",
			input:    "~/",
			expected: filepath.Join(home, ""),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := expandPath(tt.input)
			if result != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGetConfigPaths(t *testing.T) {
	paths := getConfigPaths()

	// Should have at least one path
	if len(paths) == 0 {
		t.Error("getConfigPaths() returned empty slice")
	}

	if !strings.HasSuffix(paths[0], filepath.Join("k12listen", "config.toml")) {
		t.Errorf("first config path = %q, want XDG k12listen/config.toml", paths[0])
	}

	// Last path should be local config.toml
	lastPath := paths[len(paths)-1]
	if lastPath != "config.toml" {
		t.Errorf("last config path = %q, want %q", lastPath, "config.toml")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}
	return path
}

func TestLoadFrom_EmptyConfig(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg == nil {
		t.Fatal("LoadFrom() returned nil config")
	}
	if cfg.HasHistoryEndpoint() {
		t.Error("HasHistoryEndpoint() = true for empty config")
	}
	if !cfg.MPRISEnabled() {
		t.Error("MPRISEnabled() should default to true")
	}
}

func TestLoadFrom_MissingFilesSkipped(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Database != "" {
		t.Errorf("Database = %q, want empty", cfg.Database)
	}
}

func TestLoadFrom_BasicConfig(t *testing.T) {
	path := writeConfig(t, `
database = "~/k12/state.db"
mpris = false
notifications = true
icons = "nerd"

[playback]
poll_interval = "40ms"
default_rate = 1.25
fetch_timeout = "5s"

[subtitles]
font_sizes = [12, 16, 22]
default_font_size = 22
viewport_height = 9

[history]
endpoint = "https://k12.example.com/api/v1/user/history/"
token = "abc"
report_interval = "30s"

[log]
level = "debug"
format = "json"
`)

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	home, _ := os.UserHomeDir()
	if want := filepath.Join(home, "k12/state.db"); cfg.Database != want {
		t.Errorf("Database = %q, want %q", cfg.Database, want)
	}
	if cfg.MPRISEnabled() {
		t.Error("MPRISEnabled() = true, want false")
	}
	if !cfg.Notifications {
		t.Error("Notifications = false, want true")
	}
	if cfg.Icons != "nerd" {
		t.Errorf("Icons = %q, want nerd", cfg.Icons)
	}

	pb := cfg.GetPlaybackConfig()
	if pb.PollInterval != 40*time.Millisecond {
		t.Errorf("PollInterval = %v, want 40ms", pb.PollInterval)
	}
	if pb.DefaultRate != 1.25 {
		t.Errorf("DefaultRate = %v, want 1.25", pb.DefaultRate)
	}
	if pb.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", pb.FetchTimeout)
	}

	subs := cfg.GetSubtitleConfig()
	if len(subs.FontSizes) != 3 || subs.FontSizes[2] != 22 {
		t.Errorf("FontSizes = %v, want [12 16 22]", subs.FontSizes)
	}
	if subs.DefaultFontSize != 22 {
		t.Errorf("DefaultFontSize = %d, want 22", subs.DefaultFontSize)
	}
	if subs.ViewportHeight != 9 {
		t.Errorf("ViewportHeight = %d, want 9", subs.ViewportHeight)
	}

	// Check that endpoint trailing slash is removed
	if cfg.History.Endpoint != "https://k12.example.com/api/v1/user/history" {
		t.Errorf("History.Endpoint = %q", cfg.History.Endpoint)
	}
	if !cfg.HasHistoryEndpoint() {
		t.Error("HasHistoryEndpoint() = false")
	}
	if got := cfg.GetHistoryConfig().ReportInterval; got != 30*time.Second {
		t.Errorf("ReportInterval = %v, want 30s", got)
	}

	lc := cfg.GetLogConfig()
	if lc.Level != "debug" || lc.Format != "json" {
		t.Errorf("Log = %+v", lc)
	}
}

func TestLoadFrom_LastWins(t *testing.T) {
	first := writeConfig(t, "[playback]\ndefault_rate = 0.5\n")
	second := writeConfig(t, "[playback]\ndefault_rate = 2.0\n")

	cfg, err := LoadFrom(first, second)
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Playback.DefaultRate != 2.0 {
		t.Errorf("DefaultRate = %v, want 2.0", cfg.Playback.DefaultRate)
	}
}

func TestLoadFrom_InvalidToml(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "invalid = [[["))
	if err == nil {
		t.Error("LoadFrom() expected error for invalid TOML, got nil")
	}
}

func TestGetPlaybackConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	pb := cfg.GetPlaybackConfig()

	if pb.PollInterval != playback.DefaultPollInterval {
		t.Errorf("PollInterval = %v, want %v", pb.PollInterval, playback.DefaultPollInterval)
	}
	if pb.DefaultRate != 1.0 {
		t.Errorf("DefaultRate = %v, want 1.0", pb.DefaultRate)
	}
	if pb.DefaultVolume != 1.0 {
		t.Errorf("DefaultVolume = %v, want 1.0", pb.DefaultVolume)
	}
	if pb.FetchTimeout != defaultFetchTimeout {
		t.Errorf("FetchTimeout = %v, want %v", pb.FetchTimeout, defaultFetchTimeout)
	}
	if pb.MaxMediaBytes != defaultMaxMediaBytes {
		t.Errorf("MaxMediaBytes = %d, want %d", pb.MaxMediaBytes, defaultMaxMediaBytes)
	}
}

func TestGetPlaybackConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		in   PlaybackConfig
		want PlaybackConfig
	}{
		{
			name: "poll interval above max is clamped",
			in:   PlaybackConfig{PollInterval: time.Second},
			want: PlaybackConfig{PollInterval: playback.MaxPollInterval},
		},
		{
			name: "non canonical rate falls back",
			in:   PlaybackConfig{DefaultRate: 1.1},
			want: PlaybackConfig{DefaultRate: 1.0},
		},
		{
			name: "volume above one falls back",
			in:   PlaybackConfig{DefaultVolume: 1.5},
			want: PlaybackConfig{DefaultVolume: 1.0},
		},
		{
			name: "negative volume falls back",
			in:   PlaybackConfig{DefaultVolume: -0.2},
			want: PlaybackConfig{DefaultVolume: 1.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := (&Config{Playback: tt.in}).GetPlaybackConfig()
			if tt.want.PollInterval != 0 && got.PollInterval != tt.want.PollInterval {
				t.Errorf("PollInterval = %v, want %v", got.PollInterval, tt.want.PollInterval)
			}
			if tt.want.DefaultRate != 0 && got.DefaultRate != tt.want.DefaultRate {
				t.Errorf("DefaultRate = %v, want %v", got.DefaultRate, tt.want.DefaultRate)
			}
			if tt.want.DefaultVolume != 0 && got.DefaultVolume != tt.want.DefaultVolume {
				t.Errorf("DefaultVolume = %v, want %v", got.DefaultVolume, tt.want.DefaultVolume)
			}
		})
	}
}

func TestGetSubtitleConfig_Defaults(t *testing.T) {
	subs := (&Config{}).GetSubtitleConfig()

	want := []int{14, 16, 18, 20, 24}
	if len(subs.FontSizes) != len(want) {
		t.Fatalf("FontSizes = %v, want %v", subs.FontSizes, want)
	}
	for i := range want {
		if subs.FontSizes[i] != want[i] {
			t.Errorf("FontSizes[%d] = %d, want %d", i, subs.FontSizes[i], want[i])
		}
	}
	if subs.DefaultFontSize != 16 {
		t.Errorf("DefaultFontSize = %d, want 16", subs.DefaultFontSize)
	}
	if subs.ViewportHeight != defaultViewportHeight {
		t.Errorf("ViewportHeight = %d, want %d", subs.ViewportHeight, defaultViewportHeight)
	}
}

func TestGetSubtitleConfig_DefaultSizeSnapsToSet(t *testing.T) {
	subs := (&Config{Subtitles: SubtitleConfig{DefaultFontSize: 19}}).GetSubtitleConfig()
	if subs.DefaultFontSize != 18 {
		t.Errorf("DefaultFontSize = %d, want 18", subs.DefaultFontSize)
	}
}

func TestGetLogConfig_Defaults(t *testing.T) {
	lc := (&Config{}).GetLogConfig()
	if lc.Level != "info" {
		t.Errorf("Level = %q, want info", lc.Level)
	}
	if lc.Format != "pretty" {
		t.Errorf("Format = %q, want pretty", lc.Format)
	}
}
