package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/llehouerou/k12listen/internal/playback"
	"github.com/llehouerou/k12listen/internal/subtitle"
)

const appName = "k12listen"

type Config struct {
	// Database is the sqlite file holding preferences and history (default: XDG data dir).
	Database string `koanf:"database"`

	Playback  PlaybackConfig `koanf:"playback"`
	Subtitles SubtitleConfig `koanf:"subtitles"`

	// History reporting (the remote endpoint is optional)
	History HistoryConfig `koanf:"history"`

	Log LogConfig `koanf:"log"`

	// MPRIS exposes the player to desktop media keys (default: true)
	MPRIS *bool `koanf:"mpris"`

	// Icons selects the status glyphs: "nerd", "unicode" or "ascii" (default: "unicode")
	Icons string `koanf:"icons"`

	// Notifications sends a desktop notification when a lesson ends or fails to load (default: false)
	Notifications bool `koanf:"notifications"`
}

// PlaybackConfig holds engine and transport settings.
type PlaybackConfig struct {
	PollInterval  time.Duration `koanf:"poll_interval"`   // tick period while playing (default: 50ms, max: 100ms)
	DefaultRate   float64       `koanf:"default_rate"`    // rate before the listener picks one (default: 1.0)
	DefaultVolume float64       `koanf:"default_volume"`  // 0-1 (default: 1.0)
	FetchTimeout  time.Duration `koanf:"fetch_timeout"`   // media download timeout (default: 60s)
	MaxMediaBytes int64         `koanf:"max_media_bytes"` // largest accepted media file (default: 256 MiB)
}

// SubtitleConfig holds subtitle view settings.
type SubtitleConfig struct {
	FontSizes       []int `koanf:"font_sizes"`        // ordered size steps (default: 14,16,18,20,24)
	DefaultFontSize int   `koanf:"default_font_size"` // default: 16
	ViewportHeight  int   `koanf:"viewport_height"`   // cue rows shown (default: 7)
}

// HistoryConfig holds position reporting settings.
type HistoryConfig struct {
	Endpoint       string        `koanf:"endpoint"`        // e.g. "https://k12.example.com/api/v1/user/history"
	Token          string        `koanf:"token"`           // bearer token for the endpoint
	ReportInterval time.Duration `koanf:"report_interval"` // throttle between reports (default: 10s)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "json" or "pretty" (default: "pretty")
	File   string `koanf:"file"`   // default: XDG state dir
}

const (
	defaultFetchTimeout   = 60 * time.Second
	defaultMaxMediaBytes  = 256 << 20
	defaultViewportHeight = 7
	defaultReportInterval = 10 * time.Second
)

func Load() (*Config, error) {
	return LoadFrom(getConfigPaths()...)
}

// LoadFrom reads the given TOML files in order (last wins). Missing files are skipped.
func LoadFrom(paths ...string) (*Config, error) {
	k := koanf.New(".")

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Database = expandPath(cfg.Database)
	cfg.Log.File = expandPath(cfg.Log.File)

	// Normalize history endpoint (remove trailing slash)
	cfg.History.Endpoint = strings.TrimSuffix(cfg.History.Endpoint, "/")

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. $XDG_CONFIG_HOME/k12listen/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasHistoryEndpoint returns true if remote history reporting is configured.
func (c *Config) HasHistoryEndpoint() bool {
	return c.History.Endpoint != ""
}

// MPRISEnabled reports whether the MPRIS adapter should start.
func (c *Config) MPRISEnabled() bool {
	return c.MPRIS == nil || *c.MPRIS
}

// GetPlaybackConfig returns the playback configuration with defaults applied.
func (c *Config) GetPlaybackConfig() PlaybackConfig {
	cfg := c.Playback

	if cfg.PollInterval <= 0 {
		cfg.PollInterval = playback.DefaultPollInterval
	}
	cfg.PollInterval = min(cfg.PollInterval, playback.MaxPollInterval)
	if playback.ValidateRate(cfg.DefaultRate) != nil {
		cfg.DefaultRate = playback.DefaultRate
	}
	if cfg.DefaultVolume <= 0 || cfg.DefaultVolume > 1 {
		cfg.DefaultVolume = 1
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = defaultFetchTimeout
	}
	if cfg.MaxMediaBytes <= 0 {
		cfg.MaxMediaBytes = defaultMaxMediaBytes
	}

	return cfg
}

// GetSubtitleConfig returns the subtitle configuration with defaults applied.
func (c *Config) GetSubtitleConfig() SubtitleConfig {
	cfg := c.Subtitles

	scale := subtitle.NewFontScale(cfg.FontSizes, cfg.DefaultFontSize)
	cfg.FontSizes = scale.Sizes()
	if cfg.DefaultFontSize <= 0 {
		cfg.DefaultFontSize = scale.Set(subtitle.DefaultFontSize)
	} else {
		cfg.DefaultFontSize = scale.Size()
	}
	if cfg.ViewportHeight <= 0 {
		cfg.ViewportHeight = defaultViewportHeight
	}

	return cfg
}

// GetHistoryConfig returns the history configuration with defaults applied.
func (c *Config) GetHistoryConfig() HistoryConfig {
	cfg := c.History
	if cfg.ReportInterval <= 0 {
		cfg.ReportInterval = defaultReportInterval
	}
	return cfg
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "pretty"
	}
	if cfg.File == "" {
		if p, err := xdg.StateFile(filepath.Join(appName, appName+".log")); err == nil {
			cfg.File = p
		}
	}
	return cfg
}
