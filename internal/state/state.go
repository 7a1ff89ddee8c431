package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver
)

const (
	appName      = "k12listen"
	dbFileName   = "k12listen.db"
	saveDebounce = 500 * time.Millisecond
)

// Preferences are the lesson-independent listener settings.
type Preferences struct {
	Rate     float64
	FontSize int
	Volume   float64
}

// DefaultPreferences is used until the listener changes something.
var DefaultPreferences = Preferences{Rate: 1.0, FontSize: 16, Volume: 1.0}

// Manager persists preferences and play history in a sqlite database.
// Preference writes are debounced; reads are served from memory.
type Manager struct {
	db *sql.DB

	saveMu    sync.Mutex
	logger    *slog.Logger
	prefs     Preferences
	saveTimer *time.Timer
	dirty     bool
}

// Open opens the database at path, or at the XDG data location if path is empty.
// defaults are used until preferences are first saved; the zero value means
// DefaultPreferences.
func Open(path string, defaults Preferences) (*Manager, error) {
	if path == "" {
		p, err := getDBPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return newManager(db, defaults)
}

func newManager(db *sql.DB, defaults Preferences) (*Manager, error) {
	if defaults == (Preferences{}) {
		defaults = DefaultPreferences
	}
	prefs, err := getPreferences(db, defaults)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{db: db, prefs: prefs, logger: slog.Default()}, nil
}

// SetLogger sets where failed background preference writes are reported.
func (m *Manager) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	m.saveMu.Lock()
	m.logger = logger.With(slog.String("component", "state"))
	m.saveMu.Unlock()
}

// Close writes pending preferences and closes the database. A failed write
// is returned along with any close error.
func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	dirty := m.dirty
	prefs := m.prefs
	m.dirty = false
	m.saveMu.Unlock()

	var saveErr error
	if dirty {
		if err := savePreferences(m.db, prefs); err != nil {
			saveErr = fmt.Errorf("save preferences: %w", err)
		}
	}
	return errors.Join(saveErr, m.db.Close())
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

// Preferences returns the current preferences.
func (m *Manager) Preferences() Preferences {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	return m.prefs
}

func (m *Manager) Rate() float64 { return m.Preferences().Rate }

func (m *Manager) FontSize() int { return m.Preferences().FontSize }

func (m *Manager) Volume() float64 { return m.Preferences().Volume }

func (m *Manager) SetRate(rate float64) {
	m.update(func(p *Preferences) { p.Rate = rate })
}

func (m *Manager) SetFontSize(size int) {
	m.update(func(p *Preferences) { p.FontSize = size })
}

func (m *Manager) SetVolume(volume float64) {
	m.update(func(p *Preferences) { p.Volume = volume })
}

func (m *Manager) update(fn func(*Preferences)) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	before := m.prefs
	fn(&m.prefs)
	if m.prefs == before {
		return
	}
	m.dirty = true

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, m.flushPreferences)
}

// flushPreferences writes preferences changed since the last write. On failure
// they stay dirty, so Close tries once more.
func (m *Manager) flushPreferences() {
	m.saveMu.Lock()
	prefs := m.prefs
	dirty := m.dirty
	m.dirty = false
	m.saveMu.Unlock()

	if !dirty {
		return
	}
	if err := savePreferences(m.db, prefs); err != nil {
		m.saveMu.Lock()
		m.dirty = true
		logger := m.logger
		m.saveMu.Unlock()
		logger.Warn("saving preferences", slog.Any("error", err))
	}
}

func getPreferences(db *sql.DB, defaults Preferences) (Preferences, error) {
	var p Preferences
	row := db.QueryRow(`SELECT rate, font_size, volume FROM preferences WHERE id = 1`)
	err := row.Scan(&p.Rate, &p.FontSize, &p.Volume)
	if errors.Is(err, sql.ErrNoRows) {
		return defaults, nil
	}
	if err != nil {
		return Preferences{}, err
	}
	return p, nil
}

func savePreferences(db *sql.DB, p Preferences) error {
	_, err := db.Exec(`
		INSERT INTO preferences (id, rate, font_size, volume)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			rate = excluded.rate,
			font_size = excluded.font_size,
			volume = excluded.volume
	`, p.Rate, p.FontSize, p.Volume)
	return err
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
