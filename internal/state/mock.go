// internal/state/mock.go
package state

import (
	"database/sql"
	"slices"
	"sync"
	"time"
)

// Mock is a test double for Manager.
type Mock struct {
	mu      sync.Mutex
	prefs   Preferences
	records []PlayRecord
	closed  bool
}

// NewMock creates a new mock state manager holding DefaultPreferences.
func NewMock() *Mock {
	return &Mock{prefs: DefaultPreferences}
}

func (m *Mock) DB() *sql.DB { return nil }

func (m *Mock) Preferences() Preferences {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs
}

func (m *Mock) Rate() float64 { return m.Preferences().Rate }

func (m *Mock) FontSize() int { return m.Preferences().FontSize }

func (m *Mock) Volume() float64 { return m.Preferences().Volume }

func (m *Mock) SetRate(rate float64) {
	m.mu.Lock()
	m.prefs.Rate = rate
	m.mu.Unlock()
}

func (m *Mock) SetFontSize(size int) {
	m.mu.Lock()
	m.prefs.FontSize = size
	m.mu.Unlock()
}

func (m *Mock) SetVolume(volume float64) {
	m.mu.Lock()
	m.prefs.Volume = volume
	m.mu.Unlock()
}

func (m *Mock) RecordPosition(rec PlayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// History returns recorded positions, newest first. Unlike Manager it does
// not merge records per lesson.
func (m *Mock) History(limit int) ([]PlayRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := slices.Clone(m.records)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Mock) LastPosition(lessonID string) (time.Duration, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].LessonID == lessonID {
			return m.records[i].Position, true, nil
		}
	}
	return 0, false, nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetPreferences(p Preferences) {
	m.mu.Lock()
	m.prefs = p
	m.mu.Unlock()
}

func (m *Mock) Records() []PlayRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.records)
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
