// internal/state/interface.go
package state

import (
	"database/sql"
	"time"
)

// Interface defines the state manager contract for dependency injection and testing.
type Interface interface {
	DB() *sql.DB
	Preferences() Preferences
	Rate() float64
	SetRate(rate float64)
	FontSize() int
	SetFontSize(size int)
	Volume() float64
	SetVolume(volume float64)
	RecordPosition(rec PlayRecord) error
	History(limit int) ([]PlayRecord, error)
	LastPosition(lessonID string) (time.Duration, bool, error)
	Close() error
}

// Verify Manager implements Interface at compile time.
var _ Interface = (*Manager)(nil)
