// Package history reports listening positions to the play-history store and,
// optionally, to a remote history endpoint.
package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/llehouerou/k12listen/internal/state"
)

// DefaultPath is the history endpoint path on the lesson server.
const DefaultPath = "/api/v1/user/history"

// Report is one position observation for a lesson.
type Report struct {
	LessonID   string
	LessonName string
	Position   time.Duration
	Session    string
	At         time.Time
}

// Sink receives position reports.
type Sink interface {
	Report(ctx context.Context, r Report) error
}

// Recorder is the subset of the state store used by StoreSink.
type Recorder interface {
	RecordPosition(rec state.PlayRecord) error
}

// StoreSink writes reports into the local play_history table.
type StoreSink struct {
	Store Recorder
}

func (s StoreSink) Report(_ context.Context, r Report) error {
	return s.Store.RecordPosition(state.PlayRecord{
		LessonID:   r.LessonID,
		LessonName: r.LessonName,
		Position:   r.Position,
		Session:    r.Session,
		PlayedAt:   r.At,
	})
}

// HTTPSink posts reports to a history endpoint as {lessonId, position}.
type HTTPSink struct {
	Client   *http.Client
	Endpoint string
	Token    string
}

type httpReport struct {
	LessonID string  `json:"lessonId"`
	Position float64 `json:"position"`
}

func (s HTTPSink) Report(ctx context.Context, r Report) error {
	body, err := json.Marshal(httpReport{LessonID: r.LessonID, Position: r.Position.Seconds()})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("report history: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Multi sends every report to all sinks and joins their errors.
type Multi []Sink

func (m Multi) Report(ctx context.Context, r Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Report(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
