package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/k12listen/internal/state"
)

type recordingSink struct {
	mu      sync.Mutex
	reports []Report
	err     error
}

func (s *recordingSink) Report(_ context.Context, r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return s.err
}

func (s *recordingSink) all() []Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Report(nil), s.reports...)
}

func TestReporter_ThrottlesTrack(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, time.Hour, nil)

	assert.True(t, r.Track(Report{LessonID: "l1", Position: time.Second}))
	assert.False(t, r.Track(Report{LessonID: "l1", Position: 2 * time.Second}))
	r.Close()

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, time.Second, got[0].Position)
}

func TestReporter_FlushBypassesThrottle(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, time.Hour, nil)

	r.Track(Report{LessonID: "l1", Position: time.Second})
	assert.True(t, r.Flush(Report{LessonID: "l1", Position: 7 * time.Second}))
	r.Close()

	got := sink.all()
	require.NotEmpty(t, got)
	assert.Equal(t, 7*time.Second, got[len(got)-1].Position)
}

// slowSink takes delay to accept each report, like a server that hangs.
type slowSink struct {
	recordingSink
	delay time.Duration
}

func (s *slowSink) Report(ctx context.Context, r Report) error {
	time.Sleep(s.delay)
	return s.recordingSink.Report(ctx, r)
}

func TestReporter_KeepsLatestPerLessonWhileSinkBusy(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		sink := &slowSink{delay: 10 * time.Second}
		r := NewReporter(sink, 0, nil)

		r.Flush(Report{LessonID: "l1", Position: time.Second})
		synctest.Wait() // the sink is now busy with the first report

		r.Flush(Report{LessonID: "l1", Position: 35 * time.Second})
		r.Track(Report{LessonID: "l2", Position: 500 * time.Millisecond})
		r.Track(Report{LessonID: "l2", Position: time.Second})
		r.Close()

		got := lo.Map(sink.all(), func(rep Report, _ int) string {
			return fmt.Sprintf("%s@%v", rep.LessonID, rep.Position)
		})
		assert.Equal(t, []string{"l1@1s", "l1@35s", "l2@1s"}, got)
	})
}

func TestReporter_SessionStamped(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, 0, nil)

	id, err := r.NewSession()
	require.NoError(t, err)
	assert.Len(t, id, 21)
	assert.Equal(t, id, r.Session())

	r.Flush(Report{LessonID: "l1"})
	r.Close()

	got := sink.all()
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].Session)
	assert.False(t, got[0].At.IsZero())
}

func TestReporter_IgnoresEmptyLessonAndClosed(t *testing.T) {
	sink := &recordingSink{}
	r := NewReporter(sink, 0, nil)

	assert.False(t, r.Flush(Report{}))
	r.Close()
	r.Close()
	assert.False(t, r.Flush(Report{LessonID: "l1"}))
	assert.Empty(t, sink.all())
}

func TestReporter_SinkErrorDoesNotStop(t *testing.T) {
	sink := &recordingSink{err: errors.New("boom")}
	r := NewReporter(sink, 0, nil)

	r.Flush(Report{LessonID: "l1"})
	r.Close()
	assert.Len(t, sink.all(), 1)
}

func TestHTTPSink(t *testing.T) {
	var gotAuth string
	var gotBody httpReport
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, DefaultPath, r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sink := HTTPSink{Client: srv.Client(), Endpoint: srv.URL + DefaultPath, Token: "secret"}
	err := sink.Report(context.Background(), Report{LessonID: "l1", Position: 1500 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "l1", gotBody.LessonID)
	assert.InDelta(t, 1.5, gotBody.Position, 1e-9)
}

func TestHTTPSink_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := HTTPSink{Endpoint: srv.URL}.Report(context.Background(), Report{LessonID: "l1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestStoreSink(t *testing.T) {
	store := state.NewMock()
	sink := StoreSink{Store: store}

	at := time.Unix(1_700_000_000, 0)
	require.NoError(t, sink.Report(context.Background(), Report{
		LessonID: "l1", LessonName: "Unit 1", Position: 3 * time.Second, Session: "s", At: at,
	}))

	recs := store.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, state.PlayRecord{
		LessonID: "l1", LessonName: "Unit 1", Position: 3 * time.Second, Session: "s", PlayedAt: at,
	}, recs[0])
}

func TestMulti(t *testing.T) {
	a := &recordingSink{}
	b := &recordingSink{err: errors.New("down")}

	err := Multi{a, b}.Report(context.Background(), Report{LessonID: "l1"})
	require.Error(t, err)
	assert.Len(t, a.all(), 1)
	assert.Len(t, b.all(), 1)
}
