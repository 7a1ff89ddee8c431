//go:build !windows

package stderr

import (
	"bytes"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer is written by the forwarding goroutine and read by the test.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestStartForwardsLinesToLogger(t *testing.T) {
	var out syncBuffer
	logger := slog.New(slog.NewTextHandler(&out, nil))

	require.NoError(t, Start(logger))
	require.NoError(t, Start(logger), "second start is a no-op")

	_, err := os.Stderr.WriteString("ALSA lib pcm.c: underrun occurred\n\n   \n")
	require.NoError(t, err)
	Stop()
	Stop()

	logged := out.String()
	assert.Contains(t, logged, "ALSA lib pcm.c: underrun occurred")
	assert.Contains(t, logged, "source=stderr")
	assert.Equal(t, 1, bytes.Count([]byte(logged), []byte("level=WARN")), "blank lines are skipped")
}
