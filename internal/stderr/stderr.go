//go:build !windows

// Package stderr captures output that C libraries (ALSA through the audio
// backend) write straight to file descriptor 2, so it does not corrupt the
// TUI. Captured lines are forwarded to a structured logger.
package stderr

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

var (
	mu         sync.Mutex
	origStderr int
	pipeRead   *os.File
	pipeWrite  *os.File
	started    bool
	done       chan struct{}
)

// Start redirects fd 2 into a pipe and logs every non-empty line at warn
// level on logger. Call it before the audio device is initialized. On error
// the program can continue with the original stderr.
func Start(logger *slog.Logger) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	r, w, err := os.Pipe()
	if err != nil {
		return err
	}

	// Save original stderr file descriptor
	origStderr, err = unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return err
	}

	// Redirect stderr (fd 2) to the pipe's write end
	if err := unix.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		unix.Close(origStderr)
		r.Close()
		w.Close()
		return err
	}

	pipeRead = r
	pipeWrite = w
	started = true
	done = make(chan struct{})

	go forward(r, logger.With(slog.String("source", "stderr")), done)
	return nil
}

func forward(r *os.File, logger *slog.Logger, done chan<- struct{}) {
	defer close(done)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Warn(line)
		}
	}
}

// WriteOriginal writes directly to the original stderr, bypassing capture.
// Useful for fatal errors that must be visible while the TUI runs.
func WriteOriginal(msg string) {
	mu.Lock()
	fd := origStderr
	active := started
	mu.Unlock()

	if active && fd > 0 {
		_, _ = unix.Write(fd, []byte(msg))
		return
	}
	_, _ = os.Stderr.WriteString(msg)
}

// Stop restores the original stderr and waits for captured output to be logged.
func Stop() {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		return
	}

	// Restore original stderr
	_ = unix.Dup2(origStderr, int(os.Stderr.Fd()))
	_ = unix.Close(origStderr)
	origStderr = 0

	// Closing the write end lets the reader drain and exit.
	pipeWrite.Close()
	<-done
	pipeRead.Close()
	started = false
}
