package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// writerIsTTY returns true if the given writer exposes an Fd() method
// (e.g. *os.File) and that fd is a terminal. Falls back to false for
// plain io.Writer values such as *bytes.Buffer.
func writerIsTTY(w io.Writer) bool {
	type fder interface {
		Fd() uintptr
	}
	if f, ok := w.(fder); ok {
		return isatty.IsTerminal(f.Fd())
	}
	return false
}

// Spinner displays an animated spinner with a message and elapsed time.
// Example: |  Reading package lists... (3s)
//
// On a non-TTY writer the animation is skipped and each message is printed
// once, so redirected output stays clean.
type Spinner struct {
	message string
	running bool
	frames  []string
	writer  io.Writer
	start   time.Time
	ticker  *time.Ticker
	done    chan struct{}
	mu      sync.Mutex
}

// NewSpinner creates a stopped spinner writing to stderr.
func NewSpinner(message string) *Spinner {
	return &Spinner{
		message: message,
		frames:  []string{"|", "/", "-", "\\"},
		writer:  os.Stderr,
	}
}

// SetWriter sets the output writer (useful for testing).
func (s *Spinner) SetWriter(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writer = w
}

// Start begins the animation. Calling Start on a running spinner is a no-op.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true
	s.start = time.Now()

	if !writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "%s...\n", s.message)
		return
	}

	s.done = make(chan struct{})
	s.ticker = time.NewTicker(100 * time.Millisecond)
	go s.animate(s.ticker, s.done)
}

func (s *Spinner) animate(ticker *time.Ticker, done <-chan struct{}) {
	frame := 0
	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			if s.running {
				fmt.Fprintf(s.writer, "\r%s  %s", s.frames[frame], s.line())
				frame = (frame + 1) % len(s.frames)
			}
			s.mu.Unlock()
		case <-done:
			return
		}
	}
}

// line must be called with the lock held.
func (s *Spinner) line() string {
	return fmt.Sprintf("%s (%ds)", s.message, int(time.Since(s.start).Seconds()))
}

// Update replaces the message. On a non-TTY writer the new message is
// printed immediately.
func (s *Spinner) Update(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && !writerIsTTY(s.writer) && message != s.message {
		fmt.Fprintf(s.writer, "%s...\n", message)
	}
	s.message = message
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
}

func (s *Spinner) stop() {
	if !s.running {
		return
	}
	s.running = false

	if s.ticker != nil {
		s.ticker.Stop()
		close(s.done)
		s.ticker = nil
	}

	if writerIsTTY(s.writer) {
		fmt.Fprintf(s.writer, "\r%s\r", strings.Repeat(" ", len(s.line())+4))
	}
}

// StopWithMessage stops the spinner and prints a final message.
func (s *Spinner) StopWithMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop()
	fmt.Fprintln(s.writer, message)
}
