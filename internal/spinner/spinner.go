// Package spinner shows check progress on a terminal.
package spinner

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/wpcheck/plugin-check/internal/checker"
	"github.com/wpcheck/plugin-check/internal/preparation"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Interval is the time between frames.
var Interval = 80 * time.Millisecond

// Spinner redraws one status line until stopped. It implements
// checker.Observer, so a runner keeps the message current.
type Spinner struct {
	w io.Writer

	mu      sync.Mutex
	message string
	drawn   int
	checks  int

	done     chan struct{}
	cleared  chan struct{}
	stopOnce sync.Once
}

var _ checker.Observer = (*Spinner)(nil)

// Start draws message on w until Stop is called.
func Start(w io.Writer, message string) *Spinner {
	s := &Spinner{
		w:       w,
		message: message,
		done:    make(chan struct{}),
		cleared: make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Spinner) loop() {
	ticker := time.NewTicker(Interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-s.done:
			s.clear()
			close(s.cleared)
			return
		case <-ticker.C:
			s.draw(frames[i%len(frames)])
		}
	}
}

func (s *Spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := frame + " " + s.message
	width := runewidth.StringWidth(line)
	pad := ""
	if width < s.drawn {
		pad = fmt.Sprintf("%*s", s.drawn-width, "")
	}
	fmt.Fprintf(s.w, "\r%s%s", line, pad) //nolint:errcheck
	s.drawn = width
}

func (s *Spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawn > 0 {
		fmt.Fprintf(s.w, "\r%*s\r", s.drawn, "") //nolint:errcheck
	}
}

// SetMessage replaces the status line text.
func (s *Spinner) SetMessage(message string) {
	s.mu.Lock()
	s.message = message
	s.mu.Unlock()
}

// Stop clears the line. It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	<-s.cleared
}

func (s *Spinner) RunStarted() {}

func (s *Spinner) PreparationFinished(kind preparation.Kind, err error) {
	if err == nil {
		s.SetMessage(fmt.Sprintf("Prepared %s", kind))
	}
}

func (s *Spinner) CheckFinished(slug string, _ checker.Outcome, _ time.Duration) {
	s.mu.Lock()
	s.checks++
	s.message = fmt.Sprintf("Ran %d check(s), last %s", s.checks, slug)
	s.mu.Unlock()
}

func (s *Spinner) RunFinished(time.Duration, error) {
	s.Stop()
}
