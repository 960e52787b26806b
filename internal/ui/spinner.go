package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var frames = []rune{'⠋', '⠙', '⠹', '⠸', '⠼', '⠴', '⠦', '⠧', '⠇', '⠏'}

// Spinner draws an animated status line with elapsed time on a terminal stream.
type Spinner struct {
	out     io.Writer
	mu      sync.Mutex
	msg     string
	started time.Time
	done    chan struct{}
	stopped chan struct{}
}

// NewSpinner returns a stopped spinner writing to stderr.
func NewSpinner() *Spinner {
	return &Spinner{out: os.Stderr}
}

// Start begins the animation. Calling Start on a running spinner only changes the message.
func (s *Spinner) Start(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msg = msg
	if s.done != nil {
		return
	}
	s.started = time.Now()
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.done, s.stopped)
}

// Update changes the message while running.
func (s *Spinner) Update(msg string) {
	s.mu.Lock()
	s.msg = msg
	s.mu.Unlock()
}

// Progress adapts the spinner to a progress callback.
func (s *Spinner) Progress() func(string) {
	return s.Update
}

// Stop halts the animation and clears the line.
func (s *Spinner) Stop() {
	s.mu.Lock()
	done, stopped := s.done, s.stopped
	s.done, s.stopped = nil, nil
	s.mu.Unlock()
	if done == nil {
		return
	}
	close(done)
	<-stopped
	fmt.Fprint(s.out, "\r\033[K")
}

func (s *Spinner) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)
	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-tick.C:
			s.mu.Lock()
			msg, elapsed := s.msg, time.Since(s.started).Truncate(time.Second)
			s.mu.Unlock()
			fmt.Fprintf(s.out, "\r\033[K%c %s (%s)", frames[i%len(frames)], msg, elapsed)
		}
	}
}
