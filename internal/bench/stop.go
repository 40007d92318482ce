package bench

import (
	"sync"
	"sync/atomic"
)

// StopFunc is the cooperative-stop predicate polled once per iteration.
type StopFunc func() bool

// StopSignal is a one-way flag shared by every worker of a run.
//
// Stopped is a single atomic load so the counting loop can poll it on every
// iteration. Done exposes the same transition as a channel for goroutines
// that block on it.
type StopSignal struct {
	stopped atomic.Bool
	once    sync.Once
	done    chan struct{}
}

// NewStopSignal creates an untriggered signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{done: make(chan struct{})}
}

// Trigger sets the flag. Safe to call multiple times and concurrently.
func (s *StopSignal) Trigger() {
	s.once.Do(func() {
		s.stopped.Store(true)
		close(s.done)
	})
}

// Stopped reports whether Trigger has been called.
func (s *StopSignal) Stopped() bool {
	return s.stopped.Load()
}

// Done returns a channel closed by the first Trigger.
func (s *StopSignal) Done() <-chan struct{} {
	return s.done
}

// Never is a StopFunc that never asks to stop.
func Never() bool { return false }
