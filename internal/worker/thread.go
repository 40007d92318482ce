package worker

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
)

var errAlreadyStarted = errors.New("worker already started")

// ThreadWorker runs the counting task on a goroutine. Its collector lives in
// the controller's address space and is read after the goroutine ends.
type ThreadWorker struct {
	spec      Spec
	rt        Runtime
	collector bench.Collector
	stride    int64

	started   atomic.Bool
	processed atomic.Int64
	done      chan struct{}
	outcome   bench.Outcome
}

func newThreadWorker(spec Spec, rt Runtime, c bench.Collector, stride int64) *ThreadWorker {
	return &ThreadWorker{
		spec:      spec,
		rt:        rt,
		collector: c,
		stride:    stride,
		done:      make(chan struct{}),
	}
}

// ID returns the worker index.
func (w *ThreadWorker) ID() int { return w.spec.ID }

// Range returns the assigned sub-range.
func (w *ThreadWorker) Range() bench.WorkRange { return w.spec.Range }

// Start launches the counting goroutine.
func (w *ThreadWorker) Start(_ context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return apperrors.WorkerError{WorkerID: w.spec.ID, Op: "start", Cause: errAlreadyStarted}
	}
	task := bench.Task{
		Begin:          w.spec.Range.Begin,
		End:            w.spec.Range.End,
		Deadline:       w.spec.Deadline,
		Stop:           w.rt.stopFunc(),
		ProgressStride: w.stride,
		OnProgress: func(n int64) {
			w.processed.Store(n)
			if w.rt.OnProgress != nil {
				w.rt.OnProgress(w.spec.ID, n)
			}
		},
	}
	go func() {
		defer close(w.done)
		w.outcome = task.Run(w.collector)
		w.rt.logger().Debug("thread worker finished",
			logging.Int("worker", w.spec.ID),
			logging.Int64("processed", w.outcome.Processed),
			logging.String("reason", w.outcome.Reason.String()))
	}()
	return nil
}

// Alive reports whether the goroutine is running.
func (w *ThreadWorker) Alive() bool {
	return w.started.Load() && !closed(w.done)
}

// Done is closed when the goroutine returns.
func (w *ThreadWorker) Done() <-chan struct{} { return w.done }

// Processed returns the last reported processed count.
func (w *ThreadWorker) Processed() int64 { return w.processed.Load() }

// Result returns the collector length once the goroutine has ended.
func (w *ThreadWorker) Result() (int64, error) {
	if !closed(w.done) {
		return 0, apperrors.WorkerError{WorkerID: w.spec.ID, Op: "result", Cause: apperrors.ErrStillRunning}
	}
	return w.collector.Len(), nil
}

// Outcome returns how the task ended. Only meaningful after Done.
func (w *ThreadWorker) Outcome() bench.Outcome {
	if !closed(w.done) {
		return bench.Outcome{}
	}
	return w.outcome
}
