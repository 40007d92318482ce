package orchestration

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/worker"
)

// ProgressBufferMultiplier defines the buffer size multiplier for the progress
// channel. A larger buffer reduces the likelihood of dropping samples when
// the UI is slow to consume updates.
const ProgressBufferMultiplier = 5

// DefaultSampleInterval is how often queued progress is forwarded to the
// reporter.
const DefaultSampleInterval = 100 * time.Millisecond

const tracerName = "github.com/agbru/parbench/internal/orchestration"

// ErrAlreadyRun is returned by Run on a controller that has already run.
var ErrAlreadyRun = errors.New("controller has already run")

// State is the lifecycle stage of a Controller.
type State int32

const (
	// Created: workers are built but not started.
	Created State = iota
	// Running: workers have been started.
	Running
	// Stopping: a stop was requested while running.
	Stopping
	// Done: every worker has ended and results were collected.
	Done
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Done:
		return "done"
	default:
		return "unknown"
	}
}

// Plan describes a run.
type Plan struct {
	Mode     worker.Mode
	Workers  int
	WorkSize int64
	// Timeout bounds the run; zero means unbounded.
	Timeout time.Duration
}

// WorkerResult is the outcome of one worker.
type WorkerResult struct {
	ID        int
	Range     bench.WorkRange
	Matches   int64
	Processed int64
	Err       error
}

// Outcome is the result of Controller.Run.
type Outcome struct {
	Plan     Plan
	Deadline bench.Deadline
	Results  []WorkerResult
	Elapsed  time.Duration
	// Stopped is true when the run was interrupted.
	Stopped bool
}

// Matches returns the per-worker match counts in worker order. Failed
// workers count as zero.
func (o Outcome) Matches() []int64 {
	out := make([]int64, len(o.Results))
	for i, r := range o.Results {
		out[i] = r.Matches
	}
	return out
}

// Failed reports whether any worker failed to report.
func (o Outcome) Failed() bool {
	for _, r := range o.Results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithRecorder records run metrics on r.
func WithRecorder(r *metrics.Recorder) Option {
	return func(c *Controller) { c.recorder = r }
}

// WithTracer overrides the tracer obtained from the global provider.
func WithTracer(t trace.Tracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// WithSampleInterval sets how often progress is forwarded to the reporter.
func WithSampleInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.sampleInterval = d
		}
	}
}

// Controller owns the workers of one run.
type Controller struct {
	plan           Plan
	logger         logging.Logger
	recorder       *metrics.Recorder
	tracer         trace.Tracer
	sampleInterval time.Duration

	state       atomic.Int32
	interrupted atomic.Bool
	start       time.Time
	deadline    bench.Deadline
	stop        *bench.StopSignal
	queue       *progressQueue
	workers     []worker.Worker
}

// NewController records the start time, computes the shared deadline,
// partitions the range and builds one worker per sub-range.
func NewController(plan Plan, factory worker.Factory, opts ...Option) (*Controller, error) {
	if factory == nil {
		return nil, errors.New("orchestration: nil worker factory")
	}
	if plan.Timeout < 0 {
		return nil, apperrors.ValidationError{Field: "max-time", Message: "must be non-negative"}
	}
	if plan.Mode == "" {
		plan.Mode = factory.Mode()
	}
	ranges, err := bench.Partition(plan.WorkSize, plan.Workers)
	if err != nil {
		return nil, err
	}
	queue, err := newProgressQueue()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		plan:           plan,
		logger:         logging.Nop(),
		tracer:         otel.Tracer(tracerName),
		sampleInterval: DefaultSampleInterval,
		stop:           bench.NewStopSignal(),
		queue:          queue,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.start = time.Now()
	c.deadline = bench.NewDeadline(c.start, plan.Timeout)
	c.workers = make([]worker.Worker, 0, len(ranges))
	for i, r := range ranges {
		total := r.Len()
		w, err := factory.New(
			worker.Spec{ID: i, Range: r, Deadline: c.deadline},
			worker.Runtime{
				Stop:   c.stop,
				Logger: c.logger,
				OnProgress: func(id int, processed int64) {
					c.queue.Publish(id, processed, total)
				},
			},
		)
		if err != nil {
			return nil, apperrors.WorkerError{WorkerID: i, Op: "create", Cause: err}
		}
		c.workers = append(c.workers, w)
	}
	c.state.Store(int32(Created))
	return c, nil
}

// State returns the current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Plan returns the plan the controller was built with.
func (c *Controller) Plan() Plan { return c.plan }

// Deadline returns the shared deadline.
func (c *Controller) Deadline() bench.Deadline { return c.deadline }

// Workers returns the workers in construction order.
func (c *Controller) Workers() []worker.Worker { return c.workers }

// Stop asks every worker to stop at its next iteration. It never blocks.
func (c *Controller) Stop() {
	c.stop.Trigger()
	c.state.CompareAndSwap(int32(Running), int32(Stopping))
}

// Run starts the workers in construction order and blocks until all of them
// have ended. Cancelling ctx stops the workers cooperatively; their partial
// counts are still collected. Worker failures are combined into the returned
// error while the Outcome keeps every result.
func (c *Controller) Run(ctx context.Context, reporter ProgressReporter, out io.Writer) (Outcome, error) {
	if !c.state.CompareAndSwap(int32(Created), int32(Running)) {
		return Outcome{}, ErrAlreadyRun
	}
	ctx, span := c.tracer.Start(ctx, "parbench.run", trace.WithAttributes(
		attribute.String("parbench.mode", string(c.plan.Mode)),
		attribute.Int("parbench.workers", len(c.workers)),
		attribute.Int64("parbench.work_size", c.plan.WorkSize),
		attribute.Float64("parbench.timeout_seconds", c.plan.Timeout.Seconds()),
	))
	defer span.End()

	if reporter == nil {
		reporter = NullProgressReporter{}
	}
	progressChan := make(chan ProgressUpdate, len(c.workers)*ProgressBufferMultiplier)
	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go reporter.DisplayProgress(&displayWg, progressChan, len(c.workers), out)

	// Cancellation only raises the stop flag.
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			c.interrupted.Store(true)
			c.logger.Info("stop requested", logging.String("cause", context.Cause(ctx).Error()))
			c.Stop()
		case <-watchDone:
		}
	}()

	started, startErr := c.startWorkers(ctx, span)

	stopSampler := make(chan struct{})
	samplerDone := make(chan struct{})
	go c.sample(progressChan, stopSampler, samplerDone)

	var g errgroup.Group
	for _, w := range started {
		g.Go(func() error {
			<-w.Done()
			return nil
		})
	}
	_ = g.Wait()

	close(watchDone)
	close(stopSampler)
	<-samplerDone
	close(progressChan)
	displayWg.Wait()

	results, resultErr := c.collect(started)
	elapsed := time.Since(c.start)
	c.state.Store(int32(Done))

	outcome := Outcome{
		Plan:     c.plan,
		Deadline: c.deadline,
		Results:  results,
		Elapsed:  elapsed,
		Stopped:  c.interrupted.Load(),
	}
	err := multierr.Append(startErr, resultErr)

	span.SetAttributes(
		attribute.Bool("parbench.stopped", outcome.Stopped),
		attribute.Float64("parbench.elapsed_seconds", elapsed.Seconds()),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "worker failure")
	}
	if c.recorder != nil {
		c.recorder.ObserveRun(string(c.plan.Mode), len(c.workers), elapsed, outcome.Stopped, err != nil)
	}
	if dropped := c.queue.Dropped(); dropped > 0 {
		c.logger.Debug("progress samples dropped", logging.Int64("count", dropped))
	}
	c.logger.Info("run finished",
		logging.String("mode", string(c.plan.Mode)),
		logging.Int("workers", len(c.workers)),
		logging.Duration("elapsed", elapsed),
		logging.String("state", c.State().String()))
	return outcome, err
}

// startWorkers starts workers sequentially. On the first failure it stops
// the ones already running and returns them with the error.
func (c *Controller) startWorkers(ctx context.Context, span trace.Span) ([]worker.Worker, error) {
	started := make([]worker.Worker, 0, len(c.workers))
	for _, w := range c.workers {
		if err := w.Start(ctx); err != nil {
			c.logger.Error("worker failed to start", err, logging.Int("worker", w.ID()))
			c.stop.Trigger()
			var workerErr apperrors.WorkerError
			if !errors.As(err, &workerErr) {
				err = apperrors.WorkerError{WorkerID: w.ID(), Op: "start", Cause: err}
			}
			return started, err
		}
		span.AddEvent("worker.start", trace.WithAttributes(
			attribute.Int("parbench.worker", w.ID()),
			attribute.String("parbench.range", w.Range().String()),
		))
		c.logger.Debug("worker started",
			logging.Int("worker", w.ID()),
			logging.String("range", w.Range().String()))
		started = append(started, w)
	}
	return started, nil
}

// sample forwards queued progress every interval and, once stopped, sends a
// final sample per worker read from the worker itself.
func (c *Controller) sample(out chan<- ProgressUpdate, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(c.sampleInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.forward(out)
		case <-stop:
			c.forward(out)
			for _, w := range c.workers {
				out <- ProgressUpdate{WorkerID: w.ID(), Processed: w.Processed(), Total: w.Range().Len()}
			}
			return
		}
	}
}

func (c *Controller) forward(out chan<- ProgressUpdate) {
	latest := c.queue.Drain()
	ids := make([]int, 0, len(latest))
	for id := range latest {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		select {
		case out <- latest[id]:
		default:
		}
	}
}

// collect reads results in construction order.
func (c *Controller) collect(started []worker.Worker) ([]WorkerResult, error) {
	results := make([]WorkerResult, 0, len(started))
	var errs error
	for _, w := range started {
		m, err := w.Result()
		r := WorkerResult{ID: w.ID(), Range: w.Range(), Matches: m, Processed: w.Processed(), Err: err}
		if err != nil {
			r.Matches = 0
			errs = multierr.Append(errs, err)
			c.logger.Error("worker did not report", err, logging.Int("worker", w.ID()))
		} else if c.recorder != nil {
			c.recorder.ObserveWorker(string(c.plan.Mode), w.ID(), m, r.Processed)
		}
		results = append(results, r)
	}
	return results, errs
}
