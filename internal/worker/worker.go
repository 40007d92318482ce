// Package worker runs one counting task on an isolated execution unit: a
// goroutine sharing the controller's memory, or a re-executed child process
// with its own address space.
package worker

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agbru/parbench/internal/bench"
	"github.com/agbru/parbench/internal/logging"
)

//go:generate mockgen -destination=mocks/mock_worker.go -package=mocks github.com/agbru/parbench/internal/worker Worker,Factory

// Mode selects the kind of execution unit.
type Mode string

const (
	// ModeThread runs workers as goroutines.
	ModeThread Mode = "thread"
	// ModeProcess runs workers as child processes.
	ModeProcess Mode = "process"
)

// ParseMode converts a mode name to a Mode.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(name)) {
	case ModeThread:
		return ModeThread, nil
	case ModeProcess:
		return ModeProcess, nil
	default:
		return "", fmt.Errorf("unknown worker mode %q", name)
	}
}

// Worker is one execution unit bound to one WorkRange.
type Worker interface {
	// ID returns the worker index.
	ID() int
	// Range returns the assigned sub-range.
	Range() bench.WorkRange
	// Start launches the execution unit. It returns once the unit runs.
	Start(ctx context.Context) error
	// Alive reports whether the unit has been started and has not ended.
	Alive() bool
	// Done is closed when the unit has ended.
	Done() <-chan struct{}
	// Processed returns the last known number of values examined.
	Processed() int64
	// Result returns the number of matches. Process workers block until
	// the child exits.
	Result() (int64, error)
}

// Spec is the immutable assignment handed to a worker at construction.
type Spec struct {
	ID       int
	Range    bench.WorkRange
	Deadline bench.Deadline
}

// Runtime carries what a worker shares with the rest of the run.
type Runtime struct {
	// Stop is the run-wide stop signal. Required.
	Stop *bench.StopSignal
	// Logger receives lifecycle diagnostics. Nil discards them.
	Logger logging.Logger
	// OnProgress, when set, receives the worker ID and its processed count.
	// It is called from the worker's own goroutine.
	OnProgress func(workerID int, processed int64)
}

func (rt Runtime) logger() logging.Logger {
	if rt.Logger == nil {
		return logging.Nop()
	}
	return rt.Logger
}

func (rt Runtime) stopFunc() bench.StopFunc {
	if rt.Stop == nil {
		return bench.Never
	}
	return rt.Stop.Stopped
}

// Factory builds workers of a single Mode.
type Factory interface {
	Mode() Mode
	New(spec Spec, rt Runtime) (Worker, error)
}

// Option configures a Factory.
type Option func(*options)

type options struct {
	executable     string
	extraEnv       []string
	stderr         io.Writer
	progressStride int64
	logLevel       string
	newCollector   func() bench.Collector
}

// WithExecutable sets the binary re-executed by process workers. Defaults
// to os.Executable().
func WithExecutable(path string) Option {
	return func(o *options) { o.executable = path }
}

// WithEnv appends KEY=VALUE entries to the child environment.
func WithEnv(kv ...string) Option {
	return func(o *options) { o.extraEnv = append(o.extraEnv, kv...) }
}

// WithStderr sets where child stderr is forwarded. Defaults to os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(o *options) { o.stderr = w }
}

// WithProgressStride sets how many values a worker examines between two
// progress reports.
func WithProgressStride(n int64) Option {
	return func(o *options) { o.progressStride = n }
}

// WithLogLevel sets the diagnostics level of child processes.
func WithLogLevel(level string) Option {
	return func(o *options) { o.logLevel = level }
}

// WithCollector sets the collector constructor used by thread workers.
// Defaults to bench.CountCollector.
func WithCollector(newCollector func() bench.Collector) Option {
	return func(o *options) { o.newCollector = newCollector }
}

type factory struct {
	mode Mode
	opts options
}

// NewFactory returns a Factory for mode.
func NewFactory(mode Mode, opts ...Option) (Factory, error) {
	if _, err := ParseMode(string(mode)); err != nil {
		return nil, err
	}
	o := options{
		stderr:         os.Stderr,
		progressStride: bench.DefaultProgressStride,
		newCollector:   func() bench.Collector { return &bench.CountCollector{} },
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &factory{mode: mode, opts: o}, nil
}

func (f *factory) Mode() Mode { return f.mode }

func (f *factory) New(spec Spec, rt Runtime) (Worker, error) {
	if rt.Stop == nil {
		return nil, fmt.Errorf("worker %d: runtime has no stop signal", spec.ID)
	}
	switch f.mode {
	case ModeThread:
		return newThreadWorker(spec, rt, f.opts.newCollector(), f.opts.progressStride), nil
	case ModeProcess:
		return newProcessWorker(spec, rt, f.opts), nil
	default:
		return nil, fmt.Errorf("unknown worker mode %q", f.mode)
	}
}

// closed reports whether ch has been closed without blocking.
func closed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
