package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
)

// ProcessWorker runs the counting task in a re-executed copy of the current
// binary. The child owns its collector; the parent only sees the JSON-lines
// messages the child writes on stdout.
type ProcessWorker struct {
	spec Spec
	rt   Runtime
	opts options

	started   atomic.Bool
	processed atomic.Int64
	pid       atomic.Int64
	done      chan struct{}

	// Written by the I/O goroutines, read after done is closed.
	matches   int64
	gotResult bool
	reason    string
	exitErr   error
}

func newProcessWorker(spec Spec, rt Runtime, opts options) *ProcessWorker {
	return &ProcessWorker{spec: spec, rt: rt, opts: opts, done: make(chan struct{})}
}

// ID returns the worker index.
func (w *ProcessWorker) ID() int { return w.spec.ID }

// Range returns the assigned sub-range.
func (w *ProcessWorker) Range() bench.WorkRange { return w.spec.Range }

// PID returns the child process id, 0 before Start.
func (w *ProcessWorker) PID() int { return int(w.pid.Load()) }

// Start launches the child process and its I/O goroutines.
func (w *ProcessWorker) Start(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return w.fail("start", errAlreadyStarted)
	}

	exe := w.opts.executable
	if exe == "" {
		var err error
		if exe, err = os.Executable(); err != nil {
			return w.fail("start", err)
		}
	}
	payload, err := encodeChildSpec(newChildSpec(w.spec, w.opts))
	if err != nil {
		return w.fail("start", err)
	}

	cmd := exec.Command(exe)
	cmd.Env = append(os.Environ(), w.opts.extraEnv...)
	cmd.Env = append(cmd.Env, SpecEnv+"="+payload)
	cmd.Stderr = w.opts.stderr
	cmd.SysProcAttr = childProcAttr()
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return w.fail("start", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return w.fail("start", err)
	}
	if err := cmd.Start(); err != nil {
		return w.fail("start", err)
	}
	w.pid.Store(int64(cmd.Process.Pid))

	log := w.rt.logger()
	log.Debug("process worker started",
		logging.Int("worker", w.spec.ID),
		logging.Int("pid", cmd.Process.Pid),
		logging.String("range", w.spec.Range.String()))

	eof := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		defer close(eof)
		return w.readMessages(stdout)
	})
	g.Go(func() error {
		return w.forwardStop(ctx, stdin, eof)
	})

	go func() {
		defer close(w.done)
		readErr := g.Wait()
		// Wait must follow the last read from the stdout pipe.
		waitErr := cmd.Wait()
		switch {
		case waitErr != nil:
			w.exitErr = waitErr
		case readErr != nil:
			w.exitErr = readErr
		}
		if w.exitErr != nil {
			log.Warn("process worker exited abnormally",
				logging.Int("worker", w.spec.ID),
				logging.Err(w.exitErr))
		}
	}()
	return nil
}

// readMessages consumes the child's stdout until EOF.
func (w *ProcessWorker) readMessages(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var msg Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			w.rt.logger().Debug("ignoring child output",
				logging.Int("worker", w.spec.ID),
				logging.String("line", scanner.Text()))
			continue
		}
		w.processed.Store(msg.Processed)
		if w.rt.OnProgress != nil {
			w.rt.OnProgress(w.spec.ID, msg.Processed)
		}
		if msg.Type == MessageResult {
			w.matches = msg.Matches
			w.reason = msg.Reason
			w.gotResult = true
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read child output: %w", err)
	}
	return nil
}

// forwardStop relays the run-wide stop signal to the child over its stdin.
// The pipe buffers the command until the child reads it, so a stop raised
// right after Start is never lost. It returns when the child closes its
// stdout.
func (w *ProcessWorker) forwardStop(ctx context.Context, stdin io.WriteCloser, eof <-chan struct{}) error {
	defer stdin.Close()
	select {
	case <-w.rt.Stop.Done():
	case <-ctx.Done():
	case <-eof:
		return nil
	}
	if _, err := io.WriteString(stdin, StopCommand+"\n"); err != nil {
		w.rt.logger().Debug("stop not delivered",
			logging.Int("worker", w.spec.ID),
			logging.Err(err))
	}
	return nil
}

// Alive reports whether the child has been started and not yet reaped.
func (w *ProcessWorker) Alive() bool {
	return w.started.Load() && !closed(w.done)
}

// Done is closed once the child has exited and its output is drained.
func (w *ProcessWorker) Done() <-chan struct{} { return w.done }

// Processed returns the last processed count reported by the child.
func (w *ProcessWorker) Processed() int64 { return w.processed.Load() }

// Result blocks until the child exits and returns the match count it
// reported. A child that exits without reporting yields ErrNoResult.
func (w *ProcessWorker) Result() (int64, error) {
	if !w.started.Load() {
		return 0, w.fail("result", apperrors.ErrStillRunning)
	}
	<-w.done
	if !w.gotResult {
		cause := apperrors.ErrNoResult
		if w.exitErr != nil {
			return 0, w.fail("result", fmt.Errorf("%w: %v", cause, w.exitErr))
		}
		return 0, w.fail("result", cause)
	}
	return w.matches, nil
}

// Reason returns the child's stop reason once it has exited.
func (w *ProcessWorker) Reason() string {
	if !closed(w.done) {
		return ""
	}
	return w.reason
}

func (w *ProcessWorker) fail(op string, err error) error {
	return apperrors.WorkerError{WorkerID: w.spec.ID, Op: op, Cause: err}
}
