package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
)

func TestProcessWorker_Counts(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rng  bench.WorkRange
		want int64
	}{
		{bench.WorkRange{WorkerID: 0, Begin: 0, End: 1000}, 500},
		{bench.WorkRange{WorkerID: 1, Begin: 1001, End: 2000}, 499},
		{bench.WorkRange{WorkerID: 2, Begin: 0, End: 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.rng.String(), func(t *testing.T) {
			t.Parallel()
			w := newWorker(t, ModeProcess, Spec{ID: tt.rng.WorkerID, Range: tt.rng},
				Runtime{Stop: bench.NewStopSignal()}, WithStderr(io.Discard))
			if err := w.Start(context.Background()); err != nil {
				t.Fatalf("Start: %v", err)
			}
			got, err := w.Result()
			if err != nil {
				t.Fatalf("Result: %v", err)
			}
			if got != tt.want {
				t.Errorf("Result() = %d, want %d", got, tt.want)
			}
			if w.Alive() {
				t.Error("worker must not be alive after Result")
			}
			if w.Processed() != tt.rng.Len() {
				t.Errorf("Processed() = %d, want %d", w.Processed(), tt.rng.Len())
			}
			if reason := w.(*ProcessWorker).Reason(); reason != bench.Completed.String() {
				t.Errorf("reason = %q, want completed", reason)
			}
		})
	}
}

func TestProcessWorker_ForwardsStop(t *testing.T) {
	t.Parallel()
	stop := bench.NewStopSignal()
	w := newWorker(t, ModeProcess, Spec{ID: 0, Range: bench.WorkRange{End: hugeEnd}},
		Runtime{Stop: stop}, WithStderr(io.Discard))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Wait for the first progress line so the partial count is non-zero.
	deadline := time.Now().Add(10 * time.Second)
	for w.Processed() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("child never reported progress")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if !w.Alive() {
		t.Fatal("child should still be running")
	}

	stop.Trigger()
	waitDone(t, w, 10*time.Second)
	got, err := w.Result()
	if err != nil {
		t.Fatalf("Result after stop: %v", err)
	}
	if got == 0 || got >= hugeEnd/2 {
		t.Errorf("partial count out of bounds: %d", got)
	}
	if reason := w.(*ProcessWorker).Reason(); reason != bench.Stopped.String() {
		t.Errorf("reason = %q, want stopped", reason)
	}
}

func TestProcessWorker_StopRightAfterStart(t *testing.T) {
	t.Parallel()
	const n = 8
	stop := bench.NewStopSignal()
	workers := make([]Worker, n)
	for i := range workers {
		workers[i] = newWorker(t, ModeProcess,
			Spec{ID: i, Range: bench.WorkRange{WorkerID: i, Begin: int64(i) * hugeEnd, End: int64(i+1) * hugeEnd}},
			Runtime{Stop: stop}, WithStderr(io.Discard))
		if err := workers[i].Start(context.Background()); err != nil {
			t.Fatalf("Start %d: %v", i, err)
		}
	}
	// No child has had time to start reading its stdin yet.
	stop.Trigger()

	for _, w := range workers {
		waitDone(t, w, 10*time.Second)
		got, err := w.Result()
		if err != nil {
			t.Fatalf("worker %d: Result after early stop: %v", w.ID(), err)
		}
		if got < 0 || got >= hugeEnd/2 {
			t.Errorf("worker %d: partial count out of bounds: %d", w.ID(), got)
		}
		if reason := w.(*ProcessWorker).Reason(); reason != bench.Stopped.String() {
			t.Errorf("worker %d: reason = %q, want stopped", w.ID(), reason)
		}
	}
}

func TestProcessWorker_ContextCancelStopsChild(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	w := newWorker(t, ModeProcess, Spec{ID: 0, Range: bench.WorkRange{End: hugeEnd}},
		Runtime{Stop: bench.NewStopSignal()}, WithStderr(io.Discard))
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	cancel()
	waitDone(t, w, 10*time.Second)
	if _, err := w.Result(); err != nil {
		t.Fatalf("Result after cancel: %v", err)
	}
	if reason := w.(*ProcessWorker).Reason(); reason != bench.Stopped.String() {
		t.Errorf("reason = %q, want stopped", reason)
	}
}

func TestProcessWorker_Deadline(t *testing.T) {
	t.Parallel()
	spec := Spec{
		ID:       0,
		Range:    bench.WorkRange{End: hugeEnd},
		Deadline: bench.NewDeadline(time.Now(), 200*time.Millisecond),
	}
	w := newWorker(t, ModeProcess, spec, Runtime{Stop: bench.NewStopSignal()}, WithStderr(io.Discard))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, w, 10*time.Second)
	if _, err := w.Result(); err != nil {
		t.Fatalf("Result: %v", err)
	}
	if reason := w.(*ProcessWorker).Reason(); reason != bench.DeadlineExceeded.String() {
		t.Errorf("reason = %q, want deadline", reason)
	}
}

func TestProcessWorker_CrashedChild(t *testing.T) {
	t.Parallel()
	w := newWorker(t, ModeProcess, Spec{ID: 4, Range: bench.WorkRange{WorkerID: 4, End: 100}},
		Runtime{Stop: bench.NewStopSignal()},
		WithEnv("PARBENCH_TEST_CHILD_CRASH=1"), WithStderr(io.Discard))
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitDone(t, w, 10*time.Second)
	if w.Alive() {
		t.Error("crashed child must not be alive")
	}
	_, err := w.Result()
	if !errors.Is(err, apperrors.ErrNoResult) {
		t.Fatalf("Result() = %v, want ErrNoResult", err)
	}
	var workerErr apperrors.WorkerError
	if !errors.As(err, &workerErr) || workerErr.WorkerID != 4 {
		t.Errorf("expected WorkerError for worker 4, got %v", err)
	}
	if code := apperrors.ExitCodeFor(err); code != apperrors.ExitErrorWorker {
		t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorWorker)
	}
}

func TestProcessWorker_ResultBeforeStart(t *testing.T) {
	t.Parallel()
	w := newWorker(t, ModeProcess, Spec{Range: bench.WorkRange{End: 10}}, Runtime{Stop: bench.NewStopSignal()})
	if _, err := w.Result(); !errors.Is(err, apperrors.ErrStillRunning) {
		t.Errorf("Result() before Start = %v, want ErrStillRunning", err)
	}
}

func TestProcessWorker_MissingExecutable(t *testing.T) {
	t.Parallel()
	w := newWorker(t, ModeProcess, Spec{ID: 1, Range: bench.WorkRange{End: 10}},
		Runtime{Stop: bench.NewStopSignal()}, WithExecutable("/nonexistent/parbench"))
	err := w.Start(context.Background())
	var workerErr apperrors.WorkerError
	if !errors.As(err, &workerErr) || workerErr.Op != "start" {
		t.Errorf("Start() = %v, want start WorkerError", err)
	}
}

func TestChildSpecRoundTrip(t *testing.T) {
	t.Parallel()
	deadline := bench.NewDeadline(time.Unix(1700000000, 0), 3*time.Second)
	spec := newChildSpec(Spec{ID: 2, Range: bench.WorkRange{WorkerID: 2, Begin: 10, End: 20}, Deadline: deadline},
		options{progressStride: 64, logLevel: "debug"})
	raw, err := encodeChildSpec(spec)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeChildSpec(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != spec {
		t.Errorf("decoded %+v, want %+v", got, spec)
	}
	task := got.Task(bench.Never)
	if !task.Deadline.Time().Equal(deadline.Time()) {
		t.Errorf("deadline = %v, want %v", task.Deadline.Time(), deadline.Time())
	}
	if _, err := decodeChildSpec("{not json"); err == nil {
		t.Error("expected malformed spec to be rejected")
	}
}
