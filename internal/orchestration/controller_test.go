package orchestration

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"go.uber.org/multierr"

	"github.com/agbru/parbench/internal/bench"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/worker"
	"github.com/agbru/parbench/internal/worker/mocks"
)

const hugeWorkSize = int64(1) << 50

func threadFactory(t *testing.T, opts ...worker.Option) worker.Factory {
	t.Helper()
	f, err := worker.NewFactory(worker.ModeThread, opts...)
	if err != nil {
		t.Fatalf("NewFactory: %v", err)
	}
	return f
}

// runWithin runs c and fails the test if it does not return within d.
func runWithin(t *testing.T, ctx context.Context, c *Controller, reporter ProgressReporter, d time.Duration) (Outcome, error) {
	t.Helper()
	type result struct {
		o   Outcome
		err error
	}
	done := make(chan result, 1)
	go func() {
		o, err := c.Run(ctx, reporter, io.Discard)
		done <- result{o, err}
	}()
	select {
	case r := <-done:
		return r.o, r.err
	case <-time.After(d):
		t.Fatalf("DEADLOCK: Run did not return within %s", d)
		return Outcome{}, nil
	}
}

// stubWorker wires a gomock worker whose Done channel is controlled by the test.
func stubWorker(ctrl *gomock.Controller, id int, r bench.WorkRange, done chan struct{}) *mocks.MockWorker {
	w := mocks.NewMockWorker(ctrl)
	w.EXPECT().ID().Return(id).AnyTimes()
	w.EXPECT().Range().Return(r).AnyTimes()
	w.EXPECT().Done().Return((<-chan struct{})(done)).AnyTimes()
	w.EXPECT().Processed().Return(r.Len()).AnyTimes()
	return w
}

func mockFactory(ctrl *gomock.Controller, workers ...worker.Worker) *mocks.MockFactory {
	f := mocks.NewMockFactory(ctrl)
	f.EXPECT().Mode().Return(worker.ModeThread).AnyTimes()
	for _, w := range workers {
		f.EXPECT().New(gomock.Any(), gomock.Any()).Return(w, nil)
	}
	return f
}

func TestState_String(t *testing.T) {
	t.Parallel()
	cases := map[State]string{
		Created:   "created",
		Running:   "running",
		Stopping:  "stopping",
		Done:      "done",
		State(42): "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestNewController_InvalidPlan(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		plan  Plan
		field string
	}{
		{"zero workers", Plan{Workers: 0, WorkSize: 10}, "workers"},
		{"negative work size", Plan{Workers: 1, WorkSize: -1}, "work-size"},
		{"negative timeout", Plan{Workers: 1, WorkSize: 10, Timeout: -time.Second}, "max-time"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewController(tt.plan, threadFactory(t))
			var validationErr apperrors.ValidationError
			if !errors.As(err, &validationErr) || validationErr.Field != tt.field {
				t.Errorf("got %v, want ValidationError on %s", err, tt.field)
			}
		})
	}
	if _, err := NewController(Plan{Workers: 1}, nil); err == nil {
		t.Error("expected nil factory to be rejected")
	}
}

func TestNewController_FactoryError(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFactory(ctrl)
	f.EXPECT().Mode().Return(worker.ModeProcess).AnyTimes()
	f.EXPECT().New(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

	_, err := NewController(Plan{Workers: 2, WorkSize: 10}, f)
	var workerErr apperrors.WorkerError
	if !errors.As(err, &workerErr) || workerErr.Op != "create" || workerErr.WorkerID != 0 {
		t.Errorf("got %v, want create WorkerError for worker 0", err)
	}
}

func TestNewController_BuildsWorkersFromPartition(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	f := mocks.NewMockFactory(ctrl)
	f.EXPECT().Mode().Return(worker.ModeThread).AnyTimes()

	var specs []worker.Spec
	f.EXPECT().New(gomock.Any(), gomock.Any()).DoAndReturn(func(spec worker.Spec, rt worker.Runtime) (worker.Worker, error) {
		if rt.Stop == nil {
			t.Error("runtime must carry the stop signal")
		}
		specs = append(specs, spec)
		return mocks.NewMockWorker(ctrl), nil
	}).Times(3)

	c, err := NewController(Plan{Workers: 3, WorkSize: 10, Timeout: time.Minute}, f)
	if err != nil {
		t.Fatalf("NewController: %v", err)
	}
	if c.State() != Created {
		t.Errorf("state = %s, want created", c.State())
	}
	if c.Plan().Mode != worker.ModeThread {
		t.Errorf("plan mode should default to the factory mode, got %q", c.Plan().Mode)
	}
	want := []bench.WorkRange{{WorkerID: 0, Begin: 0, End: 3}, {WorkerID: 1, Begin: 3, End: 6}, {WorkerID: 2, Begin: 6, End: 9}}
	for i, s := range specs {
		if s.ID != i || s.Range != want[i] {
			t.Errorf("spec %d = %+v, want range %v", i, s, want[i])
		}
		if !s.Deadline.IsSet() || !s.Deadline.Time().Equal(c.Deadline().Time()) {
			t.Errorf("spec %d must share the controller deadline", i)
		}
	}
}

func TestController_RunThreadWorkers(t *testing.T) {
	t.Parallel()
	rec := metrics.NewRecorder()
	c, err := NewController(Plan{Workers: 4, WorkSize: 400}, threadFactory(t), WithRecorder(rec))
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := runWithin(t, context.Background(), c, NullProgressReporter{}, 10*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.State() != Done {
		t.Errorf("state = %s, want done", c.State())
	}
	if outcome.Stopped || outcome.Failed() {
		t.Errorf("unexpected outcome flags: %+v", outcome)
	}
	matches := outcome.Matches()
	if len(matches) != 4 {
		t.Fatalf("got %d results", len(matches))
	}
	for i, m := range matches {
		if m != 50 {
			t.Errorf("worker %d matches = %d, want 50", i, m)
		}
		r := outcome.Results[i]
		if r.ID != i || r.Range.Begin != int64(i)*100 || r.Processed != 100 {
			t.Errorf("result %d = %+v", i, r)
		}
	}
	if outcome.Elapsed <= 0 {
		t.Error("elapsed must be positive")
	}

	if _, err := c.Run(context.Background(), nil, io.Discard); !errors.Is(err, ErrAlreadyRun) {
		t.Errorf("second Run = %v, want ErrAlreadyRun", err)
	}
}

func TestController_StartsInOrder(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	ranges, _ := bench.Partition(30, 3)
	var ws []worker.Worker
	var starts []*gomock.Call
	for i, r := range ranges {
		done := make(chan struct{})
		close(done)
		w := stubWorker(ctrl, i, r, done)
		starts = append(starts, w.EXPECT().Start(gomock.Any()).Return(nil))
		w.EXPECT().Result().Return(int64(i+1), nil)
		ws = append(ws, w)
	}
	gomock.InOrder(starts...)

	c, err := NewController(Plan{Workers: 3, WorkSize: 30}, mockFactory(ctrl, ws...))
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := runWithin(t, context.Background(), c, nil, 5*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, m := range outcome.Matches() {
		if m != int64(i+1) {
			t.Errorf("result %d = %d, want %d (construction order)", i, m, i+1)
		}
	}
}

func TestController_StartFailureStopsStartedWorkers(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	ranges, _ := bench.Partition(20, 2)

	var stop *bench.StopSignal
	firstDone := make(chan struct{})
	first := stubWorker(ctrl, 0, ranges[0], firstDone)
	first.EXPECT().Start(gomock.Any()).DoAndReturn(func(context.Context) error {
		go func() {
			<-stop.Done()
			close(firstDone)
		}()
		return nil
	})
	first.EXPECT().Result().Return(int64(3), nil)

	second := stubWorker(ctrl, 1, ranges[1], make(chan struct{}))
	second.EXPECT().Start(gomock.Any()).Return(errors.New("exec failed"))

	f := mocks.NewMockFactory(ctrl)
	f.EXPECT().Mode().Return(worker.ModeProcess).AnyTimes()
	f.EXPECT().New(gomock.Any(), gomock.Any()).DoAndReturn(func(spec worker.Spec, rt worker.Runtime) (worker.Worker, error) {
		stop = rt.Stop
		if spec.ID == 0 {
			return first, nil
		}
		return second, nil
	}).Times(2)

	c, err := NewController(Plan{Workers: 2, WorkSize: 20}, f)
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := runWithin(t, context.Background(), c, nil, 5*time.Second)
	var workerErr apperrors.WorkerError
	if !errors.As(err, &workerErr) || workerErr.WorkerID != 1 || workerErr.Op != "start" {
		t.Fatalf("Run error = %v, want start WorkerError for worker 1", err)
	}
	if apperrors.ExitCodeFor(err) != apperrors.ExitErrorWorker {
		t.Errorf("exit code = %d", apperrors.ExitCodeFor(err))
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Matches != 3 {
		t.Errorf("started worker result should be kept, got %+v", outcome.Results)
	}
}

func TestController_CombinesResultErrors(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	ranges, _ := bench.Partition(30, 3)
	var ws []worker.Worker
	for i, r := range ranges {
		done := make(chan struct{})
		close(done)
		w := stubWorker(ctrl, i, r, done)
		w.EXPECT().Start(gomock.Any()).Return(nil)
		if i == 1 {
			w.EXPECT().Result().Return(int64(5), nil)
		} else {
			w.EXPECT().Result().Return(int64(0), apperrors.WorkerError{WorkerID: i, Op: "result", Cause: apperrors.ErrNoResult})
		}
		ws = append(ws, w)
	}

	c, err := NewController(Plan{Workers: 3, WorkSize: 30}, mockFactory(ctrl, ws...))
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := runWithin(t, context.Background(), c, nil, 5*time.Second)
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("combined errors = %d (%v), want 2", got, err)
	}
	if !errors.Is(err, apperrors.ErrNoResult) {
		t.Errorf("combined error should wrap ErrNoResult: %v", err)
	}
	if !outcome.Failed() {
		t.Error("outcome should be marked failed")
	}
	if got := outcome.Matches(); got[0] != 0 || got[1] != 5 || got[2] != 0 {
		t.Errorf("matches = %v, want [0 5 0]", got)
	}
}

func TestController_ContextCancelStopsWorkers(t *testing.T) {
	t.Parallel()
	c, err := NewController(Plan{Workers: 3, WorkSize: hugeWorkSize}, threadFactory(t))
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	outcome, err := runWithin(t, ctx, c, nil, 10*time.Second)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !outcome.Stopped {
		t.Error("outcome should be marked stopped")
	}
	if c.State() != Done {
		t.Errorf("state = %s, want done", c.State())
	}
	for _, r := range outcome.Results {
		if r.Matches >= r.Range.Len()/2 {
			t.Errorf("worker %d counted its whole range despite the stop", r.ID)
		}
	}
}

func TestController_StopMovesToStopping(t *testing.T) {
	t.Parallel()
	c, err := NewController(Plan{Workers: 2, WorkSize: hugeWorkSize}, threadFactory(t))
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, _ int, _ io.Writer) {
		defer wg.Done()
		close(started)
		DrainChannel(ch)
	})
	stateAfterStop := make(chan State, 1)
	go func() {
		<-started
		c.Stop()
		stateAfterStop <- c.State()
	}()
	outcome, err := runWithin(t, context.Background(), c, reporter, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if s := <-stateAfterStop; s != Stopping && s != Done {
		t.Errorf("state after Stop = %s, want stopping", s)
	}
	if outcome.Stopped {
		t.Error("Stop is not an interrupt; Stopped should stay false")
	}
}

func TestController_DeadlineBoundsRun(t *testing.T) {
	t.Parallel()
	timeout := 100 * time.Millisecond
	c, err := NewController(Plan{Workers: 2, WorkSize: hugeWorkSize, Timeout: timeout}, threadFactory(t))
	if err != nil {
		t.Fatal(err)
	}
	outcome, err := runWithin(t, context.Background(), c, nil, 10*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Stopped {
		t.Error("a deadline is not an interrupt")
	}
	if outcome.Elapsed < timeout {
		t.Errorf("elapsed %v shorter than the timeout", outcome.Elapsed)
	}
	if outcome.Elapsed > timeout+2*time.Second {
		t.Errorf("elapsed %v overshoots the timeout", outcome.Elapsed)
	}
	if !outcome.Deadline.IsSet() {
		t.Error("outcome should carry the deadline")
	}
}

func TestController_ReportsProgress(t *testing.T) {
	t.Parallel()
	c, err := NewController(Plan{Workers: 2, WorkSize: 2000},
		threadFactory(t, worker.WithProgressStride(100)),
		WithSampleInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	final := map[int]ProgressUpdate{}
	var numWorkers int
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, n int, _ io.Writer) {
		defer wg.Done()
		numWorkers = n
		for u := range ch {
			mu.Lock()
			final[u.WorkerID] = u
			mu.Unlock()
		}
	})
	if _, err := runWithin(t, context.Background(), c, reporter, 10*time.Second); err != nil {
		t.Fatal(err)
	}
	if numWorkers != 2 {
		t.Errorf("reporter told %d workers, want 2", numWorkers)
	}
	mu.Lock()
	defer mu.Unlock()
	for id := 0; id < 2; id++ {
		u := final[id]
		if u.Processed != 1000 || u.Total != 1000 || u.Fraction() != 1 {
			t.Errorf("final update for worker %d = %+v", id, u)
		}
	}
}

// TestController_NoDeadlock_SlowReporter verifies that a reporter that is
// slow to consume updates never blocks the workers.
func TestController_NoDeadlock_SlowReporter(t *testing.T) {
	t.Parallel()
	c, err := NewController(Plan{Workers: 4, WorkSize: 4_000_000},
		threadFactory(t, worker.WithProgressStride(10)),
		WithSampleInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	reporter := ProgressReporterFunc(func(wg *sync.WaitGroup, ch <-chan ProgressUpdate, _ int, _ io.Writer) {
		defer wg.Done()
		for range ch {
			time.Sleep(time.Millisecond)
		}
	})
	outcome, err := runWithin(t, context.Background(), c, reporter, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	for _, m := range outcome.Matches() {
		if m != 500_000 {
			t.Errorf("matches = %d, want 500000", m)
		}
	}
}
