package orchestration

import (
	"sync"
	"testing"
	"time"
)

func TestNewProgressAggregator(t *testing.T) {
	t.Parallel()
	if agg := NewProgressAggregator(3); agg == nil || agg.NumWorkers() != 3 {
		t.Fatalf("unexpected aggregator: %+v", agg)
	}
	for _, n := range []int{0, -1} {
		if agg := NewProgressAggregator(n); agg != nil {
			t.Errorf("expected nil aggregator for %d workers", n)
		}
	}
}

func TestProgressAggregator_Update(t *testing.T) {
	t.Parallel()
	agg := NewProgressAggregator(2)

	ap := agg.Update(ProgressUpdate{WorkerID: 0, Processed: 50, Total: 100})
	if ap.WorkerID != 0 || ap.Value != 0.5 {
		t.Errorf("unexpected update: %+v", ap)
	}
	if ap.AverageProgress != 0.25 {
		t.Errorf("AverageProgress = %f, want 0.25", ap.AverageProgress)
	}
	ap = agg.Update(ProgressUpdate{WorkerID: 1, Processed: 100, Total: 100})
	if ap.AverageProgress != 0.75 {
		t.Errorf("AverageProgress = %f, want 0.75", ap.AverageProgress)
	}
	if ap.Processed != 150 || agg.TotalProcessed() != 150 {
		t.Errorf("Processed = %d, want 150", ap.Processed)
	}
	if avg := agg.CalculateAverage(); avg != 0.75 {
		t.Errorf("CalculateAverage = %f", avg)
	}
	if eta := agg.GetETA(); eta < 0 {
		t.Errorf("negative ETA %v", eta)
	}
}

func TestProgressUpdate_Fraction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		u    ProgressUpdate
		want float64
	}{
		{ProgressUpdate{Processed: 0, Total: 10}, 0},
		{ProgressUpdate{Processed: 5, Total: 10}, 0.5},
		{ProgressUpdate{Processed: 12, Total: 10}, 1},
		{ProgressUpdate{Processed: 0, Total: 0}, 1},
	}
	for _, tt := range tests {
		if got := tt.u.Fraction(); got != tt.want {
			t.Errorf("%+v.Fraction() = %v, want %v", tt.u, got, tt.want)
		}
	}
}

func TestNullProgressReporter_Drains(t *testing.T) {
	t.Parallel()
	ch := make(chan ProgressUpdate, 3)
	ch <- ProgressUpdate{WorkerID: 0}
	ch <- ProgressUpdate{WorkerID: 1}
	close(ch)

	var wg sync.WaitGroup
	wg.Add(1)
	go NullProgressReporter{}.DisplayProgress(&wg, ch, 2, nil)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NullProgressReporter did not finish")
	}
}

func TestProgressQueue_KeepsLatestPerWorker(t *testing.T) {
	t.Parallel()
	q, err := newProgressQueue()
	if err != nil {
		t.Fatal(err)
	}
	q.Publish(0, 10, 100)
	q.Publish(0, 30, 100)
	q.Publish(1, 5, 50)
	q.Publish(0, 20, 100)

	latest := q.Drain()
	if len(latest) != 2 {
		t.Fatalf("got %d workers, want 2", len(latest))
	}
	if latest[0].Processed != 30 || latest[1].Processed != 5 || latest[1].Total != 50 {
		t.Errorf("unexpected samples: %+v", latest)
	}
	if again := q.Drain(); len(again) != 0 {
		t.Errorf("queue should be empty after Drain, got %+v", again)
	}
}
