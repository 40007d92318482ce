package orchestration

import (
	"io"
	"sync"
)

// ProgressUpdate is a progress sample for one worker.
type ProgressUpdate struct {
	// WorkerID is the index of the worker.
	WorkerID int
	// Processed is the number of values examined so far.
	Processed int64
	// Total is the length of the worker's range.
	Total int64
}

// Fraction returns Processed/Total in [0, 1]. An empty range counts as done.
func (u ProgressUpdate) Fraction() float64 {
	if u.Total <= 0 {
		return 1
	}
	f := float64(u.Processed) / float64(u.Total)
	if f > 1 {
		return 1
	}
	return f
}

// ProgressReporter defines the interface for displaying run progress.
// This interface decouples the orchestration layer from the presentation layer.
type ProgressReporter interface {
	// DisplayProgress consumes updates until progressChan is closed, then
	// calls wg.Done.
	//
	// Parameters:
	//   - wg: A WaitGroup to signal when display is complete.
	//   - progressChan: Channel receiving progress updates from workers.
	//   - numWorkers: The number of workers being tracked.
	//   - out: The writer for progress output.
	DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer)
}

// ProgressReporterFunc is a function adapter that implements ProgressReporter.
type ProgressReporterFunc func(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer)

// DisplayProgress calls the underlying function.
func (f ProgressReporterFunc) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, numWorkers int, out io.Writer) {
	f(wg, progressChan, numWorkers, out)
}

// NullProgressReporter is a no-op implementation of ProgressReporter.
// It drains the progress channel without displaying anything.
type NullProgressReporter struct{}

// DisplayProgress drains the channel without output.
func (NullProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan ProgressUpdate, _ int, _ io.Writer) {
	defer wg.Done()
	DrainChannel(progressChan)
}

// ResultPresenter renders the parts of a run that frame the progress
// display: the parameters before it and the summary after it.
type ResultPresenter interface {
	// PresentPlan prints the run parameters and the running notice.
	PresentPlan(plan Plan, out io.Writer)
	// PresentSummary prints the per-worker breakdown and the totals of a
	// finished run.
	PresentSummary(outcome Outcome, out io.Writer) error
}
