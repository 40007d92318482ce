package orchestration

import (
	"time"

	"github.com/agbru/parbench/internal/format"
)

// ProgressAggregator manages multi-worker progress aggregation.
// It wraps format.ProgressWithETA and provides a higher-level API
// for consuming progress updates from a channel. Both CLI and TUI
// use this to avoid duplicating the aggregation logic.
type ProgressAggregator struct {
	state      *format.ProgressWithETA
	processed  []int64
	numWorkers int
}

// NewProgressAggregator creates a new aggregator for the given number
// of workers. Returns nil if numWorkers <= 0.
func NewProgressAggregator(numWorkers int) *ProgressAggregator {
	if numWorkers <= 0 {
		return nil
	}
	return &ProgressAggregator{
		state:      format.NewProgressWithETA(numWorkers),
		processed:  make([]int64, numWorkers),
		numWorkers: numWorkers,
	}
}

// AggregatedProgress holds the result of processing a single progress update.
type AggregatedProgress struct {
	// WorkerID is the index of the worker that sent the update.
	WorkerID int
	// Value is the worker's completion fraction (0.0 to 1.0).
	Value float64
	// AverageProgress is the aggregated average across all workers.
	AverageProgress float64
	// Processed is the sum of values examined by all workers.
	Processed int64
	// ETA is the estimated time remaining based on smoothed progress rate.
	ETA time.Duration
}

// Update processes a single progress update and returns the aggregated result.
func (a *ProgressAggregator) Update(update ProgressUpdate) AggregatedProgress {
	if update.WorkerID >= 0 && update.WorkerID < a.numWorkers {
		a.processed[update.WorkerID] = update.Processed
	}
	value := update.Fraction()
	avg, eta := a.state.UpdateWithETA(update.WorkerID, value)
	return AggregatedProgress{
		WorkerID:        update.WorkerID,
		Value:           value,
		AverageProgress: avg,
		Processed:       a.TotalProcessed(),
		ETA:             eta,
	}
}

// CalculateAverage returns the current average progress without updating.
func (a *ProgressAggregator) CalculateAverage() float64 {
	return a.state.CalculateAverage()
}

// GetETA returns the current ETA estimate without updating.
func (a *ProgressAggregator) GetETA() time.Duration {
	return a.state.GetETA()
}

// TotalProcessed returns the sum of the last processed counts.
func (a *ProgressAggregator) TotalProcessed() int64 {
	var sum int64
	for _, p := range a.processed {
		sum += p
	}
	return sum
}

// NumWorkers returns the number of workers being tracked.
func (a *ProgressAggregator) NumWorkers() int {
	return a.numWorkers
}

// DrainChannel reads all updates from the channel without processing.
func DrainChannel(progressChan <-chan ProgressUpdate) {
	for range progressChan {
	}
}
