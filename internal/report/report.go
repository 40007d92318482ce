// Package report turns per-worker match counts into the figures printed at
// the end of a run.
//
// Only even numbers are counted, so a worker covers roughly twice as many
// values as it reports. Every figure is scaled by two to express coverage of
// the full range.
package report

import (
	"time"

	"github.com/agbru/parbench/internal/format"
)

// WorkerLine is the per-worker part of a Summary.
type WorkerLine struct {
	ID      int     `json:"id" yaml:"id"`
	Matches int64   `json:"matches" yaml:"matches"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Summary is the final report of a run.
type Summary struct {
	WorkSize       int64        `json:"work_size" yaml:"work_size"`
	Workers        []WorkerLine `json:"workers" yaml:"workers"`
	Total          int64        `json:"total" yaml:"total"`
	TotalPercent   float64      `json:"total_percent" yaml:"total_percent"`
	ElapsedSeconds float64      `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Build computes the summary. Percentages and elapsed seconds are rounded
// to two decimals; a zero work size yields zero percentages.
func Build(matches []int64, workSize int64, elapsed time.Duration) Summary {
	s := Summary{
		WorkSize:       workSize,
		Workers:        make([]WorkerLine, len(matches)),
		ElapsedSeconds: format.Round2(elapsed.Seconds()),
	}
	var sum int64
	for i, m := range matches {
		sum += m
		s.Workers[i] = WorkerLine{ID: i, Matches: m, Percent: WorkerPercent(m, workSize)}
	}
	s.Total = 2 * sum
	s.TotalPercent = percent(float64(2*sum)*100, workSize)
	return s
}

// WorkerPercent is the share of the full range covered by a worker that
// found m even numbers.
func WorkerPercent(m, workSize int64) float64 {
	return percent(float64(m)*200, workSize)
}

func percent(scaled float64, workSize int64) float64 {
	if workSize == 0 {
		return 0
	}
	return format.Round2(scaled / float64(workSize))
}
