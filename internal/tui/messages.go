package tui

import (
	"time"

	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/orchestration"
	"github.com/agbru/parbench/internal/sysmon"
)

// ProgressMsg carries one aggregated progress sample.
type ProgressMsg struct {
	WorkerID        int
	Processed       int64
	Value           float64
	AverageProgress float64
	TotalProcessed  int64
	ETA             time.Duration
}

// ProgressDoneMsg is sent once the progress channel is closed.
type ProgressDoneMsg struct{}

// RunDoneMsg is sent when Controller.Run returns.
type RunDoneMsg struct {
	Outcome orchestration.Outcome
	Err     error
}

// TickMsg drives periodic sampling.
type TickMsg time.Time

// SysStatsMsg carries a system-wide CPU and memory sample.
type SysStatsMsg sysmon.Stats

// MemStatsMsg carries a controller memory sample.
type MemStatsMsg metrics.MemorySnapshot

// ProcStatsMsg carries per-child samples in process mode, keyed by worker ID.
type ProcStatsMsg map[int]sysmon.ProcessStats
