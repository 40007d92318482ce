package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/agbru/parbench/internal/format"
	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/orchestration"
	"github.com/agbru/parbench/internal/sysmon"
)

// workerRow is the display state of one worker.
type workerRow struct {
	total     int64
	processed int64
	value     float64
	matches   int64
	err       error
	proc      *sysmon.ProcessStats
}

// WorkersModel shows one progress bar per worker and, once the run is
// over, the match counts.
type WorkersModel struct {
	rows     []workerRow
	average  float64
	eta      time.Duration
	finished bool
	width    int
	height   int
}

// NewWorkersModel creates a panel with one row per range length.
func NewWorkersModel(totals []int64) WorkersModel {
	rows := make([]workerRow, len(totals))
	for i, t := range totals {
		rows[i].total = t
	}
	return WorkersModel{rows: rows}
}

// SetSize updates dimensions.
func (w *WorkersModel) SetSize(width, height int) {
	w.width = width
	w.height = height
}

// ApplyProgress records a progress sample.
func (w *WorkersModel) ApplyProgress(msg ProgressMsg) {
	if msg.WorkerID < 0 || msg.WorkerID >= len(w.rows) {
		return
	}
	r := &w.rows[msg.WorkerID]
	r.processed = msg.Processed
	r.value = msg.Value
	w.average = msg.AverageProgress
	w.eta = msg.ETA
}

// ApplyProcStats records per-child samples.
func (w *WorkersModel) ApplyProcStats(stats ProcStatsMsg) {
	for id, s := range stats {
		if id >= 0 && id < len(w.rows) {
			w.rows[id].proc = &s
		}
	}
}

// ApplyOutcome records the final per-worker results.
func (w *WorkersModel) ApplyOutcome(o orchestration.Outcome) {
	for _, r := range o.Results {
		if r.ID < 0 || r.ID >= len(w.rows) {
			continue
		}
		row := &w.rows[r.ID]
		row.matches = r.Matches
		row.processed = r.Processed
		row.err = r.Err
		if row.total > 0 {
			row.value = min(float64(r.Processed)/float64(row.total), 1)
		}
	}
	w.finished = true
	w.eta = 0
}

// View renders the panel.
func (w WorkersModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" Workers "))
	b.WriteString(dimStyle.Render(fmt.Sprintf(" avg %.2f%%  ETA %s", w.average*100, format.FormatETA(w.eta))))

	barWidth := max(w.width-48, 10)
	visible := len(w.rows)
	if w.height > 3 && visible > w.height-3 {
		visible = w.height - 3
	}
	for i := range visible {
		r := w.rows[i]
		b.WriteString("\n")
		b.WriteString(workerLabelStyle.Render(fmt.Sprintf(" %3d ", i)))
		b.WriteString(renderBar(r.value, barWidth))
		b.WriteString(fmt.Sprintf(" %6.2f%% ", r.value*100))
		switch {
		case r.err != nil:
			b.WriteString(statusErrorStyle.Render("no result"))
		case w.finished:
			b.WriteString(metricValueStyle.Render(format.FormatNumber(r.matches)))
			b.WriteString(dimStyle.Render(" even"))
		default:
			b.WriteString(dimStyle.Render(format.FormatNumber(r.processed)))
		}
		if r.proc != nil {
			b.WriteString(dimStyle.Render(fmt.Sprintf("  pid %d %.0f%% %s",
				r.proc.PID, r.proc.CPUPercent, metrics.FormatBytes(r.proc.RSS))))
		}
	}
	if hidden := len(w.rows) - visible; hidden > 0 {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", hidden)))
	}

	return panelStyle.
		Width(max(w.width-2, 0)).
		Height(max(w.height-2, 0)).
		Render(b.String())
}

// renderBar draws a progress bar with the themed block characters.
func renderBar(progress float64, width int) string {
	filled := int(max(0, min(progress, 1)) * float64(width))
	return barFullStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}
