package tui

import (
	"fmt"
	"strings"

	"github.com/agbru/parbench/internal/metrics"
)

const historySize = 120

// SystemModel shows system-wide CPU and memory history and the controller's
// own runtime figures.
type SystemModel struct {
	cpuHistory *RingBuffer
	memHistory *RingBuffer
	mem        metrics.MemorySnapshot
	width      int
	height     int
}

// NewSystemModel creates an empty panel.
func NewSystemModel() SystemModel {
	return SystemModel{
		cpuHistory: NewRingBuffer(historySize),
		memHistory: NewRingBuffer(historySize),
	}
}

// SetSize updates dimensions.
func (s *SystemModel) SetSize(w, h int) {
	s.width = w
	s.height = h
}

// UpdateSysStats appends a system sample.
func (s *SystemModel) UpdateSysStats(msg SysStatsMsg) {
	s.cpuHistory.Push(msg.CPUPercent)
	s.memHistory.Push(msg.MemPercent)
}

// UpdateMemStats stores the controller memory sample.
func (s *SystemModel) UpdateMemStats(msg MemStatsMsg) {
	s.mem = metrics.MemorySnapshot(msg)
}

// View renders the panel.
func (s SystemModel) View() string {
	sparkWidth := max(s.width-20, 8)
	var b strings.Builder
	b.WriteString(titleStyle.Render(" System "))
	b.WriteString(fmt.Sprintf("\n %s %s %s",
		metricLabelStyle.Render("CPU"),
		cpuSparklineStyle.Render(RenderSparkline(s.cpuHistory.Tail(sparkWidth))),
		metricValueStyle.Render(fmt.Sprintf("%5.1f%%", s.cpuHistory.Last()))))
	b.WriteString(fmt.Sprintf("\n %s %s %s",
		metricLabelStyle.Render("MEM"),
		memSparklineStyle.Render(RenderSparkline(s.memHistory.Tail(sparkWidth))),
		metricValueStyle.Render(fmt.Sprintf("%5.1f%%", s.memHistory.Last()))))
	b.WriteString(fmt.Sprintf("\n %s %s %s %s %s %s",
		metricLabelStyle.Render("Heap:"),
		metricValueStyle.Render(metrics.FormatBytes(s.mem.HeapAlloc)+" / "+metrics.FormatBytes(s.mem.HeapSys)),
		metricLabelStyle.Render("GC:"),
		metricValueStyle.Render(fmt.Sprintf("%d (%.1fms)", s.mem.NumGC, float64(s.mem.PauseTotalNs)/1e6)),
		metricLabelStyle.Render("Goroutines:"),
		metricValueStyle.Render(fmt.Sprintf("%d", s.mem.Goroutines))))

	return panelStyle.
		Width(max(s.width-2, 0)).
		Height(max(s.height-2, 0)).
		Render(b.String())
}
