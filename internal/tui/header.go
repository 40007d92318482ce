package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/parbench/internal/format"
	"github.com/agbru/parbench/internal/orchestration"
)

// HeaderModel renders the top bar: title, plan and elapsed time.
type HeaderModel struct {
	plan      orchestration.Plan
	version   string
	startTime time.Time
	endTime   time.Time
	width     int
}

// NewHeaderModel creates a new header.
func NewHeaderModel(plan orchestration.Plan, version string) HeaderModel {
	return HeaderModel{plan: plan, version: version, startTime: time.Now()}
}

// SetDone freezes the elapsed timer.
func (h *HeaderModel) SetDone(elapsed time.Duration) {
	h.endTime = h.startTime.Add(elapsed)
}

// SetWidth updates the available width.
func (h *HeaderModel) SetWidth(w int) { h.width = w }

// View renders the header.
func (h HeaderModel) View() string {
	titleText := "parbench"
	if h.version != "" && h.version != "dev" {
		titleText += " " + h.version
	}
	pipe := dimStyle.Render(" | ")

	plan := fmt.Sprintf("%s ×%d  size %s", h.plan.Mode, h.plan.Workers, format.FormatNumber(h.plan.WorkSize))
	if h.plan.Timeout > 0 {
		plan += "  timeout " + format.FormatSeconds(h.plan.Timeout) + "s"
	}

	duration := time.Since(h.startTime)
	if !h.endTime.IsZero() {
		duration = h.endTime.Sub(h.startTime)
	}
	elapsed := accentStyle.Render("Elapsed: " + format.FormatExecutionDuration(duration))

	row := titleStyle.Render(titleText) + pipe + plan + pipe + elapsed
	if gap := h.width - 2 - lipgloss.Width(row); gap > 0 {
		row += spaces(gap)
	}
	return headerStyle.Width(h.width).Render(row)
}

// spaces returns a string of n space characters.
func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}
