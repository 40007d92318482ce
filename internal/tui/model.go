// Package tui implements the --tui live dashboard: one progress bar per
// worker, system CPU and memory history, and per-child figures in process
// mode.
package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/orchestration"
	"github.com/agbru/parbench/internal/sysmon"
)

// Layout constants for the dashboard.
const (
	headerHeight      = 1
	footerHeight      = 1
	systemPanelHeight = 6
	minWorkersHeight  = 4
	tickInterval      = 500 * time.Millisecond
)

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

// workersHeight returns the height of the workers panel.
func (l LayoutManager) workersHeight() int {
	return max(l.height-headerHeight-footerHeight-systemPanelHeight, minWorkersHeight)
}

// runState is shared by every copy of the model; it outlives the program so
// Run can return the outcome.
type runState struct {
	done    chan struct{}
	outcome orchestration.Outcome
	err     error
}

// pidSource is implemented by process-backed workers.
type pidSource interface {
	PID() int
}

// Model is the root bubbletea model for the dashboard.
type Model struct {
	header  HeaderModel
	workers WorkersModel
	system  SystemModel
	footer  FooterModel
	keymap  KeyMap

	LayoutManager

	ctx        context.Context
	controller *orchestration.Controller
	ref        *programRef
	state      *runState
	collector  *metrics.MemoryCollector

	paused        bool
	done          bool
	quitRequested bool
}

// NewModel creates a dashboard for a controller that has not run yet.
func NewModel(ctx context.Context, c *orchestration.Controller, version string) Model {
	var totals []int64
	for _, w := range c.Workers() {
		totals = append(totals, w.Range().Len())
	}
	keymap := DefaultKeyMap()
	return Model{
		header:     NewHeaderModel(c.Plan(), version),
		workers:    NewWorkersModel(totals),
		system:     NewSystemModel(),
		footer:     NewFooterModel(keymap),
		keymap:     keymap,
		ctx:        ctx,
		controller: c,
		ref:        &programRef{},
		state:      &runState{done: make(chan struct{})},
		collector:  metrics.NewMemoryCollector(),
	}
}

// Init starts the run and the sampling ticker.
func (m Model) Init() tea.Cmd {
	return tea.Batch(runCmd(m.ctx, m.controller, m.ref, m.state), tickCmd())
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case ProgressMsg:
		if !m.paused {
			m.workers.ApplyProgress(msg)
		}
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case RunDoneMsg:
		m.done = true
		m.workers.ApplyOutcome(msg.Outcome)
		m.header.SetDone(msg.Outcome.Elapsed)
		m.footer.status = "done"
		if msg.Err != nil {
			m.footer.failed = true
			m.footer.status = fmt.Sprintf("FAILED: %v", msg.Err)
		}
		if m.quitRequested || m.ctx.Err() != nil {
			return m, tea.Quit
		}
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if m.paused {
			return m, tickCmd()
		}
		return m, tea.Batch(sampleSysStatsCmd(), sampleMemStatsCmd(m.collector), sampleProcStatsCmd(m.controller), tickCmd())

	case SysStatsMsg:
		m.system.UpdateSysStats(msg)
		return m, nil

	case MemStatsMsg:
		m.system.UpdateMemStats(msg)
		return m, nil

	case ProcStatsMsg:
		m.workers.ApplyProcStats(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if m.done {
			return m, tea.Quit
		}
		m.quitRequested = true
		m.footer.stopping = true
		m.controller.Stop()
		return m, nil

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.paused = m.paused
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.footer.ToggleHelp()
		return m, nil
	}
	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.workers.View(),
		m.system.View(),
		m.footer.View(),
	)
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.workers.SetSize(m.width, m.workersHeight())
	m.system.SetSize(m.width, systemPanelHeight)
}

// Run shows the dashboard while c runs and returns the run outcome. Pressing
// q stops the workers; the dashboard closes once their partial counts are
// in.
func Run(ctx context.Context, c *orchestration.Controller, version string) (orchestration.Outcome, error) {
	// Rebuild styles from the theme app.Run selected.
	initTUIStyles()

	model := NewModel(ctx, c, version)
	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so bridge goroutines can Send.
	model.ref.SetProgram(p)

	if _, err := p.Run(); err != nil {
		// Without a terminal the program can fail before Init; the run then
		// proceeds headless.
		if c.State() == orchestration.Created {
			outcome, runErr := c.Run(ctx, orchestration.NullProgressReporter{}, io.Discard)
			if !errors.Is(runErr, orchestration.ErrAlreadyRun) {
				return outcome, runErr
			}
		}
		c.Stop()
		<-model.state.done
		return model.state.outcome, fmt.Errorf("dashboard: %w", err)
	}
	<-model.state.done
	return model.state.outcome, model.state.err
}

// runCmd runs the controller and reports its outcome.
func runCmd(ctx context.Context, c *orchestration.Controller, ref *programRef, state *runState) tea.Cmd {
	return func() tea.Msg {
		outcome, err := c.Run(ctx, &TUIProgressReporter{ref: ref}, io.Discard)
		state.outcome, state.err = outcome, err
		close(state.done)
		return RunDoneMsg{Outcome: outcome, Err: err}
	}
}

// tickCmd returns a command that sends a TickMsg after tickInterval.
func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleSysStatsCmd reads system-wide CPU and memory stats.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		return SysStatsMsg(sysmon.Sample())
	}
}

// sampleMemStatsCmd reads the controller's runtime memory stats.
func sampleMemStatsCmd(mc *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg(mc.Snapshot())
	}
}

// sampleProcStatsCmd samples every live child process. It yields nil in
// thread mode.
func sampleProcStatsCmd(c *orchestration.Controller) tea.Cmd {
	return func() tea.Msg {
		stats := ProcStatsMsg{}
		for _, w := range c.Workers() {
			src, ok := w.(pidSource)
			if !ok || !w.Alive() {
				continue
			}
			pid := src.PID()
			if pid <= 0 {
				continue
			}
			if s, err := sysmon.SampleProcess(pid); err == nil {
				stats[w.ID()] = s
			}
		}
		if len(stats) == 0 {
			return nil
		}
		return stats
	}
}
