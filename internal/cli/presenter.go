package cli

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agbru/parbench/internal/bench"
	"github.com/agbru/parbench/internal/format"
	"github.com/agbru/parbench/internal/orchestration"
	"github.com/agbru/parbench/internal/report"
	"github.com/agbru/parbench/internal/sysmon"
	"github.com/agbru/parbench/internal/ui"
	"github.com/agbru/parbench/internal/worker"
)

// CLIProgressReporter implements orchestration.ProgressReporter with a
// spinner and a progress bar.
type CLIProgressReporter struct{}

// Verify that CLIProgressReporter implements orchestration.ProgressReporter.
var _ orchestration.ProgressReporter = CLIProgressReporter{}

// DisplayProgress delegates to DisplayProgress.
func (CLIProgressReporter) DisplayProgress(wg *sync.WaitGroup, progressChan <-chan orchestration.ProgressUpdate, numWorkers int, out io.Writer) {
	DisplayProgress(wg, progressChan, numWorkers, out)
}

// CLIResultPresenter implements orchestration.ResultPresenter for terminal
// output. Output selects quiet mode and the optional summary file.
type CLIResultPresenter struct {
	Output OutputConfig
}

// Verify interface compliance.
var _ orchestration.ResultPresenter = CLIResultPresenter{}

// PresentPlan prints the banner and the running notice.
func (CLIResultPresenter) PresentPlan(plan orchestration.Plan, out io.Writer) {
	PrintBanner(plan, out)
	PrintRunning(out)
}

// PresentSummary builds the summary of outcome and hands it to
// DisplaySummaryWithConfig.
func (p CLIResultPresenter) PresentSummary(outcome orchestration.Outcome, out io.Writer) error {
	summary := report.Build(outcome.Matches(), outcome.Plan.WorkSize, outcome.Elapsed)
	doc := NewSummaryDocument(summary, string(outcome.Plan.Mode), outcome.Plan.Timeout, outcome.Stopped)
	return DisplaySummaryWithConfig(out, doc, p.Output)
}

// modeLabel is the banner label for the worker count, padded so that the
// colons line up.
func modeLabel(mode worker.Mode) string {
	if mode == worker.ModeProcess {
		return "    processes"
	}
	return "     threads "
}

// PrintBanner displays the run parameters. The timeout line only appears
// when a timeout is set.
//
// Parameters:
//   - plan: The run plan.
//   - out: The writer for standard output.
func PrintBanner(plan orchestration.Plan, out io.Writer) {
	fmt.Fprintf(out, "%sTest parameters:%s\n\n", ui.ColorBold(), ui.ColorReset())
	fmt.Fprintf(out, "%s : %s%d%s\n", modeLabel(plan.Mode), ui.ColorCyan(), plan.Workers, ui.ColorReset())
	fmt.Fprintf(out, "     job size : %s%d%s\n", ui.ColorCyan(), plan.WorkSize, ui.ColorReset())
	if plan.Timeout > 0 {
		fmt.Fprintf(out, "     timeout  : %s%s%s\n", ui.ColorYellow(), format.FormatSeconds(plan.Timeout), ui.ColorReset())
	}
	fmt.Fprintln(out)
}

// PrintRunning displays the notice shown while the workers run.
func PrintRunning(out io.Writer) {
	fmt.Fprintln(out, "Running...")
}

// DisplaySummary prints one line per worker, the total and the elapsed time.
func DisplaySummary(s report.Summary, out io.Writer) {
	fmt.Fprintf(out, "%sDone%s\n\n", ui.ColorGreen(), ui.ColorReset())
	fmt.Fprintln(out, "Work done by each worker:")
	for _, w := range s.Workers {
		fmt.Fprintf(out, "     worker %d : %d  [%s%.2f %%%s]\n",
			w.ID, w.Matches, ui.ColorMagenta(), w.Percent, ui.ColorReset())
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Total work done      : %d  [%s%.2f %%%s]\n",
		s.Total, ui.ColorMagenta(), s.TotalPercent, ui.ColorReset())
	fmt.Fprintf(out, "Total execution time : %s%.2f%s seconds\n",
		ui.ColorYellow(), s.ElapsedSeconds, ui.ColorReset())
}

// FormatQuietSummary returns the single line printed in quiet mode:
// total, total percent and elapsed seconds.
func FormatQuietSummary(s report.Summary) string {
	return fmt.Sprintf("%d %.2f %.2f", s.Total, s.TotalPercent, s.ElapsedSeconds)
}

// DisplayQuietSummary outputs the quiet-mode line.
func DisplayQuietSummary(s report.Summary, out io.Writer) {
	fmt.Fprintln(out, FormatQuietSummary(s))
}

// DisplayVerboseDetails prints what the plain summary leaves out: how many
// values each worker examined, the part of the range no worker covered and
// the CPU time spent by this process and its children.
//
// Parameters:
//   - outcome: The controller outcome.
//   - cpu: CPU time consumed during the run.
//   - out: The writer for standard output.
func DisplayVerboseDetails(outcome orchestration.Outcome, cpu sysmon.CPUTimes, out io.Writer) {
	fmt.Fprintf(out, "\n%sDetails:%s\n", ui.ColorUnderline(), ui.ColorReset())
	for _, r := range outcome.Results {
		status := ui.ColorGreen() + "ok" + ui.ColorReset()
		if r.Err != nil {
			status = fmt.Sprintf("%sfailed (%v)%s", ui.ColorRed(), r.Err, ui.ColorReset())
		}
		fmt.Fprintf(out, "     worker %d : %s  processed %s of %s  %s\n",
			r.ID, r.Range, format.FormatNumber(r.Processed), format.FormatNumber(r.Range.Len()), status)
	}
	if rem := bench.Remainder(outcome.Plan.WorkSize, outcome.Plan.Workers); rem > 0 {
		fmt.Fprintf(out, "Unassigned tail      : %s values\n", format.FormatNumber(rem))
	}
	if outcome.Stopped {
		fmt.Fprintf(out, "%sRun interrupted; counts are partial.%s\n", ui.ColorYellow(), ui.ColorReset())
	}
	fmt.Fprintf(out, "CPU time (self)      : user %s, system %s\n",
		format.FormatExecutionDuration(cpu.SelfUser), format.FormatExecutionDuration(cpu.SelfSystem))
	fmt.Fprintf(out, "CPU time (children)  : user %s, system %s\n",
		format.FormatExecutionDuration(cpu.ChildrenUser), format.FormatExecutionDuration(cpu.ChildrenSystem))
	fmt.Fprintf(out, "Wall clock           : %s\n", format.FormatExecutionDuration(outcome.Elapsed.Round(time.Microsecond)))
}
