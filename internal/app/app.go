// Package app wires configuration, workers, the controller and the
// presentation layer into the parbench command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/agbru/parbench/internal/cli"
	"github.com/agbru/parbench/internal/config"
	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
	"github.com/agbru/parbench/internal/metrics"
	"github.com/agbru/parbench/internal/orchestration"
	"github.com/agbru/parbench/internal/sysmon"
	"github.com/agbru/parbench/internal/tui"
	"github.com/agbru/parbench/internal/ui"
	"github.com/agbru/parbench/internal/worker"
)

// Application represents the parbench application instance.
type Application struct {
	Config      config.AppConfig
	ErrWriter   io.Writer
	ProgramName string

	workerOpts []worker.Option
	logger     logging.Logger
}

// AppOption configures an Application during construction.
type AppOption func(*Application)

// WithWorkerOptions passes extra options to the worker factory.
func WithWorkerOptions(opts ...worker.Option) AppOption {
	return func(a *Application) { a.workerOpts = append(a.workerOpts, opts...) }
}

// New creates a new Application instance by parsing command-line arguments.
func New(args []string, errWriter io.Writer, opts ...AppOption) (*Application, error) {
	app := &Application{ErrWriter: errWriter, ProgramName: "parbench"}
	for _, opt := range opts {
		opt(app)
	}

	var cmdArgs []string
	if len(args) > 0 {
		app.ProgramName = filepath.Base(args[0])
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(app.ProgramName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, apperrors.ValidationError{Field: "log-level", Message: err.Error()}
	}
	app.logger = logging.NewConsoleLogger(errWriter, "parbench", level)
	return app, nil
}

// Run executes the application and returns the process exit code.
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}
	if err := ui.InitTheme(a.Config.Theme, a.Config.NoColor); err != nil {
		return a.fail(apperrors.ValidationError{Field: "theme", Message: err.Error()})
	}

	ctx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stopSignals()

	return a.runBenchmark(ctx, out)
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	hints := cli.WorkerHints(sysmon.LogicalCPUs())
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.ProgramName, hints); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// runBenchmark builds the workers, runs them and reports the counts. A run
// with failed workers still prints the partial summary before exiting with
// the worker-failure code.
func (a *Application) runBenchmark(ctx context.Context, out io.Writer) int {
	cfg := a.Config
	mode, err := worker.ParseMode(cfg.Mode())
	if err != nil {
		return a.fail(apperrors.NewConfigError("%v", err))
	}
	factoryOpts := append([]worker.Option{
		worker.WithLogLevel(cfg.LogLevel),
		worker.WithStderr(a.ErrWriter),
	}, a.workerOpts...)
	factory, err := worker.NewFactory(mode, factoryOpts...)
	if err != nil {
		return a.fail(err)
	}

	recorder := metrics.NewRecorder()
	plan := orchestration.Plan{
		Mode:     mode,
		Workers:  cfg.Workers,
		WorkSize: cfg.WorkSize,
		Timeout:  cfg.Timeout(),
	}

	presenter := cli.CLIResultPresenter{Output: cli.OutputConfig{OutputFile: cfg.OutputFile, Quiet: cfg.Quiet}}
	if !cfg.Quiet && !cfg.TUI {
		presenter.PresentPlan(plan, out)
	}

	cpuBefore, cpuErr := sysmon.ReadCPUTimes()
	controller, err := orchestration.NewController(plan, factory,
		orchestration.WithLogger(a.logger),
		orchestration.WithRecorder(recorder))
	if err != nil {
		return a.fail(err)
	}

	var outcome orchestration.Outcome
	var runErr error
	if cfg.TUI {
		outcome, runErr = tui.Run(ctx, controller, Version)
	} else {
		var reporter orchestration.ProgressReporter = cli.CLIProgressReporter{}
		if cfg.Quiet {
			reporter = orchestration.NullProgressReporter{}
		}
		outcome, runErr = controller.Run(ctx, reporter, a.ErrWriter)
	}
	if errors.Is(runErr, orchestration.ErrAlreadyRun) {
		return a.fail(runErr)
	}

	if err := presenter.PresentSummary(outcome, out); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error saving summary: %v\n", err)
		return apperrors.ExitErrorGeneric
	}

	if cfg.Verbose && !cfg.Quiet {
		var used sysmon.CPUTimes
		if cpuAfter, err := sysmon.ReadCPUTimes(); err == nil && cpuErr == nil {
			used = cpuAfter.Sub(cpuBefore)
		}
		cli.DisplayVerboseDetails(outcome, used, out)
	}

	if cfg.MetricsFile != "" {
		if err := recorder.WriteToTextfile(cfg.MetricsFile); err != nil {
			fmt.Fprintf(a.ErrWriter, "Error writing metrics: %v\n", err)
			return apperrors.ExitErrorGeneric
		}
	}

	if runErr != nil {
		return a.fail(runErr)
	}
	return apperrors.ExitSuccess
}

// fail logs err, prints it and maps it to an exit code.
func (a *Application) fail(err error) int {
	a.logger.Error("run failed", err)
	fmt.Fprintf(a.ErrWriter, "Error: %v\n", err)
	return apperrors.ExitCodeFor(err)
}

// IsHelpError checks if the error is a help flag error (--help was used).
func IsHelpError(err error) bool {
	return config.IsHelp(err)
}
