// Package config defines the benchmark configuration and parses it from the
// command line, the environment and an optional YAML profile.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "github.com/agbru/parbench/internal/errors"
	"github.com/agbru/parbench/internal/logging"
	"github.com/agbru/parbench/internal/ui"
)

// EnvPrefix is prepended to every environment variable override.
const EnvPrefix = "PARBENCH_"

// DefaultWorkSize is the size of the integer range when --work-size is not given.
const DefaultWorkSize int64 = 10_000_000_000

// Execution modes.
const (
	ModeThread  = "thread"
	ModeProcess = "process"
)

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Thread selects shared-memory workers (goroutines).
	Thread bool
	// Process selects isolated workers (child processes).
	Process bool
	// Workers is the number of parallel execution units.
	Workers int
	// WorkSize is the size of the integer range [0, WorkSize).
	WorkSize int64
	// MaxTime is the soft deadline in seconds; 0 means unbounded.
	MaxTime int

	// ConfigFile is the optional YAML profile path.
	ConfigFile string
	// OutputFile receives the summary as JSON or YAML.
	OutputFile string
	// MetricsFile receives a Prometheus text exposition after the run.
	MetricsFile string
	// Quiet prints a single summary line.
	Quiet bool
	// Verbose adds CPU times and per-worker processed counts.
	Verbose bool
	// TUI enables the interactive dashboard.
	TUI bool
	// NoColor disables ANSI colors.
	NoColor bool
	// Theme names the color palette (dark, light, orange, none).
	Theme string
	// LogLevel is the zerolog level name for diagnostics on stderr.
	LogLevel string
	// Completion, when set, prints a shell completion script and exits.
	Completion string
}

// Mode returns the selected execution mode, or "" when none is selected.
func (c AppConfig) Mode() string {
	switch {
	case c.Thread && !c.Process:
		return ModeThread
	case c.Process && !c.Thread:
		return ModeProcess
	default:
		return ""
	}
}

// Timeout returns MaxTime as a duration.
func (c AppConfig) Timeout() time.Duration {
	return time.Duration(c.MaxTime) * time.Second
}

// Validate checks the configuration for consistency. Parsing relies on it to
// reject invalid combinations before any work starts.
func (c AppConfig) Validate() error {
	if c.Completion != "" {
		return nil
	}
	switch {
	case c.Thread && c.Process:
		return apperrors.NewConfigError("flags --thread and --process are mutually exclusive")
	case !c.Thread && !c.Process:
		return apperrors.NewConfigError("one of --thread or --process is required")
	}
	if c.Workers == 0 {
		return apperrors.NewConfigError("flag --workers is required")
	}
	if c.Workers < 0 {
		return apperrors.ValidationError{Field: "workers", Message: "must be greater than zero"}
	}
	if c.WorkSize < 0 {
		return apperrors.ValidationError{Field: "work-size", Message: "must be non-negative"}
	}
	if c.MaxTime < 0 {
		return apperrors.ValidationError{Field: "max-time", Message: "must be non-negative"}
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.ValidationError{Field: "log-level", Message: err.Error()}
	}
	if _, err := ui.ThemeByName(c.Theme); err != nil {
		return apperrors.ValidationError{Field: "theme", Message: err.Error()}
	}
	return nil
}

// ParseConfig parses command-line arguments into an AppConfig, then layers
// the YAML profile and environment overrides under any flag the user did not
// set explicitly. Priority: CLI flags > environment > profile > defaults.
//
// Parameters:
//   - programName: The name of the program (usually os.Args[0]).
//   - args: The command-line arguments (without the program name).
//   - errorWriter: The writer for usage and error messages.
//
// Returns:
//   - AppConfig: The parsed configuration.
//   - error: flag.ErrHelp when help was requested, or a configuration error.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{WorkSize: DefaultWorkSize, LogLevel: "warn", Theme: ui.DefaultThemeName}

	fs.BoolVar(&config.Thread, "thread", false, "Use goroutine workers sharing memory with the controller.")
	fs.BoolVar(&config.Thread, "t", false, "Shorthand for --thread.")
	fs.BoolVar(&config.Process, "process", false, "Use child-process workers with isolated memory.")
	fs.BoolVar(&config.Process, "p", false, "Shorthand for --process.")
	fs.IntVar(&config.Workers, "workers", 0, "Number of worker threads/processes (required).")
	fs.IntVar(&config.Workers, "w", 0, "Shorthand for --workers.")
	fs.Int64Var(&config.WorkSize, "work-size", DefaultWorkSize, "Size of the integer range to split across workers.")
	fs.Int64Var(&config.WorkSize, "s", DefaultWorkSize, "Shorthand for --work-size.")
	fs.IntVar(&config.MaxTime, "max-time", 0, "Stop workers after MAX_TIME seconds (0 = unbounded).")
	fs.IntVar(&config.MaxTime, "m", 0, "Shorthand for --max-time.")

	fs.StringVar(&config.ConfigFile, "config", "", "YAML benchmark profile.")
	fs.StringVar(&config.OutputFile, "output", "", "Write the summary to this file (.json, .yaml or .yml).")
	fs.StringVar(&config.OutputFile, "o", "", "Shorthand for --output.")
	fs.StringVar(&config.MetricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Print a single summary line.")
	fs.BoolVar(&config.Quiet, "q", false, "Shorthand for --quiet.")
	fs.BoolVar(&config.Verbose, "verbose", false, "Show CPU times and per-worker processed counts.")
	fs.BoolVar(&config.Verbose, "v", false, "Shorthand for --verbose.")
	fs.BoolVar(&config.TUI, "tui", false, "Show the interactive dashboard while workers run.")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output.")
	fs.StringVar(&config.Theme, "theme", ui.DefaultThemeName, "Color theme ("+strings.Join(ui.ThemeNames(), ", ")+").")
	fs.StringVar(&config.LogLevel, "log-level", "warn", "Diagnostic log level on stderr (debug, info, warn, error, disabled).")
	fs.StringVar(&config.Completion, "completion", "", "Print a completion script for the given shell (bash, zsh, fish).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}
	if fs.NArg() > 0 {
		err := apperrors.NewConfigError("unexpected arguments: %s", strings.Join(fs.Args(), " "))
		fmt.Fprintf(errorWriter, "Error: %v\n", err)
		fs.Usage()
		return AppConfig{}, err
	}

	if !isFlagSet(fs, "config") {
		if v := lookupEnv("CONFIG"); v != "" {
			config.ConfigFile = v
		}
	}
	if config.ConfigFile != "" {
		profile, err := LoadProfile(config.ConfigFile)
		if err != nil {
			fmt.Fprintf(errorWriter, "Error: %v\n", err)
			return AppConfig{}, err
		}
		profile.applyTo(&config, fs)
	}

	applyEnvOverrides(&config, fs)

	if err := config.Validate(); err != nil {
		fmt.Fprintf(errorWriter, "Error: %v\n", err)
		fs.Usage()
		return AppConfig{}, err
	}
	return config, nil
}

// IsHelp reports whether err came from an explicit -h/--help.
func IsHelp(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// setCustomUsage prints grouped usage in the style of argparse's help, with
// the mode flags shown as a required mutually exclusive group.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		out := fs.Output()
		fmt.Fprintf(out, "usage: %s (-t | -p) -w WORKERS [-s WORK_SIZE] [-m MAX_TIME] [options]\n\n", fs.Name())
		fmt.Fprintf(out, "Mode (exactly one required):\n")
		fmt.Fprintf(out, "  -t, --thread           use goroutine workers\n")
		fmt.Fprintf(out, "  -p, --process          use child-process workers\n\n")
		fmt.Fprintf(out, "Workload:\n")
		fmt.Fprintf(out, "  -w, --workers N        number of worker threads/processes (required)\n")
		fmt.Fprintf(out, "  -s, --work-size S      work size (default %d)\n", DefaultWorkSize)
		fmt.Fprintf(out, "  -m, --max-time T       exit after T seconds (default 0 = unbounded)\n\n")
		fmt.Fprintf(out, "Output:\n")
		fmt.Fprintf(out, "  -o, --output FILE      write the summary as JSON or YAML\n")
		fmt.Fprintf(out, "      --metrics-file F   write Prometheus metrics (text format)\n")
		fmt.Fprintf(out, "  -q, --quiet            single-line summary\n")
		fmt.Fprintf(out, "  -v, --verbose          CPU times and per-worker details\n")
		fmt.Fprintf(out, "      --tui              interactive dashboard\n")
		fmt.Fprintf(out, "      --no-color         disable colors\n")
		fmt.Fprintf(out, "      --theme NAME       color theme: %s (default %s)\n", strings.Join(ui.ThemeNames(), ", "), ui.DefaultThemeName)
		fmt.Fprintf(out, "      --log-level L      diagnostics level (default warn)\n")
		fmt.Fprintf(out, "      --config FILE      YAML benchmark profile\n")
		fmt.Fprintf(out, "      --completion SH    print completion script (bash, zsh, fish)\n")
		fmt.Fprintf(out, "      --version          print version\n\n")
		fmt.Fprintf(out, "Every option can also be set with a %s<NAME> environment variable,\n", EnvPrefix)
		fmt.Fprintf(out, "e.g. %sWORKERS=8 or %sMAX_TIME=10.\n", EnvPrefix, EnvPrefix)
	}
}
