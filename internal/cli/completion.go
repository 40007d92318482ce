package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/agbru/parbench/internal/ui"
)

// FlagCompletion describes a CLI flag for shell completion generation.
// All shell completion functions generate from this registry, so adding
// a new flag only requires appending to flagRegistry.
type FlagCompletion struct {
	Long      string   // long flag name without "--" (e.g., "help")
	Short     string   // short flag without "-" (e.g., "h")
	Help      string   // description text
	Values    []string // suggested completion values (nil = boolean/no suggestions)
	ValueName string   // label for the value in zsh (e.g., "number", "seconds")
	IsFile    bool     // true if the flag takes a file path
	IsWorkers bool     // true if values come from the worker-count hints (dynamic)
}

// flagRegistry is the central list of all CLI flags for completion generation.
var flagRegistry = []FlagCompletion{
	{Long: "help", Short: "h", Help: "Show help message"},
	{Long: "version", Help: "Show version information"},
	{Long: "thread", Short: "t", Help: "Use goroutine workers"},
	{Long: "process", Short: "p", Help: "Use child-process workers"},
	{Long: "workers", Short: "w", Help: "Number of workers", IsWorkers: true, ValueName: "count"},
	{Long: "work-size", Short: "s", Help: "Size of the integer range", Values: []string{"1000000", "100000000", "10000000000"}, ValueName: "size"},
	{Long: "max-time", Short: "m", Help: "Stop after this many seconds", Values: []string{"0", "5", "10", "30", "60"}, ValueName: "seconds"},
	{Long: "config", Help: "YAML benchmark profile", IsFile: true, ValueName: "file"},
	{Long: "output", Short: "o", Help: "Write the summary as JSON or YAML", IsFile: true, ValueName: "file"},
	{Long: "metrics-file", Help: "Write Prometheus metrics", IsFile: true, ValueName: "file"},
	{Long: "quiet", Short: "q", Help: "Single-line summary"},
	{Long: "verbose", Short: "v", Help: "CPU times and per-worker details"},
	{Long: "tui", Help: "Interactive dashboard"},
	{Long: "no-color", Help: "Disable colors"},
	{Long: "theme", Help: "Color theme", Values: ui.ThemeNames(), ValueName: "theme"},
	{Long: "log-level", Help: "Diagnostics level", Values: []string{"debug", "info", "warn", "error", "disabled"}, ValueName: "level"},
	{Long: "completion", Help: "Generate completion script", Values: []string{"bash", "zsh", "fish"}, ValueName: "shell"},
}

// WorkerHints suggests worker counts up to and including cpus: powers of two
// and cpus itself.
func WorkerHints(cpus int) []string {
	if cpus < 1 {
		cpus = 1
	}
	var hints []string
	for n := 1; n < cpus; n *= 2 {
		hints = append(hints, strconv.Itoa(n))
	}
	return append(hints, strconv.Itoa(cpus))
}

// GenerateCompletion generates a shell completion script for the specified shell.
//
// Parameters:
//   - out: The writer to output the completion script.
//   - shell: The shell type ("bash", "zsh", "fish").
//   - program: The command name the script completes.
//   - workerHints: Suggested values for --workers.
//
// Returns:
//   - error: An error if the shell is not supported.
func GenerateCompletion(out io.Writer, shell, program string, workerHints []string) error {
	switch shell {
	case "bash":
		return generateBashCompletion(out, program, workerHints)
	case "zsh":
		return generateZshCompletion(out, program, workerHints)
	case "fish":
		return generateFishCompletion(out, program, workerHints)
	default:
		return fmt.Errorf("unsupported shell: %s (accepted values: bash, zsh, fish)", shell)
	}
}

// flagPatterns returns the "-x" and "--xx" spellings of f.
func flagPatterns(f FlagCompletion) []string {
	var patterns []string
	if f.Long != "" {
		patterns = append(patterns, "--"+f.Long)
	}
	if f.Short != "" {
		patterns = append(patterns, "-"+f.Short)
	}
	return patterns
}

// completionValues returns the suggestions for f.
func completionValues(f FlagCompletion, workerHints []string) []string {
	if f.IsWorkers {
		return workerHints
	}
	return f.Values
}

func generateBashCompletion(out io.Writer, program string, workerHints []string) error {
	var opts []string
	for _, f := range flagRegistry {
		opts = append(opts, flagPatterns(f)...)
	}

	var caseBody strings.Builder
	var filePatterns []string
	for _, f := range flagRegistry {
		if f.IsFile {
			filePatterns = append(filePatterns, flagPatterns(f)...)
			continue
		}
		values := completionValues(f, workerHints)
		if len(values) == 0 {
			continue
		}
		fmt.Fprintf(&caseBody, "        %s)\n            COMPREPLY=( $(compgen -W \"%s\" -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(flagPatterns(f), "|"), strings.Join(values, " "))
	}
	if len(filePatterns) > 0 {
		fmt.Fprintf(&caseBody, "        %s)\n            COMPREPLY=( $(compgen -f -- \"${cur}\") )\n            return 0\n            ;;\n",
			strings.Join(filePatterns, "|"))
	}

	fn := "_" + shellIdent(program) + "_completions"
	script := fmt.Sprintf(`# Bash completion script for %[1]s
# Add this to your ~/.bashrc or ~/.bash_completion

%[2]s() {
    local cur prev opts
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    opts="%[3]s"

    case "${prev}" in
%[4]s    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "${opts}" -- "${cur}") )
        return 0
    fi
}

complete -F %[2]s %[1]s
`, program, fn, strings.Join(opts, " "), caseBody.String())

	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion bash generation failed: %w", err)
	}
	return nil
}

func generateZshCompletion(out io.Writer, program string, workerHints []string) error {
	var args []string
	for _, f := range flagRegistry {
		args = append(args, zshArgEntry(f, workerHints))
	}

	fn := "_" + shellIdent(program)
	script := fmt.Sprintf(`#compdef %[1]s

# Zsh completion script for %[1]s
# Add this to your ~/.zshrc or place in $fpath

%[2]s() {
    _arguments -s \
%[3]s
}

%[2]s "$@"
`, program, fn, strings.Join(args, " \\\n"))

	if _, err := fmt.Fprint(out, script); err != nil {
		return fmt.Errorf("completion zsh generation failed: %w", err)
	}
	return nil
}

// zshArgEntry formats a single FlagCompletion as a zsh _arguments entry.
func zshArgEntry(f FlagCompletion, workerHints []string) string {
	valueSuffix := ""
	values := completionValues(f, workerHints)
	switch {
	case f.IsFile:
		valueSuffix = fmt.Sprintf(":%s:_files", f.ValueName)
	case len(values) > 0:
		valueSuffix = fmt.Sprintf(":%s:(%s)", f.ValueName, strings.Join(values, " "))
	case f.ValueName != "":
		valueSuffix = fmt.Sprintf(":%s:", f.ValueName)
	}

	if f.Long != "" && f.Short != "" {
		return fmt.Sprintf("        '(-%s --%s)'{-%s,--%s}'[%s]%s'",
			f.Short, f.Long, f.Short, f.Long, f.Help, valueSuffix)
	}
	return fmt.Sprintf("        '--%s[%s]%s'", f.Long, f.Help, valueSuffix)
}

func generateFishCompletion(out io.Writer, program string, workerHints []string) error {
	lines := []string{
		"# Fish completion script for " + program,
		fmt.Sprintf("# Add this to ~/.config/fish/completions/%s.fish", program),
		"",
		"# Disable file completion by default",
		"complete -c " + program + " -f",
		"",
	}
	for _, f := range flagRegistry {
		lines = append(lines, fishCompleteLine(f, program, workerHints))
	}
	lines = append(lines, "")

	if _, err := fmt.Fprint(out, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("completion fish generation failed: %w", err)
	}
	return nil
}

// fishCompleteLine formats a single FlagCompletion as a fish complete command.
func fishCompleteLine(f FlagCompletion, program string, workerHints []string) string {
	parts := []string{"complete -c " + program}
	if f.Short != "" {
		parts = append(parts, "-s "+f.Short)
	}
	if f.Long != "" {
		parts = append(parts, "-l "+f.Long)
	}
	parts = append(parts, fmt.Sprintf("-d '%s'", f.Help))

	values := completionValues(f, workerHints)
	switch {
	case f.IsFile:
		parts = append(parts, "-rF")
	case len(values) > 0:
		parts = append(parts, fmt.Sprintf("-xa '%s'", strings.Join(values, " ")))
	case f.ValueName != "":
		parts = append(parts, "-x")
	}
	return strings.Join(parts, " ")
}

// shellIdent maps a program name to a shell function identifier.
func shellIdent(program string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, program)
}
