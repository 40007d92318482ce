// # Naming Conventions
//
// Functions in this package follow consistent naming patterns based on their behavior:
//
//   - Display* and Print* functions write formatted output to an [io.Writer].
//     They handle presentation logic and colorization.
//     Examples: [DisplaySummary], [DisplayQuietSummary], [DisplayProgress].
//
//   - Format* functions return a formatted string without performing I/O.
//     Examples: [FormatQuietSummary].
//
//   - Write* functions write data to files on the filesystem.
//     They handle file creation, directory setup, and error handling.
//     Examples: [WriteSummaryToFile].

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agbru/parbench/internal/report"
	"github.com/agbru/parbench/internal/ui"
)

// OutputConfig holds configuration for result output.
type OutputConfig struct {
	// OutputFile is the path to save the summary (empty for no file output).
	OutputFile string
	// Quiet mode prints a single line.
	Quiet bool
}

// SummaryDocument is the file representation of a run.
type SummaryDocument struct {
	Generated string `json:"generated" yaml:"generated"`
	Mode      string `json:"mode" yaml:"mode"`
	Timeout   int64  `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
	Stopped   bool   `json:"stopped" yaml:"stopped"`
	report.Summary `yaml:",inline"`
}

// NewSummaryDocument stamps a summary with the run metadata.
func NewSummaryDocument(s report.Summary, mode string, timeout time.Duration, stopped bool) SummaryDocument {
	return SummaryDocument{
		Generated: time.Now().UTC().Format(time.RFC3339),
		Mode:      mode,
		Timeout:   int64(timeout / time.Second),
		Stopped:   stopped,
		Summary:   s,
	}
}

// isYAML reports whether path names a YAML file.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// WriteSummaryToFile writes doc to path, as YAML for .yaml/.yml files and
// JSON otherwise. Missing parent directories are created.
//
// Parameters:
//   - doc: The summary document.
//   - path: The destination file.
//
// Returns:
//   - error: An error if the file cannot be written.
func WriteSummaryToFile(doc SummaryDocument, path string) error {
	if path == "" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(doc)
	} else {
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return fmt.Errorf("failed to encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	return nil
}

// DisplaySummaryWithConfig prints the summary in the configured mode and
// saves it to the configured file.
//
// Parameters:
//   - out: The output writer.
//   - doc: The summary document.
//   - config: Output configuration.
//
// Returns:
//   - error: An error if file output fails.
func DisplaySummaryWithConfig(out io.Writer, doc SummaryDocument, config OutputConfig) error {
	if config.Quiet {
		DisplayQuietSummary(doc.Summary, out)
	} else {
		DisplaySummary(doc.Summary, out)
	}

	if config.OutputFile != "" {
		if err := WriteSummaryToFile(doc, config.OutputFile); err != nil {
			return err
		}
		if !config.Quiet {
			fmt.Fprintf(out, "\n%s✓ Summary saved to: %s%s%s\n",
				ui.ColorGreen(), ui.ColorCyan(), config.OutputFile, ui.ColorReset())
		}
	}
	return nil
}
