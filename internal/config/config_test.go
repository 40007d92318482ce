package config

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apperrors "github.com/agbru/parbench/internal/errors"
)

func TestParseConfig(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, cfg AppConfig)
	}{
		{
			name: "long flags",
			args: []string{"--thread", "--workers", "4", "--work-size", "400"},
			check: func(t *testing.T, cfg AppConfig) {
				if cfg.Mode() != ModeThread || cfg.Workers != 4 || cfg.WorkSize != 400 {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.Timeout() != 0 {
					t.Errorf("expected unbounded timeout, got %s", cfg.Timeout())
				}
			},
		},
		{
			name: "short flags",
			args: []string{"-p", "-w", "2", "-s", "1000", "-m", "3"},
			check: func(t *testing.T, cfg AppConfig) {
				if cfg.Mode() != ModeProcess || cfg.Workers != 2 || cfg.WorkSize != 1000 {
					t.Errorf("unexpected config: %+v", cfg)
				}
				if cfg.Timeout() != 3*time.Second {
					t.Errorf("expected 3s timeout, got %s", cfg.Timeout())
				}
			},
		},
		{
			name: "defaults",
			args: []string{"-t", "-w", "1"},
			check: func(t *testing.T, cfg AppConfig) {
				if cfg.WorkSize != DefaultWorkSize {
					t.Errorf("expected default work size %d, got %d", DefaultWorkSize, cfg.WorkSize)
				}
				if cfg.MaxTime != 0 {
					t.Errorf("expected default max time 0, got %d", cfg.MaxTime)
				}
				if cfg.LogLevel != "warn" {
					t.Errorf("expected default log level warn, got %q", cfg.LogLevel)
				}
			},
		},
		{
			name: "completion skips required flags",
			args: []string{"--completion", "bash"},
			check: func(t *testing.T, cfg AppConfig) {
				if cfg.Completion != "bash" {
					t.Errorf("expected completion bash, got %q", cfg.Completion)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg, err := ParseConfig("parbench", tt.args, io.Discard)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains string
	}{
		{"no mode", []string{"-w", "4"}, apperrors.ExitErrorConfig, "required"},
		{"both modes", []string{"-t", "-p", "-w", "4"}, apperrors.ExitErrorConfig, "mutually exclusive"},
		{"missing workers", []string{"-t"}, apperrors.ExitErrorConfig, "--workers"},
		{"negative workers", []string{"-t", "-w", "-1"}, apperrors.ExitErrorConfig, "workers"},
		{"negative work size", []string{"-t", "-w", "1", "-s", "-5"}, apperrors.ExitErrorConfig, "work-size"},
		{"negative max time", []string{"-t", "-w", "1", "-m", "-5"}, apperrors.ExitErrorConfig, "max-time"},
		{"bad log level", []string{"-t", "-w", "1", "--log-level", "loud"}, apperrors.ExitErrorConfig, "log-level"},
		{"unknown theme", []string{"-t", "-w", "1", "--theme", "neon"}, apperrors.ExitErrorConfig, "theme"},
		{"positional argument", []string{"-t", "-w", "1", "extra"}, apperrors.ExitErrorConfig, "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var stderr bytes.Buffer
			_, err := ParseConfig("parbench", tt.args, &stderr)
			if err == nil {
				t.Fatal("expected an error")
			}
			if code := apperrors.ExitCodeFor(err); code != tt.wantCode {
				t.Errorf("expected exit code %d, got %d (%v)", tt.wantCode, code, err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error %q should mention %q", err, tt.contains)
			}
			if !strings.Contains(stderr.String(), "usage:") {
				t.Errorf("usage should be printed, got: %s", stderr.String())
			}
		})
	}
}

func TestParseConfig_Help(t *testing.T) {
	t.Parallel()
	var stderr bytes.Buffer
	_, err := ParseConfig("parbench", []string{"--help"}, &stderr)
	if !IsHelp(err) {
		t.Fatalf("expected help error, got %v", err)
	}
	for _, want := range []string{"--thread", "--process", "--workers", "--work-size", "--max-time"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("usage should mention %s", want)
		}
	}
}

func TestParseConfig_UnknownFlag(t *testing.T) {
	t.Parallel()
	_, err := ParseConfig("parbench", []string{"--threads"}, io.Discard)
	if err == nil || IsHelp(err) {
		t.Fatalf("expected a parse error, got %v", err)
	}
}

// Environment overrides cannot run in parallel because t.Setenv mutates
// process state.
func TestParseConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PARBENCH_MODE", "process")
	t.Setenv("PARBENCH_WORKERS", "6")
	t.Setenv("PARBENCH_WORK_SIZE", "1_000_000")
	t.Setenv("PARBENCH_MAX_TIME", "2")
	t.Setenv("PARBENCH_QUIET", "yes")

	cfg, err := ParseConfig("parbench", nil, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode() != ModeProcess {
		t.Errorf("expected process mode from env, got %q", cfg.Mode())
	}
	if cfg.Workers != 6 || cfg.WorkSize != 1_000_000 || cfg.MaxTime != 2 || !cfg.Quiet {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
}

func TestParseConfig_FlagsBeatEnv(t *testing.T) {
	t.Setenv("PARBENCH_MODE", "process")
	t.Setenv("PARBENCH_WORKERS", "6")

	cfg, err := ParseConfig("parbench", []string{"-t", "-w", "3"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode() != ModeThread || cfg.Workers != 3 {
		t.Errorf("command line should win over env: %+v", cfg)
	}
}

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestParseConfig_Profile(t *testing.T) {
	path := writeProfile(t, "mode: process\nworkers: 8\nwork_size: 5000\nmax_time: 4\nverbose: true\n")
	t.Setenv("PARBENCH_WORKERS", "5")

	cfg, err := ParseConfig("parbench", []string{"--config", path, "-s", "900"}, io.Discard)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Mode() != ModeProcess {
		t.Errorf("expected mode from profile, got %q", cfg.Mode())
	}
	if cfg.Workers != 5 {
		t.Errorf("env should override profile workers, got %d", cfg.Workers)
	}
	if cfg.WorkSize != 900 {
		t.Errorf("flag should override profile work size, got %d", cfg.WorkSize)
	}
	if cfg.MaxTime != 4 || !cfg.Verbose {
		t.Errorf("profile values not applied: %+v", cfg)
	}
}

func TestParseConfig_Theme(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		profile string
		args    []string
		want    string
	}{
		{"default", "", "", nil, "dark"},
		{"env", "light", "", nil, "light"},
		{"flag beats env", "light", "", []string{"--theme", "orange"}, "orange"},
		{"profile", "", "theme: none\n", nil, "none"},
		{"env beats profile", "orange", "theme: light\n", nil, "orange"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PARBENCH_THEME", tt.env)
			args := append([]string{"-t", "-w", "1"}, tt.args...)
			if tt.profile != "" {
				args = append(args, "--config", writeProfile(t, tt.profile))
			}
			cfg, err := ParseConfig("parbench", args, io.Discard)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cfg.Theme != tt.want {
				t.Errorf("Theme = %q, want %q", cfg.Theme, tt.want)
			}
		})
	}
}

func TestLoadProfile_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
		var configErr apperrors.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()
		_, err := LoadProfile(writeProfile(t, "wokers: 3\n"))
		if err == nil {
			t.Error("expected unknown key to be rejected")
		}
	})

	t.Run("unknown mode", func(t *testing.T) {
		t.Parallel()
		_, err := LoadProfile(writeProfile(t, "mode: fiber\n"))
		var validationErr apperrors.ValidationError
		if !errors.As(err, &validationErr) || validationErr.Field != "mode" {
			t.Errorf("expected mode ValidationError, got %v", err)
		}
	})
}

func TestParseBoolEnv(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		def  bool
		want bool
	}{
		{"true", false, true},
		{"YES", false, true},
		{"1", false, true},
		{"no", true, false},
		{"0", true, false},
		{"maybe", true, true},
	}
	for _, c := range cases {
		if got := parseBoolEnv(c.in, c.def); got != c.want {
			t.Errorf("parseBoolEnv(%q, %v) = %v, want %v", c.in, c.def, got, c.want)
		}
	}
}
