package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/agbru/parbench/internal/errors"
)

// Profile is the YAML benchmark profile loaded with --config.
//
//	mode: process
//	workers: 8
//	work_size: 1000000000
//	max_time: 10
type Profile struct {
	Mode        string `yaml:"mode"`
	Workers     int    `yaml:"workers"`
	WorkSize    int64  `yaml:"work_size"`
	MaxTime     int    `yaml:"max_time"`
	Output      string `yaml:"output"`
	MetricsFile string `yaml:"metrics_file"`
	LogLevel    string `yaml:"log_level"`
	Theme       string `yaml:"theme"`
	Quiet       bool   `yaml:"quiet"`
	Verbose     bool   `yaml:"verbose"`
}

// LoadProfile reads and decodes a YAML profile. Unknown keys are rejected so
// that typos do not silently fall back to defaults.
func LoadProfile(path string) (Profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return Profile{}, apperrors.NewConfigError("cannot read profile: %v", err)
	}
	defer f.Close()

	var p Profile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, apperrors.NewConfigError("invalid profile %s: %v", path, err)
	}
	if p.Mode != "" {
		switch strings.ToLower(p.Mode) {
		case ModeThread, ModeProcess:
		default:
			return Profile{}, apperrors.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown mode %q", p.Mode)}
		}
	}
	return p, nil
}

// applyTo copies the profile's non-zero values into config for every flag
// that was not set on the command line.
func (p Profile) applyTo(config *AppConfig, fs *flag.FlagSet) {
	if p.Mode != "" && !isFlagSetAny(fs, modeFlags...) {
		config.Thread = strings.EqualFold(p.Mode, ModeThread)
		config.Process = strings.EqualFold(p.Mode, ModeProcess)
	}
	if p.Workers != 0 && !isFlagSetAny(fs, "workers", "w") {
		config.Workers = p.Workers
	}
	if p.WorkSize != 0 && !isFlagSetAny(fs, "work-size", "s") {
		config.WorkSize = p.WorkSize
	}
	if p.MaxTime != 0 && !isFlagSetAny(fs, "max-time", "m") {
		config.MaxTime = p.MaxTime
	}
	if p.Output != "" && !isFlagSetAny(fs, "output", "o") {
		config.OutputFile = p.Output
	}
	if p.MetricsFile != "" && !isFlagSet(fs, "metrics-file") {
		config.MetricsFile = p.MetricsFile
	}
	if p.LogLevel != "" && !isFlagSet(fs, "log-level") {
		config.LogLevel = p.LogLevel
	}
	if p.Theme != "" && !isFlagSet(fs, "theme") {
		config.Theme = p.Theme
	}
	if p.Quiet && !isFlagSetAny(fs, "quiet", "q") {
		config.Quiet = true
	}
	if p.Verbose && !isFlagSetAny(fs, "verbose", "v") {
		config.Verbose = true
	}
}
