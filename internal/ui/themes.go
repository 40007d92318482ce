package ui

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// DefaultThemeName is the palette used when --theme is not given.
const DefaultThemeName = "dark"

// noColorThemeName is the palette selected by --no-color or NO_COLOR.
const noColorThemeName = "none"

// Theme is a named palette. The ANSI fields color the plain report on
// stdout; Dashboard colors the --tui panels.
type Theme struct {
	Name string

	Primary   string // banner values, worker ids
	Secondary string // labels and ranges
	Success   string // "Done", ok statuses
	Warning   string // timeouts, interrupted runs
	Error     string // failed workers
	Info      string // percentages
	Bold      string
	Underline string
	Reset     string

	Dashboard TUITheme
}

// TUITheme holds the lipgloss colors of the dashboard panels.
type TUITheme struct {
	Bg      lipgloss.TerminalColor
	Text    lipgloss.TerminalColor
	Border  lipgloss.TerminalColor
	Accent  lipgloss.TerminalColor
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor
	Dim     lipgloss.TerminalColor
	Info    lipgloss.TerminalColor
}

const (
	ansiBold      = "\033[1m"
	ansiUnderline = "\033[4m"
	ansiReset     = "\033[0m"
)

func ansi256(code int) string { return fmt.Sprintf("\033[38;5;%dm", code) }

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   ansi256(39),
		Secondary: ansi256(245),
		Success:   ansi256(82),
		Warning:   ansi256(220),
		Error:     ansi256(196),
		Info:      ansi256(141),
		Bold:      ansiBold,
		Underline: ansiUnderline,
		Reset:     ansiReset,
		Dashboard: TUITheme{
			Bg:      lipgloss.Color("#000000"),
			Text:    lipgloss.Color("#E0E0E0"),
			Border:  lipgloss.Color("#3A86FF"),
			Accent:  lipgloss.Color("#4CC9F0"),
			Success: lipgloss.Color("#9ECE6A"),
			Warning: lipgloss.Color("#FFD166"),
			Error:   lipgloss.Color("#FF4444"),
			Dim:     lipgloss.Color("#666666"),
			Info:    lipgloss.Color("#B388FF"),
		},
	}

	// LightTheme uses darker tones that stay readable on light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   ansi256(27),
		Secondary: ansi256(240),
		Success:   ansi256(28),
		Warning:   ansi256(130),
		Error:     ansi256(124),
		Info:      ansi256(54),
		Bold:      ansiBold,
		Underline: ansiUnderline,
		Reset:     ansiReset,
		Dashboard: TUITheme{
			Bg:      lipgloss.Color("#FFFFFF"),
			Text:    lipgloss.Color("#1F1F1F"),
			Border:  lipgloss.Color("#1D4ED8"),
			Accent:  lipgloss.Color("#0369A1"),
			Success: lipgloss.Color("#15803D"),
			Warning: lipgloss.Color("#B45309"),
			Error:   lipgloss.Color("#B91C1C"),
			Dim:     lipgloss.Color("#8A8A8A"),
			Info:    lipgloss.Color("#6D28D9"),
		},
	}

	// OrangeTheme is a warm palette for dark backgrounds.
	OrangeTheme = Theme{
		Name:      "orange",
		Primary:   ansi256(208),
		Secondary: ansi256(245),
		Success:   ansi256(82),
		Warning:   ansi256(214),
		Error:     ansi256(196),
		Info:      ansi256(69),
		Bold:      ansiBold,
		Underline: ansiUnderline,
		Reset:     ansiReset,
		Dashboard: TUITheme{
			Bg:      lipgloss.Color("#000000"),
			Text:    lipgloss.Color("#E0E0E0"),
			Border:  lipgloss.Color("#FF6600"),
			Accent:  lipgloss.Color("#FF8C00"),
			Success: lipgloss.Color("#9ECE6A"),
			Warning: lipgloss.Color("#FFB347"),
			Error:   lipgloss.Color("#FF4444"),
			Dim:     lipgloss.Color("#666666"),
			Info:    lipgloss.Color("#4488FF"),
		},
	}

	// NoColorTheme emits no escape codes; the dashboard keeps the terminal's
	// default colors.
	NoColorTheme = Theme{
		Name: noColorThemeName,
		Dashboard: TUITheme{
			Bg:      lipgloss.NoColor{},
			Text:    lipgloss.NoColor{},
			Border:  lipgloss.NoColor{},
			Accent:  lipgloss.NoColor{},
			Success: lipgloss.NoColor{},
			Warning: lipgloss.NoColor{},
			Error:   lipgloss.NoColor{},
			Dim:     lipgloss.NoColor{},
			Info:    lipgloss.NoColor{},
		},
	}

	themes = map[string]Theme{
		DarkTheme.Name:    DarkTheme,
		LightTheme.Name:   LightTheme,
		OrangeTheme.Name:  OrangeTheme,
		NoColorTheme.Name: NoColorTheme,
	}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// ThemeNames returns the selectable theme names in sorted order.
func ThemeNames() []string {
	names := make([]string, 0, len(themes))
	for name := range themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ThemeByName looks a theme up case-insensitively. An empty name selects
// DefaultThemeName.
func ThemeByName(name string) (Theme, error) {
	if name == "" {
		name = DefaultThemeName
	}
	t, ok := themes[strings.ToLower(name)]
	if !ok {
		return Theme{}, fmt.Errorf("unknown theme %q (accepted values: %s)", name, strings.Join(ThemeNames(), ", "))
	}
	return t, nil
}

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// GetCurrentTUITheme returns the dashboard palette of the active theme.
func GetCurrentTUITheme() TUITheme {
	return GetCurrentTheme().Dashboard
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// InitTheme activates the named theme. noColor and the NO_COLOR environment
// variable (https://no-color.org/) take precedence over name.
func InitTheme(name string, noColor bool) error {
	t, err := ThemeByName(name)
	if err != nil {
		return err
	}
	if _, set := os.LookupEnv("NO_COLOR"); noColor || set {
		t = NoColorTheme
	}
	SetCurrentTheme(t)
	return nil
}
