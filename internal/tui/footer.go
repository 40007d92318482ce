package tui

import (
	"github.com/charmbracelet/bubbles/help"
)

// FooterModel renders the run status and the key help.
type FooterModel struct {
	help     help.Model
	keymap   KeyMap
	status   string
	failed   bool
	paused   bool
	stopping bool
	width    int
}

// NewFooterModel creates a footer for keymap.
func NewFooterModel(keymap KeyMap) FooterModel {
	return FooterModel{help: help.New(), keymap: keymap, status: "running"}
}

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = w
}

// ToggleHelp switches between short and full help.
func (f *FooterModel) ToggleHelp() { f.help.ShowAll = !f.help.ShowAll }

// View renders the footer.
func (f FooterModel) View() string {
	var status string
	switch {
	case f.failed:
		status = statusErrorStyle.Render(" " + f.status + " ")
	case f.status == "done":
		status = statusDoneStyle.Render(" DONE ")
	case f.paused:
		status = statusPausedStyle.Render(" FROZEN ")
	case f.stopping:
		status = statusPausedStyle.Render(" STOPPING ")
	default:
		status = statusRunningStyle.Render(" RUNNING ")
	}
	return status + " " + f.help.View(f.keymap)
}
