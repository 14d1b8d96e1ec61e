package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// View types with TUI support.
const (
	ViewInspectDraft = "inspect_draft"
	ViewStatsSession = "stats_session"
)

var supportedViews = []string{ViewInspectDraft, ViewStatsSession}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// Run starts the read-only TUI for viewType.
func Run(viewType string, data any) error {
	if !IsTUISupported(viewType) {
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}

	var model tea.Model
	switch {
	case strings.HasPrefix(viewType, "inspect_"):
		model = NewInspectModel(viewType, data)
	default:
		model = NewStatsModel(viewType, data)
	}
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(supportedViews, viewType)
}

// SupportedTUIViews returns the view types that support TUI.
func SupportedTUIViews() []string {
	return slices.Clone(supportedViews)
}
