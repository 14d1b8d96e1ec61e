package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/omakasem/draftstream/metrics"
)

// StatsModel is a Bubble Tea model for a session's metrics.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewStatsSession:
		content = m.renderStatsSession()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m StatsModel) renderStatsSession() string {
	var snap metrics.Snapshot
	switch data := m.data.(type) {
	case *metrics.Snapshot:
		snap = *data
	case metrics.Snapshot:
		snap = data
	default:
		return "Invalid data type for stats_session"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Session Statistics"))
	b.WriteString("\n")
	b.WriteString(MutedStyle.Render(fmt.Sprintf("%s  mode=%s  persist=%s", snap.SessionID, snap.Mode, snap.PersistBackend)))
	b.WriteString("\n\n")

	stream := []string{
		m.renderStatBox("Bytes", snap.BytesRead, highlightColor),
		m.renderStatBox("Deltas", snap.ContentDeltas, highlightColor),
		m.renderStatBox("Dropped", snap.DroppedLines, warningColor),
		m.renderStatBox("Stalls", snap.Stalls, warningColor),
	}
	failures := []string{
		m.renderStatBox("Connect errors", snap.ConnectErrors, errorColor),
		m.renderStatBox("Read errors", snap.ReadErrors, errorColor),
		m.renderStatBox("Parse errors", snap.ParseErrors, errorColor),
		m.renderStatBox("Persisted", snap.PersistSuccess, successColor),
	}

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, stream...))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, failures...))

	return b.String()
}

func (m StatsModel) renderStatBox(label string, value int64, color lipgloss.Color) string {
	boxStyle := StatBoxStyle.BorderForeground(color)

	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)

	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}

// RenderStatsStatic renders stats data without full TUI.
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
