package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/omakasem/draftstream/lode"
	"github.com/omakasem/draftstream/types"
)

// InspectModel is a Bubble Tea model for an archived draft.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{
		viewType: viewType,
		data:     data,
	}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	var content string
	switch m.viewType {
	case ViewInspectDraft:
		content = m.renderInspectDraft()
	default:
		content = fmt.Sprintf("Unknown view type: %s", m.viewType)
	}

	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return content + "\n" + help
}

func (m InspectModel) renderInspectDraft() string {
	var rec lode.DraftRecord
	switch data := m.data.(type) {
	case *lode.DraftRecord:
		rec = *data
	case lode.DraftRecord:
		rec = data
	default:
		return "Invalid data type for inspect_draft"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Draft Details"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Session ID", rec.SessionID},
		{"Planner ID", rec.PlannerSessionID},
		{"Mode", string(rec.Mode)},
		{"Epics", fmt.Sprintf("%d", rec.EpicCount)},
		{"Stories", fmt.Sprintf("%d", rec.StoryCount)},
		{"Written At", rec.WrittenAt.Format("2006-01-02 15:04:05")},
	}
	if rec.QualityScore != nil {
		rows = append(rows, []string{"Quality", fmt.Sprintf("%.2f", *rec.QualityScore)})
	}

	for _, row := range rows {
		fmt.Fprintf(&b, "%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1]))
	}
	fmt.Fprintf(&b, "%s %s\n",
		LabelStyle.Render("Status:"),
		StateStyle(string(rec.Status)).Render(string(rec.Status)))

	b.WriteString("\n")
	b.WriteString(PlanTree(rec.Plan))

	return BoxStyle.Render(b.String())
}

// PlanTree renders a finalized plan as an indented tree.
func PlanTree(plan types.CoursePlan) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(plan.Title))
	if plan.OneLiner != "" {
		b.WriteString("\n")
		b.WriteString(MutedStyle.Render(plan.OneLiner))
	}
	b.WriteString("\n")
	for _, e := range plan.Epics {
		fmt.Fprintf(&b, "%s %s\n",
			SuccessStyle.Render(fmt.Sprintf("W%d", e.WeekNumber)),
			ValueStyle.Render(e.Title))
		for _, s := range e.Stories {
			line := "  - " + s.Title
			if s.TaskCount > 0 {
				line += MutedStyle.Render(fmt.Sprintf(" (%d tasks)", s.TaskCount))
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// RenderInspectStatic renders inspect data without full TUI.
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
