package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/omakasem/draftstream/types"
)

// ProgressMsg carries a progress snapshot into the live view.
type ProgressMsg types.Progress

// OutcomeMsg ends the live view with the session's outcome.
type OutcomeMsg types.Outcome

// LiveModel follows a streaming session, rendering fragments as they arrive.
type LiveModel struct {
	title    string
	spinner  spinner.Model
	progress types.Progress
	outcome  *types.Outcome
	cancel   context.CancelFunc
	quitting bool
}

// NewLiveModel creates a live view. cancel is invoked when the user quits.
func NewLiveModel(title string, cancel context.CancelFunc) LiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = WarningStyle
	return LiveModel{title: title, spinner: s, cancel: cancel}
}

// Init implements tea.Model.
func (m LiveModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case ProgressMsg:
		m.progress = types.Progress(msg)
		return m, nil

	case OutcomeMsg:
		out := types.Outcome(msg)
		m.outcome = &out
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m LiveModel) View() string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(m.title))
	b.WriteString("\n")

	p := m.progress
	status := p.Phase
	if p.PhaseDescription != "" {
		status = p.PhaseDescription
	}
	if status == "" {
		status = "waiting for planner"
	}
	if p.TotalEpics > 0 {
		status += fmt.Sprintf(" (%d/%d epics)", types.CompleteCount(p.Epics), p.TotalEpics)
	}
	if m.outcome == nil && !m.quitting {
		b.WriteString(m.spinner.View() + " ")
	}
	b.WriteString(MutedStyle.Render(status))
	b.WriteString("\n\n")

	for _, e := range p.Epics {
		b.WriteString(m.fragmentLine(e, ""))
		for _, s := range e.Children {
			b.WriteString(m.fragmentLine(s, "    "))
		}
	}

	if m.outcome != nil {
		b.WriteString("\n")
		b.WriteString(outcomeLine(*m.outcome))
		b.WriteString("\n")
	} else if !m.quitting {
		b.WriteString(HelpStyle.Render(fmt.Sprintf("%d bytes received · q to cancel", p.ContentBytes)))
	}
	return b.String()
}

func (m LiveModel) fragmentLine(f types.Fragment, indent string) string {
	mark := SuccessStyle.Render("✓")
	if !f.IsComplete {
		mark = WarningStyle.Render("…")
	}
	line := fmt.Sprintf("%s%s %s", indent, mark, f.Title)
	if f.Description != "" && indent == "" {
		line += " " + MutedStyle.Render(f.Description)
	}
	return line + "\n"
}

func outcomeLine(out types.Outcome) string {
	switch out.Status {
	case types.OutcomeCompleted:
		return SuccessStyle.Render(fmt.Sprintf("완료: %d epics, %d stories", len(out.Plan.Epics), out.Plan.StoryCount()))
	case types.OutcomeCancelled:
		return ErrorStyle.Render(out.Message)
	default:
		return ErrorStyle.Render(fmt.Sprintf("%s (%s)", out.Message, out.Kind))
	}
}

// ProgramObserver forwards session progress into a running program.
type ProgramObserver struct {
	Program *tea.Program
}

// Observe implements draft.Observer.
func (o ProgramObserver) Observe(p types.Progress) {
	o.Program.Send(ProgressMsg(p))
}

// StartFunc starts a session with an extra observer and returns its outcome
// channel.
type StartFunc func(ctx context.Context, observer ProgramObserver) <-chan types.Outcome

// RunLive runs the live view around a session started by start and returns
// the session's outcome. Quitting the view cancels the session.
func RunLive(ctx context.Context, title string, start StartFunc) (types.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewLiveModel(title, cancel))
	outcomes := start(ctx, ProgramObserver{Program: p})

	result := make(chan types.Outcome, 1)
	go func() {
		out := <-outcomes
		result <- out
		p.Send(OutcomeMsg(out))
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		return <-result, fmt.Errorf("live view: %w", err)
	}
	return <-result, nil
}
