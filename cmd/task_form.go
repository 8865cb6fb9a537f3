package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/nakachan-ing/dtl-cli/internal/attachment"
	"github.com/nakachan-ing/dtl-cli/internal/form"
	"github.com/nakachan-ing/dtl-cli/internal/lifecycle"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"github.com/nakachan-ing/dtl-cli/internal/shift"
	"github.com/nakachan-ing/dtl-cli/internal/telemetry"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	labelStyle    = lipgloss.NewStyle().Width(24)
	requiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	bannerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("13")).Border(lipgloss.RoundedBorder()).Padding(0, 1)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

type rowKind int

const (
	rowText rowKind = iota
	rowStatus
	rowTaskType
	rowReadOnly
	rowAttach
	rowSubmit
)

type formRow struct {
	field form.Field
	kind  rowKind
	input textinput.Model
}

type submitResultMsg struct {
	task model.Task
	err  error
}

type shiftMsg shift.DisplayState

type taskFormModel struct {
	ctx       context.Context
	ctrl      *form.Controller
	submitter form.Submitter
	userID    string
	taskTypes []model.TaskType

	rows      []formRow
	cursor    int
	presenter *shift.Presenter
	bar       progress.Model
	banner    shift.DisplayState
	messages  []string
	err       error

	created   *model.Task
	cancelled bool
}

func newTaskFormModel(ctx context.Context, ctrl *form.Controller, submitter form.Submitter, userID string, types []model.TaskType) *taskFormModel {
	m := &taskFormModel{
		ctx:       ctx,
		ctrl:      ctrl,
		submitter: submitter,
		userID:    userID,
		taskTypes: types,
		bar:       progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
	}

	values := ctrl.Fields()
	for _, f := range form.EditableFields {
		row := formRow{field: f, kind: rowText}
		switch {
		case f == form.FieldStatus:
			row.kind = rowStatus
		case f == form.FieldTaskTypeID:
			row.kind = rowTaskType
		case f == form.FieldDueDate, f == form.FieldCompanyServed && ctrl.CompanyRequired():
			row.kind = rowReadOnly
		}
		if row.kind == rowText {
			row.input = textinput.New()
			row.input.CharLimit = 2000
			row.input.Width = 60
			row.input.SetValue(values[f])
		}
		m.rows = append(m.rows, row)
	}

	attach := textinput.New()
	attach.Placeholder = "path/to/file (Enter to stage, Ctrl+D to drop the last one)"
	attach.Width = 60
	m.rows = append(m.rows, formRow{kind: rowAttach, input: attach}, formRow{kind: rowSubmit})
	m.focus()
	return m
}

func (m *taskFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *taskFormModel) focus() tea.Cmd {
	var cmd tea.Cmd
	for i := range m.rows {
		if m.rows[i].kind != rowText && m.rows[i].kind != rowAttach {
			continue
		}
		if i == m.cursor {
			cmd = m.rows[i].input.Focus()
		} else {
			m.rows[i].input.Blur()
		}
	}
	return cmd
}

func (m *taskFormModel) commit() {
	row := m.rows[m.cursor]
	if row.kind != rowText {
		return
	}
	if err := m.ctrl.SetField(row.field, row.input.Value()); err != nil {
		m.err = err
	}
}

func (m *taskFormModel) move(delta int) tea.Cmd {
	m.commit()
	m.cursor = (m.cursor + delta + len(m.rows)) % len(m.rows)
	return m.focus()
}

func (m *taskFormModel) cycleStatus() {
	next := model.StatusCompleted
	if model.TaskStatus(m.ctrl.Value(form.FieldStatus)) == model.StatusCompleted {
		next = model.StatusInProgress
	}
	if err := m.ctrl.SetField(form.FieldStatus, string(next)); err != nil {
		m.err = err
	}
}

func (m *taskFormModel) cycleTaskType(delta int) {
	if len(m.taskTypes) == 0 {
		return
	}
	current := -1
	for i, t := range m.taskTypes {
		if strconv.Itoa(t.ID) == m.ctrl.Value(form.FieldTaskTypeID) {
			current = i
		}
	}
	next := (current + delta + len(m.taskTypes)) % len(m.taskTypes)
	if current == -1 && delta < 0 {
		next = len(m.taskTypes) - 1
	}
	m.ctrl.SetField(form.FieldTaskTypeID, strconv.Itoa(m.taskTypes[next].ID))
}

func (m *taskFormModel) stage() {
	row := &m.rows[m.cursor]
	path := strings.TrimSpace(row.input.Value())
	if path == "" {
		return
	}
	files, err := attachment.Stage([]string{path})
	if err != nil {
		m.err = err
		return
	}
	res := m.ctrl.Stage(files)
	telemetry.RecordAttachmentsRejected(m.ctx, len(res.Errors))
	m.messages = res.Errors
	if len(res.Accepted) > 0 {
		row.input.SetValue("")
	}
}

func (m *taskFormModel) submit() tea.Cmd {
	m.commit()
	m.err = nil
	if !m.ctrl.CanSubmit() {
		if m.ctrl.Submitting() {
			return nil
		}
		var missing []string
		for _, f := range m.ctrl.Missing() {
			missing = append(missing, f.Label())
		}
		m.messages = []string{"Fill in: " + strings.Join(missing, ", ")}
		return nil
	}
	m.messages = []string{"Submitting..."}
	ctrl, ctx, submitter, userID := m.ctrl, m.ctx, m.submitter, m.userID
	return func() tea.Msg {
		task, err := ctrl.Submit(ctx, userID, submitter)
		telemetry.RecordSubmission(ctx, string(ctrl.Mode()), err)
		return submitResultMsg{task: task, err: err}
	}
}

func (m *taskFormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case shiftMsg:
		m.banner = shift.DisplayState(msg)
		return m, nil

	case submitResultMsg:
		if msg.err != nil {
			m.err = msg.err
			m.messages = nil
			return m, nil
		}
		m.created = &msg.task
		return m, tea.Quit

	case tea.KeyMsg:
		row := m.rows[m.cursor]
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit
		case "up", "shift+tab":
			return m, m.move(-1)
		case "down", "tab":
			return m, m.move(1)
		case "ctrl+s":
			return m, m.submit()
		case "ctrl+x":
			if m.presenter != nil {
				m.presenter.Clear()
				m.banner = m.presenter.State()
			}
			return m, nil
		case "ctrl+d":
			if row.kind == rowAttach {
				if staged := m.ctrl.Staged(); len(staged) > 0 {
					m.ctrl.Unstage(staged[len(staged)-1].ID)
				}
				return m, nil
			}
		case "left", "right", " ":
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			switch row.kind {
			case rowStatus:
				m.cycleStatus()
				return m, nil
			case rowTaskType:
				m.cycleTaskType(delta)
				return m, nil
			}
		case "enter":
			switch row.kind {
			case rowAttach:
				m.stage()
				return m, nil
			case rowSubmit:
				return m, m.submit()
			default:
				return m, m.move(1)
			}
		}

		if row.kind == rowText || row.kind == rowAttach {
			var cmd tea.Cmd
			m.rows[m.cursor].input, cmd = m.rows[m.cursor].input.Update(msg)
			m.commit()
			return m, cmd
		}
	}
	return m, nil
}

func (m *taskFormModel) taskTypeName(raw string) string {
	for _, t := range m.taskTypes {
		if strconv.Itoa(t.ID) == raw {
			return t.Name
		}
	}
	if raw == "" {
		return mutedStyle.Render("none (←/→ to choose)")
	}
	return raw
}

func (m *taskFormModel) View() string {
	var s strings.Builder

	heading := "📝 New task"
	if m.ctrl.Mode() == form.ModeRework {
		heading = "🔁 Rework task"
	}
	s.WriteString(titleStyle.Render(heading) + "\n\n")

	if lines := m.banner.Lines(); len(lines) > 0 {
		s.WriteString(bannerStyle.Render(strings.Join(lines, "\n")) + "\n\n")
	}

	required := map[form.Field]bool{}
	for _, f := range m.ctrl.RequiredFields() {
		required[f] = true
	}
	values := m.ctrl.Fields()

	for i, row := range m.rows {
		cursor := "  "
		if i == m.cursor {
			cursor = "👉"
		}
		switch row.kind {
		case rowAttach:
			s.WriteString(fmt.Sprintf("\n%s %s %s\n", cursor, labelStyle.Render("Attach"), row.input.View()))
			limits := m.ctrl.Limits()
			staged := m.ctrl.Staged()
			s.WriteString(mutedStyle.Render(fmt.Sprintf("     %d/%d files, max %dMB each", len(staged), limits.MaxFiles, limits.MaxFileSizeMB)) + "\n")
			for _, f := range staged {
				s.WriteString(fmt.Sprintf("     📎 %s (%s)\n", f.Name, attachment.FormatSize(f.Size)))
			}
			continue
		case rowSubmit:
			button := "[ Submit ]"
			if !m.ctrl.CanSubmit() {
				button = mutedStyle.Render(button)
			}
			s.WriteString(fmt.Sprintf("\n%s %s\n", cursor, button))
			continue
		}

		label := row.field.Label()
		if required[row.field] {
			label += requiredStyle.Render(" *")
		}
		var value string
		switch row.kind {
		case rowText:
			value = row.input.View()
		case rowStatus:
			value = statusColored(model.TaskStatus(values[row.field])) + mutedStyle.Render("  (←/→)")
		case rowTaskType:
			value = m.taskTypeName(values[row.field])
		case rowReadOnly:
			value = values[row.field] + mutedStyle.Render("  (fixed)")
		}
		s.WriteString(fmt.Sprintf("%s %s %s\n", cursor, labelStyle.Render(label), value))
	}

	s.WriteString("\n" + m.bar.ViewAs(m.ctrl.CompletionPercent()/100) + "\n")

	for _, msg := range m.messages {
		s.WriteString("⚠️ " + msg + "\n")
	}
	if m.err != nil {
		s.WriteString(errorStyle.Render("❌ "+m.err.Error()) + "\n")
	}
	s.WriteString(mutedStyle.Render("\n↑/↓ move · Enter next/stage · Ctrl+S submit · Ctrl+X dismiss notice · Esc cancel") + "\n")
	return s.String()
}

// runTaskForm drives the interactive form until it is submitted or
// cancelled. A shift notice, if any, is shown for its display window.
func runTaskForm(ctx context.Context, m *taskFormModel, presenter *shift.Presenter, report *model.ShiftReport, buckets []model.DailyTaskBucket) (*model.Task, error) {
	p := tea.NewProgram(m)
	if presenter != nil {
		m.presenter = presenter
		m.banner = presenter.PresentBuckets(report, buckets)
		// Send blocks until the event loop reads it, and Clear notifies
		// from inside Update
		presenter.OnChange(func(st shift.DisplayState) { go p.Send(shiftMsg(st)) })
		defer presenter.Close()
	}
	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running form: %w", err)
	}
	if m.cancelled {
		fmt.Println("⚠️ Cancelled; nothing was submitted.")
		return nil, nil
	}
	return m.created, nil
}

// rework eligibility text for detail views
func reworkHint(t model.Task) string {
	if !lifecycle.CanRework(t) {
		return ""
	}
	return fmt.Sprintf("🔁 Eligible for rework (%s): dtl task rework %s", lifecycle.ReworkReason(t), t.ID)
}
