package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/theme"
)

// TaskSubmitMsg is dispatched when the form completes with a valid draft.
type TaskSubmitMsg struct {
	Req api.CreateTaskRequest
}

// TaskFormCancelMsg is dispatched when the user cancels the form.
type TaskFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    string
	status      string
	dueDate     string
}

// Model is the Bubble Tea model for the new-task form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	width  int
	height int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb: &formBindings{
			priority: api.PriorityMedium,
			status:   api.StatusTodo,
		},
		width:  width,
		height: height,
	}
}

// Start resets the draft to its defaults and initializes the form.
func (m *Model) Start() tea.Cmd {
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = api.PriorityMedium
	m.fb.status = api.StatusTodo
	m.fb.dueDate = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the task form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return TaskFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("New Task") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("What needs to be done?").
				Value(&m.fb.title).
				Validate(validateRequired("Title")),
			huh.NewText().
				Title("Description").
				Placeholder("Optional details...").
				Value(&m.fb.description),
			huh.NewSelect[string]().
				Title("Priority").
				Options(
					huh.NewOption("Low", api.PriorityLow),
					huh.NewOption("Medium", api.PriorityMedium),
					huh.NewOption("High", api.PriorityHigh),
				).
				Value(&m.fb.priority),
			huh.NewSelect[string]().
				Title("Status").
				Options(
					huh.NewOption("To Do", api.StatusTodo),
					huh.NewOption("In Progress", api.StatusInProgress),
					huh.NewOption("Done", api.StatusDone),
				).
				Value(&m.fb.status),
			huh.NewInput().
				Title("Due Date").
				Placeholder("YYYY-MM-DD (optional)").
				Value(&m.fb.dueDate).
				Validate(validateOptionalDate),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	req := api.CreateTaskRequest{
		Title:    m.fb.title,
		Status:   api.Ptr(m.fb.status),
		Priority: api.Ptr(m.fb.priority),
	}

	if desc := strings.TrimSpace(m.fb.description); desc != "" {
		req.Description = api.Ptr(desc)
	}

	if m.fb.dueDate != "" {
		t, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.dueDate))
		if err == nil {
			req.DueDate = &t
		}
	}

	return func() tea.Msg { return TaskSubmitMsg{Req: req} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
