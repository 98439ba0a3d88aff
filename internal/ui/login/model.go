package login

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/tasktracker/internal/theme"
)

// Mode represents the current state of the login view.
type Mode int

const (
	ModeSelect     Mode = iota // Choose between sign in and register
	ModeLoginForm              // Username/password form
	ModeRegister               // Registration form
	ModeSubmitting             // Auth call in flight
)

// LoginSubmitMsg asks the app shell to perform a login.
type LoginSubmitMsg struct {
	Username string
	Password string
}

// RegisterSubmitMsg asks the app shell to perform a registration
// followed by a login.
type RegisterSubmitMsg struct {
	Email    string
	Username string
	Password string
	FullName string
}

// actionLogin / actionRegister are the choices of the mode selector.
const (
	actionLogin    = "login"
	actionRegister = "register"
)

// formBindings holds form field values on the heap so that huh's
// Value() pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	action   string
	email    string
	username string
	password string
	fullName string
}

// Model is the Bubble Tea model for the login/register screen.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	errMsg  string
	spinner spinner.Model
	width   int
	height  int
}

// New creates a new login view model.
func New(width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		mode:    ModeSelect,
		fb:      &formBindings{action: actionLogin},
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Init shows the mode selector.
func (m *Model) Init() tea.Cmd {
	return m.startSelect()
}

// SetError records an authentication failure to display and returns
// the view to the relevant form so the user can retry.
func (m *Model) SetError(err error) tea.Cmd {
	m.errMsg = err.Error()
	if m.mode == ModeSubmitting {
		if m.fb.action == actionRegister {
			return m.startRegister()
		}
		return m.startLogin()
	}
	return nil
}

func (m *Model) startSelect() tea.Cmd {
	m.mode = ModeSelect
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Welcome to TaskTracker").
				Options(
					huh.NewOption("Sign in", actionLogin),
					huh.NewOption("Create an account", actionRegister),
				).
				Value(&m.fb.action),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

func (m *Model) startLogin() tea.Cmd {
	m.mode = ModeLoginForm
	m.fb.password = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validateRequired("Password")),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

func (m *Model) startRegister() tea.Cmd {
	m.mode = ModeRegister
	m.fb.password = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Value(&m.fb.email).
				Validate(validateEmail),
			huh.NewInput().
				Title("Username").
				Value(&m.fb.username).
				Validate(validateRequired("Username")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.password).
				Validate(validatePassword),
			huh.NewInput().
				Title("Full name").
				Placeholder("(optional)").
				Value(&m.fb.fullName),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == ModeSubmitting {
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m.handleFormDone()
	}
	if m.form.State == huh.StateAborted {
		// Esc from a form returns to the mode selector; esc from the
		// selector re-opens it (there is nowhere further back to go).
		cmd := m.startSelect()
		return m, cmd
	}

	return m, cmd
}

func (m Model) handleFormDone() (Model, tea.Cmd) {
	switch m.mode {
	case ModeSelect:
		if m.fb.action == actionRegister {
			cmd := m.startRegister()
			return m, cmd
		}
		cmd := m.startLogin()
		return m, cmd

	case ModeLoginForm:
		m.mode = ModeSubmitting
		fb := m.fb
		return m, tea.Batch(
			m.spinner.Tick,
			func() tea.Msg {
				return LoginSubmitMsg{
					Username: strings.TrimSpace(fb.username),
					Password: fb.password,
				}
			},
		)

	case ModeRegister:
		m.mode = ModeSubmitting
		fb := m.fb
		return m, tea.Batch(
			m.spinner.Tick,
			func() tea.Msg {
				return RegisterSubmitMsg{
					Email:    strings.TrimSpace(fb.email),
					Username: strings.TrimSpace(fb.username),
					Password: fb.password,
					FullName: strings.TrimSpace(fb.fullName),
				}
			},
		)
	}
	return m, nil
}

// View renders the login screen.
func (m Model) View() string {
	var body string
	switch m.mode {
	case ModeSubmitting:
		body = m.spinner.View() + " Signing in..."
	default:
		if m.form != nil {
			body = m.form.View()
		}
	}

	var parts []string
	if m.errMsg != "" {
		errStyle := lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			MarginBottom(1)
		parts = append(parts, errStyle.Render(m.errMsg))
	}
	parts = append(parts, body)

	panel := theme.PanelStyle.
		Width(m.formWidth() + 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(panel)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) formWidth() int {
	w := m.width / 2
	if w < 40 {
		w = 40
	}
	if w > 72 {
		w = 72
	}
	return w
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateEmail(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Email is required")
	}
	if !strings.Contains(s, "@") {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func validatePassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}
