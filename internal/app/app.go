// Package app hosts the root Bubble Tea model. It routes between the
// login screen and the dashboard based on session state, and owns the
// header/status-bar frame around the active view.
package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/tasktracker/internal/keys"
	"github.com/nhle/tasktracker/internal/session"
	"github.com/nhle/tasktracker/internal/ui"
	"github.com/nhle/tasktracker/internal/ui/dashboard"
	helpview "github.com/nhle/tasktracker/internal/ui/help"
	loginview "github.com/nhle/tasktracker/internal/ui/login"
	"github.com/nhle/tasktracker/internal/ui/taskform"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLoading ViewState = iota
	ViewLogin
	ViewDashboard
	ViewTaskForm
	ViewHelp
)

// sessionReadyMsg is sent when session initialization has resolved.
type sessionReadyMsg struct {
	authenticated bool
}

// authResultMsg carries the outcome of a login or register attempt.
type authResultMsg struct {
	err error
}

// Model is the root Bubble Tea model.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	sess         *session.Session
	keys         *keys.KeyMap
	log          *zap.SugaredLogger

	loginView loginview.Model
	dash      dashboard.Model
	form      taskform.Model
	helpView  helpview.Model

	ready bool
}

// New creates the root application model around an initialized session
// object. The session's Initialize runs as the first command.
func New(sess *session.Session, log *zap.SugaredLogger) Model {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewLoading,
		sess:        sess,
		keys:        k,
		log:         log,
		loginView:   loginview.New(80, 24),
		dash:        dashboard.New(sess.Client(), k, log, 80, 24),
		form:        taskform.New(80, 24),
		helpView:    helpview.New(k, 80, 24),
	}
}

// Init starts session restoration from the persisted token.
func (m Model) Init() tea.Cmd {
	sess := m.sess
	return func() tea.Msg {
		_ = sess.Initialize(context.Background())
		return sessionReadyMsg{
			authenticated: sess.State() == session.StateAuthenticated,
		}
	}
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.loginView.SetSize(contentWidth, contentHeight)
		m.dash.SetSize(contentWidth, contentHeight)
		m.form.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to the active view so huh forms can lay themselves out.
		return m.updateActiveView(msg)

	case sessionReadyMsg:
		if msg.authenticated {
			m.currentView = ViewDashboard
			cmd := m.dash.Init()
			return m, cmd
		}
		m.currentView = ViewLogin
		cmd := m.loginView.Init()
		return m, cmd

	case loginview.LoginSubmitMsg:
		sess := m.sess
		return m, func() tea.Msg {
			_, err := sess.Login(context.Background(), msg.Username, msg.Password)
			return authResultMsg{err: err}
		}

	case loginview.RegisterSubmitMsg:
		sess := m.sess
		return m, func() tea.Msg {
			_, err := sess.Register(
				context.Background(),
				msg.Email, msg.Username, msg.Password, msg.FullName,
			)
			return authResultMsg{err: err}
		}

	case authResultMsg:
		if msg.err != nil {
			cmd := m.loginView.SetError(msg.err)
			return m, cmd
		}
		m.currentView = ViewDashboard
		cmd := m.dash.Init()
		return m, cmd

	case dashboard.NewTaskRequestMsg:
		m.previousView = m.currentView
		m.currentView = ViewTaskForm
		cmd := m.form.Start()
		return m, cmd

	case taskform.TaskSubmitMsg:
		m.currentView = ViewDashboard
		return m, m.dash.CreateTask(msg.Req)

	case taskform.TaskFormCancelMsg:
		m.currentView = ViewDashboard
		return m, nil

	case dashboard.DataLoadedMsg, dashboard.MutationDoneMsg:
		// Dashboard data flows are handled even when an overlay is open.
		var cmd tea.Cmd
		m.dash, cmd = m.dash.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.currentView == ViewDashboard {
				return m, tea.Quit
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			if m.currentView == ViewDashboard {
				m.previousView = m.currentView
				m.currentView = ViewHelp
				return m, nil
			}

		case "esc":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}

		case "L":
			if m.currentView == ViewDashboard {
				m.sess.Logout()
				m.currentView = ViewLogin
				cmd := m.loginView.Init()
				return m, cmd
			}
		}
	}

	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewDashboard:
		m.dash, cmd = m.dash.Update(msg)
	case ViewTaskForm:
		m.form, cmd = m.form.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout frame.
func (m Model) View() string {
	if !m.ready || m.currentView == ViewLoading {
		return "Loading..."
	}

	header := m.layout.RenderHeader("TaskTracker", m.sessionInfo())
	content := m.renderContent()

	statusText := m.keyHints()
	isError := false
	if m.currentView == ViewDashboard || m.currentView == ViewHelp {
		if errMsg := m.dash.Error(); errMsg != "" {
			statusText = errMsg
			isError = true
		}
	}
	statusBar := m.layout.RenderStatusBar(statusText, isError)

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewDashboard:
		return m.dash.View()
	case ViewTaskForm:
		return m.form.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// sessionInfo returns the header's right-hand session summary.
func (m Model) sessionInfo() string {
	if user := m.sess.User(); user != nil {
		return "Welcome, " + user.Username
	}
	return "not signed in"
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	switch m.currentView {
	case ViewLogin:
		return "enter continue | esc back"
	case ViewTaskForm:
		return "enter submit | esc cancel"
	case ViewHelp:
		return "? close help | esc back"
	default:
		if summary := m.dash.Filter().String(); summary != "" {
			return summary + " | c clear"
		}
		return "q quit | ? help | n new | x toggle | d delete | s/p filter | L logout"
	}
}
