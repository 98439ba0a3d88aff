package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/keys"
	"github.com/nhle/tasktracker/internal/theme"
)

// DataLoadedMsg carries the result of one reload of tasks and stats.
// Seq ties the result to the reload that requested it; results from
// superseded reloads are discarded.
type DataLoadedMsg struct {
	Seq      uint64
	Page     *api.TaskPage
	Stats    *api.Stats
	TasksErr error
	StatsErr error
}

// MutationDoneMsg is sent when a create/toggle/delete round-trip
// finishes. A nil Err means the mutation succeeded; either way the
// dashboard reloads, since the backend is the authority.
type MutationDoneMsg struct {
	Op  string
	Err error
}

// NewTaskRequestMsg asks the app shell to open the task creation form.
type NewTaskRequestMsg struct{}

// statusFilterCycle and priorityFilterCycle are the values the filter
// keys step through; "" means no constraint.
var (
	statusFilterCycle   = []string{"", api.StatusTodo, api.StatusInProgress, api.StatusDone}
	priorityFilterCycle = []string{"", api.PriorityHigh, api.PriorityMedium, api.PriorityLow}
)

// Model is the dashboard view-model. It owns the visible task list, the
// stats snapshot, and the reload discipline: every mutation is followed
// by a full reload of both tasks and stats, and each reload carries a
// monotonically increasing sequence number so a stale response can
// never overwrite a newer one.
type Model struct {
	client *api.Client
	keys   *keys.KeyMap
	log    *zap.SugaredLogger

	list  list.Model
	stats *api.Stats

	filter      api.TaskFilter
	statusIdx   int
	priorityIdx int

	reloadSeq uint64
	loading   bool
	loaded    bool
	errMsg    string

	width  int
	height int
}

// New creates a dashboard model backed by the given API client.
func New(client *api.Client, k *keys.KeyMap, log *zap.SugaredLogger, width, height int) Model {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	l := list.New([]list.Item{}, ItemDelegate{}, width, height-statsHeight)
	l.Title = "Your Tasks"
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{
		client:  client,
		keys:    k,
		log:     log,
		list:    l,
		loading: true,
		width:   width,
		height:  height,
	}
}

// statsHeight is the number of lines the stats card row occupies.
const statsHeight = 4

// Init returns a command that performs the initial load.
func (m *Model) Init() tea.Cmd {
	return m.Reload()
}

// Reload advances the reload sequence and returns a command that
// fetches tasks and stats concurrently. Results of earlier reloads
// still in flight will be ignored when they arrive.
func (m *Model) Reload() tea.Cmd {
	m.reloadSeq++
	seq := m.reloadSeq
	client := m.client
	filter := m.filter

	return func() tea.Msg {
		msg := DataLoadedMsg{Seq: seq}

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			msg.Page, msg.TasksErr = client.Tasks(context.Background(), filter)
		}()
		go func() {
			defer wg.Done()
			msg.Stats, msg.StatsErr = client.Stats(context.Background())
		}()
		wg.Wait()

		return msg
	}
}

// CreateTask returns a command that submits a new task and reports
// completion. The caller follows up with Reload via MutationDoneMsg.
func (m *Model) CreateTask(req api.CreateTaskRequest) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		_, err := client.CreateTask(context.Background(), req)
		return MutationDoneMsg{Op: "create", Err: err}
	}
}

// toggleComplete flips the completion state of the given task. If the
// task is completed it reverts to status=todo / is_completed=false;
// otherwise it is marked completed via the dedicated endpoint.
func (m *Model) toggleComplete(task api.Task) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		var err error
		if task.IsCompleted {
			_, err = client.UpdateTask(context.Background(), task.ID, api.UpdateTaskRequest{
				Status:      api.Ptr(api.StatusTodo),
				IsCompleted: api.Ptr(false),
			})
		} else {
			_, err = client.CompleteTask(context.Background(), task.ID)
		}
		return MutationDoneMsg{Op: "toggle", Err: err}
	}
}

// deleteTask removes the given task. A 404 counts as success: the task
// is gone either way.
func (m *Model) deleteTask(task api.Task) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		err := client.DeleteTask(context.Background(), task.ID)
		if api.IsNotFound(err) {
			err = nil
		}
		return MutationDoneMsg{Op: "delete", Err: err}
	}
}

// SelectedTask returns the task under the cursor.
func (m *Model) SelectedTask() (api.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return api.Task{}, false
	}
	return item.Task, true
}

// Error returns the last surfaced error message, or "".
func (m *Model) Error() string {
	return m.errMsg
}

// Stats returns the latest stats snapshot, or nil before the first
// successful load.
func (m *Model) Stats() *api.Stats {
	return m.stats
}

// Filter returns the active server-side filter.
func (m *Model) Filter() api.TaskFilter {
	return m.filter
}

// Update handles messages for the dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DataLoadedMsg:
		// A newer reload has been issued since this one; drop it.
		if msg.Seq != m.reloadSeq {
			return m, nil
		}
		m.loading = false

		var cmd tea.Cmd
		if msg.TasksErr != nil {
			m.log.Warnw("loading tasks", "error", msg.TasksErr)
			m.errMsg = "failed to load tasks: " + shortError(msg.TasksErr)
		} else {
			m.loaded = true
			items := make([]list.Item, len(msg.Page.Tasks))
			for i, task := range msg.Page.Tasks {
				items[i] = TaskItem{Task: task}
			}
			cmd = m.list.SetItems(items)
		}

		if msg.StatsErr != nil {
			m.log.Warnw("loading stats", "error", msg.StatsErr)
			if msg.TasksErr == nil {
				m.errMsg = "failed to load stats: " + shortError(msg.StatsErr)
			}
		} else {
			m.stats = msg.Stats
		}

		if msg.TasksErr == nil && msg.StatsErr == nil {
			m.errMsg = ""
		}
		return m, cmd

	case MutationDoneMsg:
		if msg.Err != nil {
			m.log.Warnw("mutation failed", "op", msg.Op, "error", msg.Err)
			m.errMsg = msg.Op + " failed: " + shortError(msg.Err)
		} else {
			m.errMsg = ""
		}
		cmd := m.Reload()
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.New):
		return m, func() tea.Msg { return NewTaskRequestMsg{} }

	case key.Matches(msg, m.keys.Toggle):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.toggleComplete(task)

	case key.Matches(msg, m.keys.Delete):
		task, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, m.deleteTask(task)

	case key.Matches(msg, m.keys.Refresh):
		cmd := m.Reload()
		return m, cmd

	case key.Matches(msg, m.keys.FilterStatus):
		m.statusIdx = (m.statusIdx + 1) % len(statusFilterCycle)
		m.filter.Status = statusFilterCycle[m.statusIdx]
		cmd := m.Reload()
		return m, cmd

	case key.Matches(msg, m.keys.FilterPriority):
		m.priorityIdx = (m.priorityIdx + 1) % len(priorityFilterCycle)
		m.filter.Priority = priorityFilterCycle[m.priorityIdx]
		cmd := m.Reload()
		return m, cmd

	case key.Matches(msg, m.keys.ClearFilters):
		m.statusIdx = 0
		m.priorityIdx = 0
		m.filter = api.TaskFilter{}
		cmd := m.Reload()
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the stats card row above the task list.
func (m Model) View() string {
	if m.loading && !m.loaded {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Render("Loading...")
	}

	statsRow := m.renderStats()

	if len(m.list.Items()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, statsRow, m.renderEmptyState())
	}

	return lipgloss.JoinVertical(lipgloss.Left, statsRow, m.list.View())
}

// renderStats draws the Total / Completed / Completion Rate cards.
func (m Model) renderStats() string {
	total, completed, pct := 0, 0, 0.0
	if m.stats != nil {
		total = m.stats.TotalTasks
		completed = m.stats.CompletedTasks
		pct = m.stats.CompletedPercentage
	}

	cards := lipgloss.JoinHorizontal(
		lipgloss.Top,
		statsCard("Total Tasks", fmt.Sprintf("%d", total)),
		statsCard("Completed", fmt.Sprintf("%d", completed)),
		statsCard("Completion Rate", fmt.Sprintf("%.1f%%", pct)),
	)
	return cards
}

func statsCard(label, value string) string {
	content := lipgloss.JoinVertical(
		lipgloss.Left,
		theme.CardLabelStyle.Render(label),
		theme.CardValueStyle.Render(value),
	)
	return theme.CardStyle.Render(content)
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height - statsHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Status != "" || m.filter.Priority != "" {
		return style.Render("No matching tasks.\nPress c to clear filters.")
	}

	return style.Render("No tasks yet.\n\nPress n to create your first task.")
}

// SetSize updates the dashboard dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-statsHeight)
}

// shortError trims an error for status bar display.
func shortError(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	return err.Error()
}
