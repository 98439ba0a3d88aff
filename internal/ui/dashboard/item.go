package dashboard

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/theme"
)

// TaskItem wraps an api.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task api.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// Title returns the task title for the list.
func (i TaskItem) Title() string { return i.Task.Title }

// Description returns a short summary line for the list.
func (i TaskItem) Description() string {
	return i.Task.Status + " | " + i.Task.Priority
}

// statusIcon picks the icon for a task. The completed check runs first,
// independent of the status field: a completed task shows ✓ even while
// status still reads todo.
func statusIcon(task api.Task) string {
	if task.IsCompleted {
		return "✓"
	}
	if task.Status == api.StatusInProgress {
		return "◐"
	}
	return "○"
}

// ItemDelegate implements list.ItemDelegate for rendering task rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	taskItem, ok := item.(TaskItem)
	if !ok {
		return
	}

	task := taskItem.Task
	isSelected := index == m.Index()

	icon := statusIcon(task)

	priBadge := theme.PriorityStyle(task.Priority).Render(task.Priority)
	statusBadge := theme.StatusStyle(task.Status).Render(task.Status)

	title := task.Title
	if task.IsCompleted {
		title = theme.StrikeStyle.Render(title)
	}

	desc := ""
	if task.Description != nil && *task.Description != "" {
		desc = theme.DimmedStyle.Render(" - " + *task.Description)
	}

	dueStr := ""
	if task.DueDate != nil {
		dueStr = theme.DueDateStyle.Render(" due " + task.DueDate.Format("Jan 02"))
	}

	line := fmt.Sprintf("%s %s %s %s%s%s",
		icon, statusBadge, priBadge, title, desc, dueStr)

	if task.IsCompleted {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}
