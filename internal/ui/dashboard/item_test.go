package dashboard

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/internal/api"
)

func TestStatusIconPrecedence(t *testing.T) {
	cases := []struct {
		name string
		task api.Task
		want string
	}{
		{"todo", api.Task{Status: api.StatusTodo}, "○"},
		{"in progress", api.Task{Status: api.StatusInProgress}, "◐"},
		{"done flag wins", api.Task{Status: api.StatusDone, IsCompleted: true}, "✓"},
		// Completed overrides status, checked first: a task left at
		// status=todo but flagged completed still shows the check mark.
		{"completed todo", api.Task{Status: api.StatusTodo, IsCompleted: true}, "✓"},
		{"completed in progress", api.Task{Status: api.StatusInProgress, IsCompleted: true}, "✓"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, statusIcon(tc.task))
		})
	}
}

func TestTaskItemListContract(t *testing.T) {
	item := TaskItem{Task: api.Task{
		Title:    "write report",
		Status:   api.StatusInProgress,
		Priority: api.PriorityHigh,
	}}

	require.Equal(t, "write report", item.Title())
	require.Equal(t, "write report", item.FilterValue())
	require.Equal(t, "in_progress | high", item.Description())
}
