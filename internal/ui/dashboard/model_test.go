package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/keys"
	"github.com/nhle/tasktracker/tests/testutil"
)

func newDashboard(t *testing.T) (Model, *api.Client, *testutil.Backend) {
	t.Helper()

	backend := testutil.NewBackend(t)
	token := backend.IssueToken("alice")
	client := api.NewClient(backend.URL(), func() string { return token }, nil)
	m := New(client, keys.DefaultKeyMap(), nil, 80, 24)
	return m, client, backend
}

// runReload executes a reload command and applies its message.
func runReload(t *testing.T, m Model) Model {
	t.Helper()

	cmd := m.Reload()
	msg, ok := cmd().(DataLoadedMsg)
	require.True(t, ok)
	m, _ = m.Update(msg)
	return m
}

func TestReloadPopulatesTasksAndStats(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	_, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	_, err = client.CreateTask(ctx, api.CreateTaskRequest{Title: "b"})
	require.NoError(t, err)

	m = runReload(t, m)

	require.Len(t, m.list.Items(), 2)
	require.NotNil(t, m.Stats())
	require.Equal(t, 2, m.Stats().TotalTasks)
	require.Empty(t, m.Error())
}

func TestStaleReloadDiscarded(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	_, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "only"})
	require.NoError(t, err)

	// First reload's result is still in flight when a second reload is
	// issued; when the stale result finally lands it must be ignored.
	staleCmd := m.Reload()
	staleMsg := staleCmd().(DataLoadedMsg)

	m = runReload(t, m)
	require.Len(t, m.list.Items(), 1)

	_, err = client.CreateTask(ctx, api.CreateTaskRequest{Title: "second"})
	require.NoError(t, err)
	m = runReload(t, m)
	require.Len(t, m.list.Items(), 2)

	m, _ = m.Update(staleMsg)
	require.Len(t, m.list.Items(), 2, "stale reload overwrote newer data")
}

func TestLoadFailureKeepsPriorState(t *testing.T) {
	m, client, backend := newDashboard(t)
	ctx := context.Background()

	_, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "keep"})
	require.NoError(t, err)
	m = runReload(t, m)
	require.Len(t, m.list.Items(), 1)

	backend.FailNext = 500
	m = runReload(t, m)

	// Whichever request hit the injected failure, the surviving data is
	// kept and an error message is surfaced.
	require.Len(t, m.list.Items(), 1)
	require.NotEmpty(t, m.Error())
}

func TestToggleMarksCompleted(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	task, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "todo item"})
	require.NoError(t, err)

	msg := m.toggleComplete(*task)().(MutationDoneMsg)
	require.NoError(t, msg.Err)

	page, err := client.Tasks(ctx, api.TaskFilter{})
	require.NoError(t, err)
	require.True(t, page.Tasks[0].IsCompleted)
}

func TestToggleRevertsToTodo(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	task, err := client.CreateTask(ctx, api.CreateTaskRequest{
		Title:  "started",
		Status: api.Ptr(api.StatusInProgress),
	})
	require.NoError(t, err)

	done, err := client.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.True(t, done.IsCompleted)

	// Toggling a completed task reverts it to todo/incomplete
	// regardless of its pre-completion status.
	msg := m.toggleComplete(*done)().(MutationDoneMsg)
	require.NoError(t, msg.Err)

	page, err := client.Tasks(ctx, api.TaskFilter{})
	require.NoError(t, err)
	require.False(t, page.Tasks[0].IsCompleted)
	require.Equal(t, api.StatusTodo, page.Tasks[0].Status)
}

func TestDoubleToggleRoundTrips(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	task, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "round trip"})
	require.NoError(t, err)

	msg := m.toggleComplete(*task)().(MutationDoneMsg)
	require.NoError(t, msg.Err)

	page, err := client.Tasks(ctx, api.TaskFilter{})
	require.NoError(t, err)

	msg = m.toggleComplete(page.Tasks[0])().(MutationDoneMsg)
	require.NoError(t, msg.Err)

	page, err = client.Tasks(ctx, api.TaskFilter{})
	require.NoError(t, err)
	require.False(t, page.Tasks[0].IsCompleted)
	require.Equal(t, api.StatusTodo, page.Tasks[0].Status)
}

func TestDeleteMissingTaskIsNotAnError(t *testing.T) {
	m, client, _ := newDashboard(t)
	ctx := context.Background()

	task, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "gone"})
	require.NoError(t, err)
	require.NoError(t, client.DeleteTask(ctx, task.ID))

	msg := m.deleteTask(*task)().(MutationDoneMsg)
	require.NoError(t, msg.Err)
}

func TestMutationFailureSurfacesError(t *testing.T) {
	m, _, backend := newDashboard(t)

	backend.FailNext = 500
	msg := m.CreateTask(api.CreateTaskRequest{Title: "x"})().(MutationDoneMsg)
	require.Error(t, msg.Err)

	m, _ = m.Update(msg)
	require.Contains(t, m.Error(), "create failed")
}

func TestFilterCycles(t *testing.T) {
	m, _, _ := newDashboard(t)

	require.Empty(t, m.Filter().Status)

	m.statusIdx = (m.statusIdx + 1) % len(statusFilterCycle)
	m.filter.Status = statusFilterCycle[m.statusIdx]
	require.Equal(t, api.StatusTodo, m.Filter().Status)

	m.priorityIdx = (m.priorityIdx + 1) % len(priorityFilterCycle)
	m.filter.Priority = priorityFilterCycle[m.priorityIdx]
	require.Equal(t, api.PriorityHigh, m.Filter().Priority)
	require.Equal(t, "status=todo priority=high", m.Filter().String())
}

// TestEndToEndScenario walks the full user journey: register, create
// two tasks, complete one, and verify the dashboard's stats snapshot.
func TestEndToEndScenario(t *testing.T) {
	backend := testutil.NewBackend(t)
	token := ""
	client := api.NewClient(backend.URL(), func() string { return token }, nil)
	ctx := context.Background()

	_, err := client.Register(ctx, "alice@example.com", "alice", "pw123456", "")
	require.NoError(t, err)
	tok, err := client.Login(ctx, "alice", "pw123456")
	require.NoError(t, err)
	token = tok.AccessToken

	me, err := client.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)

	first, err := client.CreateTask(ctx, api.CreateTaskRequest{Title: "first"})
	require.NoError(t, err)
	_, err = client.CreateTask(ctx, api.CreateTaskRequest{Title: "second"})
	require.NoError(t, err)

	m := New(client, keys.DefaultKeyMap(), nil, 80, 24)
	msg := m.toggleComplete(*first)().(MutationDoneMsg)
	require.NoError(t, msg.Err)

	m = runReload(t, m)
	require.Len(t, m.list.Items(), 2)
	require.Equal(t, 2, m.Stats().TotalTasks)
	require.Equal(t, 1, m.Stats().CompletedTasks)
	require.Equal(t, 50.0, m.Stats().CompletedPercentage)
}
