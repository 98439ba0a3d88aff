package taskform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/internal/api"
)

func TestDraftDefaults(t *testing.T) {
	m := New(80, 24)
	require.Equal(t, api.PriorityMedium, m.fb.priority)
	require.Equal(t, api.StatusTodo, m.fb.status)
}

func TestStartResetsDraft(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "leftover"
	m.fb.description = "stale"
	m.fb.priority = api.PriorityHigh
	m.fb.dueDate = "2026-01-01"

	m.Start()

	require.Empty(t, m.fb.title)
	require.Empty(t, m.fb.description)
	require.Equal(t, api.PriorityMedium, m.fb.priority)
	require.Equal(t, api.StatusTodo, m.fb.status)
	require.Empty(t, m.fb.dueDate)
}

func TestSubmitBuildsRequest(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "ship release"
	m.fb.description = "  with notes  "
	m.fb.priority = api.PriorityHigh
	m.fb.status = api.StatusInProgress
	m.fb.dueDate = "2026-09-15"

	msg, ok := m.handleSubmit()().(TaskSubmitMsg)
	require.True(t, ok)
	require.Equal(t, "ship release", msg.Req.Title)
	require.NotNil(t, msg.Req.Description)
	require.Equal(t, "with notes", *msg.Req.Description)
	require.Equal(t, api.PriorityHigh, *msg.Req.Priority)
	require.Equal(t, api.StatusInProgress, *msg.Req.Status)
	require.NotNil(t, msg.Req.DueDate)
	require.Equal(t, "2026-09-15", msg.Req.DueDate.Format("2006-01-02"))
}

func TestSubmitOmitsEmptyOptionalFields(t *testing.T) {
	m := New(80, 24)
	m.fb.title = "bare"

	msg := m.handleSubmit()().(TaskSubmitMsg)
	require.Nil(t, msg.Req.Description)
	require.Nil(t, msg.Req.DueDate)
}

func TestValidateOptionalDate(t *testing.T) {
	require.NoError(t, validateOptionalDate(""))
	require.NoError(t, validateOptionalDate("2026-02-28"))
	require.NoError(t, validateOptionalDate("  2026-02-28  "))
	require.Error(t, validateOptionalDate("28/02/2026"))
	require.Error(t, validateOptionalDate("soon"))
}

func TestValidateRequired(t *testing.T) {
	check := validateRequired("Title")
	require.Error(t, check(""))
	require.Error(t, check("   "))
	require.NoError(t, check("ok"))
}
