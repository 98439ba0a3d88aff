package api

import "time"

// Task status constants as defined by the backend.
const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// Task priority constants as defined by the backend.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// User is the identity record returned by the backend. It is read-only
// from the client's perspective.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Task is a user-owned to-do item. The backend treats is_completed as
// authoritative for display purposes: a task can carry status=todo while
// is_completed=true after the complete endpoint has been called.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	IsCompleted bool       `json:"is_completed"`
	DueDate     *time.Time `json:"due_date"`
	OwnerID     int64      `json:"owner_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Stats is the backend-computed aggregate over the current user's tasks.
// It is recomputed server-side on every request and never cached here.
type Stats struct {
	TotalTasks          int     `json:"total_tasks"`
	CompletedTasks      int     `json:"completed_tasks"`
	CompletedPercentage float64 `json:"completed_percentage"`
}

// TaskPage is the paginated response shape of the task list endpoint.
type TaskPage struct {
	Tasks []Task `json:"tasks"`
	Total int    `json:"total"`
}

// TokenResponse is returned by the login endpoint.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// RegisterRequest is the body for the registration endpoint.
type RegisterRequest struct {
	Email    string  `json:"email"`
	Username string  `json:"username"`
	Password string  `json:"password"`
	FullName *string `json:"full_name,omitempty"`
}

// LoginRequest is the body for the login endpoint.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateTaskRequest is the body for task creation. Title is the only
// required field; the backend fills in defaults for the rest
// (status=todo, priority=medium).
type CreateTaskRequest struct {
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTaskRequest carries a partial update: only non-nil fields are
// serialized, and only those fields change server-side.
type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	IsCompleted *bool      `json:"is_completed,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// TaskFilter holds the optional server-side list filters. Empty fields
// mean no constraint and are omitted from the query string.
type TaskFilter struct {
	Status   string
	Priority string
}

// String returns a short human-readable summary of the active filters,
// or the empty string when no filter is set.
func (f TaskFilter) String() string {
	switch {
	case f.Status != "" && f.Priority != "":
		return "status=" + f.Status + " priority=" + f.Priority
	case f.Status != "":
		return "status=" + f.Status
	case f.Priority != "":
		return "priority=" + f.Priority
	default:
		return ""
	}
}

// Ptr returns a pointer to v. Convenience for building partial requests.
func Ptr[T any](v T) *T {
	return &v
}
