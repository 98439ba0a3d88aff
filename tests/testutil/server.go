// Package testutil provides an in-memory fake of the TaskTracker REST
// backend for use in tests. It implements the same endpoint surface and
// status codes the real backend exposes, scoped per bearer token.
package testutil

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nhle/tasktracker/internal/api"
)

// Backend is an in-memory fake TaskTracker API server.
type Backend struct {
	mu      sync.Mutex
	server  *httptest.Server
	users   map[string]*account // keyed by username
	tokens  map[string]int64    // token -> user id
	tasks   map[int64]*api.Task
	nextID  int64
	nextTok int

	// FailNext, when set, makes the next request fail with the given
	// status before any handler logic runs. Used to exercise error paths.
	FailNext int
}

type account struct {
	user     api.User
	password string
}

// NewBackend starts a fake backend and registers cleanup with t.
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		users:  make(map[string]*account),
		tokens: make(map[string]int64),
		tasks:  make(map[int64]*api.Task),
		nextID: 1,
	}
	b.server = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.server.Close)
	return b
}

// URL returns the base URL of the fake backend.
func (b *Backend) URL() string {
	return b.server.URL
}

// TaskCount returns the number of stored tasks.
func (b *Backend) TaskCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tasks)
}

// IssueToken registers a user directly and returns a valid token for it,
// bypassing the HTTP registration flow.
func (b *Backend) IssueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	acct, ok := b.users[username]
	if !ok {
		acct = &account{
			user: api.User{
				ID:        b.nextID,
				Email:     username + "@example.com",
				Username:  username,
				IsActive:  true,
				CreatedAt: time.Now().UTC(),
				UpdatedAt: time.Now().UTC(),
			},
		}
		b.nextID++
		b.users[username] = acct
	}
	return b.mintToken(acct.user.ID)
}

// RevokeAll invalidates every issued token.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]int64)
}

func (b *Backend) mintToken(userID int64) string {
	b.nextTok++
	tok := "tok-" + strconv.Itoa(b.nextTok)
	b.tokens[tok] = userID
	return tok
}

func (b *Backend) handle(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailNext != 0 {
		status := b.FailNext
		b.FailNext = 0
		writeError(w, status, "injected failure")
		return
	}

	path := strings.TrimSuffix(r.URL.Path, "/")
	switch {
	case r.Method == http.MethodPost && path == "/auth/register":
		b.handleRegister(w, r)
	case r.Method == http.MethodPost && path == "/auth/login":
		b.handleLogin(w, r)
	case r.Method == http.MethodGet && path == "/auth/me":
		b.handleMe(w, r)
	case path == "/tasks":
		b.handleTasks(w, r)
	case strings.HasPrefix(path, "/tasks/"):
		b.handleTask(w, r, strings.TrimPrefix(path, "/tasks/"))
	case r.Method == http.MethodGet && path == "/stats":
		b.handleStats(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (b *Backend) authenticate(r *http.Request) (int64, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return 0, false
	}
	id, ok := b.tokens[token]
	return id, ok
}

func (b *Backend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing required fields")
		return
	}
	if _, exists := b.users[req.Username]; exists {
		writeError(w, http.StatusBadRequest, "username already registered")
		return
	}
	for _, acct := range b.users {
		if acct.user.Email == req.Email {
			writeError(w, http.StatusBadRequest, "email already registered")
			return
		}
	}

	now := time.Now().UTC()
	acct := &account{
		user: api.User{
			ID:        b.nextID,
			Email:     req.Email,
			Username:  req.Username,
			FullName:  req.FullName,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		password: req.Password,
	}
	b.nextID++
	b.users[req.Username] = acct
	writeJSON(w, http.StatusCreated, acct.user)
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}
	acct, ok := b.users[req.Username]
	if !ok || acct.password != req.Password {
		writeError(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}
	writeJSON(w, http.StatusOK, api.TokenResponse{
		AccessToken: b.mintToken(acct.user.ID),
		TokenType:   "bearer",
	})
}

func (b *Backend) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}
	for _, acct := range b.users {
		if acct.user.ID == userID {
			writeJSON(w, http.StatusOK, acct.user)
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "could not validate credentials")
}

func (b *Backend) handleTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		priority := r.URL.Query().Get("priority")
		tasks := []api.Task{}
		for _, task := range b.tasks {
			if task.OwnerID != userID {
				continue
			}
			if status != "" && task.Status != status {
				continue
			}
			if priority != "" && task.Priority != priority {
				continue
			}
			tasks = append(tasks, *task)
		}
		writeJSON(w, http.StatusOK, api.TaskPage{Tasks: tasks, Total: len(tasks)})

	case http.MethodPost:
		var req api.CreateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid body")
			return
		}
		if req.Title == "" {
			writeError(w, http.StatusUnprocessableEntity, "title is required")
			return
		}
		now := time.Now().UTC()
		task := &api.Task{
			ID:          b.nextID,
			Title:       req.Title,
			Description: req.Description,
			Status:      api.StatusTodo,
			Priority:    api.PriorityMedium,
			DueDate:     req.DueDate,
			OwnerID:     userID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		b.nextID++
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		b.tasks[task.ID] = task
		writeJSON(w, http.StatusCreated, task)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (b *Backend) handleTask(w http.ResponseWriter, r *http.Request, rest string) {
	userID, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	complete := false
	if idPart, found := strings.CutSuffix(rest, "/complete"); found {
		complete = true
		rest = idPart
	}

	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}
	task, exists := b.tasks[id]
	if !exists || task.OwnerID != userID {
		writeError(w, http.StatusNotFound, "task not found")
		return
	}

	switch {
	case complete && r.Method == http.MethodPatch:
		task.IsCompleted = true
		task.Status = api.StatusDone
		task.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, task)

	case r.Method == http.MethodPut:
		var req api.UpdateTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid body")
			return
		}
		if req.Title != nil {
			task.Title = *req.Title
		}
		if req.Description != nil {
			task.Description = req.Description
		}
		if req.Status != nil {
			task.Status = *req.Status
		}
		if req.Priority != nil {
			task.Priority = *req.Priority
		}
		if req.IsCompleted != nil {
			task.IsCompleted = *req.IsCompleted
		}
		if req.DueDate != nil {
			task.DueDate = req.DueDate
		}
		task.UpdatedAt = time.Now().UTC()
		writeJSON(w, http.StatusOK, task)

	case r.Method == http.MethodDelete:
		delete(b.tasks, id)
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (b *Backend) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := b.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "could not validate credentials")
		return
	}

	total := 0
	completed := 0
	for _, task := range b.tasks {
		if task.OwnerID != userID {
			continue
		}
		total++
		if task.IsCompleted {
			completed++
		}
	}

	// Percentage rounded to two decimals, matching the backend contract.
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(completed)/float64(total)*100*100) / 100
	}

	writeJSON(w, http.StatusOK, api.Stats{
		TotalTasks:          total,
		CompletedTasks:      completed,
		CompletedPercentage: percentage,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
