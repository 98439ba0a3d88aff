// Package session holds the process-wide authentication state: the
// bearer token, the current user, and the loading flag consulted by the
// UI to decide which top-level view to render.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/credential"
)

// State describes where the session is in its lifecycle.
type State int

const (
	// StateLoading applies only while Initialize is resolving a
	// persisted token at process start.
	StateLoading State = iota

	// StateUnauthenticated means no valid token is held.
	StateUnauthenticated

	// StateAuthenticated means a token and user are held.
	StateAuthenticated
)

// TokenStore is the persistence mechanism for the bearer token. The
// production implementation is the system keyring; tests use an
// in-memory map.
type TokenStore interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Session is the single authentication context for the process. It is
// created once at startup and injected into the app model. Access is
// mutex-guarded because Bubble Tea commands run on their own goroutines.
type Session struct {
	mu     sync.Mutex
	client *api.Client
	tokens TokenStore
	log    *zap.SugaredLogger

	state State
	token string
	user  *api.User
}

// New creates a Session backed by the given token store and builds the
// API client against baseURL. The client reads the session's token on
// every request, so login and logout take effect immediately.
func New(baseURL string, tokens TokenStore, log *zap.SugaredLogger) *Session {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	s := &Session{
		tokens: tokens,
		log:    log,
		state:  StateLoading,
	}
	s.client = api.NewClient(baseURL, s.Token, log)
	return s
}

// Client returns the API client bound to this session's token.
func (s *Session) Client() *api.Client {
	return s.client
}

// Token returns the current bearer token, or "" when unauthenticated.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// User returns the authenticated user, or nil.
func (s *Session) User() *api.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Initialize restores the session from a persisted token. A missing
// token resolves to unauthenticated. A present token is validated with
// a current-user lookup; on any failure the persisted token is cleared
// and the session resolves to unauthenticated. Initialize never returns
// an error for the unauthenticated outcome itself.
func (s *Session) Initialize(ctx context.Context) error {
	token, err := s.tokens.Get(credential.TokenKey)
	if err != nil {
		if !errors.Is(err, credential.ErrNotFound) {
			s.log.Warnw("reading persisted token", "error", err)
		}
		s.setUnauthenticated()
		return nil
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		s.log.Infow("persisted token rejected, clearing session",
			"kind", api.KindOf(err).String())
		if delErr := s.tokens.Delete(credential.TokenKey); delErr != nil {
			s.log.Warnw("clearing persisted token", "error", delErr)
		}
		s.setUnauthenticated()
		return nil
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()
	s.log.Infow("session restored", "username", user.Username)
	return nil
}

// Login exchanges credentials for a token, persists it, and loads the
// current user. On failure the session stays unauthenticated with no
// persisted token, and the error is returned for the login form to
// display.
func (s *Session) Login(ctx context.Context, username, password string) (*api.User, error) {
	tok, err := s.client.Login(ctx, username, password)
	if err != nil {
		s.setUnauthenticated()
		return nil, err
	}

	if err := s.tokens.Set(credential.TokenKey, tok.AccessToken); err != nil {
		s.log.Warnw("persisting token", "error", err)
	}

	s.mu.Lock()
	s.token = tok.AccessToken
	s.mu.Unlock()

	user, err := s.client.CurrentUser(ctx)
	if err != nil {
		if delErr := s.tokens.Delete(credential.TokenKey); delErr != nil {
			s.log.Warnw("clearing persisted token", "error", delErr)
		}
		s.setUnauthenticated()
		return nil, err
	}

	s.mu.Lock()
	s.state = StateAuthenticated
	s.user = user
	s.mu.Unlock()
	s.log.Infow("logged in", "username", user.Username)
	return user, nil
}

// Register creates an account and then logs in with the new
// credentials, so a successful registration lands directly on the
// dashboard.
func (s *Session) Register(ctx context.Context, email, username, password, fullName string) (*api.User, error) {
	if _, err := s.client.Register(ctx, email, username, password, fullName); err != nil {
		return nil, err
	}
	return s.Login(ctx, username, password)
}

// Logout clears the persisted token and resets the in-memory state
// synchronously. No backend call is made.
func (s *Session) Logout() {
	if err := s.tokens.Delete(credential.TokenKey); err != nil {
		s.log.Warnw("clearing persisted token", "error", err)
	}
	s.setUnauthenticated()
	s.log.Info("logged out")
}

func (s *Session) setUnauthenticated() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateUnauthenticated
	s.token = ""
	s.user = nil
}
