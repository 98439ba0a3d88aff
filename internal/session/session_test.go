package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/tasktracker/internal/api"
	"github.com/nhle/tasktracker/internal/credential"
	"github.com/nhle/tasktracker/internal/session"
	"github.com/nhle/tasktracker/tests/testutil"
)

// memStore is an in-memory TokenStore for tests.
type memStore struct {
	values map[string]string
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) Get(key string) (string, error) {
	v, ok := s.values[key]
	if !ok {
		return "", credential.ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(key, value string) error {
	s.values[key] = value
	return nil
}

func (s *memStore) Delete(key string) error {
	delete(s.values, key)
	return nil
}

func TestInitializeWithoutToken(t *testing.T) {
	backend := testutil.NewBackend(t)
	sess := session.New(backend.URL(), newMemStore(), nil)

	require.Equal(t, session.StateLoading, sess.State())
	require.NoError(t, sess.Initialize(context.Background()))
	require.Equal(t, session.StateUnauthenticated, sess.State())
	require.Nil(t, sess.User())
	require.Empty(t, sess.Token())
}

func TestInitializeRestoresValidToken(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := newMemStore()
	store.values[credential.TokenKey] = backend.IssueToken("alice")

	sess := session.New(backend.URL(), store, nil)
	require.NoError(t, sess.Initialize(context.Background()))

	require.Equal(t, session.StateAuthenticated, sess.State())
	require.NotNil(t, sess.User())
	require.Equal(t, "alice", sess.User().Username)
}

func TestInitializeClearsRejectedToken(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := newMemStore()
	store.values[credential.TokenKey] = "stale-token"

	sess := session.New(backend.URL(), store, nil)
	require.NoError(t, sess.Initialize(context.Background()))

	require.Equal(t, session.StateUnauthenticated, sess.State())
	require.Empty(t, sess.Token())

	// The rejected token must no longer be persisted.
	_, err := store.Get(credential.TokenKey)
	require.True(t, errors.Is(err, credential.ErrNotFound))
}

func TestLoginPersistsTokenAndLoadsUser(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := newMemStore()
	sess := session.New(backend.URL(), store, nil)

	_, err := sess.Client().Register(
		context.Background(), "bob@example.com", "bob", "pw123456", "")
	require.NoError(t, err)

	user, err := sess.Login(context.Background(), "bob", "pw123456")
	require.NoError(t, err)
	require.Equal(t, "bob", user.Username)
	require.Equal(t, session.StateAuthenticated, sess.State())

	persisted, err := store.Get(credential.TokenKey)
	require.NoError(t, err)
	require.Equal(t, sess.Token(), persisted)
}

func TestLoginFailureLeavesUnauthenticated(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := newMemStore()
	sess := session.New(backend.URL(), store, nil)

	_, err := sess.Login(context.Background(), "nobody", "wrong")
	require.Error(t, err)
	require.True(t, api.IsAuthError(err))
	require.Equal(t, session.StateUnauthenticated, sess.State())
	require.Empty(t, sess.Token())

	_, err = store.Get(credential.TokenKey)
	require.True(t, errors.Is(err, credential.ErrNotFound))
}

func TestRegisterLogsIn(t *testing.T) {
	backend := testutil.NewBackend(t)
	sess := session.New(backend.URL(), newMemStore(), nil)

	user, err := sess.Register(
		context.Background(), "carol@example.com", "carol", "pw123456", "Carol C")
	require.NoError(t, err)
	require.Equal(t, "carol", user.Username)
	require.Equal(t, session.StateAuthenticated, sess.State())
}

func TestLogoutClearsEverything(t *testing.T) {
	backend := testutil.NewBackend(t)
	store := newMemStore()
	sess := session.New(backend.URL(), store, nil)

	_, err := sess.Register(
		context.Background(), "dan@example.com", "dan", "pw123456", "")
	require.NoError(t, err)
	require.Equal(t, session.StateAuthenticated, sess.State())

	sess.Logout()

	require.Equal(t, session.StateUnauthenticated, sess.State())
	require.Nil(t, sess.User())
	require.Empty(t, sess.Token())
	_, err = store.Get(credential.TokenKey)
	require.True(t, errors.Is(err, credential.ErrNotFound))
}

func TestTokenRevokedMidSession(t *testing.T) {
	backend := testutil.NewBackend(t)
	sess := session.New(backend.URL(), newMemStore(), nil)

	_, err := sess.Register(
		context.Background(), "eve@example.com", "eve", "pw123456", "")
	require.NoError(t, err)

	backend.RevokeAll()

	// In-session calls surface the auth failure; no forced logout here.
	_, err = sess.Client().Stats(context.Background())
	require.True(t, api.IsAuthError(err))
	require.Equal(t, session.StateAuthenticated, sess.State())
}
