package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindForStatus(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorKind
	}{
		{401, KindAuth},
		{404, KindNotFound},
		{400, KindValidation},
		{409, KindValidation},
		{422, KindValidation},
		{500, KindUnexpected},
		{503, KindUnexpected},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, kindForStatus(tc.status), "status %d", tc.status)
	}
}

func TestKindOfWrappedError(t *testing.T) {
	inner := &Error{Kind: KindAuth, Status: 401, Op: "GET /auth/me"}
	wrapped := fmt.Errorf("restoring session: %w", inner)

	require.Equal(t, KindAuth, KindOf(wrapped))
	require.True(t, IsAuthError(wrapped))
	require.False(t, IsNotFound(wrapped))
}

func TestKindOfPlainError(t *testing.T) {
	require.Equal(t, KindUnexpected, KindOf(errors.New("boom")))
	require.False(t, IsAuthError(errors.New("boom")))
}

func TestErrorMessageShapes(t *testing.T) {
	withDetail := &Error{
		Kind: KindValidation, Status: 400,
		Op: "POST /auth/register", Detail: "email already registered",
	}
	require.Contains(t, withDetail.Error(), "email already registered")
	require.Contains(t, withDetail.Error(), "400")

	network := &Error{Kind: KindNetwork, Op: "GET /stats/", Err: errors.New("connection refused")}
	require.Contains(t, network.Error(), "connection refused")
	require.ErrorContains(t, network, "network")
}
