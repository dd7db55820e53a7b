package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/novapharm/novapharm/testing"
)

func newSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "test_session", "signing-secret", time.Hour, false)
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == "test_session" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestSessionCookieRoundTrip(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-42")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	cookie := sessionCookie(t, res)
	assert.NotEqual(t, sess.ID, cookie.Value, "cookie value carries a signature, not the bare id")

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, "user-42", loaded.User())
}

func TestSessionRejectsUnsignedCookie(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-42")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))

	// Replaying the bare session id without its signature must not
	// resolve the stored session.
	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(&http.Cookie{Name: "test_session", Value: sess.ID})
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
	assert.Empty(t, loaded.User())
}

func TestSessionRejectsTamperedSignature(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("user-42")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, sess))
	cookie := sessionCookie(t, res)
	cookie.Value += "x"

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	loaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.NotEqual(t, sess.ID, loaded.ID)
	assert.Empty(t, loaded.User())
}
