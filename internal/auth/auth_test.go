package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"deckhand/internal/constants"
	"deckhand/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("test_password_123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2"))
	assert.True(t, VerifyPassword("test_password_123", hash))
	assert.False(t, VerifyPassword("wrong_password", hash))
	assert.False(t, VerifyPassword("test_password_123", "not-a-hash"))
}

func TestSessionsExpireAfterInactivity(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSessions(time.Minute)
	s.now = func() time.Time { return now }

	token := s.Create()
	assert.NotEmpty(t, token)

	now = now.Add(50 * time.Second)
	assert.True(t, s.Touch(token), "activity inside the window keeps the session")

	now = now.Add(50 * time.Second)
	assert.True(t, s.Touch(token), "expiry is measured from the last use")

	now = now.Add(61 * time.Second)
	assert.False(t, s.Touch(token))
	assert.Equal(t, 0, s.Len())
}

func TestSessionsCreateSweepsExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	s := NewSessions(time.Minute)
	s.now = func() time.Time { return now }

	s.Create()
	s.Create()
	now = now.Add(2 * time.Minute)
	s.Create()

	assert.Equal(t, 1, s.Len())
}

func TestSessionsDelete(t *testing.T) {
	s := NewSessions(time.Minute)
	token := s.Create()

	s.Delete(token)
	s.Delete("unknown")

	assert.False(t, s.Touch(token))
}

func TestAuthenticatorLogin(t *testing.T) {
	a, err := NewAuthenticator("secret", time.Hour)
	require.NoError(t, err)

	_, err = a.Login("nope")
	assert.True(t, errors.HasCode(err, errors.ErrAuthFailed))

	token, err := a.Login("secret")
	require.NoError(t, err)
	assert.True(t, a.Valid(token))
	assert.False(t, a.Valid(""))

	a.Logout(token)
	assert.False(t, a.Valid(token))
}

func TestMiddleware(t *testing.T) {
	a, err := NewAuthenticator("secret", time.Hour)
	require.NoError(t, err)
	token, err := a.Login("secret")
	require.NoError(t, err)

	e := echo.New()
	e.Use(Middleware(a, "/api/login"))
	ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
	e.GET("/api/status", ok)
	e.POST("/api/login", ok)

	tests := []struct {
		name     string
		method   string
		path     string
		prepare  func(*http.Request)
		expected int
	}{
		{"no session", http.MethodGet, "/api/status", func(*http.Request) {}, http.StatusUnauthorized},
		{"login is public", http.MethodPost, "/api/login", func(*http.Request) {}, http.StatusOK},
		{"cookie", http.MethodGet, "/api/status", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: token})
		}, http.StatusOK},
		{"bearer", http.MethodGet, "/api/status", func(r *http.Request) {
			r.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
		}, http.StatusOK},
		{"bogus cookie", http.MethodGet, "/api/status", func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: constants.SessionCookieName, Value: "forged"})
		}, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()

			e.ServeHTTP(rec, req)

			assert.Equal(t, tt.expected, rec.Code)
		})
	}
}
