// Package auth guards the API with a single shared password and in-memory
// sessions. Sessions do not survive a restart.
package auth

import (
	"strings"
	"sync"
	"time"

	"deckhand/internal/constants"
	"deckhand/internal/errors"
	"deckhand/internal/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password with bcrypt
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(errors.ErrInternal, "failed to hash password", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches the bcrypt hash
func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Sessions tracks live session tokens and when each was last used
type Sessions struct {
	mu       sync.Mutex
	lastSeen map[string]time.Time
	expiry   time.Duration
	now      func() time.Time
}

// NewSessions creates a store whose sessions expire after expiry of inactivity
func NewSessions(expiry time.Duration) *Sessions {
	if expiry <= 0 {
		expiry = constants.DefaultSessionTimeout
	}
	return &Sessions{
		lastSeen: make(map[string]time.Time),
		expiry:   expiry,
		now:      time.Now,
	}
}

// Create issues a new session token
func (s *Sessions) Create() string {
	token := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked()
	s.lastSeen[token] = s.now()
	return token
}

// Touch reports whether token is live and, if so, extends it
func (s *Sessions) Touch(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen, ok := s.lastSeen[token]
	if !ok {
		return false
	}
	now := s.now()
	if now.Sub(seen) > s.expiry {
		delete(s.lastSeen, token)
		return false
	}
	s.lastSeen[token] = now
	return true
}

// Delete ends a session. Unknown tokens are ignored.
func (s *Sessions) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastSeen, token)
}

// Len returns the number of sessions, expired ones included until swept
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lastSeen)
}

func (s *Sessions) sweepLocked() {
	now := s.now()
	for token, seen := range s.lastSeen {
		if now.Sub(seen) > s.expiry {
			delete(s.lastSeen, token)
		}
	}
}

// Authenticator checks the dashboard password and owns the session store
type Authenticator struct {
	hash     string
	sessions *Sessions
}

// NewAuthenticator hashes password once so the plaintext is not kept around
func NewAuthenticator(password string, expiry time.Duration) (*Authenticator, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Authenticator{hash: hash, sessions: NewSessions(expiry)}, nil
}

// Login returns a fresh session token when password is correct
func (a *Authenticator) Login(password string) (string, error) {
	if !VerifyPassword(password, a.hash) {
		return "", errors.New(errors.ErrAuthFailed, "invalid password")
	}
	return a.sessions.Create(), nil
}

// Logout ends the session
func (a *Authenticator) Logout(token string) {
	a.sessions.Delete(token)
}

// Valid reports whether token names a live session
func (a *Authenticator) Valid(token string) bool {
	return token != "" && a.sessions.Touch(token)
}

// Sessions exposes the underlying store
func (a *Authenticator) Sessions() *Sessions {
	return a.sessions
}

// TokenFromRequest reads the session token from the cookie, falling back to
// an Authorization bearer header for non-browser clients
func TokenFromRequest(c echo.Context) string {
	if cookie, err := c.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// Middleware rejects requests without a live session. Paths listed in public
// pass through untouched.
func Middleware(a *Authenticator, public ...string) echo.MiddlewareFunc {
	open := make(map[string]bool, len(public))
	for _, p := range public {
		open[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if open[c.Path()] {
				return next(c)
			}
			if !a.Valid(TokenFromRequest(c)) {
				logger.GetLogger(c).Debug("Rejected request without a valid session")
				return errors.Unauthorized("missing or expired session")
			}
			return next(c)
		}
	}
}
