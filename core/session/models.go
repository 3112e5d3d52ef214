package session

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"github.com/matkerbino/murim/core/api"
)

// Flash kinds
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
)

type (
	// Flash is a toast message shown once on the next rendered page.
	Flash struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	}

	// Session is the server-side state of one visitor: the backend bearer token,
	// the cached backend user and pending flashes.
	Session struct {
		ID        string       `db:"id"`
		Token     string       `db:"token"`
		User      *api.Usuario `db:"-"`
		Flashes   []Flash      `db:"-"`
		ExpiresAt time.Time    `db:"expires_at"`
		UpdatedAt time.Time    `db:"updated_at"`
	}
)

func newSession(ttl time.Duration) *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}
}

func (s *Session) IsAuthenticated() bool {
	return s.Token != ""
}

func (s *Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.User != nil && s.User.Admin()
}

// Login stores the bearer token and the user returned by the backend.
func (s *Session) Login(token string, usr api.Usuario) {
	s.Token = token
	s.User = &usr
}

// Logout drops the token and cached user; pending flashes survive.
func (s *Session) Logout() {
	s.Token = ""
	s.User = nil
}

func (s *Session) AddFlash(kind, msg string) {
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: msg})
}

// PopFlashes returns and clears the pending flashes.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}

// TokenExpired reports whether the backend token carries an `exp` claim in the past.
// Tokens that are not JWTs (eg. opaque Sanctum tokens) never expire client side.
func (s *Session) TokenExpired(now time.Time) bool {
	if s.Token == "" {
		return false
	}
	exp, ok := TokenExpiry(s.Token)
	return ok && now.After(exp)
}

// TokenExpiry reads the `exp` claim of a backend JWT without verifying its signature.
func TokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	default:
		return time.Time{}, false
	}
}
