package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

type (
	// Repository persists sessions; implementations live under storage/session.
	Repository interface {
		GetSession(ctx context.Context, id string) (*Session, error)
		SaveSession(ctx context.Context, sess *Session) error
		DeleteSession(ctx context.Context, id string) error
		DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error)
	}

	Service struct {
		repo Repository
		ttl  time.Duration
	}
)

func NewService(repo Repository, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{repo: repo, ttl: ttl}
}

// New returns a fresh, unsaved session.
func (svc *Service) New() *Session {
	return newSession(svc.ttl)
}

// Load returns the session `id`, or a fresh one when it is unknown or expired.
// A session whose backend token has expired is logged out.
func (svc *Service) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return svc.New(), nil
	}
	sess, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return svc.New(), nil
		}
		return nil, err
	}

	now := time.Now().UTC()
	if sess.Expired(now) {
		_ = svc.repo.DeleteSession(ctx, id)
		return svc.New(), nil
	}
	if sess.TokenExpired(now) {
		sess.Logout()
		sess.AddFlash(FlashInfo, MsgSessionExpired)
	}
	return sess, nil
}

// Save persists the session and slides its expiry.
func (svc *Service) Save(ctx context.Context, sess *Session) error {
	now := time.Now().UTC()
	sess.UpdatedAt = now
	sess.ExpiresAt = now.Add(svc.ttl)
	return svc.repo.SaveSession(ctx, sess)
}

func (svc *Service) Destroy(ctx context.Context, id string) error {
	return svc.repo.DeleteSession(ctx, id)
}

// Purge removes expired sessions.
func (svc *Service) Purge(ctx context.Context) (int, error) {
	return svc.repo.DeleteExpiredSessions(ctx, time.Now().UTC())
}

func (svc *Service) TTL() time.Duration {
	return svc.ttl
}

const MsgSessionExpired = "Sua sessão expirou. Faça login novamente."
