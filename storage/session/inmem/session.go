package inmemstore

import (
	"context"
	"sync"
	"time"

	"github.com/matkerbino/murim/core/session"
)

type sessionRepository struct {
	mutex sync.RWMutex
	table map[string]*session.Session
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository() session.Repository {
	return &sessionRepository{table: make(map[string]*session.Session)}
}

// clone copies the session so callers never share memory with the table.
func clone(sess *session.Session) *session.Session {
	cp := *sess
	if sess.User != nil {
		usr := *sess.User
		cp.User = &usr
	}
	if sess.Flashes != nil {
		cp.Flashes = append([]session.Flash(nil), sess.Flashes...)
	}
	return &cp
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (*session.Session, error) {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	if sess, ok := repo.table[id]; ok {
		return clone(sess), nil
	}
	return nil, session.ErrNotFound
}

func (repo *sessionRepository) SaveSession(_ context.Context, sess *session.Session) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	repo.table[sess.ID] = clone(sess)
	return nil
}

func (repo *sessionRepository) DeleteSession(_ context.Context, id string) error {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	delete(repo.table, id)
	return nil
}

func (repo *sessionRepository) DeleteExpiredSessions(_ context.Context, now time.Time) (int, error) {
	repo.mutex.Lock()
	defer repo.mutex.Unlock()

	var n int
	for id, sess := range repo.table {
		if sess.Expired(now) {
			delete(repo.table, id)
			n++
		}
	}
	return n, nil
}
