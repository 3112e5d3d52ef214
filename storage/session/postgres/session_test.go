package pgstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
	testutil "github.com/matkerbino/murim/tests"
)

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewSessionRepository(testutil.PrepareDB(t))
	now := time.Now().UTC().Truncate(time.Microsecond)

	sess := &session.Session{
		ID:        "0b7f3c1e-4a57-4f0e-9a51-0b3c7f1f2a10",
		Token:     "token-1",
		User:      &api.Usuario{ID: 1, Name: "Ana", Email: "ana@murim.com", IsAdmin: true},
		Flashes:   []session.Flash{{Kind: session.FlashInfo, Message: "Bem-vindo"}},
		ExpiresAt: now.Add(time.Hour),
		UpdatedAt: now,
	}
	require.NoError(t, repo.SaveSession(ctx, sess))

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.Token, got.Token)
		assert.Equal(t, sess.User, got.User)
		assert.Equal(t, sess.Flashes, got.Flashes)
		assert.True(t, sess.ExpiresAt.Equal(got.ExpiresAt))
	})

	t.Run("save updates", func(t *testing.T) {
		upd := *sess
		upd.Logout()
		upd.Flashes = nil
		require.NoError(t, repo.SaveSession(ctx, &upd))

		got, err := repo.GetSession(ctx, sess.ID)
		require.NoError(t, err)
		assert.Empty(t, got.Token)
		assert.Nil(t, got.User)
		assert.Empty(t, got.Flashes)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetSession(ctx, "6f1c2d3e-0000-4000-8000-000000000000")
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("purge", func(t *testing.T) {
		expired := &session.Session{ID: "1d2e3f40-5a6b-4c7d-8e9f-a0b1c2d3e4f5", ExpiresAt: now.Add(-time.Minute), UpdatedAt: now}
		require.NoError(t, repo.SaveSession(ctx, expired))

		n, err := repo.DeleteExpiredSessions(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		_, err = repo.GetSession(ctx, expired.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
		_, err = repo.GetSession(ctx, sess.ID)
		assert.NoError(t, err)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.DeleteSession(ctx, sess.ID))
		_, err := repo.GetSession(ctx, sess.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})
}
