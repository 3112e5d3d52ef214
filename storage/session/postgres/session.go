package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/matkerbino/murim/core/api"
	"github.com/matkerbino/murim/core/session"
)

type sessionRow struct {
	ID        string    `db:"id"`
	Token     string    `db:"token"`
	UserData  null.JSON `db:"user_data"`
	Flashes   null.JSON `db:"flashes"`
	ExpiresAt time.Time `db:"expires_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row sessionRow) toSession() (*session.Session, error) {
	sess := &session.Session{
		ID:        row.ID,
		Token:     row.Token,
		ExpiresAt: row.ExpiresAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
	if row.UserData.Valid {
		var usr api.Usuario
		if err := row.UserData.Unmarshal(&usr); err != nil {
			return nil, errors.Wrap(err, "decoding session user")
		}
		sess.User = &usr
	}
	if row.Flashes.Valid {
		if err := row.Flashes.Unmarshal(&sess.Flashes); err != nil {
			return nil, errors.Wrap(err, "decoding session flashes")
		}
	}
	return sess, nil
}

func fromSession(sess *session.Session) (sessionRow, error) {
	row := sessionRow{
		ID:        sess.ID,
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		UpdatedAt: sess.UpdatedAt,
	}
	if sess.User != nil {
		data, err := json.Marshal(sess.User)
		if err != nil {
			return row, errors.Wrap(err, "encoding session user")
		}
		row.UserData = null.JSONFrom(data)
	}
	if len(sess.Flashes) > 0 {
		data, err := json.Marshal(sess.Flashes)
		if err != nil {
			return row, errors.Wrap(err, "encoding session flashes")
		}
		row.Flashes = null.JSONFrom(data)
	}
	return row, nil
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ session.Repository = (*sessionRepository)(nil)

func NewSessionRepository(db *sqlx.DB) session.Repository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (*session.Session, error) {
	var row sessionRow
	q := `SELECT id, token, user_data, flashes, expires_at, updated_at FROM sessions WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, errors.Wrap(err, "selecting session")
	}
	return row.toSession()
}

func (repo *sessionRepository) SaveSession(ctx context.Context, sess *session.Session) error {
	row, err := fromSession(sess)
	if err != nil {
		return err
	}
	q := `
		INSERT INTO sessions (id, token, user_data, flashes, expires_at, updated_at)
		VALUES (:id, :token, :user_data, :flashes, :expires_at, :updated_at)
		ON CONFLICT (id) DO UPDATE SET
			token = EXCLUDED.token,
			user_data = EXCLUDED.user_data,
			flashes = EXCLUDED.flashes,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at`
	_, err = repo.db.NamedExecContext(ctx, q, row)
	return errors.Wrap(err, "upserting session")
}

func (repo *sessionRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return errors.Wrap(err, "deleting session")
}

func (repo *sessionRepository) DeleteExpiredSessions(ctx context.Context, now time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired sessions")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting deleted sessions")
}
