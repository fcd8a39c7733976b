package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/reelroom/backend/internal/auth"
	"github.com/reelroom/backend/internal/db"
)

type sessionRow struct {
	Token     string    `db:"token"`
	UserID    string    `db:"user_id"`
	Kind      string    `db:"kind"`
	ExpiresAt time.Time `db:"expires_at"`
}

// PostgresSessionStore keeps issued tokens in the sessions table so they
// survive restarts and are shared between replicas.
type PostgresSessionStore struct {
	pool db.Pool
}

func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save upserts the session keyed by its token.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        UPSERT INTO sessions (token, user_id, kind, expires_at)
        VALUES ($1, $2, $3, $4)
    `, session.Token, session.UserID, string(session.Kind), session.ExpiresAt.UTC())
	switch {
	case isPgCode(err, pgForeignKeyViolation):
		return fmt.Errorf("save session for %s: %w", session.UserID, ErrNotFound)
	case err != nil:
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *PostgresSessionStore) Find(ctx context.Context, token string) (auth.Session, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return auth.Session{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, `SELECT token, user_id, kind, expires_at FROM sessions WHERE token = $1`, token)
	if err != nil {
		return auth.Session{}, fmt.Errorf("query session: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[sessionRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	if err != nil {
		return auth.Session{}, fmt.Errorf("scan session: %w", err)
	}

	return auth.Session{
		Token:     row.Token,
		UserID:    row.UserID,
		Kind:      auth.TokenKind(row.Kind),
		ExpiresAt: row.ExpiresAt.UTC(),
	}, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, token string) error {
	removed, err := s.exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if removed == 0 {
		return auth.ErrSessionNotFound
	}
	return nil
}

// DeleteExpired drops every session that expired before cutoff.
func (s *PostgresSessionStore) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	removed, err := s.exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return removed, nil
}

func (s *PostgresSessionStore) exec(ctx context.Context, query string, arg any) (int64, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, query, arg)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var (
	_ auth.SessionStore         = (*PostgresSessionStore)(nil)
	_ auth.ExpiredSessionPurger = (*PostgresSessionStore)(nil)
)
