package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/oyt/backend/internal/auth"
	"github.com/oyt/backend/internal/db"
)

// PostgresSessionStore keeps issued bearer tokens in the sessions table. Rows go away with
// their user through the foreign key.
type PostgresSessionStore struct {
	pool db.Pool
}

var _ auth.SessionStore = (*PostgresSessionStore)(nil)

// NewPostgresSessionStore constructs a session store backed by PostgreSQL.
func NewPostgresSessionStore(pool db.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

// Save records a token. Saving a token for an unknown user fails with ErrNotFound.
func (s *PostgresSessionStore) Save(ctx context.Context, session auth.Session) error {
	return s.withConn(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, `
            INSERT INTO sessions (token, kind, user_id, expires_at)
            VALUES ($1, $2, $3, $4)
            ON CONFLICT (token) DO UPDATE
            SET kind = excluded.kind, user_id = excluded.user_id, expires_at = excluded.expires_at
        `, session.Token, string(session.Kind), session.UserID, session.ExpiresAt.UTC())
		if err != nil {
			return translatePgError(err, "save session")
		}
		return nil
	})
}

// Find loads the session for token or reports auth.ErrSessionNotFound.
func (s *PostgresSessionStore) Find(ctx context.Context, token string) (auth.Session, error) {
	var session auth.Session
	err := s.withConn(ctx, func(q db.Querier) error {
		rows, err := q.Query(ctx, `SELECT token, kind, user_id, expires_at FROM sessions WHERE token = $1`, token)
		if err != nil {
			return fmt.Errorf("select session: %w", err)
		}
		session, err = pgx.CollectExactlyOneRow(rows, scanSession)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return auth.ErrSessionNotFound
		case err != nil:
			return fmt.Errorf("scan session: %w", err)
		}
		return nil
	})
	return session, err
}

// Delete removes the session for token or reports auth.ErrSessionNotFound.
func (s *PostgresSessionStore) Delete(ctx context.Context, token string) error {
	return s.withConn(ctx, func(q db.Querier) error {
		tag, err := q.Exec(ctx, `DELETE FROM sessions WHERE token = $1`, token)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return auth.ErrSessionNotFound
		}
		return nil
	})
}

func (s *PostgresSessionStore) withConn(ctx context.Context, fn func(q db.Querier) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func scanSession(row pgx.CollectableRow) (auth.Session, error) {
	var (
		session auth.Session
		kind    string
	)
	if err := row.Scan(&session.Token, &kind, &session.UserID, &session.ExpiresAt); err != nil {
		return auth.Session{}, err
	}
	session.Kind = auth.TokenKind(kind)
	session.ExpiresAt = session.ExpiresAt.UTC()
	return session, nil
}
