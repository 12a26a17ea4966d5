package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oyt/backend/internal/db"
	"github.com/oyt/backend/internal/models"
)

// PostgresUserRepository provides PostgreSQL-backed persistence for users.
type PostgresUserRepository struct {
	pool db.Pool
}

// NewPostgresUserRepository constructs a user repository backed by PostgreSQL.
func NewPostgresUserRepository(pool db.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, username, email, password_hash, first_name, last_name, created_at, updated_at`

// Create persists a new user record.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO users (id, username, email, password_hash, first_name, last_name, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `, user.ID, user.Username, user.Email, user.Password, user.FirstName, user.LastName, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if conflict := userConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// FindByID fetches a user by identifier.
func (r *PostgresUserRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	return r.findOne(ctx, "id", id)
}

// FindByEmail fetches a user by their email address.
func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, "email", email)
}

// FindByUsername fetches a user by their username.
func (r *PostgresUserRepository) FindByUsername(ctx context.Context, username string) (models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *PostgresUserRepository) findOne(ctx context.Context, column, value string) (models.User, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.User{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	// column is always one of the fixed names above.
	row := conn.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+column+` = $1`, value)

	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Password, &user.FirstName, &user.LastName, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user by %s: %w", column, err)
	}

	return user, nil
}

// Update modifies an existing user record.
func (r *PostgresUserRepository) Update(ctx context.Context, user models.User) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET email = $2, password_hash = $3, first_name = $4, last_name = $5, updated_at = $6
        WHERE id = $1
    `, user.ID, user.Email, user.Password, user.FirstName, user.LastName, user.UpdatedAt)
	if err != nil {
		if conflict := userConflict(err); conflict != nil {
			return conflict
		}
		return fmt.Errorf("update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteUser removes the user together with every video, playlist, comment, like and
// session they own, in a single transaction. Owned videos are pruned from all playlists
// before they are deleted. The removed videos are returned so their media can be cleaned up.
func (r *PostgresUserRepository) DeleteUser(ctx context.Context, userID string) ([]models.Video, error) {
	var removed []models.Video
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		videos, err := queryVideos(ctx, tx, `SELECT `+videoColumns+` FROM videos WHERE owner_id = $1 ORDER BY created_at`, userID)
		if err != nil {
			return err
		}

		statements := []struct {
			op  string
			sql string
		}{
			{"prune owned videos from playlists", `DELETE FROM playlist_videos WHERE video_id IN (SELECT id FROM videos WHERE owner_id = $1)`},
			{"delete comments on owned videos", `DELETE FROM comments WHERE video_id IN (SELECT id FROM videos WHERE owner_id = $1)`},
			{"delete likes on owned videos", `DELETE FROM video_likes WHERE video_id IN (SELECT id FROM videos WHERE owner_id = $1)`},
			{"delete owned videos", `DELETE FROM videos WHERE owner_id = $1`},
			{"delete owned playlist entries", `DELETE FROM playlist_videos WHERE playlist_id IN (SELECT id FROM playlists WHERE owner_id = $1)`},
			{"delete owned playlists", `DELETE FROM playlists WHERE owner_id = $1`},
			{"delete authored comments", `DELETE FROM comments WHERE owner_id = $1`},
			{"recount liked videos", `UPDATE videos SET num_likes = num_likes - 1 WHERE id IN (SELECT video_id FROM video_likes WHERE user_id = $1)`},
			{"delete likes", `DELETE FROM video_likes WHERE user_id = $1`},
			{"delete sessions", `DELETE FROM sessions WHERE user_id = $1`},
		}
		for _, stmt := range statements {
			if _, err := tx.Exec(ctx, stmt.sql, userID); err != nil {
				return fmt.Errorf("%s: %w", stmt.op, err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		removed = videos
		return nil
	})
	if err != nil {
		return nil, err
	}

	return removed, nil
}

func userConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return nil
	}
	switch {
	case strings.Contains(pgErr.ConstraintName, "username"), strings.Contains(pgErr.Message, "username"):
		return ErrUsernameTaken
	case strings.Contains(pgErr.ConstraintName, "email"), strings.Contains(pgErr.Message, "email"):
		return ErrEmailTaken
	default:
		return ErrConflict
	}
}

var _ UserRepository = (*PostgresUserRepository)(nil)
