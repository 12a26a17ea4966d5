package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/oyt/backend/internal/db"
	"github.com/oyt/backend/internal/models"
)

// PostgresPlaylistRepository provides PostgreSQL-backed persistence for playlists and
// their ordered membership.
type PostgresPlaylistRepository struct {
	pool db.Pool
}

// NewPostgresPlaylistRepository constructs a playlist repository backed by PostgreSQL.
func NewPostgresPlaylistRepository(pool db.Pool) *PostgresPlaylistRepository {
	return &PostgresPlaylistRepository{pool: pool}
}

const playlistColumns = `id, owner_id, name, description, is_private, created_at`

// CreatePlaylist stores a new playlist together with its initial video ids.
func (r *PostgresPlaylistRepository) CreatePlaylist(ctx context.Context, playlist models.Playlist) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
            INSERT INTO playlists (id, owner_id, name, description, is_private, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)
        `, playlist.ID, playlist.OwnerID, playlist.Name, playlist.Description, playlist.IsPrivate, playlist.CreatedAt); err != nil {
			return translatePgError(err, "insert playlist")
		}
		return writePlaylistVideos(ctx, tx, playlist.ID, playlist.VideoIDs)
	})
}

// FindPlaylist loads a playlist and its ordered video ids.
func (r *PostgresPlaylistRepository) FindPlaylist(ctx context.Context, id string) (models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	playlist, err := scanPlaylist(conn.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1`, id))
	if err != nil {
		return models.Playlist{}, err
	}

	ids, err := loadPlaylistVideos(ctx, conn, []string{id})
	if err != nil {
		return models.Playlist{}, err
	}
	playlist.VideoIDs = ids[id]
	if playlist.VideoIDs == nil {
		playlist.VideoIDs = []string{}
	}

	return playlist, nil
}

// ListPlaylists returns the playlists visible to query.ViewerID ordered by name.
func (r *PostgresPlaylistRepository) ListPlaylists(ctx context.Context, query models.PlaylistQuery) ([]models.Playlist, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	args := []any{query.ViewerID}
	where := []string{"(is_private = FALSE OR owner_id = $1)"}
	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if query.Match != "" {
		args = append(args, query.Match)
		where = append(where, fmt.Sprintf("(strpos(name, $%d) > 0 OR strpos(description, $%d) > 0)", len(args), len(args)))
	}

	sql := `SELECT ` + playlistColumns + ` FROM playlists WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name ASC, id ASC`
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += fmt.Sprintf(` LIMIT $%d`, len(args))
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query playlists: %w", err)
	}
	var playlists []models.Playlist
	for rows.Next() {
		playlist, err := scanPlaylist(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		playlists = append(playlists, playlist)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlists: %w", err)
	}

	if len(playlists) == 0 {
		return playlists, nil
	}

	ids := make([]string, len(playlists))
	for i, playlist := range playlists {
		ids[i] = playlist.ID
	}
	members, err := loadPlaylistVideos(ctx, conn, ids)
	if err != nil {
		return nil, err
	}
	for i := range playlists {
		playlists[i].VideoIDs = members[playlists[i].ID]
		if playlists[i].VideoIDs == nil {
			playlists[i].VideoIDs = []string{}
		}
	}

	return playlists, nil
}

// UpdatePlaylist applies mutate to the current playlist under a row lock and rewrites the
// metadata and the ordered membership in the same transaction. Referencing a video that
// does not exist yields ErrNotFound and leaves the playlist untouched.
func (r *PostgresPlaylistRepository) UpdatePlaylist(ctx context.Context, id string, mutate func(*models.Playlist) error) (models.Playlist, error) {
	var updated models.Playlist
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		playlist, err := scanPlaylist(tx.QueryRow(ctx, `SELECT `+playlistColumns+` FROM playlists WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		ids, err := loadPlaylistVideos(ctx, tx, []string{id})
		if err != nil {
			return err
		}
		playlist.VideoIDs = ids[id]
		if playlist.VideoIDs == nil {
			playlist.VideoIDs = []string{}
		}

		if err := mutate(&playlist); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
            UPDATE playlists
            SET name = $2, description = $3, is_private = $4
            WHERE id = $1
        `, id, playlist.Name, playlist.Description, playlist.IsPrivate); err != nil {
			return fmt.Errorf("update playlist: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
			return fmt.Errorf("clear playlist videos: %w", err)
		}
		if err := writePlaylistVideos(ctx, tx, id, playlist.VideoIDs); err != nil {
			return err
		}

		updated = playlist
		return nil
	})
	if err != nil {
		return models.Playlist{}, err
	}

	return updated, nil
}

// DeletePlaylist removes a playlist and its membership rows.
func (r *PostgresPlaylistRepository) DeletePlaylist(ctx context.Context, id string) error {
	return db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE playlist_id = $1`, id); err != nil {
			return fmt.Errorf("delete playlist videos: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM playlists WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete playlist: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func writePlaylistVideos(ctx context.Context, tx pgx.Tx, playlistID string, videoIDs []string) error {
	for position, videoID := range videoIDs {
		if _, err := tx.Exec(ctx, `
            INSERT INTO playlist_videos (playlist_id, video_id, position)
            VALUES ($1, $2, $3)
        `, playlistID, videoID, position); err != nil {
			return translatePgError(err, "insert playlist video")
		}
	}
	return nil
}

func loadPlaylistVideos(ctx context.Context, q db.Querier, playlistIDs []string) (map[string][]string, error) {
	rows, err := q.Query(ctx, `
        SELECT playlist_id, video_id
        FROM playlist_videos
        WHERE playlist_id = ANY($1)
        ORDER BY playlist_id, position
    `, playlistIDs)
	if err != nil {
		return nil, fmt.Errorf("query playlist videos: %w", err)
	}
	defer rows.Close()

	members := make(map[string][]string, len(playlistIDs))
	for rows.Next() {
		var playlistID, videoID string
		if err := rows.Scan(&playlistID, &videoID); err != nil {
			return nil, fmt.Errorf("scan playlist video: %w", err)
		}
		members[playlistID] = append(members[playlistID], videoID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate playlist videos: %w", err)
	}

	return members, nil
}

func scanPlaylist(row pgx.Row) (models.Playlist, error) {
	var playlist models.Playlist
	if err := row.Scan(&playlist.ID, &playlist.OwnerID, &playlist.Name, &playlist.Description, &playlist.IsPrivate, &playlist.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Playlist{}, ErrNotFound
		}
		return models.Playlist{}, fmt.Errorf("scan playlist: %w", err)
	}
	playlist.CreatedAt = playlist.CreatedAt.UTC()
	return playlist, nil
}
