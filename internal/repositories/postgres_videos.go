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

// PostgresVideoRepository provides PostgreSQL-backed persistence for videos and their likes.
type PostgresVideoRepository struct {
	pool db.Pool
}

// NewPostgresVideoRepository constructs a video repository backed by PostgreSQL.
func NewPostgresVideoRepository(pool db.Pool) *PostgresVideoRepository {
	return &PostgresVideoRepository{pool: pool}
}

const videoColumns = `id, owner_id, title, description, path, is_private, num_likes, created_at`

// CreateVideo stores a new video record with no likes.
func (r *PostgresVideoRepository) CreateVideo(ctx context.Context, video models.Video) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	_, err = conn.Exec(ctx, `
        INSERT INTO videos (id, owner_id, title, description, path, is_private, num_likes, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, 0, $7)
    `, video.ID, video.OwnerID, video.Title, video.Description, video.Path, video.IsPrivate, video.CreatedAt)
	if err != nil {
		return translatePgError(err, "insert video")
	}

	return nil
}

// FindVideo loads a video and its likes by id.
func (r *PostgresVideoRepository) FindVideo(ctx context.Context, id string) (models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Video{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	video, err := scanVideo(conn.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1`, id))
	if err != nil {
		return models.Video{}, err
	}

	video.Likes, err = loadLikes(ctx, conn, id)
	if err != nil {
		return models.Video{}, err
	}

	return video, nil
}

// FindVideos loads the videos that still exist among ids with their likes, in no
// particular order.
func (r *PostgresVideoRepository) FindVideos(ctx context.Context, ids []string) ([]models.Video, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	videos, err := queryVideos(ctx, conn, `SELECT `+videoColumns+` FROM videos WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	if err := attachLikes(ctx, conn, videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// ListVideos returns the videos visible to query.ViewerID. Visibility, the substring match
// and the limit are all applied by the database.
func (r *PostgresVideoRepository) ListVideos(ctx context.Context, query models.VideoQuery) ([]models.Video, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	sql, args := buildVideoListQuery(query)
	videos, err := queryVideos(ctx, conn, sql, args...)
	if err != nil {
		return nil, err
	}
	if err := attachLikes(ctx, conn, videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func buildVideoListQuery(query models.VideoQuery) (string, []any) {
	args := []any{query.ViewerID}
	where := []string{"(is_private = FALSE OR owner_id = $1)"}

	if query.OwnerID != "" {
		args = append(args, query.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if query.Match != "" {
		args = append(args, query.Match)
		where = append(where, fmt.Sprintf("(strpos(title, $%d) > 0 OR strpos(description, $%d) > 0)", len(args), len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + videoColumns + ` FROM videos WHERE `)
	b.WriteString(strings.Join(where, " AND "))

	switch query.Order {
	case models.OrderMostLikedFirst:
		b.WriteString(` ORDER BY num_likes DESC, created_at DESC, id DESC`)
	default:
		b.WriteString(` ORDER BY created_at DESC, id DESC`)
	}

	if query.Limit > 0 {
		args = append(args, query.Limit)
		fmt.Fprintf(&b, ` LIMIT $%d`, len(args))
	}

	return b.String(), args
}

// UpdateVideo applies mutate to the current row under a row lock and persists the
// metadata, the like set and num_likes in the same transaction. An error from mutate
// aborts the update and is returned unchanged.
func (r *PostgresVideoRepository) UpdateVideo(ctx context.Context, id string, mutate func(*models.Video) error) (models.Video, error) {
	var updated models.Video
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		video, err := scanVideo(tx.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		video.Likes, err = loadLikes(ctx, tx, id)
		if err != nil {
			return err
		}

		before := toSet(video.Likes)
		if err := mutate(&video); err != nil {
			return err
		}
		after := toSet(video.Likes)

		if _, err := tx.Exec(ctx, `
            UPDATE videos
            SET title = $2, description = $3, is_private = $4, num_likes = $5
            WHERE id = $1
        `, id, video.Title, video.Description, video.IsPrivate, video.NumLikes); err != nil {
			return fmt.Errorf("update video: %w", err)
		}

		for userID := range before {
			if _, ok := after[userID]; ok {
				continue
			}
			if _, err := tx.Exec(ctx, `DELETE FROM video_likes WHERE video_id = $1 AND user_id = $2`, id, userID); err != nil {
				return fmt.Errorf("delete video like: %w", err)
			}
		}
		for userID := range after {
			if _, ok := before[userID]; ok {
				continue
			}
			if _, err := tx.Exec(ctx, `
                INSERT INTO video_likes (video_id, user_id, created_at)
                VALUES ($1, $2, now())
                ON CONFLICT (video_id, user_id) DO NOTHING
            `, id, userID); err != nil {
				return translatePgError(err, "insert video like")
			}
		}

		updated = video
		return nil
	})
	if err != nil {
		return models.Video{}, err
	}

	return updated, nil
}

// DeleteVideo removes the video, prunes it from every playlist and deletes its comments
// and likes in one transaction, so no reader sees a playlist referencing a deleted video.
func (r *PostgresVideoRepository) DeleteVideo(ctx context.Context, id string) (models.Video, error) {
	var removed models.Video
	err := db.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		video, err := scanVideo(tx.QueryRow(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `DELETE FROM playlist_videos WHERE video_id = $1`, id); err != nil {
			return fmt.Errorf("prune video from playlists: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE video_id = $1`, id); err != nil {
			return fmt.Errorf("delete video comments: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM video_likes WHERE video_id = $1`, id); err != nil {
			return fmt.Errorf("delete video likes: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete video: %w", err)
		}

		removed = video
		return nil
	})
	if err != nil {
		return models.Video{}, err
	}

	return removed, nil
}

func scanVideo(row pgx.Row) (models.Video, error) {
	var video models.Video
	if err := row.Scan(&video.ID, &video.OwnerID, &video.Title, &video.Description, &video.Path, &video.IsPrivate, &video.NumLikes, &video.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Video{}, ErrNotFound
		}
		return models.Video{}, fmt.Errorf("scan video: %w", err)
	}
	video.CreatedAt = video.CreatedAt.UTC()
	return video, nil
}

func queryVideos(ctx context.Context, q db.Querier, sql string, args ...any) ([]models.Video, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}

	return videos, nil
}

func loadLikes(ctx context.Context, q db.Querier, videoID string) ([]string, error) {
	rows, err := q.Query(ctx, `SELECT user_id FROM video_likes WHERE video_id = $1 ORDER BY created_at, user_id`, videoID)
	if err != nil {
		return nil, fmt.Errorf("query video likes: %w", err)
	}
	defer rows.Close()

	likes := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan video like: %w", err)
		}
		likes = append(likes, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate video likes: %w", err)
	}

	return likes, nil
}

// attachLikes fills the like sets of videos with one query.
func attachLikes(ctx context.Context, q db.Querier, videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}

	ids := make([]string, len(videos))
	byID := make(map[string]int, len(videos))
	for i := range videos {
		ids[i] = videos[i].ID
		byID[videos[i].ID] = i
		videos[i].Likes = []string{}
	}

	rows, err := q.Query(ctx, `
        SELECT video_id, user_id FROM video_likes
        WHERE video_id = ANY($1)
        ORDER BY created_at, user_id
    `, ids)
	if err != nil {
		return fmt.Errorf("query video likes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var videoID, userID string
		if err := rows.Scan(&videoID, &userID); err != nil {
			return fmt.Errorf("scan video like: %w", err)
		}
		if i, ok := byID[videoID]; ok {
			videos[i].Likes = append(videos[i].Likes, userID)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate video likes: %w", err)
	}
	return nil
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
