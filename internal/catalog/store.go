package catalog

import (
	"context"

	"github.com/oyt/backend/internal/models"
)

// VideoStore persists videos and their like sets.
//
// UpdateVideo and UpdatePlaylist run mutate against the freshest copy of the entity under
// the store's per-entity atomicity guarantee. mutate may run more than once when the
// store retries, so it must derive every change from its argument.
type VideoStore interface {
	CreateVideo(ctx context.Context, video models.Video) error
	FindVideo(ctx context.Context, id string) (models.Video, error)
	FindVideos(ctx context.Context, ids []string) ([]models.Video, error)
	ListVideos(ctx context.Context, query models.VideoQuery) ([]models.Video, error)
	UpdateVideo(ctx context.Context, id string, mutate func(*models.Video) error) (models.Video, error)
	DeleteVideo(ctx context.Context, id string) (models.Video, error)
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, comment models.Comment) error
	ListComments(ctx context.Context, videoID string, limit int) ([]models.Comment, error)
}

// PlaylistStore persists playlists and their ordered membership.
type PlaylistStore interface {
	CreatePlaylist(ctx context.Context, playlist models.Playlist) error
	FindPlaylist(ctx context.Context, id string) (models.Playlist, error)
	ListPlaylists(ctx context.Context, query models.PlaylistQuery) ([]models.Playlist, error)
	UpdatePlaylist(ctx context.Context, id string, mutate func(*models.Playlist) error) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, id string) error
}

// AccountStore removes a user with everything they own in one transaction and returns the
// videos that were deleted.
type AccountStore interface {
	DeleteUser(ctx context.Context, userID string) ([]models.Video, error)
}

// MediaRemover deletes the stored file and thumbnail behind a video path.
type MediaRemover interface {
	Remove(ctx context.Context, path string) error
}

// ThumbnailScheduler queues thumbnail rendering for a stored video.
type ThumbnailScheduler interface {
	Enqueue(path string) error
}
