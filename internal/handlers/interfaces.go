package handlers

import (
	"context"
	"io"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/models"
)

// UserStore captures the account persistence used by the auth and user handlers.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	Update(ctx context.Context, user models.User) error
}

// SessionManager issues, resolves, refreshes and revokes bearer tokens.
type SessionManager interface {
	Issue(ctx context.Context, userID string) (models.SessionTokens, error)
	Resolve(ctx context.Context, accessToken string) (string, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Revoke(ctx context.Context, tokens ...string)
}

// Catalog is the visibility and ownership engine behind the video, playlist and user routes.
type Catalog interface {
	CreateVideo(ctx context.Context, actor access.Actor, in catalog.NewVideo) (models.Video, error)
	GetVideo(ctx context.Context, actor access.Actor, id string) (models.Video, error)
	ListVideos(ctx context.Context, actor access.Actor, opts catalog.VideoListOptions) ([]models.Video, error)
	EditVideo(ctx context.Context, actor access.Actor, id string, changes catalog.VideoChanges) (models.Video, error)
	ToggleLike(ctx context.Context, actor access.Actor, id string, like bool) (models.Video, error)
	DeleteVideo(ctx context.Context, actor access.Actor, id string) error

	AddComment(ctx context.Context, actor access.Actor, videoID, text string) (models.Comment, error)
	ListComments(ctx context.Context, actor access.Actor, videoID string, limit int) ([]models.Comment, error)

	CreatePlaylist(ctx context.Context, actor access.Actor, in catalog.NewPlaylist) (models.Playlist, error)
	GetPlaylist(ctx context.Context, actor access.Actor, id string) (catalog.PlaylistView, error)
	PlaylistEntry(ctx context.Context, actor access.Actor, playlistID, videoID string) (catalog.PlaylistEntry, error)
	ListPlaylists(ctx context.Context, actor access.Actor, opts catalog.PlaylistListOptions) ([]models.Playlist, error)
	ListOwnedPlaylists(ctx context.Context, actor access.Actor) ([]models.Playlist, error)
	EditPlaylist(ctx context.Context, actor access.Actor, id string, changes catalog.PlaylistChanges) (models.Playlist, error)
	DeletePlaylist(ctx context.Context, actor access.Actor, id string) error
	AddVideos(ctx context.Context, actor access.Actor, playlistID string, videoIDs []string) (models.Playlist, error)
	RemoveVideos(ctx context.Context, actor access.Actor, playlistID string, videoIDs []string) (models.Playlist, error)
	AddToPlaylists(ctx context.Context, actor access.Actor, videoID string, playlistIDs []string) ([]models.Playlist, error)

	DeleteUser(ctx context.Context, actor access.Actor, userID string) error
}

// MediaStore stores uploads and streams stored videos and thumbnails.
type MediaStore interface {
	Ingest(ctx context.Context, r io.Reader, fileName, declaredType, owner string) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
	OpenThumbnail(ctx context.Context, path string) (io.ReadCloser, error)
	Remove(ctx context.Context, path string) error
}

// InputValidator checks a request struct and reports failures as access.ErrInvalidInput.
type InputValidator interface {
	Validate(s any) error
}
