package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
	"github.com/oyt/backend/internal/models"
)

// NewVideo describes an uploaded video that has already been stored at Path.
type NewVideo struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=300"`
	Path        string `json:"path" validate:"required"`
	IsPrivate   bool   `json:"isPrivate"`
}

// VideoChanges edits a video's metadata. Empty strings keep the current value and a nil
// IsPrivate keeps the current visibility.
type VideoChanges struct {
	Title       string `json:"title" validate:"max=100"`
	Description string `json:"description" validate:"max=300"`
	IsPrivate   *bool  `json:"isPrivate"`
}

// VideoListOptions narrows a video listing.
type VideoListOptions struct {
	Order   models.VideoOrder
	Match   string
	OwnerID string
	Limit   int
}

// CreateVideo records a stored upload and schedules its thumbnail. A thumbnail that cannot
// be scheduled is logged and does not fail the call.
func (s *Service) CreateVideo(ctx context.Context, actor access.Actor, in NewVideo) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.CreateVideo")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Video{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validator.Validate(in); err != nil {
		return models.Video{}, err
	}

	video := models.Video{
		ID:          s.newID(),
		Title:       in.Title,
		Description: in.Description,
		Path:        in.Path,
		OwnerID:     actor.ID,
		CreatedAt:   s.now(),
		IsPrivate:   in.IsPrivate,
		Likes:       []string{},
	}
	if err := s.videos.CreateVideo(ctx, video); err != nil {
		return models.Video{}, fail("create video", err)
	}

	if s.thumbnails != nil {
		if err := s.thumbnails.Enqueue(video.Path); err != nil {
			logging.FromContext(ctx).Warn("thumbnail not scheduled", "videoId", video.ID, "path", video.Path, "error", err)
		}
	}

	return video, nil
}

// GetVideo fetches a video. Private videos of other users are reported as ErrNotFound.
func (s *Service) GetVideo(ctx context.Context, actor access.Actor, id string) (models.Video, error) {
	video, err := s.videos.FindVideo(ctx, id)
	if err != nil {
		return models.Video{}, fail("find video", err)
	}
	if !access.VideoVisible(video, actor) {
		return models.Video{}, access.ErrNotFound
	}
	return video, nil
}

// ListVideos lists the videos visible to actor, newest or most liked first.
func (s *Service) ListVideos(ctx context.Context, actor access.Actor, opts VideoListOptions) ([]models.Video, error) {
	order := opts.Order
	switch order {
	case "":
		order = models.OrderRecentFirst
	case models.OrderRecentFirst, models.OrderMostLikedFirst:
	default:
		return nil, access.InvalidInput("order must be one of: %s %s", models.OrderRecentFirst, models.OrderMostLikedFirst)
	}

	videos, err := s.videos.ListVideos(ctx, models.VideoQuery{
		ViewerID: actor.ID,
		Order:    order,
		Match:    opts.Match,
		OwnerID:  opts.OwnerID,
		Limit:    clampLimit(opts.Limit, DefaultVideoLimit),
	})
	if err != nil {
		return nil, fail("list videos", err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// EditVideo changes the metadata of a video owned by actor.
func (s *Service) EditVideo(ctx context.Context, actor access.Actor, id string, changes VideoChanges) (models.Video, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.EditVideo")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Video{}, err
	}
	changes.Title = strings.TrimSpace(changes.Title)
	changes.Description = strings.TrimSpace(changes.Description)
	if err := s.validator.Validate(changes); err != nil {
		return models.Video{}, err
	}

	video, err := s.videos.UpdateVideo(ctx, id, func(v *models.Video) error {
		if !access.VideoVisible(*v, actor) {
			return access.ErrNotFound
		}
		if err := access.AssertOwner(v.OwnerID, actor); err != nil {
			return err
		}
		if changes.Title != "" {
			v.Title = changes.Title
		}
		if changes.Description != "" {
			v.Description = changes.Description
		}
		if changes.IsPrivate != nil {
			v.IsPrivate = *changes.IsPrivate
		}
		return nil
	})
	if err != nil {
		return models.Video{}, fail("edit video", err)
	}
	return video, nil
}

// ToggleLike adds actor to or removes actor from the likes of a visible video and keeps
// NumLikes equal to the size of the like set. Repeating a call has no further effect.
func (s *Service) ToggleLike(ctx context.Context, actor access.Actor, id string, like bool) (models.Video, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Video{}, err
	}

	video, err := s.videos.UpdateVideo(ctx, id, func(v *models.Video) error {
		if !access.VideoVisible(*v, actor) {
			return access.ErrNotFound
		}
		switch {
		case like && !v.HasLike(actor.ID):
			v.Likes = append(slices.Clone(v.Likes), actor.ID)
		case !like:
			v.Likes = slices.DeleteFunc(slices.Clone(v.Likes), func(userID string) bool { return userID == actor.ID })
		}
		v.NumLikes = len(v.Likes)
		return nil
	})
	if err != nil {
		return models.Video{}, fail("toggle like", err)
	}
	return video, nil
}

// DeleteVideo removes a video owned by actor, prunes it from every playlist and drops its
// comments and likes. The stored file and thumbnail are removed afterwards on a best-effort
// basis.
func (s *Service) DeleteVideo(ctx context.Context, actor access.Actor, id string) error {
	ctx, span := logging.StartSpan(ctx, "catalog.DeleteVideo")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return err
	}

	video, err := s.GetVideo(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := access.AssertOwner(video.OwnerID, actor); err != nil {
		return err
	}

	removed, err := s.videos.DeleteVideo(ctx, id)
	if err != nil {
		return fail("delete video", err)
	}

	s.removeMedia(ctx, removed.Path)
	return nil
}
