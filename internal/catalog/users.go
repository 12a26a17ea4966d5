package catalog

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
)

const mediaCleanupConcurrency = 4

// DeleteUser removes an account together with its videos, playlists, comments and likes.
// Only the user may delete their own account. Media of the deleted videos is removed
// afterwards on a best-effort basis.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, userID string) error {
	ctx, span := logging.StartSpan(ctx, "catalog.DeleteUser")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID != userID {
		return access.ErrNotOwner
	}

	removed, err := s.accounts.DeleteUser(ctx, userID)
	if err != nil {
		return fail("delete user", err)
	}

	if s.media == nil || len(removed) == 0 {
		return nil
	}

	var g errgroup.Group
	g.SetLimit(mediaCleanupConcurrency)
	for _, video := range removed {
		video := video
		g.Go(func() error {
			s.removeMedia(ctx, video.Path)
			return nil
		})
	}
	_ = g.Wait()

	logging.FromContext(ctx).Info("user deleted", "userId", userID, "videos", len(removed))
	return nil
}
