// Package catalog applies the visibility and ownership rules to every video, playlist,
// like and comment operation and keeps derived state consistent.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
	"github.com/oyt/backend/internal/repositories"
	"github.com/oyt/backend/internal/validation"
)

const (
	// DefaultVideoLimit is the listing size used when none is requested.
	DefaultVideoLimit = 10
	// MaxListLimit caps every listing.
	MaxListLimit = 100
	// DefaultCommentLimit is the number of comments shown with a video.
	DefaultCommentLimit = 5
	// DefaultPlaylistLimit is the playlist listing size used when none is requested.
	DefaultPlaylistLimit = 10
)

// Service is the visibility and ownership engine.
type Service struct {
	videos     VideoStore
	comments   CommentStore
	playlists  PlaylistStore
	accounts   AccountStore
	media      MediaRemover
	thumbnails ThumbnailScheduler
	validator  *validation.Validator
	now        func() time.Time
	newID      func() string
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the time source used for creation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how entity ids are assigned.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithMedia sets the collaborator that removes stored files after deletions.
func WithMedia(media MediaRemover) Option {
	return func(s *Service) { s.media = media }
}

// WithThumbnails sets the queue that renders thumbnails for new videos.
func WithThumbnails(thumbnails ThumbnailScheduler) Option {
	return func(s *Service) { s.thumbnails = thumbnails }
}

// NewService wires the engine to its stores.
func NewService(videos VideoStore, comments CommentStore, playlists PlaylistStore, accounts AccountStore, opts ...Option) *Service {
	s := &Service{
		videos:    videos,
		comments:  comments,
		playlists: playlists,
		accounts:  accounts,
		validator: validation.New(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// translate maps store sentinels onto the access taxonomy. Errors raised by the engine
// itself pass through untouched.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return access.ErrNotFound
	case errors.Is(err, repositories.ErrUsernameTaken):
		return access.ErrDuplicateUsername
	case errors.Is(err, repositories.ErrEmailTaken):
		return access.ErrDuplicateEmail
	default:
		return err
	}
}

var taxonomy = []error{
	access.ErrNotFound,
	access.ErrNotOwner,
	access.ErrInvalidInput,
	access.ErrDuplicateUsername,
	access.ErrDuplicateEmail,
	access.ErrUnauthenticated,
}

// fail returns taxonomy failures as they are and wraps anything unexpected with op.
func fail(op string, err error) error {
	err = translate(err)
	for _, target := range taxonomy {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (s *Service) removeMedia(ctx context.Context, path string) {
	if s.media == nil || path == "" {
		return
	}
	if err := s.media.Remove(ctx, path); err != nil {
		logging.FromContext(ctx).Warn("media cleanup failed", "path", path, "error", err)
	}
}

func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
