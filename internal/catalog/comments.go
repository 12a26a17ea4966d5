package catalog

import (
	"context"
	"strings"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/models"
)

type newComment struct {
	Text string `json:"text" validate:"required,max=300"`
}

// AddComment leaves a comment on a video visible to actor.
func (s *Service) AddComment(ctx context.Context, actor access.Actor, videoID, text string) (models.Comment, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Comment{}, err
	}
	in := newComment{Text: strings.TrimSpace(text)}
	if err := s.validator.Validate(in); err != nil {
		return models.Comment{}, err
	}

	if _, err := s.GetVideo(ctx, actor, videoID); err != nil {
		return models.Comment{}, err
	}

	comment := models.Comment{
		ID:        s.newID(),
		Text:      in.Text,
		OwnerID:   actor.ID,
		VideoID:   videoID,
		CreatedAt: s.now(),
	}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		return models.Comment{}, fail("create comment", err)
	}
	return comment, nil
}

// ListComments returns the newest comments on a video visible to actor.
func (s *Service) ListComments(ctx context.Context, actor access.Actor, videoID string, limit int) ([]models.Comment, error) {
	if _, err := s.GetVideo(ctx, actor, videoID); err != nil {
		return nil, err
	}

	comments, err := s.comments.ListComments(ctx, videoID, clampLimit(limit, DefaultCommentLimit))
	if err != nil {
		return nil, fail("list comments", err)
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
