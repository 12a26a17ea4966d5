package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/logging"
	"github.com/oyt/backend/internal/models"
)

// NewPlaylist describes a playlist to create.
type NewPlaylist struct {
	Name        string   `json:"name" validate:"required,max=100"`
	Description string   `json:"description" validate:"max=300"`
	IsPrivate   bool     `json:"isPrivate"`
	VideoIDs    []string `json:"videoIds"`
}

// PlaylistChanges edits a playlist. Empty strings keep the current value and a nil
// IsPrivate keeps the current visibility.
type PlaylistChanges struct {
	Name        string `json:"name" validate:"max=100"`
	Description string `json:"description" validate:"max=300"`
	IsPrivate   *bool  `json:"isPrivate"`
}

// PlaylistListOptions narrows a playlist listing.
type PlaylistListOptions struct {
	Match string
	Limit int
}

// PlaylistView is a playlist with the member videos the actor may see, in playlist order.
type PlaylistView struct {
	Playlist models.Playlist
	Videos   []models.Video
}

// PlaylistEntry is one video played from within a playlist. NextID is the id of the
// following visible video, or empty at the end of the playlist.
type PlaylistEntry struct {
	PlaylistView
	Current models.Video
	NextID  string
}

// CreatePlaylist creates a playlist owned by actor. Initial video ids must exist;
// duplicates keep their first position.
func (s *Service) CreatePlaylist(ctx context.Context, actor access.Actor, in NewPlaylist) (models.Playlist, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.CreatePlaylist")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Playlist{}, err
	}
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := s.validator.Validate(in); err != nil {
		return models.Playlist{}, err
	}

	ids := appendMissing(nil, in.VideoIDs)
	if err := s.requireVideos(ctx, ids); err != nil {
		return models.Playlist{}, err
	}

	playlist := models.Playlist{
		ID:          s.newID(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     actor.ID,
		IsPrivate:   in.IsPrivate,
		VideoIDs:    ids,
		CreatedAt:   s.now(),
	}
	if err := s.playlists.CreatePlaylist(ctx, playlist); err != nil {
		return models.Playlist{}, fail("create playlist", err)
	}
	return playlist, nil
}

// GetPlaylist fetches a playlist visible to actor with its visible videos in order.
func (s *Service) GetPlaylist(ctx context.Context, actor access.Actor, id string) (PlaylistView, error) {
	playlist, err := s.findVisiblePlaylist(ctx, actor, id)
	if err != nil {
		return PlaylistView{}, err
	}

	found, err := s.videos.FindVideos(ctx, playlist.VideoIDs)
	if err != nil {
		return PlaylistView{}, fail("load playlist videos", err)
	}
	byID := make(map[string]models.Video, len(found))
	for _, video := range found {
		byID[video.ID] = video
	}

	videos := make([]models.Video, 0, len(playlist.VideoIDs))
	for _, videoID := range playlist.VideoIDs {
		video, ok := byID[videoID]
		if !ok || !access.VideoVisible(video, actor) {
			continue
		}
		videos = append(videos, video)
	}

	return PlaylistView{Playlist: playlist, Videos: videos}, nil
}

// PlaylistEntry fetches videoID as played from playlistID. The video must be a visible
// member of a visible playlist.
func (s *Service) PlaylistEntry(ctx context.Context, actor access.Actor, playlistID, videoID string) (PlaylistEntry, error) {
	view, err := s.GetPlaylist(ctx, actor, playlistID)
	if err != nil {
		return PlaylistEntry{}, err
	}

	idx := slices.IndexFunc(view.Videos, func(v models.Video) bool { return v.ID == videoID })
	if idx < 0 {
		return PlaylistEntry{}, access.ErrNotFound
	}

	current, err := s.GetVideo(ctx, actor, videoID)
	if err != nil {
		return PlaylistEntry{}, err
	}

	entry := PlaylistEntry{PlaylistView: view, Current: current}
	if idx+1 < len(view.Videos) {
		entry.NextID = view.Videos[idx+1].ID
	}
	return entry, nil
}

// ListPlaylists lists the playlists visible to actor ordered by name.
func (s *Service) ListPlaylists(ctx context.Context, actor access.Actor, opts PlaylistListOptions) ([]models.Playlist, error) {
	playlists, err := s.playlists.ListPlaylists(ctx, models.PlaylistQuery{
		ViewerID: actor.ID,
		Match:    opts.Match,
		Limit:    clampLimit(opts.Limit, DefaultPlaylistLimit),
	})
	if err != nil {
		return nil, fail("list playlists", err)
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return playlists, nil
}

// ListOwnedPlaylists lists every playlist owned by actor ordered by name.
func (s *Service) ListOwnedPlaylists(ctx context.Context, actor access.Actor) ([]models.Playlist, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}

	playlists, err := s.playlists.ListPlaylists(ctx, models.PlaylistQuery{
		ViewerID: actor.ID,
		OwnerID:  actor.ID,
	})
	if err != nil {
		return nil, fail("list owned playlists", err)
	}
	if playlists == nil {
		playlists = []models.Playlist{}
	}
	return playlists, nil
}

// EditPlaylist changes the metadata of a playlist owned by actor.
func (s *Service) EditPlaylist(ctx context.Context, actor access.Actor, id string, changes PlaylistChanges) (models.Playlist, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Playlist{}, err
	}
	changes.Name = strings.TrimSpace(changes.Name)
	changes.Description = strings.TrimSpace(changes.Description)
	if err := s.validator.Validate(changes); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.UpdatePlaylist(ctx, id, func(p *models.Playlist) error {
		if err := guardPlaylist(*p, actor); err != nil {
			return err
		}
		if changes.Name != "" {
			p.Name = changes.Name
		}
		if changes.Description != "" {
			p.Description = changes.Description
		}
		if changes.IsPrivate != nil {
			p.IsPrivate = *changes.IsPrivate
		}
		return nil
	})
	if err != nil {
		return models.Playlist{}, fail("edit playlist", err)
	}
	return playlist, nil
}

// DeletePlaylist removes a playlist owned by actor. Member videos are untouched.
func (s *Service) DeletePlaylist(ctx context.Context, actor access.Actor, id string) error {
	if err := access.RequireAuthenticated(actor); err != nil {
		return err
	}

	playlist, err := s.findVisiblePlaylist(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := access.AssertOwner(playlist.OwnerID, actor); err != nil {
		return err
	}

	if err := s.playlists.DeletePlaylist(ctx, id); err != nil {
		return fail("delete playlist", err)
	}
	return nil
}

// AddVideos appends each video id not already present, keeping first-seen order, in a
// single atomic update. Only playlist ownership is checked; the videos need to exist but
// may belong to anyone.
func (s *Service) AddVideos(ctx context.Context, actor access.Actor, playlistID string, videoIDs []string) (models.Playlist, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Playlist{}, err
	}
	if len(videoIDs) == 0 {
		return models.Playlist{}, access.InvalidInput("videoIds is required")
	}

	current, err := s.findVisiblePlaylist(ctx, actor, playlistID)
	if err != nil {
		return models.Playlist{}, err
	}
	if err := access.AssertOwner(current.OwnerID, actor); err != nil {
		return models.Playlist{}, err
	}
	if err := s.requireVideos(ctx, videoIDs); err != nil {
		return models.Playlist{}, err
	}

	playlist, err := s.playlists.UpdatePlaylist(ctx, playlistID, func(p *models.Playlist) error {
		if err := guardPlaylist(*p, actor); err != nil {
			return err
		}
		p.VideoIDs = appendMissing(p.VideoIDs, videoIDs)
		return nil
	})
	if err != nil {
		return models.Playlist{}, fail("add playlist videos", err)
	}
	return playlist, nil
}

// RemoveVideos removes each listed id that is present in a single atomic update. Ids that
// are not members are skipped.
func (s *Service) RemoveVideos(ctx context.Context, actor access.Actor, playlistID string, videoIDs []string) (models.Playlist, error) {
	if err := access.RequireAuthenticated(actor); err != nil {
		return models.Playlist{}, err
	}
	if len(videoIDs) == 0 {
		return models.Playlist{}, access.InvalidInput("videoIds is required")
	}

	remove := make(map[string]struct{}, len(videoIDs))
	for _, id := range videoIDs {
		remove[id] = struct{}{}
	}

	playlist, err := s.playlists.UpdatePlaylist(ctx, playlistID, func(p *models.Playlist) error {
		if err := guardPlaylist(*p, actor); err != nil {
			return err
		}
		p.VideoIDs = slices.DeleteFunc(slices.Clone(p.VideoIDs), func(id string) bool {
			_, ok := remove[id]
			return ok
		})
		return nil
	})
	if err != nil {
		return models.Playlist{}, fail("remove playlist videos", err)
	}
	return playlist, nil
}

// AddToPlaylists adds one video to several playlists owned by actor. Every playlist is
// checked before any of them changes; each update is atomic on its own.
func (s *Service) AddToPlaylists(ctx context.Context, actor access.Actor, videoID string, playlistIDs []string) ([]models.Playlist, error) {
	ctx, span := logging.StartSpan(ctx, "catalog.AddToPlaylists")
	defer span.End()

	if err := access.RequireAuthenticated(actor); err != nil {
		return nil, err
	}
	playlistIDs = appendMissing(nil, playlistIDs)
	if len(playlistIDs) == 0 {
		return nil, access.InvalidInput("playlistIds is required")
	}

	if err := s.requireVideos(ctx, []string{videoID}); err != nil {
		return nil, err
	}
	for _, id := range playlistIDs {
		playlist, err := s.findVisiblePlaylist(ctx, actor, id)
		if err != nil {
			return nil, err
		}
		if err := access.AssertOwner(playlist.OwnerID, actor); err != nil {
			return nil, err
		}
	}

	updated := make([]models.Playlist, 0, len(playlistIDs))
	for _, id := range playlistIDs {
		playlist, err := s.playlists.UpdatePlaylist(ctx, id, func(p *models.Playlist) error {
			if err := guardPlaylist(*p, actor); err != nil {
				return err
			}
			p.VideoIDs = appendMissing(p.VideoIDs, []string{videoID})
			return nil
		})
		if err != nil {
			return nil, fail("add video to playlist", err)
		}
		updated = append(updated, playlist)
	}
	return updated, nil
}

func (s *Service) findVisiblePlaylist(ctx context.Context, actor access.Actor, id string) (models.Playlist, error) {
	playlist, err := s.playlists.FindPlaylist(ctx, id)
	if err != nil {
		return models.Playlist{}, fail("find playlist", err)
	}
	if !access.PlaylistVisible(playlist, actor) {
		return models.Playlist{}, access.ErrNotFound
	}
	return playlist, nil
}

// requireVideos fails with ErrNotFound unless every id names an existing video.
func (s *Service) requireVideos(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.videos.FindVideos(ctx, ids)
	if err != nil {
		return fail("find videos", err)
	}
	existing := make(map[string]struct{}, len(found))
	for _, video := range found {
		existing[video.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := existing[id]; !ok {
			return access.ErrNotFound
		}
	}
	return nil
}

func guardPlaylist(p models.Playlist, actor access.Actor) error {
	if !access.PlaylistVisible(p, actor) {
		return access.ErrNotFound
	}
	return access.AssertOwner(p.OwnerID, actor)
}

// appendMissing appends the ids of add not yet in ids, in first-seen order.
func appendMissing(ids, add []string) []string {
	out := slices.Clone(ids)
	if out == nil {
		out = []string{}
	}
	seen := make(map[string]struct{}, len(out)+len(add))
	for _, id := range out {
		seen[id] = struct{}{}
	}
	for _, id := range add {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
