package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/models"
)

// PlaylistHandler serves playlists and their membership.
type PlaylistHandler struct {
	Catalog Catalog
}

type videoIDsRequest struct {
	VideoIDs []string `json:"videoIds"`
}

// List handles GET /api/v1/playlists?q=&limit=.
func (h PlaylistHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, err := limitParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Catalog.ListPlaylists(ctx, access.ActorFromContext(ctx), catalog.PlaylistListOptions{
		Match: r.URL.Query().Get("q"),
		Limit: limit,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": newPlaylistViews(playlists)})
}

// Mine handles GET /api/v1/playlists/mine.
func (h PlaylistHandler) Mine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	playlists, err := h.Catalog.ListOwnedPlaylists(ctx, actor)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": newPlaylistViews(playlists)})
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req catalog.NewPlaylist
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Catalog.CreatePlaylist(ctx, actor, req)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, newPlaylistView(playlist))
}

// Get handles GET /api/v1/playlists/{id}.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)

	view, err := h.Catalog.GetPlaylist(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistDetailView(view, actor))
}

// Entry handles GET /api/v1/playlists/{id}/videos/{videoId}.
func (h PlaylistHandler) Entry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)

	entry, err := h.Catalog.PlaylistEntry(ctx, actor, chi.URLParam(r, "id"), chi.URLParam(r, "videoId"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, playlistEntryView{
		playlistDetailView: newPlaylistDetailView(entry.PlaylistView, actor),
		Current:            newVideoView(entry.Current, actor),
		NextID:             entry.NextID,
	})
}

// Edit handles PATCH /api/v1/playlists/{id}.
func (h PlaylistHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var changes catalog.PlaylistChanges
	if err := decodeJSON(w, r, &changes); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := h.Catalog.EditPlaylist(ctx, actor, chi.URLParam(r, "id"), changes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistView(playlist))
}

// Delete handles DELETE /api/v1/playlists/{id}.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeletePlaylist(ctx, actor, chi.URLParam(r, "id")); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddVideos handles POST /api/v1/playlists/{id}/videos.
func (h PlaylistHandler) AddVideos(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Catalog.AddVideos)
}

// RemoveVideos handles DELETE /api/v1/playlists/{id}/videos.
func (h PlaylistHandler) RemoveVideos(w http.ResponseWriter, r *http.Request) {
	h.changeMembership(w, r, h.Catalog.RemoveVideos)
}

type membershipChange func(ctx context.Context, actor access.Actor, playlistID string, videoIDs []string) (models.Playlist, error)

func (h PlaylistHandler) changeMembership(w http.ResponseWriter, r *http.Request, change membershipChange) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req videoIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlist, err := change(ctx, actor, chi.URLParam(r, "id"), req.VideoIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newPlaylistView(playlist))
}
