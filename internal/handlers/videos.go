package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/logging"
	"github.com/oyt/backend/internal/media"
	"github.com/oyt/backend/internal/models"
	"github.com/oyt/backend/internal/storage"
)

const (
	defaultMaxUpload = 100 << 20
	multipartMemory  = 32 << 20
)

// VideoHandler serves video uploads, listings, likes, comments and media streams.
type VideoHandler struct {
	Catalog        Catalog
	Media          MediaStore
	Validator      InputValidator
	MaxUploadBytes int64
}

type uploadForm struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=300"`
}

type likeRequest struct {
	Like *bool `json:"like" validate:"required"`
}

type commentRequest struct {
	Text string `json:"text"`
}

type playlistIDsRequest struct {
	PlaylistIDs []string `json:"playlistIds"`
}

// List handles GET /api/v1/videos?order=recent|liked&q=&owner=&limit=.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)
	query := r.URL.Query()

	limit, err := limitParam(query.Get("limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	videos, err := h.Catalog.ListVideos(ctx, actor, catalog.VideoListOptions{
		Order:   models.VideoOrder(query.Get("order")),
		Match:   query.Get("q"),
		OwnerID: query.Get("owner"),
		Limit:   limit,
	})
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"videos": newVideoViews(videos, actor)})
}

// Create handles the multipart upload at POST /api/v1/videos. The file is stored first and
// removed again if the video record cannot be created.
func (h VideoHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMessage(ctx, w, http.StatusRequestEntityTooLarge, "upload exceeds the size limit")
			return
		}
		respondError(ctx, w, access.InvalidInput("invalid multipart form: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := uploadForm{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
	if err := h.Validator.Validate(form); err != nil {
		respondError(ctx, w, err)
		return
	}
	private, err := formBool(r.FormValue("is_private"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(ctx, w, access.InvalidInput("video file is required"))
		return
	}
	defer file.Close()

	path, err := h.Media.Ingest(ctx, file, header.Filename, header.Header.Get("Content-Type"), actor.ID)
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Catalog.CreateVideo(ctx, actor, catalog.NewVideo{
		Title:       form.Title,
		Description: form.Description,
		Path:        path,
		IsPrivate:   private,
	})
	if err != nil {
		if rmErr := h.Media.Remove(context.WithoutCancel(ctx), path); rmErr != nil {
			logger.Warn("remove orphaned upload", "path", path, "error", rmErr)
		}
		respondError(ctx, w, err)
		return
	}

	respondJSON(ctx, w, http.StatusCreated, newVideoView(video, actor))
}

// Get handles GET /api/v1/videos/{id}.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)

	video, err := h.Catalog.GetVideo(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoView(video, actor))
}

// Edit handles PATCH /api/v1/videos/{id}.
func (h VideoHandler) Edit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var changes catalog.VideoChanges
	if err := decodeJSON(w, r, &changes); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Catalog.EditVideo(ctx, actor, chi.URLParam(r, "id"), changes)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoView(video, actor))
}

// Delete handles DELETE /api/v1/videos/{id}.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	if err := h.Catalog.DeleteVideo(ctx, actor, chi.URLParam(r, "id")); err != nil {
		respondError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Like handles PUT /api/v1/videos/{id}/like with body {"like": bool}.
func (h VideoHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req likeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}
	if err := h.Validator.Validate(req); err != nil {
		respondError(ctx, w, err)
		return
	}

	video, err := h.Catalog.ToggleLike(ctx, actor, chi.URLParam(r, "id"), *req.Like)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, newVideoView(video, actor))
}

// ListComments handles GET /api/v1/videos/{id}/comments?limit=.
func (h VideoHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)

	limit, err := limitParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	comments, err := h.Catalog.ListComments(ctx, actor, chi.URLParam(r, "id"), limit)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"comments": newCommentViews(comments)})
}

// AddComment handles POST /api/v1/videos/{id}/comments.
func (h VideoHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	comment, err := h.Catalog.AddComment(ctx, actor, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusCreated, commentView(comment))
}

// AddToPlaylists handles POST /api/v1/videos/{id}/playlists.
func (h VideoHandler) AddToPlaylists(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req playlistIDsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, err)
		return
	}

	playlists, err := h.Catalog.AddToPlaylists(ctx, actor, chi.URLParam(r, "id"), req.PlaylistIDs)
	if err != nil {
		respondError(ctx, w, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, map[string]any{"playlists": newPlaylistViews(playlists)})
}

// Stream handles GET /api/v1/videos/{id}/stream.
func (h VideoHandler) Stream(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, h.Media.Open, func(v models.Video) string {
		if ext := media.MediaType(v.Path); ext != "" {
			return "video/" + ext
		}
		return "application/octet-stream"
	})
}

// Thumbnail handles GET /api/v1/videos/{id}/thumbnail.
func (h VideoHandler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveMedia(w, r, h.Media.OpenThumbnail, func(models.Video) string { return "image/jpeg" })
}

// serveMedia checks visibility before opening the stored object, so private media is never
// served to anyone but its owner.
func (h VideoHandler) serveMedia(w http.ResponseWriter, r *http.Request, open func(context.Context, string) (io.ReadCloser, error), contentType func(models.Video) string) {
	ctx := r.Context()
	actor := access.ActorFromContext(ctx)

	video, err := h.Catalog.GetVideo(ctx, actor, chi.URLParam(r, "id"))
	if err != nil {
		respondError(ctx, w, err)
		return
	}

	body, err := open(ctx, video.Path)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			respondError(ctx, w, access.ErrNotFound)
			return
		}
		respondError(ctx, w, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType(video))
	if seeker, ok := body.(io.ReadSeeker); ok {
		http.ServeContent(w, r, "", video.CreatedAt, seeker)
		return
	}
	if _, err := io.Copy(w, body); err != nil {
		logging.FromContext(ctx).Warn("stream interrupted", "videoId", video.ID, "error", err)
	}
}

func (h VideoHandler) maxUpload() int64 {
	if h.MaxUploadBytes > 0 {
		return h.MaxUploadBytes
	}
	return defaultMaxUpload
}

func limitParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, access.InvalidInput("limit must be a non-negative integer")
	}
	return limit, nil
}

func formBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "off", "no":
		return false, nil
	case "1", "true", "on", "yes":
		return true, nil
	}
	return false, access.InvalidInput("is_private must be a boolean")
}
