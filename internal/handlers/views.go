package handlers

import (
	"time"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/media"
	"github.com/oyt/backend/internal/models"
)

type videoView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	IsPrivate   bool      `json:"isPrivate"`
	NumLikes    int       `json:"numLikes"`
	Liked       bool      `json:"liked"`
	MediaType   string    `json:"mediaType"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newVideoView(v models.Video, actor access.Actor) videoView {
	return videoView{
		ID:          v.ID,
		Title:       v.Title,
		Description: v.Description,
		OwnerID:     v.OwnerID,
		IsPrivate:   v.IsPrivate,
		NumLikes:    v.NumLikes,
		Liked:       actor.Authenticated() && v.HasLike(actor.ID),
		MediaType:   media.MediaType(v.Path),
		CreatedAt:   v.CreatedAt,
	}
}

func newVideoViews(videos []models.Video, actor access.Actor) []videoView {
	out := make([]videoView, 0, len(videos))
	for _, v := range videos {
		out = append(out, newVideoView(v, actor))
	}
	return out
}

type commentView struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	OwnerID   string    `json:"ownerId"`
	VideoID   string    `json:"videoId"`
	CreatedAt time.Time `json:"createdAt"`
}

func newCommentViews(comments []models.Comment) []commentView {
	out := make([]commentView, 0, len(comments))
	for _, c := range comments {
		out = append(out, commentView(c))
	}
	return out
}

type playlistView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	IsPrivate   bool      `json:"isPrivate"`
	VideoIDs    []string  `json:"videoIds"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newPlaylistView(p models.Playlist) playlistView {
	ids := p.VideoIDs
	if ids == nil {
		ids = []string{}
	}
	return playlistView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		IsPrivate:   p.IsPrivate,
		VideoIDs:    ids,
		CreatedAt:   p.CreatedAt,
	}
}

func newPlaylistViews(playlists []models.Playlist) []playlistView {
	out := make([]playlistView, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, newPlaylistView(p))
	}
	return out
}

type playlistDetailView struct {
	Playlist playlistView `json:"playlist"`
	Videos   []videoView  `json:"videos"`
}

func newPlaylistDetailView(view catalog.PlaylistView, actor access.Actor) playlistDetailView {
	return playlistDetailView{
		Playlist: newPlaylistView(view.Playlist),
		Videos:   newVideoViews(view.Videos, actor),
	}
}

type playlistEntryView struct {
	playlistDetailView
	Current videoView `json:"current"`
	NextID  string    `json:"nextId,omitempty"`
}

type userView struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserView(u models.User) userView {
	return userView{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		CreatedAt: u.CreatedAt,
	}
}

type tokensView struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

func newTokensView(t models.SessionTokens) tokensView {
	return tokensView(t)
}
