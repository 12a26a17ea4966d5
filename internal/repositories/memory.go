package repositories

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/auth"
	"github.com/oyt/backend/internal/models"
)

// MemoryStore keeps users, sessions, videos, comments and playlists in process memory.
// It enforces the same references as the PostgreSQL schema, so a write pointing at a
// missing user or video fails with ErrNotFound. Every mutation holds a store-wide lock.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	sessions  map[string]auth.Session
	videos    map[string]models.Video
	comments  map[string]models.Comment
	playlists map[string]models.Playlist
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]models.User),
		sessions:  make(map[string]auth.Session),
		videos:    make(map[string]models.Video),
		comments:  make(map[string]models.Comment),
		playlists: make(map[string]models.Playlist),
	}
}

// Create stores a new user. The username is checked before the email.
func (s *MemoryStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return ErrConflict
	}
	for _, existing := range s.users {
		if existing.Username == user.Username {
			return ErrUsernameTaken
		}
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	s.users[user.ID] = user
	return nil
}

// FindByID fetches a user by identifier.
func (s *MemoryStore) FindByID(_ context.Context, id string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.ID == id })
}

// FindByEmail fetches a user by email address.
func (s *MemoryStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Email == email })
}

// FindByUsername fetches a user by username.
func (s *MemoryStore) FindByUsername(_ context.Context, username string) (models.User, error) {
	return s.findUser(func(u models.User) bool { return u.Username == username })
}

func (s *MemoryStore) findUser(match func(models.User) bool) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if match(user) {
			return user, nil
		}
	}
	return models.User{}, ErrNotFound
}

// Update replaces the mutable fields of an existing user.
func (s *MemoryStore) Update(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.users[user.ID]
	if !ok {
		return ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return ErrEmailTaken
		}
	}

	current.Email = user.Email
	current.Password = user.Password
	current.FirstName = user.FirstName
	current.LastName = user.LastName
	current.UpdatedAt = user.UpdatedAt
	s.users[user.ID] = current
	return nil
}

// DeleteUser removes the user and everything they own and returns their videos.
func (s *MemoryStore) DeleteUser(_ context.Context, userID string) ([]models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, ErrNotFound
	}

	var removed []models.Video
	for id, video := range s.videos {
		if video.OwnerID == userID {
			removed = append(removed, cloneVideo(video))
			s.deleteVideoLocked(id)
		}
	}
	slices.SortFunc(removed, func(a, b models.Video) int { return a.CreatedAt.Compare(b.CreatedAt) })

	for id, playlist := range s.playlists {
		if playlist.OwnerID == userID {
			delete(s.playlists, id)
		}
	}
	for id, comment := range s.comments {
		if comment.OwnerID == userID {
			delete(s.comments, id)
		}
	}
	for id, video := range s.videos {
		if !video.HasLike(userID) {
			continue
		}
		video.Likes = slices.DeleteFunc(slices.Clone(video.Likes), func(like string) bool { return like == userID })
		video.NumLikes = len(video.Likes)
		s.videos[id] = video
	}
	for token, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, token)
		}
	}
	delete(s.users, userID)

	return removed, nil
}

// Save stores or replaces a session.
func (s *MemoryStore) Save(_ context.Context, session auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[session.UserID]; !ok {
		return ErrNotFound
	}
	s.sessions[session.Token] = session
	return nil
}

// Find loads a session by its token.
func (s *MemoryStore) Find(_ context.Context, token string) (auth.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return auth.Session{}, auth.ErrSessionNotFound
	}
	return session, nil
}

// Delete removes a session by its token.
func (s *MemoryStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[token]; !ok {
		return auth.ErrSessionNotFound
	}
	delete(s.sessions, token)
	return nil
}

// CreateVideo stores a new video with no likes.
func (s *MemoryStore) CreateVideo(_ context.Context, video models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.videos[video.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[video.OwnerID]; !ok {
		return ErrNotFound
	}

	video.Likes = []string{}
	video.NumLikes = 0
	s.videos[video.ID] = video
	return nil
}

// FindVideo loads a video and its likes by id.
func (s *MemoryStore) FindVideo(_ context.Context, id string) (models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	return cloneVideo(video), nil
}

// FindVideos loads the videos that still exist among ids.
func (s *MemoryStore) FindVideos(_ context.Context, ids []string) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var videos []models.Video
	for _, id := range ids {
		if video, ok := s.videos[id]; ok {
			videos = append(videos, cloneVideo(video))
		}
	}
	return videos, nil
}

// ListVideos returns the videos visible to query.ViewerID in the requested order.
func (s *MemoryStore) ListVideos(_ context.Context, query models.VideoQuery) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer := access.User(query.ViewerID)
	var videos []models.Video
	for _, video := range s.videos {
		if !access.Visible(video.IsPrivate, video.OwnerID, viewer) {
			continue
		}
		if query.OwnerID != "" && video.OwnerID != query.OwnerID {
			continue
		}
		if query.Match != "" && !strings.Contains(video.Title, query.Match) && !strings.Contains(video.Description, query.Match) {
			continue
		}
		videos = append(videos, cloneVideo(video))
	}

	slices.SortFunc(videos, func(a, b models.Video) int {
		if query.Order == models.OrderMostLikedFirst {
			if c := cmp.Compare(b.NumLikes, a.NumLikes); c != 0 {
				return c
			}
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if query.Limit > 0 && len(videos) > query.Limit {
		videos = videos[:query.Limit]
	}
	return videos, nil
}

// UpdateVideo applies mutate to a copy of the stored video and saves the result.
func (s *MemoryStore) UpdateVideo(_ context.Context, id string, mutate func(*models.Video) error) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}

	video := cloneVideo(current)
	if err := mutate(&video); err != nil {
		return models.Video{}, err
	}
	video.ID = current.ID
	video.OwnerID = current.OwnerID
	video.Path = current.Path
	video.CreatedAt = current.CreatedAt

	s.videos[id] = cloneVideo(video)
	return video, nil
}

// DeleteVideo removes the video, prunes it from every playlist and drops its comments.
func (s *MemoryStore) DeleteVideo(_ context.Context, id string) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, ErrNotFound
	}
	s.deleteVideoLocked(id)
	return cloneVideo(video), nil
}

func (s *MemoryStore) deleteVideoLocked(id string) {
	for playlistID, playlist := range s.playlists {
		if !playlist.Contains(id) {
			continue
		}
		playlist.VideoIDs = slices.DeleteFunc(slices.Clone(playlist.VideoIDs), func(videoID string) bool { return videoID == id })
		s.playlists[playlistID] = playlist
	}
	for commentID, comment := range s.comments {
		if comment.VideoID == id {
			delete(s.comments, commentID)
		}
	}
	delete(s.videos, id)
}

// CreateComment stores a comment on an existing video.
func (s *MemoryStore) CreateComment(_ context.Context, comment models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[comment.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.videos[comment.VideoID]; !ok {
		return ErrNotFound
	}
	if _, ok := s.users[comment.OwnerID]; !ok {
		return ErrNotFound
	}

	s.comments[comment.ID] = comment
	return nil
}

// ListComments returns the newest comments on a video first.
func (s *MemoryStore) ListComments(_ context.Context, videoID string, limit int) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var comments []models.Comment
	for _, comment := range s.comments {
		if comment.VideoID == videoID {
			comments = append(comments, comment)
		}
	}
	slices.SortFunc(comments, func(a, b models.Comment) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})

	if limit > 0 && len(comments) > limit {
		comments = comments[:limit]
	}
	return comments, nil
}

// CreatePlaylist stores a new playlist.
func (s *MemoryStore) CreatePlaylist(_ context.Context, playlist models.Playlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[playlist.ID]; ok {
		return ErrConflict
	}
	if _, ok := s.users[playlist.OwnerID]; !ok {
		return ErrNotFound
	}
	if err := s.checkVideosLocked(playlist.VideoIDs); err != nil {
		return err
	}

	playlist.VideoIDs = cloneIDs(playlist.VideoIDs)
	s.playlists[playlist.ID] = playlist
	return nil
}

// FindPlaylist loads a playlist by id.
func (s *MemoryStore) FindPlaylist(_ context.Context, id string) (models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}
	return clonePlaylist(playlist), nil
}

// ListPlaylists returns the playlists visible to query.ViewerID ordered by name.
func (s *MemoryStore) ListPlaylists(_ context.Context, query models.PlaylistQuery) ([]models.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	viewer := access.User(query.ViewerID)
	var playlists []models.Playlist
	for _, playlist := range s.playlists {
		if !access.Visible(playlist.IsPrivate, playlist.OwnerID, viewer) {
			continue
		}
		if query.OwnerID != "" && playlist.OwnerID != query.OwnerID {
			continue
		}
		if query.Match != "" && !strings.Contains(playlist.Name, query.Match) && !strings.Contains(playlist.Description, query.Match) {
			continue
		}
		playlists = append(playlists, clonePlaylist(playlist))
	}

	slices.SortFunc(playlists, func(a, b models.Playlist) int {
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	if query.Limit > 0 && len(playlists) > query.Limit {
		playlists = playlists[:query.Limit]
	}
	return playlists, nil
}

// UpdatePlaylist applies mutate to a copy of the stored playlist and saves the result.
func (s *MemoryStore) UpdatePlaylist(_ context.Context, id string, mutate func(*models.Playlist) error) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, ErrNotFound
	}

	playlist := clonePlaylist(current)
	if err := mutate(&playlist); err != nil {
		return models.Playlist{}, err
	}
	if err := s.checkVideosLocked(playlist.VideoIDs); err != nil {
		return models.Playlist{}, err
	}
	playlist.ID = current.ID
	playlist.OwnerID = current.OwnerID
	playlist.CreatedAt = current.CreatedAt

	s.playlists[id] = clonePlaylist(playlist)
	return playlist, nil
}

// DeletePlaylist removes a playlist.
func (s *MemoryStore) DeletePlaylist(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.playlists[id]; !ok {
		return ErrNotFound
	}
	delete(s.playlists, id)
	return nil
}

func (s *MemoryStore) checkVideosLocked(ids []string) error {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.videos[id]; !ok {
			return ErrNotFound
		}
		if _, dup := seen[id]; dup {
			return ErrConflict
		}
		seen[id] = struct{}{}
	}
	return nil
}

func cloneVideo(video models.Video) models.Video {
	video.Likes = cloneIDs(video.Likes)
	return video
}

func clonePlaylist(playlist models.Playlist) models.Playlist {
	playlist.VideoIDs = cloneIDs(playlist.VideoIDs)
	return playlist
}

func cloneIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return slices.Clone(ids)
}
