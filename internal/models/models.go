package models

import "time"

// User represents an account within OYT.
type User struct {
	ID        string
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Video is an uploaded video owned by a single user.
//
// NumLikes is a cached cardinality of Likes and is only ever written together with it.
type Video struct {
	ID          string
	Title       string
	Description string
	Path        string
	OwnerID     string
	CreatedAt   time.Time
	IsPrivate   bool
	Likes       []string
	NumLikes    int
}

// HasLike reports whether userID is a member of the video's likes.
func (v Video) HasLike(userID string) bool {
	for _, id := range v.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// Comment is an immutable remark left on a video.
type Comment struct {
	ID        string
	Text      string
	OwnerID   string
	VideoID   string
	CreatedAt time.Time
}

// Playlist is an ordered, duplicate-free list of video ids owned by a user.
type Playlist struct {
	ID          string
	Name        string
	Description string
	OwnerID     string
	IsPrivate   bool
	VideoIDs    []string
	CreatedAt   time.Time
}

// Contains reports whether the playlist already references videoID.
func (p Playlist) Contains(videoID string) bool {
	for _, id := range p.VideoIDs {
		if id == videoID {
			return true
		}
	}
	return false
}

// VideoOrder selects the ordering of a video listing.
type VideoOrder string

const (
	// OrderRecentFirst sorts by creation time descending, ties by id descending.
	OrderRecentFirst VideoOrder = "recent"
	// OrderMostLikedFirst sorts by like count descending, ties by creation time descending.
	OrderMostLikedFirst VideoOrder = "liked"
)

// VideoQuery describes a visibility-filtered video listing.
//
// ViewerID is the acting user; an empty ViewerID only matches public videos.
// Match, when set, must appear verbatim in the title or the description.
type VideoQuery struct {
	ViewerID string
	Order    VideoOrder
	Match    string
	OwnerID  string
	Limit    int
}

// PlaylistQuery describes a visibility-filtered playlist listing ordered by name.
type PlaylistQuery struct {
	ViewerID string
	Match    string
	OwnerID  string
	Limit    int
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
