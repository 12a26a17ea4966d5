// Package access holds the visibility predicate, the ownership guard and the failure
// taxonomy shared by every video and playlist operation.
package access

import "github.com/oyt/backend/internal/models"

// Visible reports whether an entity with the given privacy flag and owner may be observed
// by actor. Anonymous actors only see public entities.
func Visible(isPrivate bool, ownerID string, actor Actor) bool {
	if !isPrivate {
		return true
	}
	return actor.Authenticated() && ownerID == actor.ID
}

// VideoVisible applies Visible to a video.
func VideoVisible(v models.Video, actor Actor) bool {
	return Visible(v.IsPrivate, v.OwnerID, actor)
}

// PlaylistVisible applies Visible to a playlist.
func PlaylistVisible(p models.Playlist, actor Actor) bool {
	return Visible(p.IsPrivate, p.OwnerID, actor)
}

// RequireAuthenticated fails with ErrUnauthenticated for the anonymous actor.
func RequireAuthenticated(actor Actor) error {
	if !actor.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// AssertOwner fails with ErrNotOwner unless actor owns the entity.
func AssertOwner(ownerID string, actor Actor) error {
	if !actor.Authenticated() || ownerID != actor.ID {
		return ErrNotOwner
	}
	return nil
}
