package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/repositories"
)

func TestDeleteUserRemovesEverythingTheyOwn(t *testing.T) {
	f := newFixture(t)
	aliceVideo := f.video(f.alice, "A1", false)
	alicePrivate := f.video(f.alice, "A2", true)
	bobVideo := f.video(f.bob, "B1", false)

	alicePlaylist := f.playlist(f.alice, "Alice's", false, aliceVideo.ID, bobVideo.ID)
	bobPlaylist := f.playlist(f.bob, "Bob's", false, aliceVideo.ID, bobVideo.ID)

	aliceComment, err := f.svc.AddComment(f.ctx, f.alice, bobVideo.ID, "hi bob")
	require.NoError(t, err)
	_, err = f.svc.AddComment(f.ctx, f.bob, bobVideo.ID, "hi alice")
	require.NoError(t, err)

	_, err = f.svc.ToggleLike(f.ctx, f.alice, bobVideo.ID, true)
	require.NoError(t, err)
	_, err = f.svc.ToggleLike(f.ctx, f.bob, bobVideo.ID, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(f.ctx, f.alice, f.alice.ID))

	for _, id := range []string{aliceVideo.ID, alicePrivate.ID} {
		_, err := f.svc.GetVideo(f.ctx, f.bob, id)
		assert.ErrorIs(t, err, access.ErrNotFound)
	}
	_, err = f.svc.GetPlaylist(f.ctx, f.bob, alicePlaylist.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	assert.Equal(t, []string{bobVideo.ID}, f.storedPlaylist(bobPlaylist.ID).VideoIDs)

	comments, err := f.svc.ListComments(f.ctx, f.bob, bobVideo.ID, catalog.MaxListLimit)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.NotEqual(t, aliceComment.ID, comments[0].ID)

	liked, err := f.svc.GetVideo(f.ctx, f.bob, bobVideo.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{f.bob.ID}, liked.Likes)
	assert.Equal(t, 1, liked.NumLikes)

	_, err = f.store.FindByID(f.ctx, f.alice.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	assert.ElementsMatch(t, []string{aliceVideo.Path, alicePrivate.Path}, f.media.paths())
}

func TestDeleteUserRequiresSelf(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.svc.DeleteUser(f.ctx, f.bob, f.alice.ID), access.ErrNotOwner)
	assert.ErrorIs(t, f.svc.DeleteUser(f.ctx, access.Anonymous(), f.alice.ID), access.ErrUnauthenticated)

	_, err := f.store.FindByID(f.ctx, f.alice.ID)
	require.NoError(t, err)
}

func TestDeleteUserIgnoresMediaFailures(t *testing.T) {
	f := newFixture(t)
	f.video(f.alice, "A1", false)
	f.media.err = errBoom

	require.NoError(t, f.svc.DeleteUser(f.ctx, f.alice, f.alice.ID))
	assert.ErrorIs(t, f.svc.DeleteUser(f.ctx, f.alice, f.alice.ID), access.ErrNotFound)
}
