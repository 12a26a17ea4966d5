package catalog_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/models"
)

func TestAddVideosSkipsDuplicates(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	p := f.playlist(f.alice, "P", false)

	_, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{v1.ID})
	require.NoError(t, err)
	updated, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{v1.ID})
	require.NoError(t, err)

	assert.Equal(t, []string{v1.ID}, updated.VideoIDs)
	assert.Equal(t, []string{v1.ID}, f.storedPlaylist(p.ID).VideoIDs)
}

func TestAddVideosKeepsFirstSeenOrder(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	v2 := f.video(f.alice, "V2", false)
	v3 := f.video(f.alice, "V3", false)
	p := f.playlist(f.alice, "P", false, v2.ID)

	updated, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{v3.ID, v1.ID, v3.ID, v2.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID, v3.ID, v1.ID}, updated.VideoIDs)
}

func TestAddThenRemoveRestoresPlaylist(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	v2 := f.video(f.alice, "V2", false)
	v3 := f.video(f.alice, "V3", false)
	x := f.video(f.bob, "X", false)
	p := f.playlist(f.alice, "P", false, v1.ID, v2.ID, v3.ID)
	before := f.storedPlaylist(p.ID).VideoIDs

	_, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{x.ID})
	require.NoError(t, err)
	_, err = f.svc.RemoveVideos(f.ctx, f.alice, p.ID, []string{x.ID})
	require.NoError(t, err)

	assert.Equal(t, before, f.storedPlaylist(p.ID).VideoIDs)
}

func TestRemoveVideosSkipsNonMembers(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	v2 := f.video(f.alice, "V2", false)
	p := f.playlist(f.alice, "P", false, v1.ID, v2.ID)

	updated, err := f.svc.RemoveVideos(f.ctx, f.alice, p.ID, []string{"not-a-member", v1.ID, v1.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID}, updated.VideoIDs)
}

func TestPlaylistMembershipRequiresPlaylistOwnership(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	public := f.playlist(f.alice, "Public", false)
	private := f.playlist(f.alice, "Private", true)

	_, err := f.svc.AddVideos(f.ctx, f.bob, public.ID, []string{v1.ID})
	assert.ErrorIs(t, err, access.ErrNotOwner)

	_, err = f.svc.AddVideos(f.ctx, f.bob, private.ID, []string{v1.ID})
	assert.ErrorIs(t, err, access.ErrNotFound)

	_, err = f.svc.RemoveVideos(f.ctx, f.bob, public.ID, []string{v1.ID})
	assert.ErrorIs(t, err, access.ErrNotOwner)

	_, err = f.svc.AddVideos(f.ctx, access.Anonymous(), public.ID, []string{v1.ID})
	assert.ErrorIs(t, err, access.ErrUnauthenticated)

	_, err = f.svc.AddVideos(f.ctx, f.alice, "missing", []string{v1.ID})
	assert.ErrorIs(t, err, access.ErrNotFound)

	_, err = f.svc.AddVideos(f.ctx, f.alice, public.ID, nil)
	assert.ErrorIs(t, err, access.ErrInvalidInput)

	assert.Empty(t, f.storedPlaylist(public.ID).VideoIDs)
}

func TestAddVideosChecksExistenceButNotVideoVisibility(t *testing.T) {
	f := newFixture(t)
	mine := f.video(f.alice, "V1", false)
	bobsPrivate := f.video(f.bob, "secret", true)
	p := f.playlist(f.alice, "P", false, mine.ID)

	_, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{"missing", mine.ID})
	assert.ErrorIs(t, err, access.ErrNotFound)
	assert.Equal(t, []string{mine.ID}, f.storedPlaylist(p.ID).VideoIDs, "failed add leaves the playlist untouched")

	updated, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{bobsPrivate.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID, bobsPrivate.ID}, updated.VideoIDs)

	view, err := f.svc.GetPlaylist(f.ctx, f.alice, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, ids(view.Videos), "invisible members are omitted from the view")
}

func TestDeleteVideoEmptiesPlaylist(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	p := f.playlist(f.alice, "P", false)
	_, err := f.svc.AddVideos(f.ctx, f.alice, p.ID, []string{v1.ID})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteVideo(f.ctx, f.alice, v1.ID))

	view, err := f.svc.GetPlaylist(f.ctx, f.alice, p.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Playlist.VideoIDs)
	assert.Empty(t, view.Videos)
}

func TestGetPlaylistVisibility(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	v2 := f.video(f.alice, "V2", false)
	private := f.playlist(f.alice, "Private", true, v2.ID, v1.ID)

	_, err := f.svc.GetPlaylist(f.ctx, f.bob, private.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)
	_, err = f.svc.GetPlaylist(f.ctx, access.Anonymous(), private.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	view, err := f.svc.GetPlaylist(f.ctx, f.alice, private.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{v2.ID, v1.ID}, ids(view.Videos), "videos follow playlist order")
}

func TestPlaylistEntryNext(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	hidden := f.video(f.alice, "hidden", true)
	v3 := f.video(f.alice, "V3", false)
	p := f.playlist(f.alice, "P", false, v1.ID, hidden.ID, v3.ID)

	entry, err := f.svc.PlaylistEntry(f.ctx, f.bob, p.ID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, v1.ID, entry.Current.ID)
	assert.Equal(t, v3.ID, entry.NextID, "invisible videos are skipped")

	last, err := f.svc.PlaylistEntry(f.ctx, f.bob, p.ID, v3.ID)
	require.NoError(t, err)
	assert.Empty(t, last.NextID)

	_, err = f.svc.PlaylistEntry(f.ctx, f.bob, p.ID, hidden.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	other := f.video(f.bob, "other", false)
	_, err = f.svc.PlaylistEntry(f.ctx, f.bob, p.ID, other.ID)
	assert.ErrorIs(t, err, access.ErrNotFound, "videos outside the playlist are not entries")

	ownerView, err := f.svc.PlaylistEntry(f.ctx, f.alice, p.ID, v1.ID)
	require.NoError(t, err)
	assert.Equal(t, hidden.ID, ownerView.NextID)
}

func TestListPlaylists(t *testing.T) {
	f := newFixture(t)
	zeta := f.playlist(f.alice, "Zeta", false)
	alpha := f.playlist(f.bob, "Alpha", false)
	f.playlist(f.alice, "Hidden mix", true)
	mine := f.playlist(f.bob, "Mixtape", true)

	listed, err := f.svc.ListPlaylists(f.ctx, f.bob, catalog.PlaylistListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{alpha.ID, mine.ID, zeta.ID}, playlistIDs(listed))

	matched, err := f.svc.ListPlaylists(f.ctx, access.Anonymous(), catalog.PlaylistListOptions{Match: "eta"})
	require.NoError(t, err)
	assert.Equal(t, []string{zeta.ID}, playlistIDs(matched))

	owned, err := f.svc.ListOwnedPlaylists(f.ctx, f.bob)
	require.NoError(t, err)
	assert.Equal(t, []string{alpha.ID, mine.ID}, playlistIDs(owned))

	_, err = f.svc.ListOwnedPlaylists(f.ctx, access.Anonymous())
	assert.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestListPlaylistsLimit(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < catalog.DefaultPlaylistLimit+2; i++ {
		f.playlist(f.alice, fmt.Sprintf("Mix %02d", i), false)
	}

	listed, err := f.svc.ListPlaylists(f.ctx, access.Anonymous(), catalog.PlaylistListOptions{})
	require.NoError(t, err)
	require.Len(t, listed, catalog.DefaultPlaylistLimit)
	assert.Equal(t, "Mix 00", listed[0].Name)

	all, err := f.svc.ListPlaylists(f.ctx, access.Anonymous(), catalog.PlaylistListOptions{Limit: 50})
	require.NoError(t, err)
	assert.Len(t, all, catalog.DefaultPlaylistLimit+2)
}

func TestCreateAndEditPlaylist(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreatePlaylist(f.ctx, f.alice, catalog.NewPlaylist{Name: ""})
	assert.ErrorIs(t, err, access.ErrInvalidInput)
	_, err = f.svc.CreatePlaylist(f.ctx, f.alice, catalog.NewPlaylist{Name: strings.Repeat("n", 101)})
	assert.ErrorIs(t, err, access.ErrInvalidInput)
	_, err = f.svc.CreatePlaylist(f.ctx, f.alice, catalog.NewPlaylist{Name: "ok", VideoIDs: []string{"missing"}})
	assert.ErrorIs(t, err, access.ErrNotFound)

	p, err := f.svc.CreatePlaylist(f.ctx, f.alice, catalog.NewPlaylist{Name: " Road trip ", Description: "songs"})
	require.NoError(t, err)
	assert.Equal(t, "Road trip", p.Name)
	assert.False(t, p.IsPrivate)

	_, err = f.svc.EditPlaylist(f.ctx, f.bob, p.ID, catalog.PlaylistChanges{Name: "stolen"})
	assert.ErrorIs(t, err, access.ErrNotOwner)

	hide := true
	edited, err := f.svc.EditPlaylist(f.ctx, f.alice, p.ID, catalog.PlaylistChanges{IsPrivate: &hide})
	require.NoError(t, err)
	assert.Equal(t, "Road trip", edited.Name)
	assert.Equal(t, "songs", edited.Description)
	assert.True(t, edited.IsPrivate)

	_, err = f.svc.EditPlaylist(f.ctx, f.bob, p.ID, catalog.PlaylistChanges{Name: "stolen"})
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func TestDeletePlaylist(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.alice, "V1", false)
	p := f.playlist(f.alice, "P", false, v1.ID)

	assert.ErrorIs(t, f.svc.DeletePlaylist(f.ctx, f.bob, p.ID), access.ErrNotOwner)
	require.NoError(t, f.svc.DeletePlaylist(f.ctx, f.alice, p.ID))

	_, err := f.svc.GetPlaylist(f.ctx, f.alice, p.ID)
	assert.ErrorIs(t, err, access.ErrNotFound)

	_, err = f.svc.GetVideo(f.ctx, f.alice, v1.ID)
	assert.NoError(t, err, "member videos survive playlist deletion")
}

func TestAddToPlaylists(t *testing.T) {
	f := newFixture(t)
	v1 := f.video(f.bob, "V1", false)
	first := f.playlist(f.alice, "First", false)
	second := f.playlist(f.alice, "Second", true, v1.ID)
	bobs := f.playlist(f.bob, "Bob's", false)

	_, err := f.svc.AddToPlaylists(f.ctx, f.alice, v1.ID, []string{first.ID, bobs.ID})
	assert.ErrorIs(t, err, access.ErrNotOwner)
	assert.Empty(t, f.storedPlaylist(first.ID).VideoIDs, "no playlist changes when one is not owned")

	updated, err := f.svc.AddToPlaylists(f.ctx, f.alice, v1.ID, []string{first.ID, second.ID, first.ID})
	require.NoError(t, err)
	require.Len(t, updated, 2)
	assert.Equal(t, []string{v1.ID}, f.storedPlaylist(first.ID).VideoIDs)
	assert.Equal(t, []string{v1.ID}, f.storedPlaylist(second.ID).VideoIDs)

	_, err = f.svc.AddToPlaylists(f.ctx, f.alice, "missing", []string{first.ID})
	assert.ErrorIs(t, err, access.ErrNotFound)
}

func playlistIDs(playlists []models.Playlist) []string {
	out := make([]string, 0, len(playlists))
	for _, p := range playlists {
		out = append(out, p.ID)
	}
	return out
}
