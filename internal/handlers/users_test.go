package handlers

import (
	"net/http"
	"strings"
	"testing"
)

func TestUserHandlerEdit(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")

	expectStatus(t, srv.do(t, http.MethodPatch, "/api/v1/users/me", "", map[string]string{"firstName": "A"}), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodPatch, "/api/v1/users/me", alice.accessToken, map[string]string{"password": "short"}), http.StatusBadRequest)
	expectStatus(t, srv.do(t, http.MethodPatch, "/api/v1/users/me", alice.accessToken, map[string]string{"lastName": strings.Repeat("x", 101)}), http.StatusBadRequest)

	rec := srv.do(t, http.MethodPatch, "/api/v1/users/me", alice.accessToken, map[string]string{"firstName": "Alicia", "password": "new-password"})
	expectStatus(t, rec, http.StatusOK)
	var user userView
	decodeBody(t, rec, &user)
	if user.FirstName != "Alicia" || user.LastName != "Tester" || user.Username != "alice" {
		t.Fatalf("unexpected user after edit: %+v", user)
	}

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "password123"}), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "new-password"}), http.StatusOK)
}

func TestUserHandlerDeleteCascades(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	aliceVideo := srv.uploadVideo(t, alice, "alices", false)
	bobVideo := srv.uploadVideo(t, bob, "bobs", false)

	expectStatus(t, srv.do(t, http.MethodPut, "/api/v1/videos/"+bobVideo.ID+"/like", alice.accessToken, map[string]bool{"like": true}), http.StatusOK)
	playlist := createPlaylist(t, srv, bob, map[string]any{"name": "Bob", "videoIds": []string{aliceVideo.ID, bobVideo.ID}})

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/users/me", alice.accessToken, nil), http.StatusNoContent)

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/videos/"+aliceVideo.ID, bob.accessToken, nil), http.StatusNotFound)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/users/me", alice.accessToken, nil), http.StatusUnauthorized)

	rec := srv.do(t, http.MethodGet, "/api/v1/videos/"+bobVideo.ID, bob.accessToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var video videoView
	decodeBody(t, rec, &video)
	if video.NumLikes != 0 || video.Liked {
		t.Fatalf("expected alice's like to be removed, got %+v", video)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/playlists/"+playlist.ID, bob.accessToken, nil)
	expectStatus(t, rec, http.StatusOK)
	var detail struct {
		Playlist playlistView `json:"playlist"`
	}
	decodeBody(t, rec, &detail)
	if len(detail.Playlist.VideoIDs) != 1 || detail.Playlist.VideoIDs[0] != bobVideo.ID {
		t.Fatalf("expected playlist to be pruned, got %v", detail.Playlist.VideoIDs)
	}

	if srv.media.has("media/alices.mp4") {
		t.Fatal("expected alice's media to be removed")
	}
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "alice", "password": "password123"}), http.StatusUnauthorized)
}
