package handlers

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestVideoHandlerUpload(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")

	video := srv.uploadVideo(t, alice, "cats", false)
	if video.ID == "" || video.OwnerID != alice.id || video.MediaType != "mp4" {
		t.Fatalf("unexpected video: %+v", video)
	}
	if video.NumLikes != 0 || video.Liked {
		t.Fatalf("expected no likes, got %+v", video)
	}
	if !srv.media.has("media/cats.mp4") {
		t.Fatal("expected upload to be stored")
	}
}

func TestVideoHandlerUploadRejections(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")

	valid := upload{title: "t", description: "d", fileName: "a.mp4", contentType: "video/mp4", data: "x"}

	anonymous := srv.upload(t, "", valid)
	expectStatus(t, anonymous, http.StatusUnauthorized)

	wrongType := valid
	wrongType.fileName = "a.avi"
	wrongType.contentType = "video/x-msvideo"
	expectStatus(t, srv.upload(t, alice.accessToken, wrongType), http.StatusBadRequest)

	noTitle := valid
	noTitle.title = ""
	noTitle.fileName = "untitled.mp4"
	expectStatus(t, srv.upload(t, alice.accessToken, noTitle), http.StatusBadRequest)
	if srv.media.has("media/untitled.mp4") {
		t.Fatal("invalid upload should not be stored")
	}

	longTitle := valid
	longTitle.title = strings.Repeat("t", 101)
	expectStatus(t, srv.upload(t, alice.accessToken, longTitle), http.StatusBadRequest)

	noFile := valid
	noFile.fileName = ""
	expectStatus(t, srv.upload(t, alice.accessToken, noFile), http.StatusBadRequest)

	tooLarge := valid
	tooLarge.fileName = "big.mp4"
	tooLarge.data = strings.Repeat("x", 2<<20)
	expectStatus(t, srv.upload(t, alice.accessToken, tooLarge), http.StatusRequestEntityTooLarge)
}

func TestVideoHandlerPrivateVideos(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	private := srv.uploadVideo(t, alice, "secret", true)

	for _, path := range []string{
		"/api/v1/videos/" + private.ID,
		"/api/v1/videos/" + private.ID + "/stream",
		"/api/v1/videos/" + private.ID + "/comments",
	} {
		expectStatus(t, srv.do(t, http.MethodGet, path, bob.accessToken, nil), http.StatusNotFound)
		expectStatus(t, srv.do(t, http.MethodGet, path, "", nil), http.StatusNotFound)
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/videos/"+private.ID+"/stream", alice.accessToken, nil)
	expectStatus(t, rec, http.StatusOK)
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("expected video/mp4 content type got %q", got)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "frames of secret" {
		t.Fatalf("unexpected stream body %q", body)
	}

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/videos/"+private.ID+"/thumbnail", alice.accessToken, nil), http.StatusNotFound)

	var listed struct {
		Videos []videoView `json:"videos"`
	}
	rec = srv.do(t, http.MethodGet, "/api/v1/videos", bob.accessToken, nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed.Videos) != 0 {
		t.Fatalf("expected private video to be hidden, got %+v", listed.Videos)
	}
}

func TestVideoHandlerLikes(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	video := srv.uploadVideo(t, alice, "cats", false)
	path := "/api/v1/videos/" + video.ID + "/like"

	expectStatus(t, srv.do(t, http.MethodPut, path, "", map[string]bool{"like": true}), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodPut, path, bob.accessToken, map[string]string{}), http.StatusBadRequest)

	for i := 0; i < 2; i++ {
		rec := srv.do(t, http.MethodPut, path, bob.accessToken, map[string]bool{"like": true})
		expectStatus(t, rec, http.StatusOK)
		var liked videoView
		decodeBody(t, rec, &liked)
		if liked.NumLikes != 1 || !liked.Liked {
			t.Fatalf("expected one like from bob, got %+v", liked)
		}
	}

	rec := srv.do(t, http.MethodGet, "/api/v1/videos/"+video.ID, alice.accessToken, nil)
	var seen videoView
	decodeBody(t, rec, &seen)
	if seen.Liked || seen.NumLikes != 1 {
		t.Fatalf("alice should see bob's like but not her own, got %+v", seen)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/videos", "", nil)
	expectStatus(t, rec, http.StatusOK)
	var raw struct {
		Videos []map[string]any `json:"videos"`
	}
	decodeBody(t, rec, &raw)
	if len(raw.Videos) != 1 {
		t.Fatalf("expected one listed video, got %+v", raw.Videos)
	}
	if _, ok := raw.Videos[0]["likes"]; ok {
		t.Fatalf("listing should not expose who liked a video, got %+v", raw.Videos[0])
	}
	if raw.Videos[0]["numLikes"] != float64(1) || raw.Videos[0]["liked"] != false {
		t.Fatalf("expected like count without viewer like, got %+v", raw.Videos[0])
	}

	rec = srv.do(t, http.MethodPut, path, bob.accessToken, map[string]bool{"like": false})
	expectStatus(t, rec, http.StatusOK)
	var unliked videoView
	decodeBody(t, rec, &unliked)
	if unliked.NumLikes != 0 || unliked.Liked {
		t.Fatalf("expected like to be removed, got %+v", unliked)
	}
}

func TestVideoHandlerEditAndDelete(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	video := srv.uploadVideo(t, alice, "cats", false)
	path := "/api/v1/videos/" + video.ID

	expectStatus(t, srv.do(t, http.MethodPatch, path, bob.accessToken, map[string]string{"title": "mine now"}), http.StatusForbidden)

	rec := srv.do(t, http.MethodPatch, path, alice.accessToken, map[string]any{"title": "Cats 2", "isPrivate": true})
	expectStatus(t, rec, http.StatusOK)
	var edited videoView
	decodeBody(t, rec, &edited)
	if edited.Title != "Cats 2" || edited.Description != "about cats" || !edited.IsPrivate {
		t.Fatalf("unexpected edited video: %+v", edited)
	}

	expectStatus(t, srv.do(t, http.MethodDelete, path, bob.accessToken, nil), http.StatusNotFound)
	expectStatus(t, srv.do(t, http.MethodDelete, path, alice.accessToken, nil), http.StatusNoContent)
	expectStatus(t, srv.do(t, http.MethodGet, path, alice.accessToken, nil), http.StatusNotFound)

	if srv.media.has("media/cats.mp4") {
		t.Fatal("expected media to be removed with the video")
	}
}

func TestVideoHandlerListing(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	first := srv.uploadVideo(t, alice, "first", false)
	second := srv.uploadVideo(t, bob, "second", false)
	expectStatus(t, srv.do(t, http.MethodPut, "/api/v1/videos/"+first.ID+"/like", bob.accessToken, map[string]bool{"like": true}), http.StatusOK)

	var listed struct {
		Videos []videoView `json:"videos"`
	}
	rec := srv.do(t, http.MethodGet, "/api/v1/videos?order=liked", "", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed.Videos) != 2 || listed.Videos[0].ID != first.ID {
		t.Fatalf("expected most liked first, got %+v", listed.Videos)
	}

	rec = srv.do(t, http.MethodGet, "/api/v1/videos?q=second&limit=5", "", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed.Videos) != 1 || listed.Videos[0].ID != second.ID {
		t.Fatalf("expected only the matching video, got %+v", listed.Videos)
	}

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/videos?order=oldest", "", nil), http.StatusBadRequest)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/videos?limit=ten", "", nil), http.StatusBadRequest)
}

func TestVideoHandlerComments(t *testing.T) {
	srv := newTestServer(t)
	alice := srv.signUp(t, "alice")
	bob := srv.signUp(t, "bob")
	video := srv.uploadVideo(t, alice, "cats", false)
	path := "/api/v1/videos/" + video.ID + "/comments"

	expectStatus(t, srv.do(t, http.MethodPost, path, "", map[string]string{"text": "hi"}), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodPost, path, bob.accessToken, map[string]string{"text": " "}), http.StatusBadRequest)

	for _, text := range []string{"first", "second"} {
		expectStatus(t, srv.do(t, http.MethodPost, path, bob.accessToken, map[string]string{"text": text}), http.StatusCreated)
	}

	var listed struct {
		Comments []commentView `json:"comments"`
	}
	rec := srv.do(t, http.MethodGet, path, "", nil)
	expectStatus(t, rec, http.StatusOK)
	decodeBody(t, rec, &listed)
	if len(listed.Comments) != 2 || listed.Comments[0].OwnerID != bob.id {
		t.Fatalf("unexpected comments: %+v", listed.Comments)
	}
}
