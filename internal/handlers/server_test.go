package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/oyt/backend/internal/auth"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/media"
	"github.com/oyt/backend/internal/repositories"
	"github.com/oyt/backend/internal/storage"
	"github.com/oyt/backend/internal/validation"
)

type mediaStoreStub struct {
	mu      sync.Mutex
	objects map[string]string
	removed []string
}

func newMediaStoreStub() *mediaStoreStub {
	return &mediaStoreStub{objects: make(map[string]string)}
}

func (m *mediaStoreStub) Ingest(_ context.Context, r io.Reader, fileName, declaredType, _ string) (string, error) {
	if !media.Supported(declaredType) {
		return "", media.ErrUnsupportedType
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	path := "media/" + fileName
	m.objects[path] = string(data)
	return path, nil
}

func (m *mediaStoreStub) Open(_ context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[path]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(strings.NewReader(data)), nil
}

func (m *mediaStoreStub) OpenThumbnail(ctx context.Context, path string) (io.ReadCloser, error) {
	return m.Open(ctx, path+media.ThumbnailSuffix)
}

func (m *mediaStoreStub) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, path)
	m.removed = append(m.removed, path)
	return nil
}

func (m *mediaStoreStub) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[path]
	return ok
}

type testServer struct {
	store   *repositories.MemoryStore
	media   *mediaStoreStub
	handler http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store := repositories.NewMemoryStore()
	mediaStore := newMediaStoreStub()
	service := catalog.NewService(store, store, store, store, catalog.WithMedia(mediaStore))

	handler := NewRouter(Dependencies{
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Users:          store,
		Sessions:       auth.NewManager(time.Minute, time.Hour, store),
		Catalog:        service,
		Media:          mediaStore,
		Validator:      validation.New(),
		MaxUploadBytes: 1 << 20,
	})

	return &testServer{store: store, media: mediaStore, handler: handler}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type account struct {
	id           string
	accessToken  string
	refreshToken string
}

func (s *testServer) signUp(t *testing.T, username string) account {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "password123",
		"firstName": strings.ToUpper(username[:1]) + username[1:],
		"lastName":  "Tester",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected status %d got %d: %s", username, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var resp struct {
		User   userView   `json:"user"`
		Tokens tokensView `json:"tokens"`
	}
	decodeBody(t, rec, &resp)
	return account{id: resp.User.ID, accessToken: resp.Tokens.AccessToken, refreshToken: resp.Tokens.RefreshToken}
}

type upload struct {
	title       string
	description string
	private     bool
	fileName    string
	contentType string
	data        string
}

func (s *testServer) upload(t *testing.T, token string, u upload) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	fields := map[string]string{
		"title":       u.title,
		"description": u.description,
		"is_private":  fmt.Sprint(u.private),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if u.fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="video"; filename=%q`, u.fileName))
		header.Set("Content-Type", u.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write([]byte(u.data)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/videos", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) uploadVideo(t *testing.T, owner account, title string, private bool) videoView {
	t.Helper()

	rec := s.upload(t, owner.accessToken, upload{
		title:       title,
		description: "about " + title,
		private:     private,
		fileName:    title + ".mp4",
		contentType: "video/mp4",
		data:        "frames of " + title,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload %s: expected status %d got %d: %s", title, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var video videoView
	decodeBody(t, rec, &video)
	return video
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected status %d got %d: %s", want, rec.Code, rec.Body.String())
	}
}
