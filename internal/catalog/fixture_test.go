package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oyt/backend/internal/access"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/models"
	"github.com/oyt/backend/internal/repositories"
)

type stepClock struct {
	mu   sync.Mutex
	next time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.next
	c.next = c.next.Add(time.Minute)
	return now
}

type mediaStub struct {
	mu      sync.Mutex
	removed []string
	err     error
}

func (m *mediaStub) Remove(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, path)
	return m.err
}

func (m *mediaStub) paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.removed...)
}

type thumbnailStub struct {
	mu     sync.Mutex
	queued []string
	err    error
}

func (t *thumbnailStub) Enqueue(path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return t.err
	}
	t.queued = append(t.queued, path)
	return nil
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	store      *repositories.MemoryStore
	svc        *catalog.Service
	media      *mediaStub
	thumbnails *thumbnailStub
	alice      access.Actor
	bob        access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := repositories.NewMemoryStore()
	clock := &stepClock{next: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	mediaRemover := &mediaStub{}
	thumbnails := &thumbnailStub{}

	svc := catalog.NewService(store, store, store, store,
		catalog.WithClock(clock.Now),
		catalog.WithMedia(mediaRemover),
		catalog.WithThumbnails(thumbnails),
	)

	f := &fixture{
		t:          t,
		ctx:        context.Background(),
		store:      store,
		svc:        svc,
		media:      mediaRemover,
		thumbnails: thumbnails,
	}
	f.alice = f.user("alice")
	f.bob = f.user("bob")
	return f
}

func (f *fixture) user(name string) access.Actor {
	f.t.Helper()
	id := "user-" + name
	err := f.store.Create(f.ctx, models.User{
		ID:       id,
		Username: name,
		Email:    name + "@example.com",
		Password: "hash",
	})
	require.NoError(f.t, err)
	return access.User(id)
}

func (f *fixture) video(owner access.Actor, title string, private bool) models.Video {
	f.t.Helper()
	video, err := f.svc.CreateVideo(f.ctx, owner, catalog.NewVideo{
		Title:       title,
		Description: "about " + title,
		Path:        fmt.Sprintf("media/%s.mp4", title),
		IsPrivate:   private,
	})
	require.NoError(f.t, err)
	return video
}

func (f *fixture) playlist(owner access.Actor, name string, private bool, videoIDs ...string) models.Playlist {
	f.t.Helper()
	playlist, err := f.svc.CreatePlaylist(f.ctx, owner, catalog.NewPlaylist{
		Name:      name,
		IsPrivate: private,
		VideoIDs:  videoIDs,
	})
	require.NoError(f.t, err)
	return playlist
}

func (f *fixture) storedPlaylist(id string) models.Playlist {
	f.t.Helper()
	playlist, err := f.store.FindPlaylist(f.ctx, id)
	require.NoError(f.t, err)
	return playlist
}

func ids(videos []models.Video) []string {
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		out = append(out, v.ID)
	}
	return out
}

var errBoom = errors.New("boom")
