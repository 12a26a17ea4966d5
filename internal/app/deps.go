package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oyt/backend/internal/auth"
	"github.com/oyt/backend/internal/catalog"
	"github.com/oyt/backend/internal/config"
	"github.com/oyt/backend/internal/db"
	"github.com/oyt/backend/internal/handlers"
	"github.com/oyt/backend/internal/media"
	"github.com/oyt/backend/internal/middleware"
	"github.com/oyt/backend/internal/repositories"
	"github.com/oyt/backend/internal/storage"
	"github.com/oyt/backend/internal/validation"
)

// rateLimiterTTL is how long an idle client's bucket is remembered.
const rateLimiterTTL = 10 * time.Minute

// stores groups the persistence collaborators for one backend.
type stores struct {
	users     handlers.UserStore
	accounts  catalog.AccountStore
	sessions  auth.SessionStore
	videos    catalog.VideoStore
	comments  catalog.CommentStore
	playlists catalog.PlaylistStore
	database  handlers.Pinger
	close     func()
}

var (
	_ handlers.UserStore      = (*repositories.PostgresUserRepository)(nil)
	_ catalog.AccountStore    = (*repositories.PostgresUserRepository)(nil)
	_ catalog.VideoStore      = (*repositories.PostgresVideoRepository)(nil)
	_ catalog.CommentStore    = (*repositories.PostgresCommentRepository)(nil)
	_ catalog.PlaylistStore   = (*repositories.PostgresPlaylistRepository)(nil)
	_ handlers.UserStore      = (*repositories.MemoryStore)(nil)
	_ catalog.AccountStore    = (*repositories.MemoryStore)(nil)
	_ catalog.VideoStore      = (*repositories.MemoryStore)(nil)
	_ catalog.CommentStore    = (*repositories.MemoryStore)(nil)
	_ catalog.PlaylistStore   = (*repositories.MemoryStore)(nil)
	_ auth.SessionStore       = (*repositories.MemoryStore)(nil)
	_ handlers.Catalog        = (*catalog.Service)(nil)
	_ handlers.MediaStore     = (*media.Ingestor)(nil)
	_ handlers.SessionManager = (*auth.Manager)(nil)
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
// The returned cleanup drains background work and releases connections.
func buildDependencies(ctx context.Context, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, func(context.Context) error, error) {
	st, err := openStores(ctx, cfg)
	if err != nil {
		return handlers.Dependencies{}, nil, err
	}

	objects, err := openObjectStorage(ctx, cfg.ObjectStore)
	if err != nil {
		st.close()
		return handlers.Dependencies{}, nil, err
	}

	ingestor := media.NewIngestor(objects)
	thumbnails := media.NewThumbnailQueue(
		media.NewThumbnailer(objects, cfg.FFmpegPath, cfg.FFmpegTimeout),
		media.ThumbnailQueueConfig{
			QueueSize:  cfg.ThumbnailQueue,
			Workers:    cfg.ThumbnailWorkers,
			JobTimeout: cfg.FFmpegTimeout,
		},
		logger.With("component", "thumbnails"),
	)

	service := catalog.NewService(st.videos, st.comments, st.playlists, st.accounts,
		catalog.WithMedia(ingestor),
		catalog.WithThumbnails(thumbnails),
	)

	deps := handlers.Dependencies{
		Logger:         logger,
		Users:          st.users,
		Sessions:       auth.NewManager(cfg.AccessTokenTTL, cfg.RefreshTokenTTL, st.sessions),
		Catalog:        service,
		Media:          ingestor,
		Validator:      validation.New(),
		Database:       st.database,
		AuthLimiter:    middleware.NewIPRateLimiter(cfg.AuthRatePerMinute, time.Minute, cfg.AuthRateBurst, rateLimiterTTL),
		CORSOrigins:    cfg.CORSOrigins,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	cleanup := func(ctx context.Context) error {
		var errs []error
		if err := thumbnails.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain thumbnail queue: %w", err))
		}
		st.close()
		return errors.Join(errs...)
	}

	return deps, cleanup, nil
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		mem := repositories.NewMemoryStore()
		return stores{
			users:     mem,
			accounts:  mem,
			sessions:  mem,
			videos:    mem,
			comments:  mem,
			playlists: mem,
			close:     func() {},
		}, nil
	case config.StoreBackendPostgres, "":
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return stores{}, err
		}
		users := repositories.NewPostgresUserRepository(pool)
		return stores{
			users:     users,
			accounts:  users,
			sessions:  repositories.NewPostgresSessionStore(pool),
			videos:    repositories.NewPostgresVideoRepository(pool),
			comments:  repositories.NewPostgresCommentRepository(pool),
			playlists: repositories.NewPostgresPlaylistRepository(pool),
			database:  pool,
			close:     pool.Close,
		}, nil
	default:
		return stores{}, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}

func openObjectStorage(ctx context.Context, cfg config.ObjectStoreConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case config.MediaBackendS3:
		return storage.NewS3Storage(ctx, cfg)
	case config.MediaBackendFS, "":
		return storage.NewFSStorage(cfg.Dir)
	default:
		return nil, fmt.Errorf("unsupported media backend %q", cfg.Backend)
	}
}
