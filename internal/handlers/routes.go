package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/oyt/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Logger         *slog.Logger
	Users          UserStore
	Sessions       SessionManager
	Catalog        Catalog
	Media          MediaStore
	Validator      InputValidator
	Database       Pinger
	AuthLimiter    middleware.RateLimiter
	CORSOrigins    []string
	MaxUploadBytes int64
}

// NewRouter wires the HTTP handlers into a chi router.
func NewRouter(deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	health := HealthHandler{Database: deps.Database}
	authHandler := AuthHandler{Users: deps.Users, Sessions: deps.Sessions, Validator: deps.Validator}
	users := UserHandler{Users: deps.Users, Catalog: deps.Catalog, Validator: deps.Validator}
	videos := VideoHandler{Catalog: deps.Catalog, Media: deps.Media, Validator: deps.Validator, MaxUploadBytes: deps.MaxUploadBytes}
	playlists := PlaylistHandler{Catalog: deps.Catalog}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLogger(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Authenticate(deps.Sessions))

		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.AuthLimiter, "auth"))
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", users.Me)
			r.Patch("/", users.Edit)
			r.Delete("/", users.Delete)
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", videos.List)
			r.Post("/", videos.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", videos.Get)
				r.Patch("/", videos.Edit)
				r.Delete("/", videos.Delete)
				r.Put("/like", videos.Like)
				r.Get("/comments", videos.ListComments)
				r.Post("/comments", videos.AddComment)
				r.Post("/playlists", videos.AddToPlaylists)
				r.Get("/stream", videos.Stream)
				r.Get("/thumbnail", videos.Thumbnail)
			})
		})

		r.Route("/playlists", func(r chi.Router) {
			r.Get("/", playlists.List)
			r.Post("/", playlists.Create)
			r.Get("/mine", playlists.Mine)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", playlists.Get)
				r.Patch("/", playlists.Edit)
				r.Delete("/", playlists.Delete)
				r.Post("/videos", playlists.AddVideos)
				r.Delete("/videos", playlists.RemoveVideos)
				r.Get("/videos/{videoId}", playlists.Entry)
			})
		})
	})

	return r
}
