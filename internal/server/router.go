package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quillbase/quillbase/internal/api"
	"github.com/quillbase/quillbase/internal/api/handlers"
	"github.com/quillbase/quillbase/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	ChatHandler     *handlers.ChatHandler
	DocumentHandler *handlers.DocumentHandler
	MaxBodyBytes    int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 10 * 1024 * 1024
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/chat", cfg.ChatHandler.Respond)
		r.Get("/chat/history", cfg.ChatHandler.History)

		// Document management mutates the shared corpus, so it is admin-only.
		r.Route("/documents", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/upload", cfg.DocumentHandler.Upload)
			r.Get("/", cfg.DocumentHandler.List)
			r.Delete("/{id}", cfg.DocumentHandler.Delete)
		})
	})

	return r
}
