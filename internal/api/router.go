package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/alokm/hr-assistant/internal/logging"
)

// NewRouter wires the HTTP routes. When the handler carries a JWT secret,
// the chat endpoints require a bearer token; /health stays public.
func NewRouter(h *APIHandler, log *logging.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(requestLogger(log.Sub("http")))

	r.Get("/health", h.HealthHandler)

	r.Group(func(r chi.Router) {
		if h.jwtSecret != "" {
			r.Use(h.BearerAuthMiddleware)
		}
		r.Post("/chat", h.ChatHandler)
		r.Delete("/chat_history/{sessionID}", h.ClearHistoryHandler)
	})

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(log *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
