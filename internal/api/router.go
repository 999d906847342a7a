package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// loggingMiddleware logs request method, path, and latency.
func loggingMiddleware(logger *slog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
			)
		})
	}
}

// NewRouter creates and configures the HTTP router.
func NewRouter(handler *Handler, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(loggingMiddleware(logger))

	r.HandleFunc("/api/documents", handler.HandleIngest).Methods(http.MethodPost)
	r.HandleFunc("/api/documents/search", handler.HandleSearch).Methods(http.MethodPost)
	r.HandleFunc("/api/documents", handler.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/api/documents/{id}", handler.HandleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/health", handler.HandleHealth).Methods(http.MethodGet)

	return r
}
