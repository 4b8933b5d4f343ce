package api

import (
	"net/http"
	"time"

	"support-chat/internal/app"
	"support-chat/internal/auth"
	"support-chat/internal/logger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

// NewRouter builds the HTTP handler for the RPC surface
func NewRouter(config *app.Config) http.Handler {
	sessions := auth.NewSessionManager(config.AppConfig.Auth)
	authenticator := auth.NewAuthenticator(sessions, config.DB)
	apiHandler := NewAPI(config, sessions)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(config.AppConfig.Server.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"database": config.DB.Available(),
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)
			r.Get("/trpc/{procedure}", apiHandler.ServeProcedure)
			r.Post("/trpc/{procedure}", apiHandler.ServeProcedure)
		})
	})

	return r
}

// corsMiddleware allows credentialed requests from the configured origins
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	for _, origin := range allowedOrigins {
		if origin == "*" {
			options.AllowedOrigins = nil
			options.AllowOriginFunc = func(string) bool { return true }
			break
		}
	}
	return cors.New(options).Handler
}

// requestLogger logs every request through logrus
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		logger.Log.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("HTTP request")
	})
}
