package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"support-chat/internal/api"
	"support-chat/internal/app"
	"support-chat/internal/config"
	"support-chat/internal/logger"
	"support-chat/internal/repository/db"
	"support-chat/internal/repository/memory"
	"support-chat/internal/repository/postgres"
	"support-chat/internal/service/llm"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}
	logger.SetLevel(appConfig.LogLevel)

	store := openStore(appConfig)
	defer store.Close()

	completer, err := llm.NewCompleter(context.Background(), appConfig.LLM)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize LLM provider")
	}
	if closer, ok := completer.(io.Closer); ok {
		defer closer.Close()
	}

	router := api.NewRouter(app.NewConfig(store, appConfig, completer))

	srv := &http.Server{
		Addr:         ":" + appConfig.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", appConfig.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("Server forced to shutdown")
	}
	logger.Log.Info("Server stopped")
}

// openStore selects the store. A failed Postgres connection yields the unavailable
// store so the server still answers with degraded results.
func openStore(appConfig *config.AppConfig) db.Database {
	ownerOpenID := appConfig.Auth.OwnerOpenID

	if appConfig.Database.UseInMemory {
		logger.Log.Info("Using in-memory store")
		return memory.NewStore(ownerOpenID)
	}

	store, err := postgres.NewPostgresDB(appConfig.Database, ownerOpenID)
	if err != nil {
		logger.Log.WithError(err).Error("Database unavailable, continuing without persistence")
		return postgres.Unavailable(ownerOpenID)
	}
	return store
}
