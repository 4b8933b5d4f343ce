package app

import (
	"support-chat/internal/config"
	"support-chat/internal/repository/db"
	"support-chat/internal/service/llm"
)

// Config holds all application dependencies and configuration
type Config struct {
	// Database interface for data persistence
	DB db.Database
	// Completer answers support questions
	Completer llm.Completer
	// Centralized application configuration
	AppConfig *config.AppConfig
}

// NewConfig creates a new application configuration
func NewConfig(database db.Database, appConfig *config.AppConfig, completer llm.Completer) *Config {
	return &Config{
		DB:        database,
		Completer: completer,
		AppConfig: appConfig,
	}
}
