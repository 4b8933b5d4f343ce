package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"support-chat/internal/logger"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// AppConfig holds all application configuration
type AppConfig struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Auth     AuthConfig
	LogLevel string
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string
	AllowedOrigins []string
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL         string
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	UseInMemory bool
}

// LLMConfig holds completion provider configuration
type LLMConfig struct {
	Provider     string
	APIKey       string
	BaseURL      string
	Model        string
	SystemPrompt string
}

// AuthConfig holds session configuration
type AuthConfig struct {
	JWTSecret    []byte
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	OwnerOpenID  string
}

const minJWTSecretLength = 32

// LoadConfig loads and validates application configuration from environment.
// A .env file in the working directory is read first when present.
func LoadConfig() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, relying on environment variables")
	}

	config := &AppConfig{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
	}

	config.Server = ServerConfig{
		Port:           getEnvOrDefault("SERVER_PORT", "8080"),
		AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
	}

	config.Database = DatabaseConfig{
		URL:         os.Getenv("DATABASE_URL"),
		Host:        getEnvOrDefault("DB_HOST", "localhost"),
		Port:        getEnvOrDefault("DB_PORT", "5432"),
		User:        getEnvOrDefault("DB_USER", "postgres"),
		Password:    getEnvOrDefault("DB_PASSWORD", "postgres"),
		Name:        getEnvOrDefault("DB_NAME", "support"),
		SSLMode:     getEnvOrDefault("DB_SSLMODE", "disable"),
		UseInMemory: getEnvAsBool("DB_USE_IN_MEMORY", false),
	}

	apiKey := os.Getenv("LLM_API_KEY")
	if apiKey == "" {
		logger.Log.Warn("LLM_API_KEY environment variable not set, answers will use the fallback message")
	}
	config.LLM = LLMConfig{
		Provider:     strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "openai")),
		APIKey:       apiKey,
		BaseURL:      os.Getenv("LLM_BASE_URL"),
		Model:        os.Getenv("LLM_MODEL"),
		SystemPrompt: os.Getenv("LLM_SYSTEM_PROMPT"),
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable must be set")
	}
	if len(jwtSecret) < minJWTSecretLength {
		return nil, fmt.Errorf("JWT_SECRET must be at least %d characters (current length: %d)", minJWTSecretLength, len(jwtSecret))
	}

	config.Auth = AuthConfig{
		JWTSecret:    []byte(jwtSecret),
		CookieName:   getEnvOrDefault("SESSION_COOKIE_NAME", "app_session_id"),
		CookieSecure: getEnvAsBool("SESSION_COOKIE_SECURE", false),
		SessionTTL:   getEnvAsDuration("SESSION_TTL", 365*24*time.Hour),
		OwnerOpenID:  os.Getenv("OWNER_OPEN_ID"),
	}

	return config, nil
}

// GetDSN returns the database connection string. DATABASE_URL wins when set.
func (c *DatabaseConfig) GetDSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid boolean value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"key": key, "default": defaultValue}).Warn("Invalid duration value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var values []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			values = append(values, item)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
