package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	// Server configuration
	ServerPort  string
	Environment string
	LogLevel    string

	// Database configuration
	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	// Redis configuration, empty disables the export cache
	RedisAddress string

	// Auth is enabled when a password hash is configured
	AuthPasswordHash string
	JWTSecret        string
	TokenTTL         time.Duration

	// DOI lookups
	CrossrefURL     string
	CrossrefMailto  string
	CrossrefTimeout time.Duration

	// Uploaded PDFs are stored below MediaRoot
	MediaRoot string
}

// Global application configuration
var AppConfig Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	// Find .env file
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		// Try to find .env in parent directories
		envPath = filepath.Join("..", ".env")
		if _, err := os.Stat(envPath); os.IsNotExist(err) {
			envPath = filepath.Join("..", "..", ".env")
		}
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Warn().Err(err).Msg("error loading .env file")
		}
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		log.Info().Msg("generated random JWT secret")
	}

	AppConfig = Config{
		ServerPort:       getEnv("PORT", "8080"),
		Environment:      getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DBDriver:         getEnv("DB_DRIVER", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBName:           getEnv("DB_NAME", "literature"),
		SQLitePath:       getEnv("SQLITE_PATH", "literature.db"),
		RedisAddress:     getEnv("REDIS_ADDRESS", ""),
		AuthPasswordHash: getEnv("AUTH_PASSWORD_HASH", ""),
		JWTSecret:        jwtSecret,
		TokenTTL:         getDuration("TOKEN_TTL", 72*time.Hour),
		CrossrefURL:      getEnv("CROSSREF_URL", "https://api.crossref.org"),
		CrossrefMailto:   getEnv("CROSSREF_MAILTO", ""),
		CrossrefTimeout:  getDuration("CROSSREF_TIMEOUT", 10*time.Second),
		MediaRoot:        getEnv("MEDIA_ROOT", "media"),
	}
}

// AuthEnabled reports whether routes require a bearer token.
func (c Config) AuthEnabled() bool {
	return c.AuthPasswordHash != ""
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getDuration accepts Go durations ("10s") or plain seconds ("10").
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Warn().Str("key", key).Str("value", value).Msg("invalid duration, using default")
	return defaultValue
}

// generateRandomSecret returns length random bytes, hex encoded.
func generateRandomSecret(length int) string {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		log.Fatal().Err(err).Msg("failed to generate secret")
	}
	return hex.EncodeToString(buf)
}
