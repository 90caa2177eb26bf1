package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"literature-manager/internal/app"
	"literature-manager/internal/config"
	"literature-manager/internal/db"
	"literature-manager/internal/logging"
	"literature-manager/redis"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	config.LoadConfig()
	logging.Setup(config.AppConfig.Environment, config.AppConfig.LogLevel)
	if config.AppConfig.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := db.ConnectDb(); err != nil {
		log.Fatal().Err(err).Msg("database unavailable")
	}
	defer db.CloseDb()

	// Migrate database schema
	if err := db.Migrate(db.AppDb); err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}

	// Initialize Redis
	cache := redis.InitRedis(context.Background(), config.AppConfig.RedisAddress)
	defer cache.Close()

	if !config.AppConfig.AuthEnabled() {
		log.Warn().Msg("AUTH_PASSWORD_HASH not set, API is unauthenticated")
	}

	router := setupRouter(app.New(config.AppConfig, db.AppDb, cache))

	// Server configuration
	serverPort := config.AppConfig.ServerPort
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverPort),
		Handler: router.Handler(),
	}

	// Start server
	go func() {
		log.Info().Str("port", serverPort).Msg("server listening")
		err := server.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}

	log.Info().Msg("server shutdown complete")
}
