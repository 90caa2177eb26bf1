package db

import (
	"fmt"
	"time"

	"literature-manager/internal/config"
	"literature-manager/internal/logging"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var AppDb *gorm.DB

// Dialector picks the gorm driver for the configured backend.
func Dialector(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres", "":
		dsn := fmt.Sprintf("host=%v user=%v password=%v dbname=%v port=%v sslmode=disable",
			cfg.DBHost,
			cfg.DBUser,
			cfg.DBPassword,
			cfg.DBName,
			cfg.DBPort,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.SQLitePath + "?_pragma=foreign_keys(1)"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}

// GormConfig translates driver errors so unique violations surface as
// gorm.ErrDuplicatedKey.
func GormConfig(environment string) *gorm.Config {
	level := logger.Info
	if environment == "production" {
		level = logger.Error
	}
	return &gorm.Config{
		Logger:         logging.NewGormLogger(level, time.Second),
		TranslateError: true,
	}
}

func ConnectDb() error {
	dialector, err := Dialector(config.AppConfig)
	if err != nil {
		return err
	}

	db, err := gorm.Open(dialector, GormConfig(config.AppConfig.Environment))
	if err != nil {
		return fmt.Errorf("error connecting to db: %w", err)
	}
	AppDb = db
	log.Info().Str("driver", config.AppConfig.DBDriver).Msg("success connecting to db")

	return nil
}

func CloseDb() {
	if AppDb == nil {
		return
	}
	sqlDB, err := AppDb.DB()
	if err != nil {
		log.Error().Err(err).Msg("failed to get db handle")
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close db")
		return
	}
	log.Info().Msg("closing db")
}
