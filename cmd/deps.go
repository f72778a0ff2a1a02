package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"gorm.io/gorm"

	"github.com/Leganyst/reservation-platform/internal/config"
	"github.com/Leganyst/reservation-platform/internal/db"
	"github.com/Leganyst/reservation-platform/internal/notify"
)

func newLogger(level string) logr.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return logr.FromSlogHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// openDB подключается к БД; closeFn закрывает пул соединений.
func openDB(cfg *config.Config, log logr.Logger) (*gorm.DB, func(), error) {
	gormDB, err := db.NewGormDB(&cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("sql DB: %w", err)
	}
	closeFn := func() {
		if err := sqlDB.Close(); err != nil {
			log.Error(err, "close db")
		}
	}
	return gormDB, closeFn, nil
}

func redisOptions(cfg *config.Config) notify.RedisOptions {
	return notify.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
}
