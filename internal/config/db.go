package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	Driver          string
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	TimeZone        string
	SQLitePath      string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifeTime int // минут
}

func setDBDefaults(v *viper.Viper) {
	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "postgres")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "booking")
	v.SetDefault("DB_PASSWORD", "booking")
	v.SetDefault("DB_NAME", "booking_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_TIMEZONE", "UTC")
	v.SetDefault("DB_SQLITE_PATH", "reservations.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME_MIN", 30)
}

func loadDBConfig(v *viper.Viper) (DBConfig, error) {
	cfg := DBConfig{
		Driver:          v.GetString("DB_DRIVER"),
		Host:            v.GetString("DB_HOST"),
		Port:            v.GetInt("DB_PORT"),
		User:            v.GetString("DB_USER"),
		Password:        v.GetString("DB_PASSWORD"),
		Name:            v.GetString("DB_NAME"),
		SSLMode:         v.GetString("DB_SSLMODE"),
		TimeZone:        v.GetString("DB_TIMEZONE"),
		SQLitePath:      v.GetString("DB_SQLITE_PATH"),
		MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifeTime: v.GetInt("DB_CONN_MAX_LIFETIME_MIN"),
	}

	// минимальная валидация
	switch cfg.Driver {
	case DriverPostgres:
		if cfg.Host == "" || cfg.User == "" || cfg.Name == "" {
			return cfg, fmt.Errorf("invalid DB config: host/user/name must not be empty")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return cfg, fmt.Errorf("invalid DB config: DB_SQLITE_PATH must not be empty")
		}
	default:
		return cfg, fmt.Errorf("invalid DB config: unknown driver %q", cfg.Driver)
	}

	return cfg, nil
}
