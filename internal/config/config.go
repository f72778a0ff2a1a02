package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config — полная конфигурация процесса.
type Config struct {
	DB          DBConfig
	GRPC        GRPCConfig
	Redis       RedisConfig
	Notify      NotifyConfig
	Mail        MailConfig
	Reservation ReservationConfig
	LogLevel    string
}

type GRPCConfig struct {
	Addr string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

const (
	NotifyModeQueue = "queue"
	NotifyModeLog   = "log"
	NotifyModeNone  = "none"
)

type NotifyConfig struct {
	Mode              string
	Queue             string
	WorkerConcurrency int
}

type MailConfig struct {
	APIURL    string
	APIKey    string
	FromEmail string
	FromName  string
	Timeout   time.Duration
}

type ReservationConfig struct {
	MaxRetries int
}

// Load читает .env (если есть) и переменные окружения.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// уже выставленные переменные окружения не перетираются
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	setDBDefaults(v)
	v.SetDefault("GRPC_ADDR", ":50051")
	v.SetDefault("REDIS_ADDR", "redis:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_MODE", NotifyModeQueue)
	v.SetDefault("NOTIFY_QUEUE", "notifications")
	v.SetDefault("WORKER_CONCURRENCY", 5)
	v.SetDefault("MAIL_API_URL", "https://api.brevo.com/v3/smtp/email")
	v.SetDefault("MAIL_API_KEY", "")
	v.SetDefault("MAIL_FROM_EMAIL", "no-reply@resachap.local")
	v.SetDefault("MAIL_FROM_NAME", "ResaChap")
	v.SetDefault("MAIL_TIMEOUT_SEC", 10)
	v.SetDefault("RESERVATION_MAX_RETRIES", 3)
	v.SetDefault("LOG_LEVEL", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	dbCfg, err := loadDBConfig(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DB:   dbCfg,
		GRPC: GRPCConfig{Addr: v.GetString("GRPC_ADDR")},
		Redis: RedisConfig{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Notify: NotifyConfig{
			Mode:              v.GetString("NOTIFY_MODE"),
			Queue:             v.GetString("NOTIFY_QUEUE"),
			WorkerConcurrency: v.GetInt("WORKER_CONCURRENCY"),
		},
		Mail: MailConfig{
			APIURL:    v.GetString("MAIL_API_URL"),
			APIKey:    v.GetString("MAIL_API_KEY"),
			FromEmail: v.GetString("MAIL_FROM_EMAIL"),
			FromName:  v.GetString("MAIL_FROM_NAME"),
			Timeout:   time.Duration(v.GetInt("MAIL_TIMEOUT_SEC")) * time.Second,
		},
		Reservation: ReservationConfig{MaxRetries: v.GetInt("RESERVATION_MAX_RETRIES")},
		LogLevel:    v.GetString("LOG_LEVEL"),
	}

	switch cfg.Notify.Mode {
	case NotifyModeQueue, NotifyModeLog, NotifyModeNone:
	default:
		return nil, fmt.Errorf("invalid NOTIFY_MODE %q", cfg.Notify.Mode)
	}
	if cfg.Reservation.MaxRetries < 0 {
		return nil, fmt.Errorf("RESERVATION_MAX_RETRIES must be >= 0")
	}

	return cfg, nil
}
