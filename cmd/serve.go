package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"github.com/Leganyst/reservation-platform/internal/config"
	"github.com/Leganyst/reservation-platform/internal/model"
	"github.com/Leganyst/reservation-platform/internal/notify"
	"github.com/Leganyst/reservation-platform/internal/repository"
	"github.com/Leganyst/reservation-platform/internal/reservation"
	"github.com/Leganyst/reservation-platform/internal/service"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(envFile *string) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reservation gRPC API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			// 1. БД и миграции.
			gormDB, closeDB, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			if migrate {
				if err := model.AutoMigrate(gormDB); err != nil {
					return fmt.Errorf("auto migrate: %w", err)
				}
			}

			// 2. Канал уведомлений.
			notifier, closeNotifier, err := newNotifier(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer closeNotifier()

			// 3. Движок бронирования.
			engine := reservation.NewEngine(
				repository.NewGormStore(gormDB),
				reservation.WithNotifier(notifier),
				reservation.WithLogger(log),
				reservation.WithMaxRetries(cfg.Reservation.MaxRetries),
			)

			// 4. gRPC-сервер.
			srv := service.NewServer(engine, log)
			lis, err := net.Listen("tcp", cfg.GRPC.Addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.GRPC.Addr, err)
			}
			log.Info("gRPC server listening", "addr", cfg.GRPC.Addr, "notify", cfg.Notify.Mode)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(lis) }()

			// 5. Грейсфул-шатдаун по сигналу.
			select {
			case err := <-errCh:
				return fmt.Errorf("grpc serve: %w", err)
			case <-ctx.Done():
			}

			log.Info("shutting down gRPC server")
			shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
			defer stop()
			srv.Shutdown(shutdownCtx)
			return nil
		},
	}

	cmd.Flags().BoolVar(&migrate, "migrate", true, "run database migrations on startup")
	return cmd
}

func newNotifier(ctx context.Context, cfg *config.Config, log logr.Logger) (reservation.Notifier, func(), error) {
	switch cfg.Notify.Mode {
	case config.NotifyModeLog:
		return notify.NewLogNotifier(log), func() {}, nil
	case config.NotifyModeNone:
		return reservation.NopNotifier{}, func() {}, nil
	}

	opts := redisOptions(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := notify.PingRedis(pingCtx, opts); err != nil {
		return nil, nil, fmt.Errorf("notification queue: %w", err)
	}

	client := notify.NewClient(opts)
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Error(err, "close queue client")
		}
	}
	return notify.NewQueueNotifier(client, cfg.Notify.Queue), closeFn, nil
}
