package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Leganyst/reservation-platform/internal/config"
	"github.com/Leganyst/reservation-platform/internal/notify"
)

func newWorkerCmd(envFile *string) *cobra.Command {
	var timezone string

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Deliver queued reservation notifications by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			loc, err := time.LoadLocation(timezone)
			if err != nil {
				return fmt.Errorf("timezone %q: %w", timezone, err)
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			opts := redisOptions(cfg)
			pingCtx, stop := context.WithTimeout(ctx, 5*time.Second)
			err = notify.PingRedis(pingCtx, opts)
			stop()
			if err != nil {
				return err
			}

			renderer, err := notify.NewRenderer(loc)
			if err != nil {
				return err
			}
			mailer := notify.NewBrevoMailer(notify.BrevoConfig{
				URL:       cfg.Mail.APIURL,
				APIKey:    cfg.Mail.APIKey,
				FromEmail: cfg.Mail.FromEmail,
				FromName:  cfg.Mail.FromName,
				Timeout:   cfg.Mail.Timeout,
			})
			if cfg.Mail.APIKey == "" {
				log.Info("MAIL_API_KEY is empty, notifications will be dropped")
			}

			srv := notify.NewServer(opts, cfg.Notify.Queue, cfg.Notify.WorkerConcurrency, log)
			if err := srv.Start(notify.NewServeMux(notify.NewHandler(mailer, renderer, log))); err != nil {
				return fmt.Errorf("start worker: %w", err)
			}
			log.Info("notification worker started", "queue", cfg.Notify.Queue, "concurrency", cfg.Notify.WorkerConcurrency)

			<-ctx.Done()
			log.Info("shutting down notification worker")
			srv.Shutdown()
			return nil
		},
	}

	cmd.Flags().StringVar(&timezone, "timezone", "Europe/Paris", "timezone used to print reservation times in emails")
	return cmd
}
