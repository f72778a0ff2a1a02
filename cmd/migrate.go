package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Leganyst/reservation-platform/internal/config"
	"github.com/Leganyst/reservation-platform/internal/model"
)

func newMigrateCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*envFile)
			if err != nil {
				return err
			}
			log := newLogger(cfg.LogLevel)

			gormDB, closeDB, err := openDB(cfg, log)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := model.AutoMigrate(gormDB); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			log.Info("schema is up to date", "driver", cfg.DB.Driver)
			return nil
		},
	}
}
