package cmd

import (
	"context"
	"errors"
	"fmt"

	"vibe-check-backend/internal/config"
	"vibe-check-backend/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if cfg.Database.Driver == config.DriverMemory {
			return errors.New("the memory driver has no schema to migrate")
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		pool, err := repository.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()

		applied, err := repository.Migrate(ctx, pool)
		if err != nil {
			return err
		}

		log.Info().Int("applied", applied).Msg("Migrations complete")
		return nil
	},
}
