package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/99minutos/share-marketplace/internal/infrastructure/storage"
	"github.com/99minutos/share-marketplace/pkg/logger"
)

// MigrateCmd applies the postgres schema or the mongo indexes.
var MigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema for STORAGE_DRIVER",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg.Storage.AutoMigrate = false

		store, err := storage.Open(cmd.Context(), cfg, logger.Component("storage"))
		if err != nil {
			return err
		}
		defer store.Close(context.Background())

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		log.Info().Str("driver", store.Driver).Msg("migrations applied")
		return nil
	},
}
