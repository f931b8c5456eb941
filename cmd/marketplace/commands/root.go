package commands

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/share-marketplace/internal/pkg/config"
	"github.com/99minutos/share-marketplace/pkg/logger"
)

const serviceName = "share-marketplace"

var (
	cfg *config.Config
	log zerolog.Logger
)

// global flags
var logLevel string

var RootCmd = &cobra.Command{
	Use:          "marketplace",
	Short:        "Share marketplace API",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		if cmd.Flags().Changed("log-level") {
			cfg.LogLevel = logLevel
		}
		log = logger.Init(logger.Options{
			Level:   cfg.LogLevel,
			Pretty:  cfg.IsDevelopment(),
			Service: serviceName,
			Env:     cfg.Env,
		})
	},
}

func init() {
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (overrides LOG_LEVEL)")
}
