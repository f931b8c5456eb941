package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/99minutos/share-marketplace/internal/api"
	"github.com/99minutos/share-marketplace/internal/api/handler"
	"github.com/99minutos/share-marketplace/internal/core/service"
	"github.com/99minutos/share-marketplace/internal/infrastructure/queue"
	"github.com/99minutos/share-marketplace/internal/infrastructure/storage"
	"github.com/99minutos/share-marketplace/pkg/logger"
)

// ServeCmd runs the HTTP API until SIGINT or SIGTERM.
var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg, logger.Component("storage"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			log.Warn().Err(err).Msg("closing storage")
		}
	}()

	idem := storage.OpenIdempotency(ctx, cfg.Redis, logger.Component("redis"))
	defer func() {
		if err := idem.Close(); err != nil {
			log.Warn().Err(err).Msg("closing redis")
		}
	}()

	audit := queue.NewDispatcher(cfg.Audit.Workers, store.Events, logger.Component("audit"))
	audit.Start(context.WithoutCancel(ctx))

	var replays service.IdempotencyStore
	if idem.Enabled() {
		replays = idem.Store
	}

	e := api.NewRouter(api.Deps{
		AuthService:     service.NewAuthService(store.Users, cfg.Auth.BcryptCost, logger.Component("auth")),
		BusinessService: service.NewBusinessService(store.Businesses, store.Orders, logger.Component("businesses")),
		OrderService:    service.NewOrderService(store.Businesses, store.Orders, audit, replays, logger.Component("orders")),
		Health: []handler.Dependency{
			{Name: "database", Pinger: store},
			{Name: "redis", Pinger: idem},
		},
		Log: logger.Component("http"),
	})

	errc := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("driver", store.Driver).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	err = e.Shutdown(shutdownCtx)
	audit.Stop()
	return err
}
