// Package server initializes and runs the Plume server: it picks the
// storage backend, runs migrations, wires the services and serves the HTTP
// API until interrupted.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plume-im/plume/internal/federation"
	"github.com/plume-im/plume/internal/logging"
	"github.com/plume-im/plume/internal/server/config"
	"github.com/plume-im/plume/internal/server/httpapi"
	"github.com/plume-im/plume/internal/server/services"
	"github.com/plume-im/plume/internal/server/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	store  storage.Store
	api    *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	var store storage.Store
	if cfg.UseMemoryStore {
		store = storage.NewMemoryStore()
	} else {
		var err error
		store, err = storage.NewPostgresStore(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	if err := store.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	peers := federation.New()

	us := services.NewUserService(store, cfg.SessionTTL)
	hs := services.NewHandshakeService(store, peers, cfg.PublicServerURL)
	es := services.NewExchangeService(store, peers)

	api := httpapi.NewServer(us, hs, es, logger)

	return &App{config: cfg, logger: logger, store: store, api: api}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.initSignalHandler(cancelFunc)

	srv := &http.Server{
		Addr:    app.config.EndpointAddr,
		Handler: app.api.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info(ctx, "starting server", "addr", app.config.EndpointAddr, "url", app.config.PublicServerURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	app.logger.Info(ctx, "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(ctx, "shutdown error", "error", err)
	}

	if err := app.store.Close(); err != nil {
		app.logger.Error(ctx, "store close error", "error", err)
	}

	return nil
}
