package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/itchan-dev/imagestore/backend/internal/router"
	"github.com/itchan-dev/imagestore/backend/internal/setup"
	"github.com/itchan-dev/imagestore/shared/config"
	"github.com/itchan-dev/imagestore/shared/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustLoad(configFolder)
		logger.Initialize(cfg.Public.LogLevel, cfg.Public.LogJSON)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		deps, err := setup.SetupDependencies(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to set up dependencies: %w", err)
		}
		defer func() {
			if err := deps.Cleanup(); err != nil {
				logger.Log.Error("failed to close record store", "error", err)
			}
		}()

		return serve(ctx, cfg, router.New(deps))
	},
}

// serve runs the server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, cfg *config.Config, h http.Handler) error {
	srv := &http.Server{
		Addr:              cfg.Public.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("server started",
			"addr", cfg.Public.Addr,
			"upload_path", cfg.Public.UploadPath,
			"record_store", cfg.Public.RecordStore,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
