package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/claimdesk/intake"
	"github.com/claimdesk/intake/internal/cli"
	httpadapter "github.com/claimdesk/intake/pkg/adapters/http"
	"github.com/claimdesk/intake/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Serves wizard sessions as a JSON API with server-sent draft updates and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.HTTP.Addr = addr
		}

		metrics, err := observability.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return fmt.Errorf("register metrics: %w", err)
		}
		hooks := metrics.Hooks().Merge(observability.LoggingHooks(logger))

		engine, err := cli.CreateEngine(cfg, logger, intake.WithLifecycleHooks(hooks))
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr: cfg.HTTP.Addr,
			Handler: httpadapter.NewHandler(engine.Sessions(),
				httpadapter.WithLogger(logger),
				httpadapter.WithVersion(intake.Version),
			),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("starting intake server", "addr", srv.Addr, "backend", cfg.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		sc := cli.NewSignalContext(cmd.Context())
		defer sc.Cancel()

		select {
		case err := <-serverErrors:
			_ = engine.Close(context.Background())
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-sc.Done():
			logger.Info("shutdown started", "signal", sc.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				_ = srv.Close()
			}
			// Pending checkpoints are written before exit.
			if err := engine.Close(ctx); err != nil {
				logger.Error("failed to flush checkpoints", "err", err)
				return err
			}
			logger.Info("intake server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "listen address (overrides http.addr)")
}
