package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/aretw0/panelstate/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP host bridge",
		Long: `Starts a state registry behind an HTTP API. Hosts create, read and update
panel states over JSON and follow saves and patches on the /events SSE stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			restore, _ := cmd.Flags().GetBool("restore")

			// Context canceled on interrupt signal
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			if restore {
				n, err := a.restore(ctx)
				if err != nil {
					return err
				}
				logger.Info("restored stored states", "count", n)
			}

			var opts []httpAdapter.Option
			opts = append(opts, httpAdapter.WithLogger(logger))
			if cfg.HTTP.Metrics {
				opts = append(opts, httpAdapter.WithMetrics(promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{})))
			}

			srv := &http.Server{
				Addr:              cfg.HTTP.Addr,
				Handler:           httpAdapter.NewHandler(a.sessions, a.streams, opts...),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("Starting panelstate server", "addr", srv.Addr, "store", cfg.Store.Kind, "notify", cfg.Notify.Kind)
				serverErrors <- srv.ListenAndServe()
			}()

			// Blocking main and waiting for shutdown.
			select {
			case err := <-serverErrors:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
			case <-ctx.Done():
				logger.Info("Start shutdown")

				// Give outstanding requests a deadline for completion.
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Graceful shutdown did not complete", "timeout", cfg.HTTP.ShutdownTimeout, "err", err)
					if err := srv.Close(); err != nil {
						logger.Error("Error killing server", "err", err)
					}
				}
			}

			checkpointCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			n, err := a.checkpoint(checkpointCtx)
			if err != nil {
				logger.Error("checkpoint failed", "written", n, "err", err)
				return err
			}
			logger.Info("panelstate server stopped gracefully", "checkpointed", n)
			return nil
		},
	}

	serveCmd.Flags().Bool("restore", true, "Recreate entries from the store on startup")
	return serveCmd
}
