package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/ppi-network-service/pkg/api"
	"github.com/gilchrisn/ppi-network-service/pkg/config"
)

func newServeCmd(cfg *config.Config) *cobra.Command {
	var address string
	var origins []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.Set("server.address", address)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, origins)
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "Listen address (overrides server.address)")
	cmd.Flags().StringSliceVar(&origins, "cors-origin", nil, "Allowed CORS origins (default any)")
	return cmd
}

func newServer(cfg *config.Config, origins []string) *http.Server {
	handlers := api.NewHandlers(newAnalysisService(cfg))
	return &http.Server{
		Addr:         cfg.ServerAddress(),
		Handler:      api.NewRouter(handlers, origins),
		ReadTimeout:  cfg.ReadTimeout(),
		WriteTimeout: cfg.WriteTimeout(),
	}
}

// serve blocks until ctx is cancelled, then shuts the server down gracefully
func serve(ctx context.Context, cfg *config.Config, origins []string) error {
	server := newServer(cfg, origins)

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", server.Addr).
			Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
