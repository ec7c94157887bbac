package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maltedev/amazon-piracy-detector/internal/api"
	"github.com/maltedev/amazon-piracy-detector/internal/jobs"
)

var servePort int

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the run API and the latest report over HTTP",
		RunE:  serve,
	}

	cmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides server.port)")

	return cmd
}

func serve(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := jobs.NewManager(ctx, func(ctx context.Context, req jobs.Request) (jobs.Runner, error) {
		return a.newPipeline(ctx, req)
	}, a.metrics, a.logger)

	port := a.cfg.Server.Port
	if servePort > 0 {
		port = servePort
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api.NewRouter(api.NewHandlers(manager, a.logger), a.metrics.Handler()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		a.logger.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", "error", err)
		}
	}()

	a.logger.Info("server starting", "port", port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}

	manager.Wait()
	a.logger.Info("server stopped")
	return nil
}
