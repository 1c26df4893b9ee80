package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-ledger/internal/api"
	"github.com/Veraticus/spice-ledger/internal/config"
	"github.com/Veraticus/spice-ledger/internal/pipeline"
	"github.com/Veraticus/spice-ledger/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	var noSchedule bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload API and run scheduled classification",
		Long: `Start the HTTP API for statement uploads and a cron scheduler that
drains the staging area on schedule.classify, retrying batches that failed
earlier.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			settings := config.LoadServerSettings()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			orchestrator, closeClassifier, err := newOrchestrator(ctx, store, nil)
			if err != nil {
				return err
			}
			defer closeClassifier()

			uploader := pipeline.NewUploader(store, config.LoadUploadSettings())
			server := api.NewServer(uploader, orchestrator, store)

			var sched *scheduler.Scheduler
			if !noSchedule {
				sched, err = scheduler.New(settings.ClassifySchedule, settings.Timezone, func(jobCtx context.Context) {
					server.ClassifyNow(jobCtx)
				})
				if err != nil {
					return err
				}
				sched.Start()
			}

			httpServer := &http.Server{
				Addr:              settings.Addr,
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "addr", settings.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("http server failed: %w", err)
				}
			case <-ctx.Done():
				slog.Info("Shutting down")
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				slog.Warn("HTTP server shutdown incomplete", "error", err)
			}
			if sched != nil {
				if err := sched.Stop(shutdownCtx); err != nil {
					slog.Warn("Scheduler shutdown incomplete", "error", err)
				}
			}
			server.Close()
			return nil
		},
	}

	cmd.Flags().BoolVar(&noSchedule, "no-schedule", false, "serve the API without the classification scheduler")

	return cmd
}
