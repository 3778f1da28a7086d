/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/booknest/apiserver/config"
	"github.com/booknest/apiserver/internal/covers"
	"github.com/booknest/apiserver/internal/db"
	"github.com/booknest/apiserver/internal/mq"
	"github.com/booknest/apiserver/internal/storage"
	"github.com/booknest/apiserver/internal/store"
	"github.com/spf13/cobra"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Runs the cover archive worker",
	Long: `Runs the worker that consumes book events and mirrors cover
images into object storage. Requires both an events backend and a
covers backend to be configured.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		broker, err := mq.NewBackend(ctx, cfg.Events)
		if err != nil {
			return fmt.Errorf("init events backend: %w", err)
		}
		if broker == nil {
			return errors.New("worker requires an events backend (EVENTS_BACKEND)")
		}
		defer broker.Close()

		objects, err := storage.NewObjectStore(ctx, cfg.Covers)
		if err != nil {
			return fmt.Errorf("init covers backend: %w", err)
		}
		if objects == nil {
			return errors.New("worker requires a covers backend (COVERS_BACKEND)")
		}

		dbConn, err := db.Open(ctx, cfg)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer dbConn.Close()

		archiver := covers.NewArchiver(store.NewBookRepository(dbConn), objects, logger)

		logger.Info("cover worker started", "channel", cfg.Events.Channel, "bucket", objects.Bucket())
		if err := archiver.Run(ctx, broker); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Info("cover worker stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
