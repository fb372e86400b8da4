package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	appamqp "github.com/gilppon/kaikebu/internal/amqp"
	"github.com/gilppon/kaikebu/internal/cli"
	"github.com/gilppon/kaikebu/internal/mirror"
	gsheet "github.com/gilppon/kaikebu/internal/mirror/google"
	mem "github.com/gilppon/kaikebu/internal/mirror/memory"
	"github.com/gilppon/kaikebu/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()

	logger.Info("Starting kaikebu-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	snapshots := cli.InitSnapshotStore(logger, cfg.SQLiteDBPath)
	defer snapshots.Close()

	var (
		appender mirror.TransactionAppender
		remover  mirror.TransactionRemover
	)
	switch cfg.MirrorBackend {
	case "sheets":
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender, remover = client, client
		logger.Info("Initialized Google Sheets mirror", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	default:
		store := mem.New()
		appender, remover = store, store
		logger.Info("Initialized in-memory mirror")
	}

	amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	amqpClient.SetReconnectDelay(cfg.ReconnectDelay)
	defer amqpClient.Close()

	mirrorWorker := worker.NewMirrorWorker(snapshots, appender, remover)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		logger.Info("Shutting down worker...")
	})

	// Process transactions that were recorded while the worker was down.
	if err := mirrorWorker.StartupSync(ctx); err != nil {
		logger.Error("Startup sync failed", "error", err)
		// Keep consuming; the periodic resync retries the failures.
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeChanges(gctx, func(msg *appamqp.ChangeMessage) error {
			return mirrorWorker.HandleChange(gctx, msg)
		})
	})

	g.Go(func() error {
		ticker := time.NewTicker(cfg.ResyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-ticker.C:
				if err := mirrorWorker.StartupSync(gctx); err != nil {
					logger.Error("Periodic resync failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		cli.WaitForShutdown(ctx, done)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped gracefully")
}
