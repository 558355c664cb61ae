package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"swapEngine/internal/config"
	"swapEngine/internal/model"
	"swapEngine/internal/replay"
	"swapEngine/internal/storage"
	"swapEngine/internal/storage/postgres"
)

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Script == "" {
		return fmt.Errorf("script path is required")
	}

	assetA, err := replay.ParseAddress("asset-a", cfg.AssetA)
	if err != nil {
		return err
	}
	assetB, err := replay.ParseAddress("asset-b", cfg.AssetB)
	if err != nil {
		return err
	}
	poolAccount, err := replay.ParseAddress("pool-account", cfg.PoolAccount)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sinks := []storage.EventSink{storage.NewJsonlSink(cfg.Out)}

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, &pgEventSink{ctx: ctx, store: store})
	}

	runner, err := replay.NewRunner(replay.RunConfig{
		AssetA:            assetA,
		AssetB:            assetB,
		PoolAccount:       poolAccount,
		BatchSize:         cfg.BatchSize,
		CheckpointPath:    cfg.Checkpoint,
		CheckpointEnabled: cfg.CheckpointEnabled,
		MaxRetries:        cfg.MaxRetries,
		RetryBackoff:      cfg.RetryBackoff,
	}, teeSink(sinks), logger)
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("asset_a", assetA.Hex()),
		zap.String("asset_b", assetB.Hex()),
		zap.String("pool_account", poolAccount.Hex()),
		zap.String("script", cfg.Script),
		zap.String("out", cfg.Out),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
	)

	if err := runner.Run(ctx, cfg.Script); err != nil {
		return err
	}

	if store != nil {
		if err := store.UpsertPoolState(ctx, runner.Pool().State()); err != nil {
			return fmt.Errorf("store pool state: %w", err)
		}
	}

	return nil
}

// teeSink fans a batch out to every sink, failing on the first error.
type teeSink []storage.EventSink

func (t teeSink) PutEventBatch(events []model.Event) error {
	for _, sink := range t {
		if err := sink.PutEventBatch(events); err != nil {
			return err
		}
	}
	return nil
}

// pgEventSink adapts the postgres store to the EventSink interface.
type pgEventSink struct {
	ctx   context.Context
	store *postgres.Store
}

func (s *pgEventSink) PutEventBatch(events []model.Event) error {
	return s.store.InsertEvents(s.ctx, events)
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
