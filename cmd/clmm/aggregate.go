package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clmmEngine/internal/aggregate"
	"clmmEngine/internal/config"
	"clmmEngine/internal/storage/postgres"
)

func runAggregate(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadAggregate(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()

	agg := aggregate.NewAggregator(aggregate.Config{
		WindowSeconds: cfg.WindowSeconds(),
		BatchSize:     cfg.BatchSize,
		RecomputeFrom: cfg.RecomputeFrom,
		StateStore:    aggregateState(cfg, store),
		DecimalsA:     cfg.DecimalsA,
		DecimalsB:     cfg.DecimalsB,
	}, store, logger)

	logger.Info("aggregate start",
		zap.String("input", cfg.Input),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("pool", cfg.PoolID),
		zap.Duration("window", cfg.Window),
		zap.String("state", cfg.StateName()),
		zap.Uint64("recompute_from", cfg.RecomputeFrom),
	)
	return agg.Run(ctx, cfg.Input)
}

// aggregateState prefers a local state file and falls back to the shared
// replay_state table.
func aggregateState(cfg config.AggregateConfig, store *postgres.Store) aggregate.StateStore {
	if cfg.StateFile != "" {
		return &aggregate.FileStateStore{Path: cfg.StateFile}
	}
	return &aggregate.DBStateStore{Store: store, Name: cfg.StateName()}
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
