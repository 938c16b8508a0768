package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"clmmEngine/internal/config"
	"clmmEngine/internal/replay"
	"clmmEngine/internal/storage"
	"clmmEngine/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "clmm",
		Short:        "Concentrated liquidity pool engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply an operation log to a pool and record every outcome",
		RunE:  runReplay,
	}
	addPoolFlags(replayCmd)
	replayCmd.Flags().String("in", "", "input operations JSONL")
	replayCmd.Flags().String("out", "./data/records.jsonl", "output records JSONL")
	replayCmd.Flags().Uint64("batch-size", 500, "operations per batch")
	replayCmd.Flags().String("checkpoint", "./data/checkpoint.json", "checkpoint file path")
	replayCmd.Flags().Bool("checkpoint-enabled", true, "enable checkpointing")
	replayCmd.Flags().Int("max-retries", 5, "maximum retry attempts for sinks")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for pool snapshots")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Simulate swap requests against a replayed pool",
		RunE:  runQuote,
	}
	addPoolFlags(quoteCmd)
	quoteCmd.Flags().String("in", "", "operations JSONL that builds the pool")
	quoteCmd.Flags().String("requests", "", "swap requests JSONL")
	quoteCmd.Flags().String("out", "./data/quotes.jsonl", "output quotes JSONL")
	quoteCmd.Flags().Int("workers", 8, "concurrent simulations")
	quoteCmd.Flags().Int("cache-size", 4096, "quote cache entries")

	root.AddCommand(quoteCmd)

	aggregateCmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate operation records into window metrics",
		RunE:  runAggregate,
	}

	aggregateCmd.Flags().String("in", "./data/records.jsonl", "input records JSONL")
	aggregateCmd.Flags().Duration("window", 5*time.Minute, "aggregation window (e.g. 1m, 5m, 1h)")
	aggregateCmd.Flags().String("pool-id", "", "pool id used to key aggregation progress")
	aggregateCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	aggregateCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	aggregateCmd.Flags().String("state-file", "", "optional local state file for progress tracking")
	aggregateCmd.Flags().String("recompute-from", "", "recompute from timestamp (unix seconds or RFC3339)")
	aggregateCmd.Flags().Uint8("decimals-a", 0, "coin A decimals")
	aggregateCmd.Flags().Uint8("decimals-b", 0, "coin B decimals")
	aggregateCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(aggregateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPoolFlags(cmd *cobra.Command) {
	cmd.Flags().String("pool-id", "", "pool id, random when empty")
	cmd.Flags().String("coin-a", "", "coin A type")
	cmd.Flags().String("coin-b", "", "coin B type")
	cmd.Flags().Uint8("decimals-a", 0, "coin A decimals")
	cmd.Flags().Uint8("decimals-b", 0, "coin B decimals")
	cmd.Flags().Int32("tick-spacing", 60, "tick spacing")
	cmd.Flags().Uint64("fee-rate", 2500, "swap fee in parts per million")
	cmd.Flags().Uint64("protocol-fee-rate", 0, "protocol share of the fee in basis points")
	cmd.Flags().String("initial-price", "", "initial price of A in B")
	cmd.Flags().String("initial-sqrt-price", "", "initial Q64.64 sqrt price, overrides initial-price")
	cmd.Flags().StringSlice("fund", nil, "caller wallet funding, COIN=amount (comma-separated)")
	cmd.Flags().String("start-time", "", "pool clock before the first operation (unix seconds or RFC3339)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Input == "" {
		return fmt.Errorf("input path is required")
	}
	poolCfg, err := cfg.Pool.Build()
	if err != nil {
		return err
	}
	runCfg, err := cfg.RunConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshots replay.SnapshotStore
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		snapshots = store
	}

	runner, err := replay.NewRunner(runCfg, poolCfg, storage.NewJsonlStorage(cfg.Out), snapshots, logger)
	if err != nil {
		return err
	}

	logger.Info("replay start",
		zap.String("pool", runner.Pool().ID()),
		zap.String("in", cfg.Input),
		zap.String("out", cfg.Out),
		zap.Uint64("batch_size", cfg.BatchSize),
		zap.Bool("checkpoint_enabled", cfg.CheckpointEnabled),
		zap.String("checkpoint", cfg.Checkpoint),
		zap.Bool("snapshots", snapshots != nil),
	)

	return runner.Run(ctx)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
