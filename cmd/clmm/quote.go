package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clmmEngine/internal/config"
	"clmmEngine/internal/model"
	"clmmEngine/internal/pool"
	"clmmEngine/internal/quote"
	"clmmEngine/internal/replay"
	"clmmEngine/internal/storage"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Replay.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Requests == "" {
		return fmt.Errorf("requests path is required")
	}
	poolCfg, err := cfg.Replay.Pool.Build()
	if err != nil {
		return err
	}
	runCfg, err := cfg.Replay.RunConfig()
	if err != nil {
		return err
	}
	runCfg.CheckpointEnabled = false

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := replay.NewRunner(runCfg, poolCfg, nil, nil, logger)
	if err != nil {
		return err
	}
	if cfg.Replay.Input != "" {
		ops, err := replay.LoadOperations(cfg.Replay.Input)
		if err != nil {
			return err
		}
		var failed int
		for _, op := range ops {
			if _, err := runner.Apply(op); err != nil {
				failed++
			}
		}
		logger.Info("pool rebuilt", zap.Int("operations", len(ops)), zap.Int("failed", failed))
	}

	var requests []model.SwapParams
	var params []pool.SwapParams
	err = storage.ScanJSONL(cfg.Requests, func(req model.SwapParams) error {
		limit, err := replay.ParseSqrtPriceLimit(req.SqrtPriceLimit, req.AToB)
		if err != nil {
			return err
		}
		requests = append(requests, req)
		params = append(params, pool.SwapParams{
			AToB:           req.AToB,
			ByAmountIn:     req.ByAmountIn,
			Amount:         req.Amount,
			SqrtPriceLimit: limit,
			RefFeeRate:     req.RefFeeRate,
		})
		return nil
	}, nil)
	if err != nil {
		return fmt.Errorf("load requests: %w", err)
	}

	quoter, err := quote.New(cfg.Workers, cfg.CacheSize, logger)
	if err != nil {
		return err
	}
	defer quoter.Close()

	quotes, err := quoter.Batch(ctx, runner.Pool(), params)
	if err != nil {
		return err
	}

	out := make([]model.QuoteRecord, 0, len(quotes))
	for i, q := range quotes {
		rec := model.QuoteRecord{Index: i, Request: requests[i], Cached: q.Cached}
		if q.Err != nil {
			rec.Error = q.Err.Error()
		} else {
			row := replay.SwapRow(q.Params.AToB, q.Result.SwapResult)
			rec.Result = &row
		}
		out = append(out, rec)
	}
	if err := storage.AppendJSONL(cfg.Out, out); err != nil {
		return err
	}

	if best, err := quote.Best(quotes); err == nil {
		logger.Info("best quote",
			zap.Bool("a_to_b", best.Params.AToB),
			zap.Uint64("amount_in", best.Result.AmountIn),
			zap.Uint64("amount_out", best.Result.AmountOut),
			zap.Uint64("fee", best.Result.FeeAmount),
		)
	}
	logger.Info("quote complete", zap.Int("requests", len(quotes)), zap.String("out", cfg.Out))
	return nil
}
