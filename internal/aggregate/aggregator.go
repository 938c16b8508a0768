package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"clmmEngine/internal/model"
	"clmmEngine/internal/storage"
)

const (
	feeMethodRecorded = "recorded_swap_fee"
	tvlMethodReserves = "custody_reserves"
	tvlMethodNone     = "unavailable"
)

// Config controls aggregation behavior.
type Config struct {
	WindowSeconds uint64
	BatchSize     int
	RecomputeFrom uint64
	StateStore    StateStore
	DecimalsA     uint8
	DecimalsB     uint8
}

// MetricsStore receives finished windows.
type MetricsStore interface {
	UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error
}

// Aggregator folds operation records into pool window metrics.
type Aggregator struct {
	cfg          Config
	store        MetricsStore
	logger       *zap.Logger
	accumulators map[string]*Accumulator
}

func NewAggregator(cfg Config, store MetricsStore, logger *zap.Logger) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Aggregator{
		cfg:          cfg,
		store:        store,
		logger:       logger,
		accumulators: make(map[string]*Accumulator),
	}
}

// Run executes aggregation over an operation records JSONL file.
func (a *Aggregator) Run(ctx context.Context, inputPath string) error {
	if a.store == nil {
		return fmt.Errorf("store is nil")
	}
	if a.cfg.WindowSeconds == 0 {
		return fmt.Errorf("window seconds must be > 0")
	}
	if a.cfg.BatchSize <= 0 {
		a.cfg.BatchSize = 1000
	}

	startTs, err := a.loadStartTimestamp(ctx)
	if err != nil {
		return err
	}

	batch := make([]model.PoolWindowMetrics, 0, a.cfg.BatchSize)
	maxTs := startTs
	var total, windows, skipped, failed int

	err = storage.ScanJSONL(inputPath, func(record model.OperationRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		total++
		if record.Timestamp <= startTs {
			skipped++
			return nil
		}

		windowStart := windowStart(record.Timestamp, a.cfg.WindowSeconds)
		windowEnd := windowStart + a.cfg.WindowSeconds

		acc := a.accumulators[record.PoolID]
		if acc == nil {
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.PoolID] = acc
		} else if acc.WindowStart != windowStart {
			batch = append(batch, a.flushAccumulator(acc))
			windows++
			acc = NewAccumulator(record, windowStart, windowEnd)
			a.accumulators[record.PoolID] = acc
		}

		if err := acc.AddRecord(record); err != nil {
			failed++
			a.logger.Warn("aggregate record", zap.Error(err), zap.String("pool", record.PoolID), zap.Uint64("seq", record.Seq))
			return nil
		}

		if record.Timestamp > maxTs {
			maxTs = record.Timestamp
		}

		if len(batch) >= a.cfg.BatchSize {
			if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
			return a.saveState(ctx)
		}
		return nil
	}, func(line int, err error) {
		failed++
		a.logger.Warn("decode record", zap.Int("line", line), zap.Error(err))
	})
	if err != nil {
		return err
	}

	for _, acc := range a.accumulators {
		batch = append(batch, a.flushAccumulator(acc))
		windows++
	}
	a.accumulators = make(map[string]*Accumulator)

	if len(batch) > 0 {
		if err := a.store.UpsertWindowMetrics(ctx, batch); err != nil {
			return err
		}
	}

	a.cfg.RecomputeFrom = maxTs
	if err := a.saveState(ctx); err != nil {
		return err
	}

	a.logger.Info("aggregate complete",
		zap.Int("total", total),
		zap.Int("windows", windows),
		zap.Int("skipped", skipped),
		zap.Int("failed", failed),
	)

	return nil
}

func (a *Aggregator) loadStartTimestamp(ctx context.Context) (uint64, error) {
	if a.cfg.RecomputeFrom > 0 {
		return a.cfg.RecomputeFrom - 1, nil
	}
	if a.cfg.StateStore == nil {
		return 0, nil
	}
	last, ok, err := a.cfg.StateStore.Load(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return last, nil
}

func (a *Aggregator) saveState(ctx context.Context) error {
	if a.cfg.StateStore == nil {
		return nil
	}

	if len(a.accumulators) == 0 {
		return a.cfg.StateStore.Save(ctx, a.cfg.RecomputeFrom)
	}

	safeTs := minOpenWindowStart(a.accumulators)
	if safeTs > 0 {
		safeTs = safeTs - 1
	}
	if safeTs == 0 {
		safeTs = a.cfg.RecomputeFrom
	}
	return a.cfg.StateStore.Save(ctx, safeTs)
}

func (a *Aggregator) flushAccumulator(acc *Accumulator) model.PoolWindowMetrics {
	decimalsA, decimalsB := a.cfg.DecimalsA, a.cfg.DecimalsB

	var tvlA, tvlB *string
	tvlMethod := tvlMethodNone
	reserveA := dec(acc.Reserves.AmountA)
	reserveB := dec(acc.Reserves.AmountB)
	if acc.Reserves.CoinA != "" {
		valA, valB := formatTokenAmount(reserveA, decimalsA), formatTokenAmount(reserveB, decimalsB)
		tvlA, tvlB = &valA, &valB
		tvlMethod = tvlMethodReserves
	} else {
		reserveA, reserveB = decimal.Zero, decimal.Zero
	}

	feeRateA, feeRateB := computeFeeRates(acc.FeeA, acc.FeeB, reserveA, reserveB)

	return model.PoolWindowMetrics{
		PoolID:         acc.PoolID,
		WindowSizeSecs: int64(a.cfg.WindowSeconds),
		WindowStart:    time.Unix(int64(acc.WindowStart), 0).UTC(),
		WindowEnd:      time.Unix(int64(acc.WindowEnd), 0).UTC(),
		SwapCount:      acc.SwapCount,
		VolumeA:        formatTokenAmount(acc.VolumeA, decimalsA),
		VolumeB:        formatTokenAmount(acc.VolumeB, decimalsB),
		FeeA:           formatTokenAmount(acc.FeeA, decimalsA),
		FeeB:           formatTokenAmount(acc.FeeB, decimalsB),
		ProtocolFeeA:   formatTokenAmount(acc.ProtocolFeeA, decimalsA),
		ProtocolFeeB:   formatTokenAmount(acc.ProtocolFeeB, decimalsB),
		FeeRateA:       feeRateA,
		FeeRateB:       feeRateB,
		TVLA:           tvlA,
		TVLB:           tvlB,
		APR:            computeAPR(feeRateA, feeRateB, a.cfg.WindowSeconds),
		ClosePrice:     acc.ClosePrice,
		FeeMethod:      feeMethodRecorded,
		TVLMethod:      tvlMethod,
	}
}

func windowStart(ts uint64, windowSec uint64) uint64 {
	return ts - (ts % windowSec)
}

func minOpenWindowStart(acc map[string]*Accumulator) uint64 {
	var min uint64
	for _, entry := range acc {
		if entry == nil {
			continue
		}
		if min == 0 || entry.WindowStart < min {
			min = entry.WindowStart
		}
	}
	return min
}
