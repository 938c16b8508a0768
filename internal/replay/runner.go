package replay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/model"
	"clmmEngine/internal/pool"
	"clmmEngine/internal/position"
	"clmmEngine/internal/storage"
)

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	InputPath         string
	BatchSize         uint64
	CheckpointPath    string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	StartTime         uint64
	Funding           map[string]uint64
}

// SnapshotStore persists the pool after every batch.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, pool model.Pool, ticks []model.Tick, positions []model.Position) error
}

// Clock replays operation timestamps.
type Clock struct {
	now uint64
}

func (c *Clock) Now() uint64 { return c.now }

// Runner applies an operation log to a single pool and writes one record per
// operation to storage.
type Runner struct {
	cfg        RunConfig
	pool       *pool.Pool
	ledger     *custody.Ledger
	clock      *Clock
	storage    storage.Storage
	snapshots  SnapshotStore
	logger     *zap.Logger
	checkpoint *CheckpointStore
	opened     []position.ID
}

// NewRunner builds the pool, its custody ledger and the Runner around them.
// snapshots may be nil.
func NewRunner(cfg RunConfig, poolCfg pool.Config, storageSink storage.Storage, snapshots SnapshotStore, logger *zap.Logger) (*Runner, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ledger := custody.NewLedger()
	for coin, amount := range cfg.Funding {
		if err := ledger.Fund(coin, amount); err != nil {
			return nil, err
		}
	}
	clock := &Clock{now: cfg.StartTime}
	p, err := pool.New(poolCfg, pool.Deps{Clock: clock, Custody: ledger, Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	return &Runner{
		cfg:        cfg,
		pool:       p,
		ledger:     ledger,
		clock:      clock,
		storage:    storageSink,
		snapshots:  snapshots,
		logger:     logger.With(zap.String("pool", p.ID())),
		checkpoint: NewCheckpointStore(cfg.CheckpointPath, p.ID(), cfg.CheckpointEnabled),
	}, nil
}

func (r *Runner) Pool() *pool.Pool        { return r.pool }
func (r *Runner) Ledger() *custody.Ledger { return r.ledger }
func (r *Runner) Opened() []position.ID   { return append([]position.ID(nil), r.opened...) }

// Run replays the input log. Operations at or before the checkpoint are
// re-applied silently to rebuild state; the rest are recorded in batches.
func (r *Runner) Run(ctx context.Context) error {
	if r.storage == nil {
		return fmt.Errorf("storage is nil")
	}
	if r.cfg.BatchSize == 0 {
		return fmt.Errorf("batch size must be greater than zero")
	}

	ops, err := LoadOperations(r.cfg.InputPath)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		r.logger.Info("nothing to replay", zap.String("input", r.cfg.InputPath))
		return nil
	}

	start := 0
	cp, ok, err := r.checkpoint.Load()
	if err != nil {
		return err
	}
	if ok {
		for start < len(ops) && ops[start].Seq <= cp.LastProcessedSeq {
			// Outcomes were recorded on the previous run; only state is rebuilt.
			if _, err := r.Apply(ops[start]); err != nil {
				r.logger.Debug("resumed operation failed", zap.Uint64("seq", ops[start].Seq), zap.String("op", ops[start].Op), zap.Error(err))
			}
			start++
		}
		if start != cp.Operations {
			return fmt.Errorf("checkpoint covers %d operations up to seq %d, log has %d: %w",
				cp.Operations, cp.LastProcessedSeq, start, ErrCheckpointMismatch)
		}
		r.logger.Info("resume from checkpoint", zap.Uint64("last_processed", cp.LastProcessedSeq), zap.Int("skipped", start))
	}
	if start == len(ops) {
		r.logger.Info("nothing to replay", zap.Int("operations", len(ops)))
		return nil
	}

	ranges, err := SplitRange(uint64(start), uint64(len(ops)-1), r.cfg.BatchSize)
	if err != nil {
		return err
	}

	var applied, failed int
	for _, batch := range ranges {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		appliedAt := time.Now().UTC()
		records := make([]model.OperationRecord, 0, batch.To-batch.From+1)
		for _, op := range ops[batch.From : batch.To+1] {
			result, opErr := r.Apply(op)
			if opErr != nil {
				failed++
				r.logger.Debug("operation failed", zap.Uint64("seq", op.Seq), zap.String("op", op.Op), zap.Error(opErr))
			} else {
				applied++
			}
			rec, err := buildRecord(r.pool, r.ledger, op, result, opErr, appliedAt)
			if err != nil {
				return err
			}
			records = append(records, rec)
		}

		if err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.logger, "store records", func() error {
			return r.storage.PutRecordBatch(records)
		}); err != nil {
			return fmt.Errorf("store records: %w", err)
		}

		lastSeq := ops[batch.To].Seq
		if r.snapshots != nil {
			row, ticks, positions := PoolRow(r.pool, lastSeq), TickRows(r.pool), PositionRows(r.pool)
			if err := withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, r.logger, "save snapshot", func() error {
				return r.snapshots.SaveSnapshot(ctx, row, ticks, positions)
			}); err != nil {
				return fmt.Errorf("save snapshot: %w", err)
			}
		}

		if err := r.checkpoint.Save(lastSeq, int(batch.To)+1); err != nil {
			return err
		}

		r.logger.Info("batch complete", zap.Int("records", len(records)), zap.Uint64("from_seq", ops[batch.From].Seq), zap.Uint64("to_seq", lastSeq))
	}

	r.logger.Info("replay complete",
		zap.Int("total", len(ops)),
		zap.Int("applied", applied),
		zap.Int("failed", failed),
		zap.Int("positions", r.pool.PositionCount()),
		zap.Int("ticks", r.pool.TickCount()),
	)
	return nil
}

// LoadOperations reads a replay log and checks that seq strictly increases.
func LoadOperations(path string) ([]model.Operation, error) {
	var ops []model.Operation
	err := storage.ScanJSONL(path, func(op model.Operation) error {
		if n := len(ops); n > 0 && op.Seq <= ops[n-1].Seq {
			return fmt.Errorf("seq %d after %d: %w", op.Seq, ops[n-1].Seq, ErrSeqOrder)
		}
		ops = append(ops, op)
		return nil
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("load operations: %w", err)
	}
	return ops, nil
}

var (
	ErrSeqOrder  = errors.New("operation seq not increasing")
	ErrUnknownOp = errors.New("unknown operation")
)

// Apply runs one operation as a unit of work. On failure the pool and the
// custody ledger are both left as they were.
func (r *Runner) Apply(op model.Operation) (any, error) {
	if op.Timestamp < r.clock.now {
		return nil, fmt.Errorf("seq %d at %d before %d: %w", op.Seq, op.Timestamp, r.clock.now, pool.ErrInvalidTimestamp)
	}
	prevTime := r.clock.now
	r.clock.now = op.Timestamp

	snap := r.ledger.Snapshot()
	opened := len(r.opened)
	var result any
	err := r.pool.Atomically(func(p *pool.Pool) error {
		var err error
		result, err = r.dispatch(p, op)
		return err
	})
	if err != nil {
		r.ledger.Restore(snap)
		r.opened = r.opened[:opened]
		r.clock.now = prevTime
		return nil, err
	}
	return result, nil
}
