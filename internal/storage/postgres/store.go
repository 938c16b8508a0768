package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"clmmEngine/internal/model"
)

// Store provides Postgres persistence for pool snapshots and metrics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// SaveSnapshot replaces the stored pool row, ticks and positions in one
// transaction.
func (s *Store) SaveSnapshot(ctx context.Context, pool model.Pool, ticks []model.Tick, positions []model.Position) error {
	rewarders, err := json.Marshal(pool.Rewarders)
	if err != nil {
		return fmt.Errorf("marshal rewarders: %w", err)
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO pools (
				pool_id, coin_a, coin_b, decimals_a, decimals_b, tick_spacing,
				sqrt_price, tick, liquidity, fee_rate, protocol_fee_rate,
				fee_growth_global_a, fee_growth_global_b, protocol_fee_owed_a, protocol_fee_owed_b,
				paused, version, rewarders, position_count, last_applied_seq, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,now(),now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				sqrt_price = EXCLUDED.sqrt_price,
				tick = EXCLUDED.tick,
				liquidity = EXCLUDED.liquidity,
				fee_rate = EXCLUDED.fee_rate,
				protocol_fee_rate = EXCLUDED.protocol_fee_rate,
				fee_growth_global_a = EXCLUDED.fee_growth_global_a,
				fee_growth_global_b = EXCLUDED.fee_growth_global_b,
				protocol_fee_owed_a = EXCLUDED.protocol_fee_owed_a,
				protocol_fee_owed_b = EXCLUDED.protocol_fee_owed_b,
				paused = EXCLUDED.paused,
				version = EXCLUDED.version,
				rewarders = EXCLUDED.rewarders,
				position_count = EXCLUDED.position_count,
				last_applied_seq = EXCLUDED.last_applied_seq,
				updated_at = now()
		`,
			pool.ID,
			pool.CoinA,
			pool.CoinB,
			int16(pool.DecimalsA),
			int16(pool.DecimalsB),
			pool.TickSpacing,
			pool.State.SqrtPrice,
			pool.State.Tick,
			pool.State.Liquidity,
			int64(pool.State.FeeRate),
			int64(pool.State.ProtocolFeeRate),
			pool.State.FeeGrowthGlobalA,
			pool.State.FeeGrowthGlobalB,
			pool.State.ProtocolFeeOwedA,
			pool.State.ProtocolFeeOwedB,
			pool.State.Paused,
			int64(pool.State.Version),
			rewarders,
			pool.PositionCount,
			int64(pool.LastAppliedSeq),
		); err != nil {
			return fmt.Errorf("upsert pool: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM pool_ticks WHERE pool_id=$1`, pool.ID); err != nil {
			return fmt.Errorf("clear ticks: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM pool_positions WHERE pool_id=$1`, pool.ID); err != nil {
			return fmt.Errorf("clear positions: %w", err)
		}

		batch := &pgx.Batch{}
		for _, t := range ticks {
			batch.Queue(`
				INSERT INTO pool_ticks (
					pool_id, tick_index, liquidity_gross, liquidity_net, fee_growth_outside_a, fee_growth_outside_b
				) VALUES ($1,$2,$3,$4,$5,$6)
			`,
				t.PoolID,
				t.Index,
				t.LiquidityGross,
				t.LiquidityNet,
				t.FeeGrowthOutsideA,
				t.FeeGrowthOutsideB,
			)
		}
		for _, p := range positions {
			batch.Queue(`
				INSERT INTO pool_positions (
					pool_id, position_id, tick_lower, tick_upper, liquidity, fee_owed_a, fee_owed_b, rewards_owed, points_owed
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
			`,
				p.PoolID,
				p.ID,
				p.TickLower,
				p.TickUpper,
				p.Liquidity,
				p.FeeOwedA,
				p.FeeOwedB,
				p.Rewards,
				p.Points,
			)
		}
		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// UpsertWindowMetrics inserts or updates window metrics.
func (s *Store) UpsertWindowMetrics(ctx context.Context, metrics []model.PoolWindowMetrics) error {
	if len(metrics) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, m := range metrics {
		batch.Queue(`
			INSERT INTO pool_window_metrics (
				pool_id, window_size_seconds, window_start_ts, window_end_ts,
				swap_count, volume_a, volume_b, fee_a, fee_b, protocol_fee_a, protocol_fee_b,
				fee_rate_a, fee_rate_b, tvl_a, tvl_b, apr, close_price, fee_method, tvl_method, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,now(),now())
			ON CONFLICT (pool_id, window_size_seconds, window_start_ts)
			DO UPDATE SET
				window_end_ts = EXCLUDED.window_end_ts,
				swap_count = EXCLUDED.swap_count,
				volume_a = EXCLUDED.volume_a,
				volume_b = EXCLUDED.volume_b,
				fee_a = EXCLUDED.fee_a,
				fee_b = EXCLUDED.fee_b,
				protocol_fee_a = EXCLUDED.protocol_fee_a,
				protocol_fee_b = EXCLUDED.protocol_fee_b,
				fee_rate_a = EXCLUDED.fee_rate_a,
				fee_rate_b = EXCLUDED.fee_rate_b,
				tvl_a = EXCLUDED.tvl_a,
				tvl_b = EXCLUDED.tvl_b,
				apr = EXCLUDED.apr,
				close_price = EXCLUDED.close_price,
				fee_method = EXCLUDED.fee_method,
				tvl_method = EXCLUDED.tvl_method,
				updated_at = now()
		`,
			m.PoolID,
			m.WindowSizeSecs,
			m.WindowStart,
			m.WindowEnd,
			int64(m.SwapCount),
			m.VolumeA,
			m.VolumeB,
			m.FeeA,
			m.FeeB,
			m.ProtocolFeeA,
			m.ProtocolFeeB,
			m.FeeRateA,
			m.FeeRateB,
			m.TVLA,
			m.TVLB,
			m.APR,
			m.ClosePrice,
			m.FeeMethod,
			m.TVLMethod,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range metrics {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadState returns the last processed cursor for a name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var cursor int64
	row := s.pool.QueryRow(ctx, `SELECT last_processed FROM replay_state WHERE name=$1`, name)
	if err := row.Scan(&cursor); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return uint64(cursor), true, nil
}

// SaveState upserts the last processed cursor for a name.
func (s *Store) SaveState(ctx context.Context, name string, cursor uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replay_state (name, last_processed, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_processed = EXCLUDED.last_processed, updated_at = now()
	`, name, int64(cursor))
	return err
}
