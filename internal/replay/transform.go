package replay

import (
	"encoding/json"
	"fmt"
	"time"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/model"
	"clmmEngine/internal/pool"
	"clmmEngine/internal/position"
)

const pageSize = 256

func buildRecord(p *pool.Pool, ledger *custody.Ledger, op model.Operation, result any, opErr error, appliedAt time.Time) (model.OperationRecord, error) {
	rec := model.OperationRecord{
		PoolID:    p.ID(),
		Seq:       op.Seq,
		Timestamp: op.Timestamp,
		Op:        op.Op,
		State:     poolState(p),
		Reserves:  reserves(p, ledger),
		AppliedAt: appliedAt.UTC().Format(time.RFC3339Nano),
	}
	if opErr != nil {
		rec.Error = opErr.Error()
		return rec, nil
	}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return model.OperationRecord{}, fmt.Errorf("marshal %s result: %w", op.Op, err)
		}
		rec.Result = data
	}
	return rec, nil
}

func poolState(p *pool.Pool) model.PoolState {
	st := p.State()
	return model.PoolState{
		SqrtPrice:        st.SqrtPrice.String(),
		Price:            p.Price().String(),
		Tick:             st.TickIndex,
		Liquidity:        st.Liquidity.String(),
		FeeRate:          st.FeeRate,
		ProtocolFeeRate:  st.ProtocolFeeRate,
		FeeGrowthGlobalA: st.FeeGrowthGlobalA.String(),
		FeeGrowthGlobalB: st.FeeGrowthGlobalB.String(),
		ProtocolFeeOwedA: st.ProtocolFeeOwedA,
		ProtocolFeeOwedB: st.ProtocolFeeOwedB,
		Paused:           st.Paused,
		Version:          p.Version(),
	}
}

func reserves(p *pool.Pool, ledger *custody.Ledger) model.Reserves {
	cfg := p.Config()
	return model.Reserves{
		CoinA:   cfg.CoinA,
		CoinB:   cfg.CoinB,
		AmountA: ledger.Vault(cfg.CoinA),
		AmountB: ledger.Vault(cfg.CoinB),
	}
}

// SwapRow converts a swap outcome into its record form.
func SwapRow(aToB bool, r pool.SwapResult) model.SwapResult {
	return model.SwapResult{
		AToB:              aToB,
		AmountIn:          r.AmountIn,
		AmountOut:         r.AmountOut,
		FeeAmount:         r.FeeAmount,
		RefFeeAmount:      r.RefFeeAmount,
		ProtocolFeeAmount: r.ProtocolFeeAmount,
		AfterSqrtPrice:    r.AfterSqrtPrice.String(),
		AfterTick:         r.AfterTickIndex,
		AfterLiquidity:    r.AfterLiquidity.String(),
		Status:            r.Status.String(),
		IsExceed:          r.IsExceed,
		Steps:             len(r.Steps),
	}
}

// PoolRow converts the pool into its storage row.
func PoolRow(p *pool.Pool, lastSeq uint64) model.Pool {
	cfg := p.Config()
	rewarders := p.Rewarders()
	rows := make([]model.Rewarder, 0, len(rewarders))
	for _, r := range rewarders {
		rows = append(rows, model.Rewarder{
			RewardID:           r.RewardID,
			EmissionsPerSecond: r.EmissionsPerSecond.String(),
			GrowthGlobal:       r.GrowthGlobal.String(),
		})
	}
	return model.Pool{
		ID:             cfg.ID,
		CoinA:          cfg.CoinA,
		CoinB:          cfg.CoinB,
		DecimalsA:      cfg.DecimalsA,
		DecimalsB:      cfg.DecimalsB,
		TickSpacing:    cfg.TickSpacing,
		State:          poolState(p),
		Rewarders:      rows,
		PositionCount:  p.PositionCount(),
		LastAppliedSeq: lastSeq,
	}
}

// TickRows pages through every initialized tick.
func TickRows(p *pool.Pool) []model.Tick {
	rows := make([]model.Tick, 0, p.TickCount())
	from := fixedpoint.MinTick
	for {
		page, next, more := p.Ticks(from, pageSize)
		for _, t := range page {
			rows = append(rows, model.Tick{
				PoolID:            p.ID(),
				Index:             t.Index,
				LiquidityGross:    t.LiquidityGross.String(),
				LiquidityNet:      t.LiquidityNet.String(),
				FeeGrowthOutsideA: t.FeeGrowthOutsideA.String(),
				FeeGrowthOutsideB: t.FeeGrowthOutsideB.String(),
			})
		}
		if !more {
			return rows
		}
		from = next
	}
}

// PositionRows pages through every position in id order.
func PositionRows(p *pool.Pool) []model.Position {
	rows := make([]model.Position, 0, p.PositionCount())
	n := len(p.Rewarders())
	var cursor position.ID
	for {
		page, next, more := p.Positions(cursor, pageSize)
		for _, pos := range page {
			rows = append(rows, model.Position{
				PoolID:    p.ID(),
				ID:        pos.ID.Hex(),
				TickLower: pos.TickLower,
				TickUpper: pos.TickUpper,
				Liquidity: pos.Liquidity.String(),
				FeeOwedA:  pos.FeeOwedA,
				FeeOwedB:  pos.FeeOwedB,
				Rewards:   append([]uint64(nil), pos.RewardsOwed[:n]...),
				Points:    pos.PointsOwed.String(),
			})
		}
		if !more {
			return rows
		}
		cursor = next
	}
}
