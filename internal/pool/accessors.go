package pool

import (
	"slices"

	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

func (p *Pool) ID() string              { return p.cfg.ID }
func (p *Pool) Config() Config          { return p.cfg }
func (p *Pool) State() State            { return p.state }
func (p *Pool) Version() uint64         { return p.version }
func (p *Pool) CurrentTickIndex() int32 { return p.state.TickIndex }

func (p *Pool) CurrentSqrtPrice() uint128.Uint128 { return p.state.SqrtPrice }
func (p *Pool) Liquidity() uint128.Uint128        { return p.state.Liquidity }

// Price returns the current price of A in B, adjusted for coin decimals.
func (p *Pool) Price() decimal.Decimal {
	return fixedpoint.SqrtPriceToPrice(p.state.SqrtPrice, p.cfg.DecimalsA, p.cfg.DecimalsB)
}

func (p *Pool) FeeGrowthGlobal() (uint128.Uint128, uint128.Uint128) {
	return p.state.FeeGrowthGlobalA, p.state.FeeGrowthGlobalB
}

func (p *Pool) ProtocolFeeOwed() (uint64, uint64) {
	return p.state.ProtocolFeeOwedA, p.state.ProtocolFeeOwedB
}

// Rewarders returns a copy of the reward streams in slot order.
func (p *Pool) Rewarders() []rewarder.Rewarder {
	return slices.Clone(p.rewards.Rewarders)
}

// RewarderManager returns a copy of the rewarder state as of the last touch.
func (p *Pool) RewarderManager() rewarder.Manager {
	return p.rewards.Clone()
}

func (p *Pool) Tick(i int32) (tick.Tick, bool) {
	return p.ticks.Get(i)
}

func (p *Pool) Position(id position.ID) (position.Position, error) {
	return p.positions.Get(id)
}

func (p *Pool) PositionCount() int { return p.positions.Len() }
func (p *Pool) TickCount() int     { return p.ticks.Len() }

// Ticks pages through initialized ticks from the given index upward.
func (p *Pool) Ticks(from int32, limit int) ([]tick.Tick, int32, bool) {
	return p.ticks.Page(from, limit)
}

// Positions pages through positions in id order starting at cursor.
func (p *Pool) Positions(cursor position.ID, limit int) ([]position.Position, position.ID, bool) {
	return p.positions.Page(cursor, limit)
}
