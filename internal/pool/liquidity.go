package pool

import (
	"fmt"

	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

// OpenPosition registers an empty position over [lower, upper).
func (p *Pool) OpenPosition(lower, upper int32) (position.ID, error) {
	if p.state.Paused {
		return position.ID{}, ErrPoolPaused
	}
	if err := p.checkRange(lower, upper); err != nil {
		return position.ID{}, err
	}
	id := p.ids.NextPositionID()
	if _, err := p.positions.Open(id, lower, upper); err != nil {
		return position.ID{}, err
	}
	p.commit()
	p.logger.Debug("position opened", zap.Stringer("position", id), zap.Int32("lower", lower), zap.Int32("upper", upper))
	return id, nil
}

// ClosePosition removes a position with no liquidity and nothing owed.
func (p *Pool) ClosePosition(id position.ID) error {
	if p.state.Paused {
		return ErrPoolPaused
	}
	if err := p.positions.Close(id); err != nil {
		return err
	}
	p.commit()
	p.logger.Debug("position closed", zap.Stringer("position", id))
	return nil
}

// liquidityChange is a fully validated, uncommitted liquidity update.
type liquidityChange struct {
	rewards   rewarder.Manager
	lower     tick.Tick
	upper     tick.Tick
	position  position.Position
	liquidity uint128.Uint128
}

func (p *Pool) previewLiquidityChange(pos position.Position, delta fixedpoint.I128) (liquidityChange, error) {
	rm, err := p.settleRewards()
	if err != nil {
		return liquidityChange{}, err
	}
	globals := p.globals(rm)

	lower, err := p.ticks.Preview(pos.TickLower, delta, false, globals, p.state.TickIndex)
	if err != nil {
		return liquidityChange{}, err
	}
	upper, err := p.ticks.Preview(pos.TickUpper, delta, true, globals, p.state.TickIndex)
	if err != nil {
		return liquidityChange{}, err
	}

	inside := tick.GrowthInside(lower, upper, p.state.TickIndex, globals)
	next, err := p.positions.UpdateLiquidity(pos.ID, delta, inside)
	if err != nil {
		return liquidityChange{}, err
	}

	liquidity := p.state.Liquidity
	if p.inRange(pos.TickLower, pos.TickUpper) {
		if liquidity, err = fixedpoint.AddDelta(liquidity, delta); err != nil {
			return liquidityChange{}, fmt.Errorf("pool liquidity: %w", ErrLiquidityOverflow)
		}
	}
	return liquidityChange{rewards: rm, lower: lower, upper: upper, position: next, liquidity: liquidity}, nil
}

func (p *Pool) applyLiquidityChange(ch liquidityChange) {
	p.rewards = ch.rewards
	p.ticks.Put(ch.lower)
	p.ticks.Put(ch.upper)
	p.positions.Put(ch.position)
	p.state.Liquidity = ch.liquidity
	p.commit()
}

// AddLiquidity credits delta liquidity to a position and returns a receipt
// for the coins due, rounded up.
func (p *Pool) AddLiquidity(id position.ID, delta uint128.Uint128) (*AddLiquidityReceipt, error) {
	if p.state.Paused {
		return nil, ErrPoolPaused
	}
	if delta.IsZero() {
		return nil, ErrZeroAmount
	}
	pos, err := p.positions.Get(id)
	if err != nil {
		return nil, err
	}
	ch, err := p.previewLiquidityChange(pos, fixedpoint.I128FromU128(delta))
	if err != nil {
		return nil, err
	}
	amountA, amountB, err := fixedpoint.AmountsForLiquidity(pos.TickLower, pos.TickUpper, p.state.TickIndex, p.state.SqrtPrice, delta, true)
	if err != nil {
		return nil, err
	}
	return p.addLiquidity(ch, delta, amountA, amountB), nil
}

// AddLiquidityFixedToken deposits the largest liquidity that amount of the
// fixed coin supports.
func (p *Pool) AddLiquidityFixedToken(id position.ID, amount uint64, fixedIsA bool) (*AddLiquidityReceipt, error) {
	if p.state.Paused {
		return nil, ErrPoolPaused
	}
	if amount == 0 {
		return nil, ErrZeroAmount
	}
	pos, err := p.positions.Get(id)
	if err != nil {
		return nil, err
	}
	liquidity, amountA, amountB, err := fixedpoint.LiquidityForAmount(pos.TickLower, pos.TickUpper, p.state.TickIndex, p.state.SqrtPrice, amount, fixedIsA)
	if err != nil {
		return nil, err
	}
	if liquidity.IsZero() {
		return nil, ErrZeroAmount
	}
	ch, err := p.previewLiquidityChange(pos, fixedpoint.I128FromU128(liquidity))
	if err != nil {
		return nil, err
	}
	return p.addLiquidity(ch, liquidity, amountA, amountB), nil
}

// addLiquidity commits a validated change and issues its receipt.
func (p *Pool) addLiquidity(ch liquidityChange, delta uint128.Uint128, amountA, amountB uint64) *AddLiquidityReceipt {
	r := &AddLiquidityReceipt{
		receipt:    p.issue(),
		PositionID: ch.position.ID,
		Liquidity:  delta,
		AmountA:    amountA,
		AmountB:    amountB,
	}
	p.applyLiquidityChange(ch)
	p.track(&r.receipt)

	p.logger.Debug("liquidity added",
		zap.Stringer("position", ch.position.ID),
		zap.Stringer("liquidity", delta),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
	)
	return r
}

// RemoveLiquidity withdraws delta liquidity and sends the coins out, rounded
// down.
func (p *Pool) RemoveLiquidity(id position.ID, delta uint128.Uint128) (uint64, uint64, error) {
	if p.state.Paused {
		return 0, 0, ErrPoolPaused
	}
	if delta.IsZero() {
		return 0, 0, ErrZeroAmount
	}
	pos, err := p.positions.Get(id)
	if err != nil {
		return 0, 0, err
	}
	if pos.Liquidity.Cmp(delta) < 0 {
		return 0, 0, fmt.Errorf("remove %s of %s: %w", delta, pos.Liquidity, ErrInsufficientLiquidity)
	}
	amountA, amountB, err := fixedpoint.AmountsForLiquidity(pos.TickLower, pos.TickUpper, p.state.TickIndex, p.state.SqrtPrice, delta, false)
	if err != nil {
		return 0, 0, err
	}
	ch, err := p.previewLiquidityChange(pos, fixedpoint.I128FromU128(delta).Neg())
	if err != nil {
		return 0, 0, err
	}
	if err := p.custody.Apply(
		custody.Transfer{Coin: p.cfg.CoinA, Amount: amountA, Direction: custody.Out},
		custody.Transfer{Coin: p.cfg.CoinB, Amount: amountB, Direction: custody.Out},
	); err != nil {
		return 0, 0, fmt.Errorf("remove liquidity: %w", err)
	}
	p.applyLiquidityChange(ch)

	p.logger.Debug("liquidity removed",
		zap.Stringer("position", id),
		zap.Stringer("liquidity", delta),
		zap.Uint64("amount_a", amountA),
		zap.Uint64("amount_b", amountB),
	)
	return amountA, amountB, nil
}
