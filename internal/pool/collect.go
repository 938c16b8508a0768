package pool

import (
	"fmt"

	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
)

// accrue settles rewarders and the position against current inside growth
// without committing either.
func (p *Pool) accrue(id position.ID) (position.Position, rewarder.Manager, error) {
	pos, err := p.positions.Get(id)
	if err != nil {
		return position.Position{}, rewarder.Manager{}, err
	}
	rm, err := p.settleRewards()
	if err != nil {
		return position.Position{}, rewarder.Manager{}, err
	}
	inside := p.ticks.GrowthInside(pos.TickLower, pos.TickUpper, p.state.TickIndex, p.globals(rm))
	next, err := p.positions.Settle(id, inside)
	if err != nil {
		return position.Position{}, rewarder.Manager{}, err
	}
	return next, rm, nil
}

func (p *Pool) store(pos position.Position, rm rewarder.Manager) {
	p.rewards = rm
	p.positions.Put(pos)
	p.commit()
}

// CollectFee pays out every fee owed to a position.
func (p *Pool) CollectFee(id position.ID) (uint64, uint64, error) {
	if p.state.Paused {
		return 0, 0, ErrPoolPaused
	}
	pos, rm, err := p.accrue(id)
	if err != nil {
		return 0, 0, err
	}
	pos, a, b := pos.TakeFee()
	if err := p.custody.Apply(
		custody.Transfer{Coin: p.cfg.CoinA, Amount: a, Direction: custody.Out},
		custody.Transfer{Coin: p.cfg.CoinB, Amount: b, Direction: custody.Out},
	); err != nil {
		return 0, 0, fmt.Errorf("collect fee: %w", err)
	}
	p.store(pos, rm)
	p.logger.Debug("fee collected", zap.Stringer("position", id), zap.Uint64("fee_a", a), zap.Uint64("fee_b", b))
	return a, b, nil
}

// CollectReward pays out the reward owed to a position for one rewarder.
func (p *Pool) CollectReward(id position.ID, rewardID string) (uint64, error) {
	if p.state.Paused {
		return 0, ErrPoolPaused
	}
	slot, err := p.rewards.Index(rewardID)
	if err != nil {
		return 0, err
	}
	pos, rm, err := p.accrue(id)
	if err != nil {
		return 0, err
	}
	pos, amount, err := pos.TakeReward(slot)
	if err != nil {
		return 0, err
	}
	if err := p.custody.Apply(custody.Transfer{Coin: rewardID, Amount: amount, Direction: custody.Out}); err != nil {
		return 0, fmt.Errorf("collect reward: %w", err)
	}
	p.store(pos, rm)
	p.logger.Debug("reward collected", zap.Stringer("position", id), zap.String("reward", rewardID), zap.Uint64("amount", amount))
	return amount, nil
}

// CalculateAndUpdateFee settles and stores the fees owed without paying out.
func (p *Pool) CalculateAndUpdateFee(id position.ID) (uint64, uint64, error) {
	pos, rm, err := p.accrue(id)
	if err != nil {
		return 0, 0, err
	}
	p.store(pos, rm)
	return pos.FeeOwedA, pos.FeeOwedB, nil
}

// CalculateAndUpdateRewards settles and stores rewards owed, one per
// rewarder in slot order.
func (p *Pool) CalculateAndUpdateRewards(id position.ID) ([]uint64, error) {
	pos, rm, err := p.accrue(id)
	if err != nil {
		return nil, err
	}
	p.store(pos, rm)
	return pos.RewardsOwed[:len(rm.Rewarders)], nil
}

// CalculateAndUpdatePoints settles and stores the points owed.
func (p *Pool) CalculateAndUpdatePoints(id position.ID) (uint128.Uint128, error) {
	pos, rm, err := p.accrue(id)
	if err != nil {
		return uint128.Zero, err
	}
	p.store(pos, rm)
	return pos.PointsOwed, nil
}

// GetPositionFee returns the fees owed as of the position's last checkpoint.
func (p *Pool) GetPositionFee(id position.ID) (uint64, uint64, error) {
	pos, err := p.positions.Get(id)
	if err != nil {
		return 0, 0, err
	}
	return pos.FeeOwedA, pos.FeeOwedB, nil
}

func (p *Pool) GetPositionRewards(id position.ID) ([]uint64, error) {
	pos, err := p.positions.Get(id)
	if err != nil {
		return nil, err
	}
	owed := make([]uint64, len(p.rewards.Rewarders))
	copy(owed, pos.RewardsOwed[:])
	return owed, nil
}

func (p *Pool) GetPositionPoints(id position.ID) (uint128.Uint128, error) {
	pos, err := p.positions.Get(id)
	if err != nil {
		return uint128.Zero, err
	}
	return pos.PointsOwed, nil
}
