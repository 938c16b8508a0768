package pool

import (
	"fmt"

	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
)

func (p *Pool) SetFeeRate(rate uint64) error {
	if rate > MaxFeeRate {
		return fmt.Errorf("fee rate %d: %w", rate, ErrInvalidFeeRate)
	}
	old := p.state.FeeRate
	p.state.FeeRate = rate
	p.commit()
	p.logger.Info("fee rate updated", zap.Uint64("old", old), zap.Uint64("new", rate))
	return nil
}

func (p *Pool) SetProtocolFeeRate(rate uint64) error {
	if rate > MaxProtocolFeeRate {
		return fmt.Errorf("protocol fee rate %d: %w", rate, ErrInvalidFeeRate)
	}
	old := p.state.ProtocolFeeRate
	p.state.ProtocolFeeRate = rate
	p.commit()
	p.logger.Info("protocol fee rate updated", zap.Uint64("old", old), zap.Uint64("new", rate))
	return nil
}

func (p *Pool) Pause() {
	if p.state.Paused {
		return
	}
	p.state.Paused = true
	p.commit()
	p.logger.Info("pool paused")
}

func (p *Pool) Unpause() {
	if !p.state.Paused {
		return
	}
	p.state.Paused = false
	p.commit()
	p.logger.Info("pool unpaused")
}

// AddRewarder registers a paused reward stream for rewardID.
func (p *Pool) AddRewarder(rewardID string) error {
	rm, err := p.settleRewards()
	if err != nil {
		return err
	}
	slot, err := rm.Add(rewardID)
	if err != nil {
		return err
	}
	p.rewards = rm
	p.commit()
	p.logger.Info("rewarder added", zap.String("reward", rewardID), zap.Int("slot", slot))
	return nil
}

// SetEmission settles every stream up to now, then changes the rate of one.
func (p *Pool) SetEmission(rewardID string, emissionsPerSecond uint128.Uint128) error {
	rm, err := p.settleRewards()
	if err != nil {
		return err
	}
	if err := rm.SetEmission(rewardID, emissionsPerSecond); err != nil {
		return err
	}
	p.rewards = rm
	p.commit()
	p.logger.Info("emission updated", zap.String("reward", rewardID), zap.Stringer("emissions_per_second", emissionsPerSecond))
	return nil
}

// CollectProtocolFee pays out and clears the protocol fee accumulators.
func (p *Pool) CollectProtocolFee() (uint64, uint64, error) {
	a, b := p.state.ProtocolFeeOwedA, p.state.ProtocolFeeOwedB
	if err := p.custody.Apply(
		custody.Transfer{Coin: p.cfg.CoinA, Amount: a, Direction: custody.Out},
		custody.Transfer{Coin: p.cfg.CoinB, Amount: b, Direction: custody.Out},
	); err != nil {
		return 0, 0, fmt.Errorf("collect protocol fee: %w", err)
	}
	p.state.ProtocolFeeOwedA, p.state.ProtocolFeeOwedB = 0, 0
	p.commit()
	p.logger.Info("protocol fee collected", zap.Uint64("amount_a", a), zap.Uint64("amount_b", b))
	return a, b, nil
}
