package position

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/tick"
)

var (
	ErrPositionNotFound      = errors.New("position not found")
	ErrPositionExists        = errors.New("position already exists")
	ErrPositionNotEmpty      = errors.New("position not empty")
	ErrInsufficientLiquidity = errors.New("insufficient position liquidity")
	ErrInvalidRewardSlot     = errors.New("invalid reward slot")
)

// ID identifies a position within a pool.
type ID = common.Hash

// Position is a liquidity range with its growth checkpoints and owed amounts.
type Position struct {
	ID                  ID
	TickLower           int32
	TickUpper           int32
	Liquidity           uint128.Uint128
	FeeGrowthInsideA    uint128.Uint128
	FeeGrowthInsideB    uint128.Uint128
	FeeOwedA            uint64
	FeeOwedB            uint64
	RewardsGrowthInside [tick.MaxRewarders]uint128.Uint128
	RewardsOwed         [tick.MaxRewarders]uint64
	PointsGrowthInside  uint128.Uint128
	PointsOwed          uint128.Uint128
}

// Checkpoint returns the inside growth recorded at the last touch.
func (p Position) Checkpoint() tick.Growths {
	return tick.Growths{
		FeeA:    p.FeeGrowthInsideA,
		FeeB:    p.FeeGrowthInsideB,
		Rewards: p.RewardsGrowthInside,
		Points:  p.PointsGrowthInside,
	}
}

// Accrue credits owed amounts for the growth since the last checkpoint at
// the current liquidity and moves the checkpoint to inside.
func (p Position) Accrue(inside tick.Growths) (Position, error) {
	delta := inside.Sub(p.Checkpoint())

	var err error
	if p.FeeOwedA, err = owe(p.FeeOwedA, p.Liquidity, delta.FeeA); err != nil {
		return Position{}, fmt.Errorf("fee a: %w", err)
	}
	if p.FeeOwedB, err = owe(p.FeeOwedB, p.Liquidity, delta.FeeB); err != nil {
		return Position{}, fmt.Errorf("fee b: %w", err)
	}
	for i := range p.RewardsOwed {
		if p.RewardsOwed[i], err = owe(p.RewardsOwed[i], p.Liquidity, delta.Rewards[i]); err != nil {
			return Position{}, fmt.Errorf("reward %d: %w", i, err)
		}
	}

	points, err := fixedpoint.MulShr64U128(p.Liquidity, delta.Points)
	if err != nil {
		return Position{}, fmt.Errorf("points: %w", err)
	}
	total := p.PointsOwed.AddWrap(points)
	if total.Cmp(p.PointsOwed) < 0 {
		return Position{}, fmt.Errorf("points: %w", fixedpoint.ErrOverflow)
	}
	p.PointsOwed = total

	p.FeeGrowthInsideA = inside.FeeA
	p.FeeGrowthInsideB = inside.FeeB
	p.RewardsGrowthInside = inside.Rewards
	p.PointsGrowthInside = inside.Points
	return p, nil
}

func owe(owed uint64, liquidity, growthDelta uint128.Uint128) (uint64, error) {
	amount, err := fixedpoint.MulShr64(liquidity, growthDelta)
	if err != nil {
		return 0, err
	}
	return fixedpoint.AddU64(owed, amount)
}

// UpdateLiquidity accrues at the old liquidity, then applies delta.
func (p Position) UpdateLiquidity(delta fixedpoint.I128, inside tick.Growths) (Position, error) {
	if delta.IsNeg() && p.Liquidity.Cmp(delta.Abs()) < 0 {
		return Position{}, fmt.Errorf("remove %s of %s: %w", delta.Abs(), p.Liquidity, ErrInsufficientLiquidity)
	}
	next, err := p.Accrue(inside)
	if err != nil {
		return Position{}, err
	}
	next.Liquidity, err = fixedpoint.AddDelta(next.Liquidity, delta)
	if err != nil {
		return Position{}, fmt.Errorf("position liquidity: %w", err)
	}
	return next, nil
}

// TakeFee clears the fees owed and returns them.
func (p Position) TakeFee() (Position, uint64, uint64) {
	a, b := p.FeeOwedA, p.FeeOwedB
	p.FeeOwedA, p.FeeOwedB = 0, 0
	return p, a, b
}

// TakeReward clears the reward owed in slot and returns it.
func (p Position) TakeReward(slot int) (Position, uint64, error) {
	if slot < 0 || slot >= tick.MaxRewarders {
		return Position{}, 0, fmt.Errorf("slot %d: %w", slot, ErrInvalidRewardSlot)
	}
	amount := p.RewardsOwed[slot]
	p.RewardsOwed[slot] = 0
	return p, amount, nil
}

// IsEmpty reports whether the position can be closed.
func (p Position) IsEmpty() bool {
	if !p.Liquidity.IsZero() || p.FeeOwedA != 0 || p.FeeOwedB != 0 {
		return false
	}
	for _, owed := range p.RewardsOwed {
		if owed != 0 {
			return false
		}
	}
	return true
}
