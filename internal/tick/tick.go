package tick

import (
	"errors"
	"fmt"

	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
)

// MaxRewarders is the number of reward streams a pool can carry.
const MaxRewarders = 5

var (
	ErrLiquidityOverflow = errors.New("tick liquidity overflow")
	ErrTickNotFound      = errors.New("tick not initialized")
	ErrTickNotAligned    = errors.New("tick not aligned to spacing")
	ErrInvalidSpacing    = errors.New("tick spacing must be positive")
)

// Growths is a snapshot of every growth accumulator a tick or position tracks.
type Growths struct {
	FeeA    uint128.Uint128
	FeeB    uint128.Uint128
	Rewards [MaxRewarders]uint128.Uint128
	Points  uint128.Uint128
}

// Sub returns g - o field by field, modulo 2^128.
func (g Growths) Sub(o Growths) Growths {
	out := Growths{
		FeeA:   fixedpoint.GrowthSub(g.FeeA, o.FeeA),
		FeeB:   fixedpoint.GrowthSub(g.FeeB, o.FeeB),
		Points: fixedpoint.GrowthSub(g.Points, o.Points),
	}
	for i := range g.Rewards {
		out.Rewards[i] = fixedpoint.GrowthSub(g.Rewards[i], o.Rewards[i])
	}
	return out
}

// Tick is one initialized entry of the index.
type Tick struct {
	Index                int32
	LiquidityGross       uint128.Uint128
	LiquidityNet         fixedpoint.I128
	FeeGrowthOutsideA    uint128.Uint128
	FeeGrowthOutsideB    uint128.Uint128
	RewardsGrowthOutside [MaxRewarders]uint128.Uint128
	PointsGrowthOutside  uint128.Uint128
}

// Outside returns the tick's growth-outside snapshot.
func (t Tick) Outside() Growths {
	return Growths{
		FeeA:    t.FeeGrowthOutsideA,
		FeeB:    t.FeeGrowthOutsideB,
		Rewards: t.RewardsGrowthOutside,
		Points:  t.PointsGrowthOutside,
	}
}

func (t *Tick) setOutside(g Growths) {
	t.FeeGrowthOutsideA = g.FeeA
	t.FeeGrowthOutsideB = g.FeeB
	t.RewardsGrowthOutside = g.Rewards
	t.PointsGrowthOutside = g.Points
}

// apply returns t after a liquidity delta at one end of a range. A fresh tick
// at or below the current tick starts with all growth counted as outside.
func (t Tick) apply(delta fixedpoint.I128, isUpper bool, globals Growths, currentTick int32, maxLiquidity uint128.Uint128) (Tick, error) {
	grossAfter, err := fixedpoint.AddDelta(t.LiquidityGross, delta)
	if err != nil {
		return Tick{}, fmt.Errorf("tick %d gross: %w", t.Index, err)
	}
	if grossAfter.Cmp(maxLiquidity) > 0 {
		return Tick{}, fmt.Errorf("tick %d: %w", t.Index, ErrLiquidityOverflow)
	}

	if isUpper {
		t.LiquidityNet, err = t.LiquidityNet.Sub(delta)
	} else {
		t.LiquidityNet, err = t.LiquidityNet.Add(delta)
	}
	if err != nil {
		return Tick{}, fmt.Errorf("tick %d net: %w", t.Index, ErrLiquidityOverflow)
	}

	if t.LiquidityGross.IsZero() && t.Index <= currentTick {
		t.setOutside(globals)
	}
	t.LiquidityGross = grossAfter
	return t, nil
}

// cross flips every growth-outside field against globals.
func (t Tick) cross(globals Growths) Tick {
	t.setOutside(globals.Sub(t.Outside()))
	return t
}

// GrowthInside derives the growth accrued inside [lower, upper) from the two
// boundary snapshots and the global accumulators.
func GrowthInside(lower, upper Tick, currentTick int32, globals Growths) Growths {
	below := lower.Outside()
	if currentTick < lower.Index {
		below = globals.Sub(below)
	}
	above := upper.Outside()
	if currentTick >= upper.Index {
		above = globals.Sub(above)
	}
	return globals.Sub(below).Sub(above)
}

// MaxLiquidityPerTick caps gross liquidity so the sum over every usable tick
// fits in a u128.
func MaxLiquidityPerTick(spacing int32) uint128.Uint128 {
	minTick := (fixedpoint.MinTick / spacing) * spacing
	maxTick := (fixedpoint.MaxTick / spacing) * spacing
	numTicks := uint64((maxTick-minTick)/spacing) + 1
	return uint128.Max.Div64(numTicks)
}
