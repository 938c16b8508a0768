package fixedpoint

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"
)

func TestTickToSqrtPriceBounds(t *testing.T) {
	p, err := TickToSqrtPrice(0)
	require.NoError(t, err)
	assert.Equal(t, Q64, p)

	p, err = TickToSqrtPrice(MinTick)
	require.NoError(t, err)
	assert.Equal(t, MinSqrtPrice, p)

	p, err = TickToSqrtPrice(MaxTick)
	require.NoError(t, err)
	assert.Equal(t, MaxSqrtPrice, p)

	_, err = TickToSqrtPrice(MaxTick + 1)
	assert.ErrorIs(t, err, ErrTickOutOfBounds)
	_, err = TickToSqrtPrice(MinTick - 1)
	assert.ErrorIs(t, err, ErrTickOutOfBounds)
}

func TestTickToSqrtPriceMonotonic(t *testing.T) {
	prev, err := TickToSqrtPrice(-2000)
	require.NoError(t, err)
	for tick := int32(-1999); tick <= 2000; tick++ {
		p, err := TickToSqrtPrice(tick)
		require.NoError(t, err)
		require.Equal(t, 1, p.Cmp(prev), "tick %d", tick)
		prev = p
	}
}

func TestSqrtPriceToTickRoundTrip(t *testing.T) {
	ticks := []int32{MinTick, MinTick + 1, -443580, -200000, -60, -1, 0, 1, 60, 887, 200000, 443580, MaxTick - 1, MaxTick}
	for _, tick := range ticks {
		p, err := TickToSqrtPrice(tick)
		require.NoError(t, err)
		got, err := SqrtPriceToTick(p)
		require.NoError(t, err)
		assert.Equal(t, tick, got)
	}
	for tick := MinTick + 7919; tick < MaxTick; tick += 7919 {
		p, err := TickToSqrtPrice(tick)
		require.NoError(t, err)
		got, err := SqrtPriceToTick(p)
		require.NoError(t, err)
		require.Equal(t, tick, got)
	}
}

func TestSqrtPriceToTickFloors(t *testing.T) {
	next, err := TickToSqrtPrice(61)
	require.NoError(t, err)
	got, err := SqrtPriceToTick(next.Sub64(1))
	require.NoError(t, err)
	assert.Equal(t, int32(60), got)

	_, err = SqrtPriceToTick(MinSqrtPrice.Sub64(1))
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
	_, err = SqrtPriceToTick(MaxSqrtPrice.Add64(1))
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
}

func TestDeltaAmounts(t *testing.T) {
	one := Q64
	two := uint128.New(0, 2)
	liquidity := uint128.From64(1_000_000)

	a, err := DeltaA(one, two, liquidity, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(500_000), a)

	b, err := DeltaB(two, one, liquidity, true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000), b)

	down, err := DeltaA(one, two, uint128.From64(3), false)
	require.NoError(t, err)
	up, err := DeltaA(one, two, uint128.From64(3), true)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), down)
	assert.Equal(t, uint64(2), up)

	_, err = DeltaB(MinSqrtPrice, MaxSqrtPrice, uint128.Max, false)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestNextSqrtPrice(t *testing.T) {
	liquidity := uint128.From64(1_000_000)

	next, err := NextSqrtPriceFromInput(Q64, liquidity, 1_000_000, false)
	require.NoError(t, err)
	assert.Equal(t, uint128.New(0, 2), next)

	next, err = NextSqrtPriceFromInput(Q64, liquidity, 1_000_000, true)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1<<63), next)

	_, err = NextSqrtPriceFromOutput(Q64, liquidity, 1_000_000, false)
	assert.ErrorIs(t, err, ErrUnderflow)

	_, err = NextSqrtPriceFromInput(Q64, uint128.Zero, 1, true)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestComputeSwapStepPartialFill(t *testing.T) {
	step, err := ComputeSwapStep(Q64, MinSqrtPrice, uint128.From64(1_000_000_000_000), 100_000, 3000, true, true)
	require.NoError(t, err)

	assert.Equal(t, uint64(300), step.FeeAmount)
	assert.Equal(t, uint64(99_700), step.AmountIn)
	assert.Less(t, step.AmountOut, step.AmountIn)
	assert.Greater(t, step.AmountOut, uint64(99_000))
	assert.Equal(t, -1, step.NextSqrtPrice.Cmp(Q64))
}

func TestComputeSwapStepReachesTarget(t *testing.T) {
	target, err := TickToSqrtPrice(-60)
	require.NoError(t, err)
	liquidity := uint128.From64(1_000_000)

	step, err := ComputeSwapStep(Q64, target, liquidity, 1_000_000_000, 3000, true, true)
	require.NoError(t, err)
	assert.Equal(t, target, step.NextSqrtPrice)

	maxIn, err := DeltaA(target, Q64, liquidity, true)
	require.NoError(t, err)
	assert.Equal(t, maxIn, step.AmountIn)

	fee, err := MulDivCeil64(maxIn, 3000, FeeRateDenominator-3000)
	require.NoError(t, err)
	assert.Equal(t, fee, step.FeeAmount)

	out, err := DeltaB(target, Q64, liquidity, false)
	require.NoError(t, err)
	assert.Equal(t, out, step.AmountOut)
}

func TestComputeSwapStepExactOut(t *testing.T) {
	step, err := ComputeSwapStep(Q64, MaxSqrtPrice, uint128.From64(1_000_000_000_000), 50_000, 0, false, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(50_000), step.AmountOut)
	assert.GreaterOrEqual(t, step.AmountIn, step.AmountOut)
	assert.Zero(t, step.FeeAmount)
}

func TestComputeSwapStepZeroLiquidity(t *testing.T) {
	target, err := TickToSqrtPrice(120)
	require.NoError(t, err)

	step, err := ComputeSwapStep(Q64, target, uint128.Zero, 10, 3000, false, true)
	require.NoError(t, err)
	assert.Equal(t, SwapStep{NextSqrtPrice: target}, step)

	_, err = ComputeSwapStep(Q64, target, uint128.From64(1), 10, 3000, true, true)
	assert.ErrorIs(t, err, ErrInvalidDirection)
	_, err = ComputeSwapStep(Q64, target, uint128.From64(1), 10, FeeRateDenominator, false, true)
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestAmountsForLiquidityRegions(t *testing.T) {
	liquidity := uint128.From64(10_000_000)

	below, err := TickToSqrtPrice(-1200)
	require.NoError(t, err)
	a, b, err := AmountsForLiquidity(-600, 600, -1200, below, liquidity, true)
	require.NoError(t, err)
	assert.NotZero(t, a)
	assert.Zero(t, b)

	a, b, err = AmountsForLiquidity(-600, 600, 0, Q64, liquidity, true)
	require.NoError(t, err)
	assert.NotZero(t, a)
	assert.NotZero(t, b)
	aDown, bDown, err := AmountsForLiquidity(-600, 600, 0, Q64, liquidity, false)
	require.NoError(t, err)
	assert.LessOrEqual(t, aDown, a)
	assert.LessOrEqual(t, bDown, b)

	above, err := TickToSqrtPrice(1200)
	require.NoError(t, err)
	a, b, err = AmountsForLiquidity(-600, 600, 1200, above, liquidity, false)
	require.NoError(t, err)
	assert.Zero(t, a)
	assert.NotZero(t, b)
}

func TestLiquidityForAmount(t *testing.T) {
	liquidity, a, b, err := LiquidityForAmount(-600, 600, 0, Q64, 1_000_000, true)
	require.NoError(t, err)
	assert.False(t, liquidity.IsZero())
	assert.LessOrEqual(t, a, uint64(1_000_000))
	assert.GreaterOrEqual(t, a, uint64(999_990))
	assert.NotZero(t, b)

	liquidity, a, b, err = LiquidityForAmount(600, 1200, 0, Q64, 5_000, true)
	require.NoError(t, err)
	assert.False(t, liquidity.IsZero())
	assert.LessOrEqual(t, a, uint64(5_000))
	assert.Zero(t, b)

	_, _, _, err = LiquidityForAmount(600, 1200, 0, Q64, 5_000, false)
	assert.ErrorIs(t, err, ErrFixedTokenOutOfRange)
	_, _, _, err = LiquidityForAmount(-1200, -600, 0, Q64, 5_000, true)
	assert.ErrorIs(t, err, ErrFixedTokenOutOfRange)
}

func TestI128(t *testing.T) {
	five := I128FromInt64(5)
	minusSeven := I128FromInt64(-7)

	sum, err := five.Add(minusSeven)
	require.NoError(t, err)
	assert.Equal(t, "-2", sum.String())

	zero, err := five.Sub(five)
	require.NoError(t, err)
	assert.True(t, zero.IsZero())
	assert.False(t, zero.IsNeg())

	maxPositive := I128FromU128(uint128.New(^uint64(0), 1<<63-1))
	_, err = maxPositive.Add(I128FromInt64(1))
	assert.ErrorIs(t, err, ErrOverflow)

	parsed, err := ParseI128("-340282366920938463463374607431768211455")
	assert.Error(t, err)
	assert.Equal(t, I128{}, parsed)

	parsed, err = ParseI128("-42")
	require.NoError(t, err)
	assert.Equal(t, I128FromInt64(-42), parsed)
}

func TestAddDelta(t *testing.T) {
	l, err := AddDelta(uint128.From64(10), I128FromInt64(-4))
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(6), l)

	_, err = AddDelta(uint128.From64(3), I128FromInt64(-4))
	assert.ErrorIs(t, err, ErrUnderflow)

	_, err = AddDelta(uint128.Max, I128FromInt64(1))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestMulDivRounding(t *testing.T) {
	floor, err := MulDivFloor(uint128.From64(3), uint128.From64(1), uint128.From64(2))
	require.NoError(t, err)
	ceil, err := MulDivCeil(uint128.From64(3), uint128.From64(1), uint128.From64(2))
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(1), floor)
	assert.Equal(t, uint128.From64(2), ceil)

	_, err = MulDivFloor(uint128.Max, uint128.Max, uint128.From64(1))
	assert.ErrorIs(t, err, ErrOverflow)
	_, err = MulDivFloor(uint128.From64(1), uint128.From64(1), uint128.Zero)
	assert.ErrorIs(t, err, ErrDivideByZero)
}

func TestGrowthWraps(t *testing.T) {
	assert.Equal(t, uint128.Max, GrowthSub(uint128.Zero, uint128.From64(1)))
	assert.Equal(t, uint128.Zero, GrowthAdd(uint128.Max, uint128.From64(1)))

	// a delta that straddles the wrap point still measures the true distance
	before := uint128.Max.Sub64(9)
	after := GrowthAdd(before, uint128.From64(25))
	assert.Equal(t, uint128.From64(25), GrowthSub(after, before))
}

func TestSqrtPricePriceConversion(t *testing.T) {
	price := SqrtPriceToPrice(Q64, 6, 6)
	assert.True(t, price.Equal(decimal.NewFromInt(1)), price.String())

	price = SqrtPriceToPrice(Q64, 9, 6)
	assert.True(t, price.Equal(decimal.NewFromInt(1000)), price.String())

	sqrtPrice, err := PriceToSqrtPrice(decimal.NewFromInt(4), 6, 6)
	require.NoError(t, err)
	assert.Equal(t, uint128.New(0, 2), sqrtPrice)

	_, err = PriceToSqrtPrice(decimal.Zero, 6, 6)
	assert.ErrorIs(t, err, ErrSqrtPriceOutOfBounds)
}
