package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
	"clmmEngine/internal/tick"
)

type fakeClock struct{ now uint64 }

func (c *fakeClock) Now() uint64 { return c.now }

type fixture struct {
	pool   *Pool
	clock  *fakeClock
	ledger *custody.Ledger
}

func newFixture(t *testing.T, spacing int32, feeRate uint64) *fixture {
	t.Helper()
	clock := &fakeClock{now: 1_000}
	ledger := custody.NewLedger()
	for _, coin := range []string{"A", "B", "REWARD"} {
		require.NoError(t, ledger.Fund(coin, 1<<62))
	}
	p, err := New(Config{
		ID:               "pool-test",
		CoinA:            "A",
		CoinB:            "B",
		TickSpacing:      spacing,
		FeeRate:          feeRate,
		InitialSqrtPrice: fixedpoint.Q64,
	}, Deps{Clock: clock, Custody: ledger})
	require.NoError(t, err)
	return &fixture{pool: p, clock: clock, ledger: ledger}
}

// deposit opens a position and pays for liquidity in full.
func (f *fixture) deposit(t *testing.T, lower, upper int32, liquidity uint64) position.ID {
	t.Helper()
	id, err := f.pool.OpenPosition(lower, upper)
	require.NoError(t, err)
	r, err := f.pool.AddLiquidity(id, uint128.From64(liquidity))
	require.NoError(t, err)
	require.NoError(t, f.pool.RepayAddLiquidity(r, r.AmountA, r.AmountB))
	return id
}

func limitFor(aToB bool) uint128.Uint128 {
	if aToB {
		return fixedpoint.MinSqrtPrice
	}
	return fixedpoint.MaxSqrtPrice
}

func requireInvariants(t *testing.T, p *Pool) {
	t.Helper()
	sum, err := p.ticks.NetSum()
	require.NoError(t, err)
	require.True(t, sum.IsZero(), "net liquidity sums to %s", sum)
	active, err := p.ticks.ActiveLiquidity(p.state.TickIndex)
	require.NoError(t, err)
	require.Equal(t, active, p.state.Liquidity)
}

type fingerprint struct {
	state     State
	ticks     []tick.Tick
	positions []position.Position
	rewards   any
	pending   int
	version   uint64
}

func capture(p *Pool) fingerprint {
	ticks, _, _ := p.Ticks(fixedpoint.MinTick-1, p.TickCount()+1)
	positions, _, _ := p.Positions(position.ID{}, p.PositionCount()+1)
	return fingerprint{
		state:     p.State(),
		ticks:     ticks,
		positions: positions,
		rewards:   p.RewarderManager(),
		pending:   p.PendingReceipts(),
		version:   p.Version(),
	}
}

func TestNewValidatesConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		err  error
	}{
		{"same coins", Config{CoinA: "A", CoinB: "A", TickSpacing: 1, InitialSqrtPrice: fixedpoint.Q64}, ErrInvalidConfig},
		{"zero spacing", Config{CoinA: "A", CoinB: "B", InitialSqrtPrice: fixedpoint.Q64}, ErrInvalidConfig},
		{"fee too high", Config{CoinA: "A", CoinB: "B", TickSpacing: 1, FeeRate: MaxFeeRate + 1, InitialSqrtPrice: fixedpoint.Q64}, ErrInvalidFeeRate},
		{"price out of bounds", Config{CoinA: "A", CoinB: "B", TickSpacing: 1, InitialSqrtPrice: uint128.From64(1)}, fixedpoint.ErrSqrtPriceOutOfBounds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, Deps{})
			assert.ErrorIs(t, err, tc.err)
		})
	}

	p, err := New(Config{CoinA: "A", CoinB: "B", TickSpacing: 60, InitialSqrtPrice: fixedpoint.Q64}, Deps{})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID())
	assert.Equal(t, int32(0), p.CurrentTickIndex())
}

func TestOpenPositionValidatesRange(t *testing.T) {
	f := newFixture(t, 60, 3000)
	for _, r := range [][2]int32{{60, 60}, {120, 60}, {-90, 60}, {-60, 30}, {fixedpoint.MinTick - 60, 0}} {
		_, err := f.pool.OpenPosition(r[0], r[1])
		assert.ErrorIs(t, err, ErrInvalidRange, "range %v", r)
	}
	assert.Zero(t, f.pool.PositionCount())
}

func TestSwapInsideRangeChargesFeeOnInput(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id := f.deposit(t, -600, 600, 10_000_000)
	require.Equal(t, uint128.From64(10_000_000), f.pool.Liquidity())

	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)

	assert.Equal(t, StatusDone, res.Status)
	require.Len(t, res.Steps, 1)
	assert.Equal(t, uint64(99_700), res.AmountIn)
	assert.Equal(t, uint64(300), res.FeeAmount)
	ceil, err := fixedpoint.MulDivCeil64(res.Steps[0].AmountIn, 3000, fixedpoint.FeeRateDenominator)
	require.NoError(t, err)
	assert.Equal(t, ceil, res.FeeAmount)
	assert.Zero(t, res.Steps[0].RemainderAmount)
	assert.Equal(t, uint128.From64(10_000_000), f.pool.Liquidity())
	assert.Less(t, f.pool.CurrentSqrtPrice().Cmp(fixedpoint.Q64), 0)
	assert.GreaterOrEqual(t, f.pool.CurrentTickIndex(), int32(-600))

	growthA, growthB := f.pool.FeeGrowthGlobal()
	want, err := fixedpoint.MulDivFloor(uint128.From64(300), fixedpoint.Q64, uint128.From64(10_000_000))
	require.NoError(t, err)
	assert.Equal(t, want, growthA)
	assert.True(t, growthB.IsZero())
	requireInvariants(t, f.pool)

	a, b, err := f.pool.CollectFee(id)
	require.NoError(t, err)
	assert.InDelta(t, 300, a, 1)
	assert.Zero(t, b)

	a, b, err = f.pool.CollectFee(id)
	require.NoError(t, err)
	assert.Zero(t, a)
	assert.Zero(t, b)
}

func TestSwapLeavingRangeReportsOutOfLiquidity(t *testing.T) {
	f := newFixture(t, 60, 3000)
	f.deposit(t, -600, 600, 10_000_000)

	sim, err := f.pool.SimulateSwap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)

	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)
	assert.Equal(t, sim.SwapResult, res)

	lowerPrice, err := fixedpoint.TickToSqrtPrice(-600)
	require.NoError(t, err)
	assert.Equal(t, StatusOutOfLiquidity, res.Status)
	assert.True(t, res.IsExceed)
	assert.Less(t, res.AmountIn+res.FeeAmount, uint64(1_000_000))
	require.Len(t, res.Steps, 2)
	assert.Equal(t, lowerPrice, res.Steps[0].NextSqrtPrice)
	assert.True(t, res.Steps[1].CurrentLiquidity.IsZero())
	assert.Zero(t, res.Steps[1].AmountIn+res.Steps[1].AmountOut+res.Steps[1].FeeAmount)

	assert.Equal(t, fixedpoint.MinSqrtPrice, f.pool.CurrentSqrtPrice())
	assert.Equal(t, fixedpoint.MinTick, f.pool.CurrentTickIndex())
	assert.True(t, f.pool.Liquidity().IsZero())
	requireInvariants(t, f.pool)

	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1, SqrtPriceLimit: limitFor(true)})
	assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	back, err := f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limitFor(false)})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, back.Status)
	assert.Equal(t, uint128.From64(10_000_000), f.pool.Liquidity())
	requireInvariants(t, f.pool)
}

func TestSwapWithoutLiquidityMovesToLimit(t *testing.T) {
	f := newFixture(t, 60, 3000)

	limit, err := fixedpoint.TickToSqrtPrice(-600)
	require.NoError(t, err)
	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limit})
	require.NoError(t, err)
	assert.Equal(t, StatusPriceLimitReached, res.Status)
	assert.False(t, res.IsExceed)
	assert.Zero(t, res.AmountIn+res.AmountOut+res.FeeAmount)
	assert.Equal(t, limit, f.pool.CurrentSqrtPrice())
	assert.Equal(t, int32(-600), f.pool.CurrentTickIndex())

	res, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limitFor(false)})
	require.NoError(t, err)
	assert.Equal(t, StatusOutOfLiquidity, res.Status)
	assert.True(t, res.IsExceed)
	assert.Equal(t, fixedpoint.MaxSqrtPrice, f.pool.CurrentSqrtPrice())
	assert.Equal(t, fixedpoint.MaxTick, f.pool.CurrentTickIndex())
	requireInvariants(t, f.pool)
}

func TestSwapSkipsLiquidityGap(t *testing.T) {
	f := newFixture(t, 60, 3000)
	f.deposit(t, -600, 600, 10_000_000)
	f.deposit(t, -1800, -1200, 10_000_000)

	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 500_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	require.Len(t, res.Steps, 3)

	gapEnd, err := fixedpoint.TickToSqrtPrice(-1200)
	require.NoError(t, err)
	gap := res.Steps[1]
	assert.True(t, gap.CurrentLiquidity.IsZero())
	assert.Zero(t, gap.AmountIn+gap.AmountOut+gap.FeeAmount)
	assert.Equal(t, gapEnd, gap.NextSqrtPrice)
	assert.Equal(t, uint128.From64(10_000_000), res.Steps[2].CurrentLiquidity)
	assert.Less(t, f.pool.CurrentTickIndex(), int32(-1200))
	requireInvariants(t, f.pool)
}

func TestSwapStepCapFailsWithoutMutation(t *testing.T) {
	f := newFixture(t, 60, 3000)
	for k := int32(0); k < 6; k++ {
		f.deposit(t, -60*(k+1), -60*k, 1_000_000)
	}
	f.deposit(t, 0, 60, 1_000_000)
	before := capture(f.pool)

	params := SwapParams{AToB: true, ByAmountIn: true, Amount: 10_000_000, SqrtPriceLimit: limitFor(true)}
	sim, err := f.pool.SimulateSwap(params)
	require.NoError(t, err)
	require.Greater(t, len(sim.Steps), 4)

	f.pool.maxSteps = 4
	_, err = f.pool.Swap(params)
	assert.ErrorIs(t, err, ErrOutOfLiquidity)
	assert.Equal(t, before, capture(f.pool))
	_, err = f.pool.SimulateSwap(params)
	assert.ErrorIs(t, err, ErrOutOfLiquidity)
	_, _, err = f.pool.FlashSwap(params)
	assert.ErrorIs(t, err, ErrOutOfLiquidity)
	assert.Equal(t, before, capture(f.pool))
}

func TestSwapHonorsPriceLimit(t *testing.T) {
	f := newFixture(t, 60, 3000)
	f.deposit(t, -600, 600, 10_000_000)

	limit, err := fixedpoint.TickToSqrtPrice(-30)
	require.NoError(t, err)
	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000_000, SqrtPriceLimit: limit})
	require.NoError(t, err)
	assert.Equal(t, StatusPriceLimitReached, res.Status)
	assert.Equal(t, limit, f.pool.CurrentSqrtPrice())
	assert.Equal(t, int32(-30), f.pool.CurrentTickIndex())
	requireInvariants(t, f.pool)

	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1, SqrtPriceLimit: limit})
	assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	_, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 1, SqrtPriceLimit: limit})
	assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	_, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 1, SqrtPriceLimit: fixedpoint.MaxSqrtPrice.Add64(1)})
	assert.ErrorIs(t, err, ErrInvalidPriceLimit)
	_, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, SqrtPriceLimit: fixedpoint.MaxSqrtPrice})
	assert.ErrorIs(t, err, ErrZeroAmount)
}

func TestSwapAcrossSharedBoundary(t *testing.T) {
	f := newFixture(t, 60, 3000)
	low := f.deposit(t, -120, 0, 1_000_000)
	high := f.deposit(t, 0, 120, 2_000_000)
	require.Equal(t, uint128.From64(2_000_000), f.pool.Liquidity())

	boundary, ok := f.pool.Tick(0)
	require.True(t, ok)
	assert.Equal(t, fixedpoint.I128FromInt64(1_000_000), boundary.LiquidityNet)

	res, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)
	require.Len(t, res.Steps, 2)
	assert.Zero(t, res.Steps[0].AmountIn, "first step only crosses the boundary")
	assert.Equal(t, uint128.From64(2_000_000), res.Steps[0].CurrentLiquidity)
	assert.Equal(t, uint128.From64(1_000_000), res.Steps[1].CurrentLiquidity)

	reconstruct := func() uint128.Uint128 {
		total := uint128.Zero
		for _, id := range []position.ID{low, high} {
			pos, err := f.pool.Position(id)
			require.NoError(t, err)
			current := f.pool.CurrentTickIndex()
			if pos.TickLower <= current && current < pos.TickUpper {
				total = total.Add(pos.Liquidity)
			}
		}
		return total
	}
	assert.Equal(t, uint128.From64(1_000_000), f.pool.Liquidity())
	assert.Equal(t, reconstruct(), f.pool.Liquidity())
	requireInvariants(t, f.pool)

	res, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 5_000, SqrtPriceLimit: limitFor(false)})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.GreaterOrEqual(t, f.pool.CurrentTickIndex(), int32(0))
	assert.Equal(t, uint128.From64(2_000_000), f.pool.Liquidity())
	assert.Equal(t, reconstruct(), f.pool.Liquidity())
	requireInvariants(t, f.pool)
}

func TestSwapExactOutput(t *testing.T) {
	f := newFixture(t, 60, 3000)
	f.deposit(t, -600, 600, 10_000_000)

	vaultA, vaultB := f.ledger.Vault("A"), f.ledger.Vault("B")
	res, err := f.pool.Swap(SwapParams{AToB: false, ByAmountIn: false, Amount: 10_000, SqrtPriceLimit: limitFor(false)})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, res.Status)
	assert.Equal(t, uint64(10_000), res.AmountOut)
	assert.Greater(t, res.AmountIn, uint64(10_000))
	assert.Positive(t, res.FeeAmount)
	assert.Equal(t, vaultA-10_000, f.ledger.Vault("A"))
	assert.Equal(t, vaultB+res.AmountIn+res.FeeAmount, f.ledger.Vault("B"))
}

func TestConservationUnderFeeRate(t *testing.T) {
	f := newFixture(t, 60, 0)
	f.deposit(t, -6000, 6000, 50_000_000)
	params := SwapParams{AToB: true, ByAmountIn: true, Amount: 250_000, SqrtPriceLimit: limitFor(true)}

	var lastOut uint64
	for i, rate := range []uint64{0, 500, 3000, 10_000, 100_000} {
		require.NoError(t, f.pool.SetFeeRate(rate))
		sim, err := f.pool.SimulateSwap(params)
		require.NoError(t, err)
		assert.Equal(t, rate, sim.FeeRate)
		assert.LessOrEqual(t, sim.AmountIn+sim.FeeAmount, params.Amount)
		if i > 0 {
			assert.Less(t, sim.AmountOut, lastOut, "fee rate %d", rate)
		}
		lastOut = sim.AmountOut
	}
}

func TestProtocolAndRefFeeSplit(t *testing.T) {
	f := newFixture(t, 60, 10_000)
	require.NoError(t, f.pool.SetProtocolFeeRate(2_000))
	f.deposit(t, -600, 600, 10_000_000)

	res, err := f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(false), RefFeeRate: 1_000})
	require.NoError(t, err)
	require.Equal(t, uint64(1_000), res.FeeAmount)
	assert.Equal(t, uint64(100), res.RefFeeAmount)
	assert.Equal(t, uint64(180), res.ProtocolFeeAmount)

	_, growthB := f.pool.FeeGrowthGlobal()
	want, err := fixedpoint.MulDivFloor(uint128.From64(720), fixedpoint.Q64, uint128.From64(10_000_000))
	require.NoError(t, err)
	assert.Equal(t, want, growthB)

	a, b := f.pool.ProtocolFeeOwed()
	assert.Zero(t, a)
	assert.Equal(t, uint64(180), b)
	a, b, err = f.pool.CollectProtocolFee()
	require.NoError(t, err)
	assert.Equal(t, [2]uint64{0, 180}, [2]uint64{a, b})
	a, b = f.pool.ProtocolFeeOwed()
	assert.Zero(t, a+b)

	assert.ErrorIs(t, f.pool.SetProtocolFeeRate(MaxProtocolFeeRate+1), ErrInvalidFeeRate)
	_, err = f.pool.Swap(SwapParams{AToB: false, ByAmountIn: true, Amount: 1, SqrtPriceLimit: limitFor(false), RefFeeRate: ShareDenominator + 1})
	assert.ErrorIs(t, err, ErrInvalidFeeRate)
}

func TestRewarderEmissionOverHundredSeconds(t *testing.T) {
	f := newFixture(t, 60, 3000)
	const liquidity = 1 << 20
	id := f.deposit(t, -600, 600, liquidity)
	require.NoError(t, f.ledger.Apply(custody.Transfer{Coin: "REWARD", Amount: 1_000, Direction: custody.In}))

	require.NoError(t, f.pool.AddRewarder("REWARD"))
	assert.ErrorIs(t, f.pool.AddRewarder("REWARD"), ErrDuplicateRewarder)
	require.NoError(t, f.pool.SetEmission("REWARD", fixedpoint.Q64))

	f.clock.now += 100
	rewards, err := f.pool.CalculateAndUpdateRewards(id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{100}, rewards)

	growth := f.pool.Rewarders()[0].GrowthGlobal
	assert.Equal(t, fixedpoint.Q64.Mul64(100).Div64(liquidity), growth)

	points, err := f.pool.GetPositionPoints(id)
	require.NoError(t, err)
	assert.Equal(t, uint128.From64(liquidity*100), points)

	amount, err := f.pool.CollectReward(id, "REWARD")
	require.NoError(t, err)
	assert.Equal(t, uint64(100), amount)
	assert.Equal(t, uint64(900), f.ledger.Vault("REWARD"))

	amount, err = f.pool.CollectReward(id, "REWARD")
	require.NoError(t, err)
	assert.Zero(t, amount)

	_, err = f.pool.CollectReward(id, "MISSING")
	assert.ErrorIs(t, err, ErrRewarderNotFound)
}

func TestPointsAccrueAsLiquiditySeconds(t *testing.T) {
	f := newFixture(t, 60, 3000)
	small := f.deposit(t, -600, 600, 1_000_000)
	large := f.deposit(t, -600, 600, 3_000_000)
	outside := f.deposit(t, 600, 1200, 5_000_000)

	f.clock.now += 50
	for _, tc := range []struct {
		id   position.ID
		want uint64
	}{
		{small, 50_000_000},
		{large, 150_000_000},
		{outside, 0},
	} {
		points, err := f.pool.CalculateAndUpdatePoints(tc.id)
		require.NoError(t, err)
		assert.Equal(t, uint128.From64(tc.want), points)
	}
	assert.Equal(t, uint128.From64(200_000_000), f.pool.RewarderManager().PointsReleased)
}

func TestRewardsPauseWithoutLiquidity(t *testing.T) {
	f := newFixture(t, 60, 3000)
	require.NoError(t, f.pool.AddRewarder("REWARD"))
	require.NoError(t, f.pool.SetEmission("REWARD", fixedpoint.Q64))

	f.clock.now += 50
	id := f.deposit(t, -600, 600, 1<<20)
	assert.True(t, f.pool.Rewarders()[0].GrowthGlobal.IsZero())
	assert.Equal(t, f.clock.now, f.pool.RewarderManager().LastUpdatedTime)

	f.clock.now += 10
	rewards, err := f.pool.CalculateAndUpdateRewards(id)
	require.NoError(t, err)
	assert.Equal(t, []uint64{10}, rewards)
}

func TestGetAccessorsDoNotSettle(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id := f.deposit(t, -600, 600, 10_000_000)
	_, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)

	before := capture(f.pool)
	a, b, err := f.pool.GetPositionFee(id)
	require.NoError(t, err)
	assert.Zero(t, a+b)
	assert.Equal(t, before, capture(f.pool))

	a, _, err = f.pool.CalculateAndUpdateFee(id)
	require.NoError(t, err)
	assert.Positive(t, a)
	got, _, err := f.pool.GetPositionFee(id)
	require.NoError(t, err)
	assert.Equal(t, a, got)
}

func TestRemoveLiquidityAndClose(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id := f.deposit(t, -600, 600, 10_000_000)
	_, err := f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(true)})
	require.NoError(t, err)

	_, _, err = f.pool.RemoveLiquidity(id, uint128.From64(10_000_001))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	_, _, err = f.pool.RemoveLiquidity(id, uint128.Zero)
	assert.ErrorIs(t, err, ErrZeroAmount)

	a, b, err := f.pool.RemoveLiquidity(id, uint128.From64(10_000_000))
	require.NoError(t, err)
	assert.Positive(t, a)
	assert.Positive(t, b)
	assert.True(t, f.pool.Liquidity().IsZero())
	assert.Zero(t, f.pool.TickCount())
	requireInvariants(t, f.pool)

	assert.ErrorIs(t, f.pool.ClosePosition(id), ErrPositionNotEmpty)
	_, _, err = f.pool.CollectFee(id)
	require.NoError(t, err)
	require.NoError(t, f.pool.ClosePosition(id))
	_, err = f.pool.Position(id)
	assert.ErrorIs(t, err, ErrPositionNotFound)
}

func TestAddLiquidityFixedToken(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id, err := f.pool.OpenPosition(-600, 600)
	require.NoError(t, err)

	r, err := f.pool.AddLiquidityFixedToken(id, 1_000_000, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, r.AmountA, uint64(1_000_000))
	assert.Positive(t, r.AmountB)
	assert.False(t, r.Liquidity.IsZero())
	require.NoError(t, f.pool.RepayAddLiquidity(r, r.AmountA, r.AmountB))
	assert.Equal(t, r.Liquidity, f.pool.Liquidity())

	above, err := f.pool.OpenPosition(600, 1200)
	require.NoError(t, err)
	_, err = f.pool.AddLiquidityFixedToken(above, 1_000, false)
	assert.ErrorIs(t, err, fixedpoint.ErrFixedTokenOutOfRange)
	_, err = f.pool.AddLiquidityFixedToken(above, 0, true)
	assert.ErrorIs(t, err, ErrZeroAmount)

	r, err = f.pool.AddLiquidityFixedToken(above, 1_000, true)
	require.NoError(t, err)
	assert.Zero(t, r.AmountB)
	require.NoError(t, f.pool.RepayAddLiquidity(r, r.AmountA, r.AmountB))
	assert.Equal(t, r.Liquidity, mustPosition(t, f.pool, above).Liquidity)
	requireInvariants(t, f.pool)
}

func mustPosition(t *testing.T, p *Pool, id position.ID) position.Position {
	t.Helper()
	pos, err := p.Position(id)
	require.NoError(t, err)
	return pos
}

func TestFailedOperationsLeaveStateUnchanged(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id := f.deposit(t, -600, 600, 10_000_000)
	before := capture(f.pool)

	_, _, err := f.pool.RemoveLiquidity(id, uint128.From64(20_000_000))
	assert.ErrorIs(t, err, ErrInsufficientLiquidity)
	assert.Equal(t, before, capture(f.pool))

	_, err = f.pool.AddLiquidity(id, f.pool.ticks.MaxLiquidity())
	assert.ErrorIs(t, err, ErrLiquidityOverflow)
	assert.Equal(t, before, capture(f.pool))

	drained := custody.NewLedger()
	f.pool.custody = drained
	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(true)})
	assert.ErrorIs(t, err, custody.ErrInsufficientBalance)
	assert.Equal(t, before, capture(f.pool))
	f.pool.custody = f.ledger

	f.clock.now = 10
	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 100_000, SqrtPriceLimit: limitFor(true)})
	assert.ErrorIs(t, err, ErrInvalidTimestamp)
	assert.Equal(t, before, capture(f.pool))
}

func TestPausedPoolRejectsMutations(t *testing.T) {
	f := newFixture(t, 60, 3000)
	id := f.deposit(t, -600, 600, 10_000_000)
	f.pool.Pause()

	_, err := f.pool.OpenPosition(-60, 60)
	assert.ErrorIs(t, err, ErrPoolPaused)
	_, err = f.pool.AddLiquidity(id, uint128.From64(1))
	assert.ErrorIs(t, err, ErrPoolPaused)
	_, _, err = f.pool.RemoveLiquidity(id, uint128.From64(1))
	assert.ErrorIs(t, err, ErrPoolPaused)
	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1, SqrtPriceLimit: limitFor(true)})
	assert.ErrorIs(t, err, ErrPoolPaused)
	_, _, err = f.pool.CollectFee(id)
	assert.ErrorIs(t, err, ErrPoolPaused)

	_, err = f.pool.SimulateSwap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limitFor(true)})
	assert.NoError(t, err)

	f.pool.Unpause()
	_, err = f.pool.Swap(SwapParams{AToB: true, ByAmountIn: true, Amount: 1_000, SqrtPriceLimit: limitFor(true)})
	assert.NoError(t, err)
	assert.ErrorIs(t, f.pool.SetFeeRate(MaxFeeRate+1), ErrInvalidFeeRate)
}

func TestInvariantsAcrossManySwaps(t *testing.T) {
	f := newFixture(t, 10, 2500)
	f.deposit(t, -200, 200, 4_000_000)
	f.deposit(t, -50, 30, 9_000_000)
	f.deposit(t, 0, 500, 1_500_000)
	f.deposit(t, -1000, -100, 700_000)
	requireInvariants(t, f.pool)

	amounts := []uint64{40_000, 7_000, 150_000, 3, 90_000, 12_345, 220_000, 60_000}
	lastA, lastB := f.pool.FeeGrowthGlobal()
	for i, amount := range amounts {
		params := SwapParams{AToB: i%2 == 0, ByAmountIn: i%3 != 0, Amount: amount, SqrtPriceLimit: limitFor(i%2 == 0)}
		_, err := f.pool.Swap(params)
		require.NoError(t, err, "swap %d", i)
		requireInvariants(t, f.pool)

		a, b := f.pool.FeeGrowthGlobal()
		assert.GreaterOrEqual(t, a.Cmp(lastA), 0)
		assert.GreaterOrEqual(t, b.Cmp(lastB), 0)
		lastA, lastB = a, b
	}
}

func TestPaginationAccessors(t *testing.T) {
	f := newFixture(t, 60, 3000)
	for i := int32(1); i <= 3; i++ {
		f.deposit(t, -60*i, 60*i, 1_000)
	}

	ticks, next, more := f.pool.Ticks(fixedpoint.MinTick, 4)
	require.Len(t, ticks, 4)
	assert.True(t, more)
	assert.Equal(t, int32(120), next)
	ticks, _, more = f.pool.Ticks(next, 4)
	assert.Len(t, ticks, 2)
	assert.False(t, more)

	positions, _, more := f.pool.Positions(position.ID{}, 10)
	assert.Len(t, positions, 3)
	assert.False(t, more)
}
