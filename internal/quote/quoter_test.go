package quote

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/pool"
)

type fixedClock uint64

func (c fixedClock) Now() uint64 { return uint64(c) }

func seededPool(t *testing.T) *pool.Pool {
	t.Helper()
	p, err := pool.New(pool.Config{
		ID:               "quote-pool",
		CoinA:            "A",
		CoinB:            "B",
		TickSpacing:      60,
		FeeRate:          3000,
		InitialSqrtPrice: fixedpoint.Q64,
	}, pool.Deps{Clock: fixedClock(1)})
	require.NoError(t, err)

	id, err := p.OpenPosition(-1200, 1200)
	require.NoError(t, err)
	r, err := p.AddLiquidity(id, uint128.From64(50_000_000))
	require.NoError(t, err)
	require.NoError(t, p.RepayAddLiquidity(r, r.AmountA, r.AmountB))
	return p
}

func TestBatchMatchesSequentialSimulation(t *testing.T) {
	p := seededPool(t)
	q, err := New(4, 64, nil)
	require.NoError(t, err)
	defer q.Close()

	var requests []pool.SwapParams
	for _, amount := range []uint64{1_000, 10_000, 100_000, 1_000_000} {
		requests = append(requests,
			pool.SwapParams{AToB: true, ByAmountIn: true, Amount: amount, SqrtPriceLimit: fixedpoint.MinSqrtPrice},
			pool.SwapParams{AToB: false, ByAmountIn: false, Amount: amount, SqrtPriceLimit: fixedpoint.MaxSqrtPrice},
		)
	}
	requests = append(requests, pool.SwapParams{AToB: true, Amount: 0, SqrtPriceLimit: fixedpoint.MinSqrtPrice})

	quotes, err := q.Batch(context.Background(), p, requests)
	require.NoError(t, err)
	require.Len(t, quotes, len(requests))

	for i, qt := range quotes[:len(quotes)-1] {
		require.NoError(t, qt.Err, "request %d", i)
		want, err := p.SimulateSwap(requests[i])
		require.NoError(t, err)
		assert.Equal(t, want, qt.Result)
	}
	assert.ErrorIs(t, quotes[len(quotes)-1].Err, pool.ErrZeroAmount)
}

func TestQuoteCacheFollowsPoolVersion(t *testing.T) {
	p := seededPool(t)
	q, err := New(2, 16, nil)
	require.NoError(t, err)
	defer q.Close()

	params := pool.SwapParams{AToB: true, ByAmountIn: true, Amount: 50_000, SqrtPriceLimit: fixedpoint.MinSqrtPrice}
	first := q.Quote(p, params)
	require.NoError(t, first.Err)
	assert.False(t, first.Cached)

	again := q.Quote(p, params)
	assert.True(t, again.Cached)
	assert.Equal(t, first.Result, again.Result)

	_, err = p.Swap(params)
	require.NoError(t, err)

	after := q.Quote(p, params)
	require.NoError(t, after.Err)
	assert.False(t, after.Cached)
	assert.Less(t, after.Result.AmountOut, first.Result.AmountOut)
}

func TestBatchHonorsCancelledContext(t *testing.T) {
	p := seededPool(t)
	q, err := New(2, 16, nil)
	require.NoError(t, err)
	defer q.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	quotes, err := q.Batch(ctx, p, []pool.SwapParams{{AToB: true, ByAmountIn: true, Amount: 10, SqrtPriceLimit: fixedpoint.MinSqrtPrice}})
	require.NoError(t, err)
	assert.ErrorIs(t, quotes[0].Err, context.Canceled)
}

func TestBest(t *testing.T) {
	quotes := []Quote{
		{Params: pool.SwapParams{ByAmountIn: true}, Result: pool.CalculatedSwapResult{SwapResult: pool.SwapResult{AmountOut: 10}}},
		{Params: pool.SwapParams{ByAmountIn: true}, Result: pool.CalculatedSwapResult{SwapResult: pool.SwapResult{AmountOut: 30}}},
		{Params: pool.SwapParams{ByAmountIn: true}, Err: pool.ErrZeroAmount},
	}
	best, err := Best(quotes)
	require.NoError(t, err)
	assert.Equal(t, uint64(30), best.Result.AmountOut)

	_, err = Best(quotes[2:])
	assert.ErrorIs(t, err, ErrNoQuote)
}
