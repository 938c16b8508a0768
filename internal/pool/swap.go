package pool

import (
	"fmt"

	"go.uber.org/zap"
	"lukechampine.com/uint128"

	"clmmEngine/internal/custody"
	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

// SwapParams describes one swap request.
type SwapParams struct {
	AToB           bool
	ByAmountIn     bool
	Amount         uint64
	SqrtPriceLimit uint128.Uint128
	// RefFeeRate is the partner share of each step fee, in basis points.
	RefFeeRate uint64
}

// SwapStatus is the terminal state of a swap loop.
type SwapStatus uint8

const (
	StatusDone SwapStatus = iota
	StatusPriceLimitReached
	StatusOutOfLiquidity
)

func (s SwapStatus) String() string {
	switch s {
	case StatusDone:
		return "done"
	case StatusPriceLimitReached:
		return "price_limit_reached"
	case StatusOutOfLiquidity:
		return "out_of_liquidity"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// SwapStepResult records one step of the swap loop.
type SwapStepResult struct {
	CurrentSqrtPrice uint128.Uint128
	TargetSqrtPrice  uint128.Uint128
	NextSqrtPrice    uint128.Uint128
	CurrentLiquidity uint128.Uint128
	AmountIn         uint64
	AmountOut        uint64
	FeeAmount        uint64
	RemainderAmount  uint64
}

// SwapResult totals a swap. AmountIn excludes FeeAmount; the payer owes both.
type SwapResult struct {
	AmountIn          uint64
	AmountOut         uint64
	FeeAmount         uint64
	RefFeeAmount      uint64
	ProtocolFeeAmount uint64
	AfterSqrtPrice    uint128.Uint128
	AfterTickIndex    int32
	AfterLiquidity    uint128.Uint128
	Status            SwapStatus
	IsExceed          bool
	Steps             []SwapStepResult
}

// CalculatedSwapResult is a simulated swap.
type CalculatedSwapResult struct {
	SwapResult
	FeeRate uint64
}

type crossing struct {
	tick    int32
	globals tick.Growths
}

// swapState is the working copy a swap mutates before commit.
type swapState struct {
	sqrtPrice   uint128.Uint128
	tick        int32
	liquidity   uint128.Uint128
	feeGrowthA  uint128.Uint128
	feeGrowthB  uint128.Uint128
	protocolFee uint64
	crossings   []crossing
}

func (p *Pool) checkSwap(params SwapParams) error {
	if params.Amount == 0 {
		return ErrZeroAmount
	}
	if params.RefFeeRate > ShareDenominator {
		return fmt.Errorf("ref fee rate %d: %w", params.RefFeeRate, ErrInvalidFeeRate)
	}
	limit, current := params.SqrtPriceLimit, p.state.SqrtPrice
	if params.AToB {
		if limit.Cmp(current) >= 0 || limit.Cmp(fixedpoint.MinSqrtPrice) < 0 {
			return fmt.Errorf("limit %s current %s: %w", limit, current, ErrInvalidPriceLimit)
		}
		return nil
	}
	if limit.Cmp(current) <= 0 || limit.Cmp(fixedpoint.MaxSqrtPrice) > 0 {
		return fmt.Errorf("limit %s current %s: %w", limit, current, ErrInvalidPriceLimit)
	}
	return nil
}

// computeSwap runs the swap loop on a local copy of the pool state. Nothing
// on the pool is written.
func (p *Pool) computeSwap(params SwapParams, rm rewarder.Manager) (SwapResult, swapState, error) {
	if err := p.checkSwap(params); err != nil {
		return SwapResult{}, swapState{}, err
	}

	st := swapState{
		sqrtPrice:  p.state.SqrtPrice,
		tick:       p.state.TickIndex,
		liquidity:  p.state.Liquidity,
		feeGrowthA: p.state.FeeGrowthGlobalA,
		feeGrowthB: p.state.FeeGrowthGlobalB,
	}
	rewards, points := rm.Globals()
	limit := params.SqrtPriceLimit
	remaining := params.Amount
	var res SwapResult
	bound := false

	for remaining > 0 && st.sqrtPrice != limit && !bound {
		if len(res.Steps) >= p.maxSteps {
			return SwapResult{}, swapState{}, fmt.Errorf("after %d steps: %w", len(res.Steps), ErrOutOfLiquidity)
		}

		nextTick, initialized := p.ticks.NextInitialized(st.tick, params.AToB)
		if !initialized {
			nextTick = fixedpoint.MaxTick
			if params.AToB {
				nextTick = fixedpoint.MinTick
			}
		}
		nextPrice, err := fixedpoint.TickToSqrtPrice(nextTick)
		if err != nil {
			return SwapResult{}, swapState{}, err
		}
		target := nextPrice
		if (params.AToB && nextPrice.Cmp(limit) < 0) || (!params.AToB && nextPrice.Cmp(limit) > 0) {
			target = limit
		}

		step, err := fixedpoint.ComputeSwapStep(st.sqrtPrice, target, st.liquidity, remaining, p.state.FeeRate, params.AToB, params.ByAmountIn)
		if err != nil {
			return SwapResult{}, swapState{}, fmt.Errorf("step %d: %w", len(res.Steps), err)
		}
		if params.ByAmountIn {
			remaining -= step.AmountIn + step.FeeAmount
		} else {
			remaining -= step.AmountOut
		}
		if err := res.add(step); err != nil {
			return SwapResult{}, swapState{}, err
		}
		if err := p.splitFee(&res, &st, step.FeeAmount, params); err != nil {
			return SwapResult{}, swapState{}, err
		}

		res.Steps = append(res.Steps, SwapStepResult{
			CurrentSqrtPrice: st.sqrtPrice,
			TargetSqrtPrice:  target,
			NextSqrtPrice:    step.NextSqrtPrice,
			CurrentLiquidity: st.liquidity,
			AmountIn:         step.AmountIn,
			AmountOut:        step.AmountOut,
			FeeAmount:        step.FeeAmount,
			RemainderAmount:  remaining,
		})

		switch {
		case !initialized && step.NextSqrtPrice == nextPrice:
			st.sqrtPrice = nextPrice
			st.tick = nextTick
			bound = true
		case step.NextSqrtPrice == nextPrice:
			net, _ := p.ticks.Get(nextTick)
			delta := net.LiquidityNet
			if params.AToB {
				delta = delta.Neg()
			}
			if st.liquidity, err = fixedpoint.AddDelta(st.liquidity, delta); err != nil {
				return SwapResult{}, swapState{}, fmt.Errorf("cross tick %d: %w", nextTick, err)
			}
			st.crossings = append(st.crossings, crossing{
				tick: nextTick,
				globals: tick.Growths{
					FeeA:    st.feeGrowthA,
					FeeB:    st.feeGrowthB,
					Rewards: rewards,
					Points:  points,
				},
			})
			st.sqrtPrice = nextPrice
			st.tick = nextTick
			if params.AToB {
				st.tick = nextTick - 1
			}
		case step.NextSqrtPrice != st.sqrtPrice:
			st.sqrtPrice = step.NextSqrtPrice
			if st.tick, err = fixedpoint.SqrtPriceToTick(st.sqrtPrice); err != nil {
				return SwapResult{}, swapState{}, err
			}
		}
	}

	switch {
	case remaining > 0 && bound:
		res.Status = StatusOutOfLiquidity
		res.IsExceed = true
	case remaining > 0:
		res.Status = StatusPriceLimitReached
	}
	return res.finish(st), st, nil
}

func (r *SwapResult) add(step fixedpoint.SwapStep) error {
	var err error
	if r.AmountIn, err = fixedpoint.AddU64(r.AmountIn, step.AmountIn); err != nil {
		return fmt.Errorf("amount in: %w", err)
	}
	if r.AmountOut, err = fixedpoint.AddU64(r.AmountOut, step.AmountOut); err != nil {
		return fmt.Errorf("amount out: %w", err)
	}
	if r.FeeAmount, err = fixedpoint.AddU64(r.FeeAmount, step.FeeAmount); err != nil {
		return fmt.Errorf("fee amount: %w", err)
	}
	return nil
}

func (r SwapResult) finish(st swapState) SwapResult {
	r.AfterSqrtPrice = st.sqrtPrice
	r.AfterTickIndex = st.tick
	r.AfterLiquidity = st.liquidity
	return r
}

// splitFee carves the partner share out of a step fee, then the protocol
// share, and credits the rest to the input coin's growth accumulator.
func (p *Pool) splitFee(res *SwapResult, st *swapState, fee uint64, params SwapParams) error {
	if fee == 0 {
		return nil
	}
	ref, err := fixedpoint.MulDivFloor64(fee, params.RefFeeRate, ShareDenominator)
	if err != nil {
		return err
	}
	rest := fee - ref
	protocol, err := fixedpoint.MulDivCeil64(rest, p.state.ProtocolFeeRate, ShareDenominator)
	if err != nil {
		return err
	}
	lp := rest - protocol

	if res.RefFeeAmount, err = fixedpoint.AddU64(res.RefFeeAmount, ref); err != nil {
		return fmt.Errorf("ref fee: %w", err)
	}
	if res.ProtocolFeeAmount, err = fixedpoint.AddU64(res.ProtocolFeeAmount, protocol); err != nil {
		return fmt.Errorf("protocol fee: %w", err)
	}
	if st.protocolFee, err = fixedpoint.AddU64(st.protocolFee, protocol); err != nil {
		return fmt.Errorf("protocol fee: %w", err)
	}

	if lp == 0 || st.liquidity.IsZero() {
		return nil
	}
	growth, err := fixedpoint.MulDivFloor(uint128.From64(lp), fixedpoint.Q64, st.liquidity)
	if err != nil {
		return err
	}
	if params.AToB {
		st.feeGrowthA = fixedpoint.GrowthAdd(st.feeGrowthA, growth)
	} else {
		st.feeGrowthB = fixedpoint.GrowthAdd(st.feeGrowthB, growth)
	}
	return nil
}

// SimulateSwap runs the swap algorithm without touching the pool.
func (p *Pool) SimulateSwap(params SwapParams) (CalculatedSwapResult, error) {
	res, _, err := p.computeSwap(params, p.rewards)
	if err != nil {
		return CalculatedSwapResult{}, err
	}
	return CalculatedSwapResult{SwapResult: res, FeeRate: p.state.FeeRate}, nil
}

// Swap executes a swap, pulling the input plus fee from the caller and
// sending the output.
func (p *Pool) Swap(params SwapParams) (SwapResult, error) {
	res, commit, err := p.prepareSwap(params)
	if err != nil {
		return SwapResult{}, err
	}
	inCoin, outCoin := p.swapCoins(params.AToB)
	if err := p.custody.Apply(
		custody.Transfer{Coin: inCoin, Amount: res.AmountIn + res.FeeAmount, Direction: custody.In},
		custody.Transfer{Coin: outCoin, Amount: res.AmountOut, Direction: custody.Out},
	); err != nil {
		return SwapResult{}, fmt.Errorf("swap: %w", err)
	}
	commit()
	return res, nil
}

// FlashSwap sends the output first and returns a receipt for the input plus
// fee, which must be repaid with RepayFlashSwap.
func (p *Pool) FlashSwap(params SwapParams) (SwapResult, *FlashSwapReceipt, error) {
	res, commit, err := p.prepareSwap(params)
	if err != nil {
		return SwapResult{}, nil, err
	}
	_, outCoin := p.swapCoins(params.AToB)
	if err := p.custody.Apply(custody.Transfer{Coin: outCoin, Amount: res.AmountOut, Direction: custody.Out}); err != nil {
		return SwapResult{}, nil, fmt.Errorf("flash swap: %w", err)
	}
	r := &FlashSwapReceipt{
		receipt:      p.issue(),
		AToB:         params.AToB,
		PayAmount:    res.AmountIn + res.FeeAmount,
		RefFeeAmount: res.RefFeeAmount,
	}
	commit()
	p.track(&r.receipt)
	return res, r, nil
}

func (p *Pool) swapCoins(aToB bool) (string, string) {
	if aToB {
		return p.cfg.CoinA, p.cfg.CoinB
	}
	return p.cfg.CoinB, p.cfg.CoinA
}

// prepareSwap validates and computes a swap and returns the closure that
// commits it.
func (p *Pool) prepareSwap(params SwapParams) (SwapResult, func(), error) {
	if p.state.Paused {
		return SwapResult{}, nil, ErrPoolPaused
	}
	rm, err := p.settleRewards()
	if err != nil {
		return SwapResult{}, nil, err
	}
	res, st, err := p.computeSwap(params, rm)
	if err != nil {
		return SwapResult{}, nil, err
	}
	if _, err := fixedpoint.AddU64(res.AmountIn, res.FeeAmount); err != nil {
		return SwapResult{}, nil, fmt.Errorf("pay amount: %w", err)
	}
	owedA, owedB := p.state.ProtocolFeeOwedA, p.state.ProtocolFeeOwedB
	if params.AToB {
		owedA, err = fixedpoint.AddU64(owedA, st.protocolFee)
	} else {
		owedB, err = fixedpoint.AddU64(owedB, st.protocolFee)
	}
	if err != nil {
		return SwapResult{}, nil, fmt.Errorf("protocol fee owed: %w", err)
	}

	commit := func() {
		p.rewards = rm
		for _, c := range st.crossings {
			p.ticks.Cross(c.tick, c.globals)
		}
		p.state.SqrtPrice = st.sqrtPrice
		p.state.TickIndex = st.tick
		p.state.Liquidity = st.liquidity
		p.state.FeeGrowthGlobalA = st.feeGrowthA
		p.state.FeeGrowthGlobalB = st.feeGrowthB
		p.state.ProtocolFeeOwedA = owedA
		p.state.ProtocolFeeOwedB = owedB
		p.commit()

		p.logger.Debug("swap",
			zap.Bool("a_to_b", params.AToB),
			zap.Bool("by_amount_in", params.ByAmountIn),
			zap.Uint64("amount_in", res.AmountIn),
			zap.Uint64("amount_out", res.AmountOut),
			zap.Uint64("fee", res.FeeAmount),
			zap.Int("steps", len(res.Steps)),
			zap.Int("crossed", len(st.crossings)),
			zap.Stringer("status", res.Status),
			zap.Int32("tick", st.tick),
		)
	}
	return res, commit, nil
}
