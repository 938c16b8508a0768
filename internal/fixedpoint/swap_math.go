package fixedpoint

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// SwapStep is the outcome of moving the price toward one target.
type SwapStep struct {
	NextSqrtPrice uint128.Uint128
	AmountIn      uint64
	AmountOut     uint64
	FeeAmount     uint64
}

// ComputeSwapStep consumes as much of amountRemaining as the move from
// current to target allows. The fee is charged on input and rounded up.
func ComputeSwapStep(current, target, liquidity uint128.Uint128, amountRemaining, feeRate uint64, aToB, byAmountIn bool) (SwapStep, error) {
	if feeRate >= FeeRateDenominator {
		return SwapStep{}, ErrInvalidFeeRate
	}
	if (aToB && current.Cmp(target) < 0) || (!aToB && current.Cmp(target) > 0) {
		return SwapStep{}, ErrInvalidDirection
	}

	step := SwapStep{NextSqrtPrice: current}
	if liquidity.IsZero() {
		step.NextSqrtPrice = target
		return step, nil
	}

	if byAmountIn {
		amountLessFee, err := MulDivFloor64(amountRemaining, FeeRateDenominator-feeRate, FeeRateDenominator)
		if err != nil {
			return SwapStep{}, err
		}
		maxIn, err := deltaUpFromInput(current, target, liquidity, aToB)
		if err != nil {
			return SwapStep{}, err
		}

		if maxIn.Gt(uint256.NewInt(amountLessFee)) {
			step.AmountIn = amountLessFee
			step.FeeAmount = amountRemaining - amountLessFee
			step.NextSqrtPrice, err = NextSqrtPriceFromInput(current, liquidity, amountLessFee, aToB)
			if err != nil {
				return SwapStep{}, err
			}
		} else {
			step.AmountIn = maxIn.Uint64()
			step.FeeAmount, err = MulDivCeil64(step.AmountIn, feeRate, FeeRateDenominator-feeRate)
			if err != nil {
				return SwapStep{}, err
			}
			step.NextSqrtPrice = target
		}

		out, err := deltaDownFromOutput(current, step.NextSqrtPrice, liquidity, aToB)
		if err != nil {
			return SwapStep{}, err
		}
		if step.AmountOut, err = toU64(out); err != nil {
			return SwapStep{}, err
		}
		return step, nil
	}

	maxOut, err := deltaDownFromOutput(current, target, liquidity, aToB)
	if err != nil {
		return SwapStep{}, err
	}
	if maxOut.Gt(uint256.NewInt(amountRemaining)) {
		step.AmountOut = amountRemaining
		step.NextSqrtPrice, err = NextSqrtPriceFromOutput(current, liquidity, amountRemaining, aToB)
		if err != nil {
			return SwapStep{}, err
		}
	} else {
		step.AmountOut = maxOut.Uint64()
		step.NextSqrtPrice = target
	}

	in, err := deltaUpFromInput(current, step.NextSqrtPrice, liquidity, aToB)
	if err != nil {
		return SwapStep{}, err
	}
	if step.AmountIn, err = toU64(in); err != nil {
		return SwapStep{}, err
	}
	step.FeeAmount, err = MulDivCeil64(step.AmountIn, feeRate, FeeRateDenominator-feeRate)
	if err != nil {
		return SwapStep{}, err
	}
	return step, nil
}
