package fixedpoint

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// AmountsForLiquidity returns the token amounts that a liquidity delta over
// [tickLower, tickUpper) represents at the current price. Below the range
// the position is all A, above it all B.
func AmountsForLiquidity(tickLower, tickUpper, currentTick int32, currentSqrtPrice, liquidity uint128.Uint128, roundUp bool) (uint64, uint64, error) {
	sqrtLower, err := TickToSqrtPrice(tickLower)
	if err != nil {
		return 0, 0, err
	}
	sqrtUpper, err := TickToSqrtPrice(tickUpper)
	if err != nil {
		return 0, 0, err
	}

	var amountA, amountB uint64
	switch {
	case currentTick < tickLower:
		amountA, err = DeltaA(sqrtLower, sqrtUpper, liquidity, roundUp)
	case currentTick < tickUpper:
		amountA, err = DeltaA(currentSqrtPrice, sqrtUpper, liquidity, roundUp)
		if err == nil {
			amountB, err = DeltaB(sqrtLower, currentSqrtPrice, liquidity, roundUp)
		}
	default:
		amountB, err = DeltaB(sqrtLower, sqrtUpper, liquidity, roundUp)
	}
	if err != nil {
		return 0, 0, err
	}
	return amountA, amountB, nil
}

// LiquidityForAmount returns the largest liquidity that amount of the fixed
// token can back over the range, and the amounts that liquidity requires
// (rounded up, never above amount on the fixed side).
func LiquidityForAmount(tickLower, tickUpper, currentTick int32, currentSqrtPrice uint128.Uint128, amount uint64, fixedIsA bool) (uint128.Uint128, uint64, uint64, error) {
	sqrtLower, err := TickToSqrtPrice(tickLower)
	if err != nil {
		return uint128.Zero, 0, 0, err
	}
	sqrtUpper, err := TickToSqrtPrice(tickUpper)
	if err != nil {
		return uint128.Zero, 0, 0, err
	}

	var liquidity uint128.Uint128
	if fixedIsA {
		switch {
		case currentTick < tickLower:
			liquidity, err = liquidityFromA(sqrtLower, sqrtUpper, amount)
		case currentTick < tickUpper:
			liquidity, err = liquidityFromA(currentSqrtPrice, sqrtUpper, amount)
		default:
			return uint128.Zero, 0, 0, ErrFixedTokenOutOfRange
		}
	} else {
		switch {
		case currentTick < tickLower:
			return uint128.Zero, 0, 0, ErrFixedTokenOutOfRange
		case currentTick < tickUpper:
			liquidity, err = liquidityFromB(sqrtLower, currentSqrtPrice, amount)
		default:
			liquidity, err = liquidityFromB(sqrtLower, sqrtUpper, amount)
		}
	}
	if err != nil {
		return uint128.Zero, 0, 0, err
	}

	amountA, amountB, err := AmountsForLiquidity(tickLower, tickUpper, currentTick, currentSqrtPrice, liquidity, true)
	if err != nil {
		return uint128.Zero, 0, 0, err
	}
	return liquidity, amountA, amountB, nil
}

// liquidityFromA returns amount * p0 * p1 / ((p1 - p0) * 2^64).
func liquidityFromA(sqrtPrice0, sqrtPrice1 uint128.Uint128, amount uint64) (uint128.Uint128, error) {
	lower, upper := orderPrices(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)
	if diff.IsZero() {
		return uint128.Zero, nil
	}
	numerator := new(uint256.Int).Mul(uint256.NewInt(amount), toU256(lower))
	denominator := new(uint256.Int).Lsh(toU256(diff), Resolution)
	z, err := mulDiv(numerator, toU256(upper), denominator, false)
	if err != nil {
		return uint128.Zero, err
	}
	return toU128(z)
}

// liquidityFromB returns amount * 2^64 / (p1 - p0).
func liquidityFromB(sqrtPrice0, sqrtPrice1 uint128.Uint128, amount uint64) (uint128.Uint128, error) {
	lower, upper := orderPrices(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)
	if diff.IsZero() {
		return uint128.Zero, nil
	}
	z, err := mulDiv(uint256.NewInt(amount), q64, toU256(diff), false)
	if err != nil {
		return uint128.Zero, err
	}
	return toU128(z)
}
