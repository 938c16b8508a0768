package fixedpoint

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

func orderPrices(a, b uint128.Uint128) (uint128.Uint128, uint128.Uint128) {
	if a.Cmp(b) > 0 {
		return b, a
	}
	return a, b
}

// deltaA256 returns liquidity * (upper - lower) / (upper * lower) in Q64.64.
func deltaA256(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (*uint256.Int, error) {
	lower, upper := orderPrices(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)
	if diff.IsZero() || liquidity.IsZero() {
		return new(uint256.Int), nil
	}
	if lower.IsZero() {
		return nil, ErrDivideByZero
	}

	numerator := new(uint256.Int).Mul(toU256(liquidity), toU256(diff))
	denominator := new(uint256.Int).Mul(toU256(lower), toU256(upper))
	return mulDiv(numerator, q64, denominator, roundUp)
}

// deltaB256 returns liquidity * (upper - lower) in Q64.64.
func deltaB256(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (*uint256.Int, error) {
	lower, upper := orderPrices(sqrtPrice0, sqrtPrice1)
	diff := upper.Sub(lower)
	if diff.IsZero() || liquidity.IsZero() {
		return new(uint256.Int), nil
	}
	return mulDiv(toU256(liquidity), toU256(diff), q64, roundUp)
}

// DeltaA returns the token A amount spanned by liquidity between two prices.
func DeltaA(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	z, err := deltaA256(sqrtPrice0, sqrtPrice1, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	return toU64(z)
}

// DeltaB returns the token B amount spanned by liquidity between two prices.
func DeltaB(sqrtPrice0, sqrtPrice1, liquidity uint128.Uint128, roundUp bool) (uint64, error) {
	z, err := deltaB256(sqrtPrice0, sqrtPrice1, liquidity, roundUp)
	if err != nil {
		return 0, err
	}
	return toU64(z)
}

// NextSqrtPriceFromAmountA moves the price by adding or removing token A,
// rounding the result up.
func NextSqrtPriceFromAmountA(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	if amount == 0 {
		return sqrtPrice, nil
	}

	numerator := new(uint256.Int).Lsh(toU256(liquidity), Resolution)
	product := new(uint256.Int).Mul(toU256(sqrtPrice), uint256.NewInt(amount))

	var denominator *uint256.Int
	if add {
		denominator = new(uint256.Int).Add(numerator, product)
	} else {
		if product.Cmp(numerator) >= 0 {
			return uint128.Zero, ErrUnderflow
		}
		denominator = new(uint256.Int).Sub(numerator, product)
	}

	z, err := mulDiv(numerator, toU256(sqrtPrice), denominator, true)
	if err != nil {
		return uint128.Zero, err
	}
	next, err := toU128(z)
	if err != nil {
		return uint128.Zero, err
	}
	if !IsValidSqrtPrice(next) {
		return uint128.Zero, ErrSqrtPriceOutOfBounds
	}
	return next, nil
}

// NextSqrtPriceFromAmountB moves the price by adding or removing token B,
// rounding the result down.
func NextSqrtPriceFromAmountB(sqrtPrice, liquidity uint128.Uint128, amount uint64, add bool) (uint128.Uint128, error) {
	delta, err := mulDiv(uint256.NewInt(amount), q64, toU256(liquidity), !add)
	if err != nil {
		return uint128.Zero, err
	}

	current := toU256(sqrtPrice)
	var z *uint256.Int
	if add {
		z = new(uint256.Int).Add(current, delta)
	} else {
		if delta.Cmp(current) > 0 {
			return uint128.Zero, ErrUnderflow
		}
		z = new(uint256.Int).Sub(current, delta)
	}

	next, err := toU128(z)
	if err != nil {
		return uint128.Zero, err
	}
	if !IsValidSqrtPrice(next) {
		return uint128.Zero, ErrSqrtPriceOutOfBounds
	}
	return next, nil
}

// NextSqrtPriceFromInput returns the price after amountIn enters the pool.
func NextSqrtPriceFromInput(sqrtPrice, liquidity uint128.Uint128, amountIn uint64, aToB bool) (uint128.Uint128, error) {
	if liquidity.IsZero() {
		return uint128.Zero, ErrDivideByZero
	}
	if aToB {
		return NextSqrtPriceFromAmountA(sqrtPrice, liquidity, amountIn, true)
	}
	return NextSqrtPriceFromAmountB(sqrtPrice, liquidity, amountIn, true)
}

// NextSqrtPriceFromOutput returns the price after amountOut leaves the pool.
func NextSqrtPriceFromOutput(sqrtPrice, liquidity uint128.Uint128, amountOut uint64, aToB bool) (uint128.Uint128, error) {
	if liquidity.IsZero() {
		return uint128.Zero, ErrDivideByZero
	}
	if aToB {
		return NextSqrtPriceFromAmountB(sqrtPrice, liquidity, amountOut, false)
	}
	return NextSqrtPriceFromAmountA(sqrtPrice, liquidity, amountOut, false)
}

func deltaUpFromInput(current, target, liquidity uint128.Uint128, aToB bool) (*uint256.Int, error) {
	if aToB {
		return deltaA256(target, current, liquidity, true)
	}
	return deltaB256(current, target, liquidity, true)
}

func deltaDownFromOutput(current, target, liquidity uint128.Uint128, aToB bool) (*uint256.Int, error) {
	if aToB {
		return deltaB256(target, current, liquidity, false)
	}
	return deltaA256(current, target, liquidity, false)
}
