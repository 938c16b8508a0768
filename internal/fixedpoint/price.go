package fixedpoint

import (
	"math/big"

	"github.com/shopspring/decimal"
	"lukechampine.com/uint128"
)

const priceScale = 18

var two128 = new(big.Int).Lsh(big.NewInt(1), 2*Resolution)

// SqrtPriceToPrice converts a Q64.64 sqrt price into a decimal price of
// token B per token A, adjusted for token decimals.
func SqrtPriceToPrice(sqrtPrice uint128.Uint128, decimalsA, decimalsB uint8) decimal.Decimal {
	raw := sqrtPrice.Big()
	raw.Mul(raw, raw)
	price := decimal.NewFromBigInt(raw, 0).DivRound(decimal.NewFromBigInt(two128, 0), priceScale)
	return price.Shift(int32(decimalsA) - int32(decimalsB))
}

// PriceToSqrtPrice is the inverse of SqrtPriceToPrice, truncating toward zero.
func PriceToSqrtPrice(price decimal.Decimal, decimalsA, decimalsB uint8) (uint128.Uint128, error) {
	if price.Sign() <= 0 {
		return uint128.Zero, ErrSqrtPriceOutOfBounds
	}
	raw := price.Shift(int32(decimalsB) - int32(decimalsA))
	scaled := raw.Mul(decimal.NewFromBigInt(two128, 0)).BigInt()
	root := new(big.Int).Sqrt(scaled)
	if root.BitLen() > 2*Resolution {
		return uint128.Zero, ErrOverflow
	}

	sqrtPrice := uint128.FromBig(root)
	if !IsValidSqrtPrice(sqrtPrice) {
		return uint128.Zero, ErrSqrtPriceOutOfBounds
	}
	return sqrtPrice, nil
}
