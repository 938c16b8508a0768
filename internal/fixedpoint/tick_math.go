package fixedpoint

import (
	"fmt"

	"lukechampine.com/uint128"
)

const (
	MinTick int32 = -443636
	MaxTick int32 = 443636

	// FeeRateDenominator is the parts-per-million scale of fee rates.
	FeeRateDenominator uint64 = 1_000_000
)

var (
	MinSqrtPrice = uint128.From64(4295048016)
	MaxSqrtPrice = mustU128("79226673521066979257578248091")

	// Q64 is 1.0 in Q64.64.
	Q64 = uint128.New(0, 1)
)

// sqrtRatioFactors holds 2^64 / sqrt(1.0001)^(2^i) for i = 1..18, applied
// per set bit of |tick|.
var sqrtRatioFactors = [...]uint64{
	18444899583751176192,
	18443055278223355904,
	18439367220385607680,
	18431993317065453568,
	18417254355718170624,
	18387811781193609216,
	18329067761203558400,
	18212142134806163456,
	17980523815641700352,
	17526086738831433728,
	16651378430235570176,
	15030750278694412288,
	12247334978884435968,
	8131365268886854656,
	3584323654725218816,
	696457651848324352,
	26294789957507116,
	37481735321082,
}

const oddTickRatio uint64 = 18445821805675395072

func mustU128(s string) uint128.Uint128 {
	v, err := uint128.FromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

// TickToSqrtPrice returns the Q64.64 sqrt price at tick.
func TickToSqrtPrice(tick int32) (uint128.Uint128, error) {
	if tick < MinTick || tick > MaxTick {
		return uint128.Zero, fmt.Errorf("tick %d: %w", tick, ErrTickOutOfBounds)
	}

	abs := uint32(tick)
	if tick < 0 {
		abs = uint32(-tick)
	}

	ratio := Q64
	if abs&0x1 != 0 {
		ratio = uint128.From64(oddTickRatio)
	}
	for i, factor := range sqrtRatioFactors {
		if abs&(uint32(2)<<uint(i)) != 0 {
			ratio = ratio.Mul64(factor).Rsh(Resolution)
		}
	}

	if tick > 0 {
		ratio = uint128.Max.Div(ratio)
	}
	return ratio, nil
}

// SqrtPriceToTick returns the greatest tick whose sqrt price does not exceed
// sqrtPrice.
func SqrtPriceToTick(sqrtPrice uint128.Uint128) (int32, error) {
	if sqrtPrice.Cmp(MinSqrtPrice) < 0 || sqrtPrice.Cmp(MaxSqrtPrice) > 0 {
		return 0, fmt.Errorf("sqrt price %s: %w", sqrtPrice, ErrSqrtPriceOutOfBounds)
	}

	lo, hi := MinTick, MaxTick
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		price, err := TickToSqrtPrice(mid)
		if err != nil {
			return 0, err
		}
		if price.Cmp(sqrtPrice) <= 0 {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, nil
}

// IsValidSqrtPrice reports whether p lies within the global price bounds.
func IsValidSqrtPrice(p uint128.Uint128) bool {
	return p.Cmp(MinSqrtPrice) >= 0 && p.Cmp(MaxSqrtPrice) <= 0
}
