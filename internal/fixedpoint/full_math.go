package fixedpoint

import (
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// Resolution is the number of fractional bits in a Q64.64 value.
const Resolution = 64

var (
	q64    = new(uint256.Int).Lsh(uint256.NewInt(1), Resolution)
	one256 = uint256.NewInt(1)
)

func toU256(v uint128.Uint128) *uint256.Int {
	return &uint256.Int{v.Lo, v.Hi, 0, 0}
}

func toU128(v *uint256.Int) (uint128.Uint128, error) {
	if v[2] != 0 || v[3] != 0 {
		return uint128.Zero, ErrOverflow
	}
	return uint128.New(v[0], v[1]), nil
}

func toU64(v *uint256.Int) (uint64, error) {
	if !v.IsUint64() {
		return 0, ErrOverflow
	}
	return v.Uint64(), nil
}

// mulDiv computes x*y/d over a 512-bit intermediate product.
func mulDiv(x, y, d *uint256.Int, roundUp bool) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivideByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, ErrOverflow
	}
	if roundUp && !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if _, carry := z.AddOverflow(z, one256); carry {
			return nil, ErrOverflow
		}
	}
	return z, nil
}

// MulDivFloor returns floor(a*b/d).
func MulDivFloor(a, b, d uint128.Uint128) (uint128.Uint128, error) {
	z, err := mulDiv(toU256(a), toU256(b), toU256(d), false)
	if err != nil {
		return uint128.Zero, err
	}
	return toU128(z)
}

// MulDivCeil returns ceil(a*b/d).
func MulDivCeil(a, b, d uint128.Uint128) (uint128.Uint128, error) {
	z, err := mulDiv(toU256(a), toU256(b), toU256(d), true)
	if err != nil {
		return uint128.Zero, err
	}
	return toU128(z)
}

// MulDivCeil64 is MulDivCeil over u64 operands.
func MulDivCeil64(a, b, d uint64) (uint64, error) {
	z, err := mulDiv(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d), true)
	if err != nil {
		return 0, err
	}
	return toU64(z)
}

// MulDivFloor64 is MulDivFloor over u64 operands.
func MulDivFloor64(a, b, d uint64) (uint64, error) {
	z, err := mulDiv(uint256.NewInt(a), uint256.NewInt(b), uint256.NewInt(d), false)
	if err != nil {
		return 0, err
	}
	return toU64(z)
}

// MulShr64 returns floor(a*b / 2^64) as a u64 amount, the owed amount for
// a liquidity weight a and a Q64.64 growth delta b.
func MulShr64(a, b uint128.Uint128) (uint64, error) {
	z := new(uint256.Int).Mul(toU256(a), toU256(b))
	z.Rsh(z, Resolution)
	return toU64(z)
}

// MulShr64U128 is MulShr64 with a u128 result.
func MulShr64U128(a, b uint128.Uint128) (uint128.Uint128, error) {
	z := new(uint256.Int).Mul(toU256(a), toU256(b))
	z.Rsh(z, Resolution)
	return toU128(z)
}

// GrowthAdd adds to a growth accumulator modulo 2^128.
func GrowthAdd(a, b uint128.Uint128) uint128.Uint128 {
	return a.AddWrap(b)
}

// GrowthSub subtracts growth accumulators modulo 2^128.
func GrowthSub(a, b uint128.Uint128) uint128.Uint128 {
	return a.SubWrap(b)
}

// AddU64 adds two amounts, failing on overflow.
func AddU64(a, b uint64) (uint64, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}
