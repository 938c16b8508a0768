package fixedpoint

import (
	"fmt"

	"lukechampine.com/uint128"
)

// maxI128Magnitude is 2^127, the magnitude of the most negative int128.
var maxI128Magnitude = uint128.New(0, 1<<63)

// I128 is a signed 128-bit integer kept as sign and magnitude.
type I128 struct {
	abs uint128.Uint128
	neg bool
}

// NewI128 builds a value from its magnitude and sign. Zero is never negative.
func NewI128(abs uint128.Uint128, neg bool) I128 {
	if abs.IsZero() {
		neg = false
	}
	return I128{abs: abs, neg: neg}
}

// I128FromU128 returns +v.
func I128FromU128(v uint128.Uint128) I128 {
	return I128{abs: v}
}

// I128FromInt64 converts a native signed integer.
func I128FromInt64(v int64) I128 {
	if v < 0 {
		return NewI128(uint128.From64(uint64(-(v+1))+1), true)
	}
	return NewI128(uint128.From64(uint64(v)), false)
}

func (x I128) Abs() uint128.Uint128 { return x.abs }
func (x I128) IsNeg() bool          { return x.neg }
func (x I128) IsZero() bool         { return x.abs.IsZero() }

// Neg returns -x.
func (x I128) Neg() I128 {
	return NewI128(x.abs, !x.neg)
}

// Add returns x+y, failing when the result leaves the int128 range.
func (x I128) Add(y I128) (I128, error) {
	var out I128
	if x.neg == y.neg {
		sum, carry := addCarry(x.abs, y.abs)
		if carry {
			return I128{}, ErrOverflow
		}
		out = NewI128(sum, x.neg)
	} else if x.abs.Cmp(y.abs) >= 0 {
		out = NewI128(x.abs.Sub(y.abs), x.neg)
	} else {
		out = NewI128(y.abs.Sub(x.abs), y.neg)
	}

	if out.neg && out.abs.Cmp(maxI128Magnitude) > 0 {
		return I128{}, ErrOverflow
	}
	if !out.neg && out.abs.Cmp(maxI128Magnitude) >= 0 {
		return I128{}, ErrOverflow
	}
	return out, nil
}

// Sub returns x-y.
func (x I128) Sub(y I128) (I128, error) {
	return x.Add(y.Neg())
}

func (x I128) String() string {
	if x.neg {
		return "-" + x.abs.String()
	}
	return x.abs.String()
}

// ParseI128 parses a base 10 signed integer.
func ParseI128(s string) (I128, error) {
	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	abs, err := uint128.FromString(s)
	if err != nil {
		return I128{}, fmt.Errorf("parse int128: %w", err)
	}
	if abs.Cmp(maxI128Magnitude) > 0 || (!neg && abs.Cmp(maxI128Magnitude) == 0) {
		return I128{}, ErrOverflow
	}
	return NewI128(abs, neg), nil
}

// AddDelta applies a signed liquidity delta to an unsigned liquidity value.
func AddDelta(liquidity uint128.Uint128, delta I128) (uint128.Uint128, error) {
	if delta.neg {
		if liquidity.Cmp(delta.abs) < 0 {
			return uint128.Zero, ErrUnderflow
		}
		return liquidity.Sub(delta.abs), nil
	}
	sum, carry := addCarry(liquidity, delta.abs)
	if carry {
		return uint128.Zero, ErrOverflow
	}
	return sum, nil
}

func addCarry(a, b uint128.Uint128) (uint128.Uint128, bool) {
	sum := a.AddWrap(b)
	return sum, sum.Cmp(a) < 0
}
