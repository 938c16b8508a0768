package fixedpoint

import "errors"

var (
	// ErrOverflow reports a result outside the representable range.
	ErrOverflow = errors.New("fixed point overflow")
	// ErrUnderflow reports a subtraction below zero on an unsigned quantity.
	ErrUnderflow = errors.New("fixed point underflow")

	ErrDivideByZero         = errors.New("divide by zero")
	ErrTickOutOfBounds      = errors.New("tick out of bounds")
	ErrSqrtPriceOutOfBounds = errors.New("sqrt price out of bounds")
	ErrInvalidFeeRate       = errors.New("invalid fee rate")
	ErrInvalidDirection     = errors.New("target price on wrong side of current price")
	ErrFixedTokenOutOfRange = errors.New("fixed token cannot be deposited at current price")
)
