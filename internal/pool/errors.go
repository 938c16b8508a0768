package pool

import (
	"errors"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
	"clmmEngine/internal/rewarder"
	"clmmEngine/internal/tick"
)

var (
	ErrInvalidRange          = errors.New("invalid tick range")
	ErrInvalidPriceLimit     = errors.New("invalid sqrt price limit")
	ErrPoolPaused            = errors.New("pool paused")
	ErrReceiptMismatch       = errors.New("receipt does not belong to this pool")
	ErrReceiptAlreadySettled = errors.New("receipt already settled")
	ErrReceiptNotSettled     = errors.New("receipt left unsettled")
	ErrPaymentMismatch       = errors.New("payment does not match amount due")
	ErrOutOfLiquidity        = errors.New("swap step limit exceeded")
	ErrZeroAmount            = errors.New("zero amount")
	ErrInvalidFeeRate        = errors.New("invalid fee rate")
	ErrInvalidConfig         = errors.New("invalid pool config")

	ErrInsufficientLiquidity = position.ErrInsufficientLiquidity
	ErrPositionNotEmpty      = position.ErrPositionNotEmpty
	ErrPositionNotFound      = position.ErrPositionNotFound
	ErrLiquidityOverflow     = tick.ErrLiquidityOverflow
	ErrOverflow              = fixedpoint.ErrOverflow
	ErrDuplicateRewarder     = rewarder.ErrDuplicateRewarder
	ErrRewarderNotFound      = rewarder.ErrRewarderNotFound
	ErrRewarderLimit         = rewarder.ErrRewarderLimit
	ErrInvalidTimestamp      = rewarder.ErrInvalidTimestamp
)
