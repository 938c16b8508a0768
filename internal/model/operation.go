package model

import "encoding/json"

// Operation names accepted in a replay log.
const (
	OpOpenPosition           = "open_position"
	OpClosePosition          = "close_position"
	OpAddLiquidity           = "add_liquidity"
	OpAddLiquidityFixedToken = "add_liquidity_fixed_token"
	OpRemoveLiquidity        = "remove_liquidity"
	OpSwap                   = "swap"
	OpFlashSwap              = "flash_swap"
	OpCollectFee             = "collect_fee"
	OpCollectReward          = "collect_reward"
	OpCollectProtocolFee     = "collect_protocol_fee"
	OpSetFeeRate             = "set_fee_rate"
	OpSetProtocolFeeRate     = "set_protocol_fee_rate"
	OpPause                  = "pause"
	OpUnpause                = "unpause"
	OpAddRewarder            = "add_rewarder"
	OpSetEmission            = "set_emission"
	OpDeposit                = "deposit"
)

// Operation is one line of a replay log. Params holds the op-specific payload.
type Operation struct {
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Op        string          `json:"op"`
	Params    json.RawMessage `json:"params,omitempty"`
}

// OpenPositionParams opens a position over [tick_lower, tick_upper).
type OpenPositionParams struct {
	TickLower int32 `json:"tick_lower"`
	TickUpper int32 `json:"tick_upper"`
}

// PositionParams names a position. Positions opened earlier in the same log
// may be referenced as "#n", the n-th position opened (1-based).
type PositionParams struct {
	Position string `json:"position"`
}

// LiquidityParams adds or removes a liquidity amount.
type LiquidityParams struct {
	Position  string `json:"position"`
	Liquidity string `json:"liquidity"`
}

// FixedTokenParams deposits a fixed amount of one coin.
type FixedTokenParams struct {
	Position string `json:"position"`
	Amount   uint64 `json:"amount"`
	FixedA   bool   `json:"fixed_a"`
}

// SwapParams is a swap request. An empty sqrt_price_limit means the bound in
// the swap direction.
type SwapParams struct {
	AToB           bool   `json:"a_to_b"`
	ByAmountIn     bool   `json:"by_amount_in"`
	Amount         uint64 `json:"amount"`
	SqrtPriceLimit string `json:"sqrt_price_limit,omitempty"`
	RefFeeRate     uint64 `json:"ref_fee_rate,omitempty"`
}

// FeeRateParams sets a fee rate.
type FeeRateParams struct {
	Rate uint64 `json:"rate"`
}

// RewarderParams names a reward stream.
type RewarderParams struct {
	RewardID string `json:"reward_id"`
}

// EmissionParams sets a stream's per-second emission in Q64.64.
type EmissionParams struct {
	RewardID           string `json:"reward_id"`
	EmissionsPerSecond string `json:"emissions_per_second"`
}

// CollectRewardParams collects one stream for a position.
type CollectRewardParams struct {
	Position string `json:"position"`
	RewardID string `json:"reward_id"`
}

// DepositParams moves coins from the caller wallet into the pool vault, for
// example to fund a reward stream.
type DepositParams struct {
	Coin   string `json:"coin"`
	Amount uint64 `json:"amount"`
}
