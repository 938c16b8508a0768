package model

// PositionResult is the outcome of opening or closing a position.
type PositionResult struct {
	Position string `json:"position"`
}

// LiquidityResult is the outcome of a liquidity change.
type LiquidityResult struct {
	Position  string `json:"position"`
	Liquidity string `json:"liquidity"`
	AmountA   uint64 `json:"amount_a"`
	AmountB   uint64 `json:"amount_b"`
}

// SwapResult is the outcome of a swap or flash swap.
type SwapResult struct {
	AToB              bool   `json:"a_to_b"`
	AmountIn          uint64 `json:"amount_in"`
	AmountOut         uint64 `json:"amount_out"`
	FeeAmount         uint64 `json:"fee_amount"`
	RefFeeAmount      uint64 `json:"ref_fee_amount"`
	ProtocolFeeAmount uint64 `json:"protocol_fee_amount"`
	AfterSqrtPrice    string `json:"after_sqrt_price"`
	AfterTick         int32  `json:"after_tick"`
	AfterLiquidity    string `json:"after_liquidity"`
	Status            string `json:"status"`
	IsExceed          bool   `json:"is_exceed"`
	Steps             int    `json:"steps"`
}

// CollectResult is the outcome of a fee collection.
type CollectResult struct {
	Position string `json:"position,omitempty"`
	AmountA  uint64 `json:"amount_a"`
	AmountB  uint64 `json:"amount_b"`
}

// RewardResult is the outcome of a reward collection.
type RewardResult struct {
	Position string `json:"position"`
	RewardID string `json:"reward_id"`
	Amount   uint64 `json:"amount"`
}

// QuoteRecord is one line of quote output.
type QuoteRecord struct {
	Index   int         `json:"index"`
	Request SwapParams  `json:"request"`
	Result  *SwapResult `json:"result,omitempty"`
	Cached  bool        `json:"cached,omitempty"`
	Error   string      `json:"error,omitempty"`
}
