package model

import "encoding/json"

// OperationRecord is the JSON line written for every replayed operation.
// Exactly one of Result and Error is set.
type OperationRecord struct {
	PoolID    string          `json:"pool_id"`
	Seq       uint64          `json:"seq"`
	Timestamp uint64          `json:"timestamp"`
	Op        string          `json:"op"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	State     PoolState       `json:"state"`
	Reserves  Reserves        `json:"reserves"`
	AppliedAt string          `json:"applied_at"`
}

// PoolState is the pool scalar state after an operation.
type PoolState struct {
	SqrtPrice        string `json:"sqrt_price"`
	Price            string `json:"price"`
	Tick             int32  `json:"tick"`
	Liquidity        string `json:"liquidity"`
	FeeRate          uint64 `json:"fee_rate"`
	ProtocolFeeRate  uint64 `json:"protocol_fee_rate"`
	FeeGrowthGlobalA string `json:"fee_growth_global_a"`
	FeeGrowthGlobalB string `json:"fee_growth_global_b"`
	ProtocolFeeOwedA uint64 `json:"protocol_fee_owed_a"`
	ProtocolFeeOwedB uint64 `json:"protocol_fee_owed_b"`
	Paused           bool   `json:"paused"`
	Version          uint64 `json:"version"`
}

// Reserves are the coins held in custody for a pool.
type Reserves struct {
	CoinA   string `json:"coin_a"`
	CoinB   string `json:"coin_b"`
	AmountA uint64 `json:"amount_a"`
	AmountB uint64 `json:"amount_b"`
}
