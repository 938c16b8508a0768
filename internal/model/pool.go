package model

// Pool is a pool snapshot row for storage.
type Pool struct {
	ID             string     `json:"id"`
	CoinA          string     `json:"coin_a"`
	CoinB          string     `json:"coin_b"`
	DecimalsA      uint8      `json:"decimals_a"`
	DecimalsB      uint8      `json:"decimals_b"`
	TickSpacing    int32      `json:"tick_spacing"`
	State          PoolState  `json:"state"`
	Rewarders      []Rewarder `json:"rewarders"`
	PositionCount  int        `json:"position_count"`
	LastAppliedSeq uint64     `json:"last_applied_seq"`
}

// Rewarder is a reward stream row.
type Rewarder struct {
	RewardID           string `json:"reward_id"`
	EmissionsPerSecond string `json:"emissions_per_second"`
	GrowthGlobal       string `json:"growth_global"`
}

// Tick is an initialized tick row.
type Tick struct {
	PoolID            string `json:"pool_id"`
	Index             int32  `json:"index"`
	LiquidityGross    string `json:"liquidity_gross"`
	LiquidityNet      string `json:"liquidity_net"`
	FeeGrowthOutsideA string `json:"fee_growth_outside_a"`
	FeeGrowthOutsideB string `json:"fee_growth_outside_b"`
}

// Position is a position row.
type Position struct {
	PoolID    string   `json:"pool_id"`
	ID        string   `json:"id"`
	TickLower int32    `json:"tick_lower"`
	TickUpper int32    `json:"tick_upper"`
	Liquidity string   `json:"liquidity"`
	FeeOwedA  uint64   `json:"fee_owed_a"`
	FeeOwedB  uint64   `json:"fee_owed_b"`
	Rewards   []uint64 `json:"rewards_owed"`
	Points    string   `json:"points_owed"`
}
