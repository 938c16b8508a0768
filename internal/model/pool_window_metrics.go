package model

import "time"

// PoolWindowMetrics stores aggregated metrics for a pool window.
type PoolWindowMetrics struct {
	PoolID         string
	WindowSizeSecs int64
	WindowStart    time.Time
	WindowEnd      time.Time
	SwapCount      uint64
	VolumeA        string
	VolumeB        string
	FeeA           string
	FeeB           string
	ProtocolFeeA   string
	ProtocolFeeB   string
	FeeRateA       *string
	FeeRateB       *string
	TVLA           *string
	TVLB           *string
	APR            *string
	ClosePrice     string
	FeeMethod      string
	TVLMethod      string
}
