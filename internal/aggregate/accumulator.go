package aggregate

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"clmmEngine/internal/model"
)

// Accumulator holds aggregate values for a pool window.
type Accumulator struct {
	PoolID       string
	WindowStart  uint64
	WindowEnd    uint64
	SwapCount    uint64
	VolumeA      decimal.Decimal
	VolumeB      decimal.Decimal
	FeeA         decimal.Decimal
	FeeB         decimal.Decimal
	ProtocolFeeA decimal.Decimal
	ProtocolFeeB decimal.Decimal
	Reserves     model.Reserves
	ClosePrice   string
	LastTS       uint64
	LastSeq      uint64
}

func NewAccumulator(record model.OperationRecord, windowStart, windowEnd uint64) *Accumulator {
	return &Accumulator{
		PoolID:      record.PoolID,
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
		Reserves:    record.Reserves,
		ClosePrice:  record.State.Price,
		LastTS:      record.Timestamp,
		LastSeq:     record.Seq,
	}
}

// AddRecord folds one operation record into the window. Every record moves
// the closing reserves and price; only successful swaps add volume.
func (a *Accumulator) AddRecord(record model.OperationRecord) error {
	if record.Seq >= a.LastSeq {
		a.LastSeq = record.Seq
		a.LastTS = record.Timestamp
		a.Reserves = record.Reserves
		a.ClosePrice = record.State.Price
	}
	if record.Error != "" {
		return nil
	}

	switch record.Op {
	case model.OpSwap, model.OpFlashSwap:
		var swap model.SwapResult
		if err := json.Unmarshal(record.Result, &swap); err != nil {
			return fmt.Errorf("decode swap: %w", err)
		}
		a.applySwap(swap)
	}
	return nil
}

func (a *Accumulator) applySwap(swap model.SwapResult) {
	paid := dec(swap.AmountIn).Add(dec(swap.FeeAmount))
	received := dec(swap.AmountOut)
	fee := dec(swap.FeeAmount)
	protocol := dec(swap.ProtocolFeeAmount)

	if swap.AToB {
		a.VolumeA = a.VolumeA.Add(paid)
		a.VolumeB = a.VolumeB.Add(received)
		a.FeeA = a.FeeA.Add(fee)
		a.ProtocolFeeA = a.ProtocolFeeA.Add(protocol)
	} else {
		a.VolumeB = a.VolumeB.Add(paid)
		a.VolumeA = a.VolumeA.Add(received)
		a.FeeB = a.FeeB.Add(fee)
		a.ProtocolFeeB = a.ProtocolFeeB.Add(protocol)
	}
	a.SwapCount++
}

func dec(v uint64) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0)
}
