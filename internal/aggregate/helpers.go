package aggregate

import (
	"time"

	"github.com/shopspring/decimal"
)

const ratioScale = 18

var yearSeconds = decimal.NewFromInt(int64(365 * 24 * time.Hour / time.Second))

func formatTokenAmount(value decimal.Decimal, decimals uint8) string {
	return value.Shift(-int32(decimals)).StringFixed(int32(decimals))
}

func computeFeeRates(feeA, feeB, tvlA, tvlB decimal.Decimal) (*string, *string) {
	var feeRateA *string
	var feeRateB *string

	if rate := computeRate(feeA, tvlA); rate != "" {
		feeRateA = &rate
	}
	if rate := computeRate(feeB, tvlB); rate != "" {
		feeRateB = &rate
	}
	return feeRateA, feeRateB
}

func computeRate(fee, tvl decimal.Decimal) string {
	if fee.IsZero() || tvl.IsZero() {
		return ""
	}
	return fee.DivRound(tvl, ratioScale).StringFixed(ratioScale)
}

// computeAPR annualizes the window fee rate. With fees in both coins there
// is no common unit without a price, so the rate is only reported when one
// side earned fees.
func computeAPR(feeRateA, feeRateB *string, windowSeconds uint64) *string {
	if windowSeconds == 0 {
		return nil
	}
	var selected string
	if feeRateA != nil && feeRateB == nil {
		selected = *feeRateA
	} else if feeRateB != nil && feeRateA == nil {
		selected = *feeRateB
	} else {
		return nil
	}

	rate, err := decimal.NewFromString(selected)
	if err != nil {
		return nil
	}
	apr := rate.Mul(yearSeconds).DivRound(decimal.NewFromInt(int64(windowSeconds)), ratioScale)
	val := apr.StringFixed(ratioScale)
	return &val
}
