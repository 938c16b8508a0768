package replay

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"lukechampine.com/uint128"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/position"
)

// ParsePosition resolves a position reference. "#n" names the n-th position
// opened in this replay; anything else must be a 32-byte hex id.
func ParsePosition(ref string, opened []position.ID) (position.ID, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "#") {
		n, err := strconv.Atoi(ref[1:])
		if err != nil || n < 1 {
			return position.ID{}, fmt.Errorf("invalid position ref: %s", ref)
		}
		if n > len(opened) {
			return position.ID{}, fmt.Errorf("position ref %s: only %d opened", ref, len(opened))
		}
		return opened[n-1], nil
	}
	data, err := hexutil.Decode(ref)
	if err != nil {
		return position.ID{}, fmt.Errorf("invalid position id: %s", ref)
	}
	if len(data) != common.HashLength {
		return position.ID{}, fmt.Errorf("invalid position id length: %s", ref)
	}
	return common.BytesToHash(data), nil
}

// ParseU128 parses a base-10 unsigned 128-bit value.
func ParseU128(input string) (uint128.Uint128, error) {
	v, err := uint128.FromString(strings.TrimSpace(input))
	if err != nil {
		return uint128.Zero, fmt.Errorf("invalid u128 %q: %w", input, err)
	}
	return v, nil
}

// ParseSqrtPriceLimit parses a limit, defaulting to the bound in the swap
// direction when input is empty.
func ParseSqrtPriceLimit(input string, aToB bool) (uint128.Uint128, error) {
	if strings.TrimSpace(input) == "" {
		if aToB {
			return fixedpoint.MinSqrtPrice, nil
		}
		return fixedpoint.MaxSqrtPrice, nil
	}
	return ParseU128(input)
}

// ParseFunding converts "COIN=amount" entries into wallet balances.
func ParseFunding(inputs []string) (map[string]uint64, error) {
	out := make(map[string]uint64, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		coin, amount, ok := strings.Cut(input, "=")
		if !ok || strings.TrimSpace(coin) == "" {
			return nil, fmt.Errorf("invalid funding entry: %s", input)
		}
		v, err := strconv.ParseUint(strings.TrimSpace(amount), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid funding amount: %s", input)
		}
		out[strings.TrimSpace(coin)] += v
	}
	return out, nil
}
