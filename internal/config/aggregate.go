package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// AggregateConfig holds configuration for aggregation.
type AggregateConfig struct {
	Input         string
	Window        time.Duration
	PGDSN         string
	BatchSize     int
	StateFile     string
	RecomputeFrom uint64
	PoolID        string
	DecimalsA     uint8
	DecimalsB     uint8
	LogLevel      string
}

// LoadAggregate merges config file, environment variables, and flags into
// AggregateConfig and checks that an aggregation can run with it.
func LoadAggregate(cfgFile string, flags *pflag.FlagSet) (AggregateConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"in":         "./data/records.jsonl",
		"batch-size": 1000,
		"window":     5 * time.Minute,
	})
	if err != nil {
		return AggregateConfig{}, err
	}

	recomputeFrom, err := ParseTimestamp(v.GetString("recompute-from"))
	if err != nil {
		return AggregateConfig{}, fmt.Errorf("parse recompute-from: %w", err)
	}
	cfg := AggregateConfig{
		Input:         v.GetString("in"),
		Window:        v.GetDuration("window"),
		PGDSN:         v.GetString("pg-dsn"),
		BatchSize:     v.GetInt("batch-size"),
		StateFile:     v.GetString("state-file"),
		RecomputeFrom: recomputeFrom,
		PoolID:        v.GetString("pool-id"),
		DecimalsA:     uint8(v.GetUint("decimals-a")),
		DecimalsB:     uint8(v.GetUint("decimals-b")),
		LogLevel:      v.GetString("log-level"),
	}
	switch {
	case cfg.Input == "":
		return AggregateConfig{}, fmt.Errorf("input path is required")
	case cfg.PGDSN == "":
		return AggregateConfig{}, fmt.Errorf("pg dsn is required")
	case cfg.Window < time.Second:
		return AggregateConfig{}, fmt.Errorf("window %s: must be at least 1s", cfg.Window)
	}
	return cfg, nil
}

func (c AggregateConfig) WindowSeconds() uint64 {
	return uint64(c.Window / time.Second)
}

// StateName keys aggregation progress in the replay_state table, so runs
// over different pools or windows do not share a cursor.
func (c AggregateConfig) StateName() string {
	if c.PoolID == "" {
		return fmt.Sprintf("aggregate:%d", c.WindowSeconds())
	}
	return fmt.Sprintf("aggregate:%s:%d", c.PoolID, c.WindowSeconds())
}

// ParseTimestamp parses a timestamp value (unix seconds or RFC3339).
func ParseTimestamp(input string) (uint64, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, nil
	}

	if isNumeric(input) {
		return strconv.ParseUint(input, 10, 64)
	}

	tm, err := time.Parse(time.RFC3339, input)
	if err != nil {
		return 0, err
	}
	return uint64(tm.Unix()), nil
}

func isNumeric(input string) bool {
	for _, r := range input {
		if r < '0' || r > '9' {
			return false
		}
	}
	return input != ""
}
