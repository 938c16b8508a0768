package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"clmmEngine/internal/fixedpoint"
	"clmmEngine/internal/pool"
	"clmmEngine/internal/replay"
)

// PoolConfig is the pool a replay or quote run builds.
type PoolConfig struct {
	ID               string
	CoinA            string
	CoinB            string
	DecimalsA        uint8
	DecimalsB        uint8
	TickSpacing      int32
	FeeRate          uint64
	ProtocolFeeRate  uint64
	InitialPrice     string
	InitialSqrtPrice string
}

// Config holds replay settings loaded from flags, env, or config file.
type Config struct {
	Pool              PoolConfig
	Input             string
	Out               string
	Checkpoint        string
	CheckpointEnabled bool
	BatchSize         uint64
	MaxRetries        int
	RetryBackoff      time.Duration
	StartTime         string
	Funding           []string
	PGDSN             string
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"batch-size":         uint64(500),
		"out":                "./data/records.jsonl",
		"checkpoint":         "./data/checkpoint.json",
		"checkpoint-enabled": true,
		"max-retries":        5,
		"retry-backoff":      500 * time.Millisecond,
	})
	if err != nil {
		return Config{}, err
	}
	return replayConfig(v), nil
}

func replayConfig(v *viper.Viper) Config {
	return Config{
		Pool:              poolConfig(v),
		Input:             v.GetString("in"),
		Out:               v.GetString("out"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		BatchSize:         v.GetUint64("batch-size"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		StartTime:         v.GetString("start-time"),
		Funding:           getStringSlice(v, "fund"),
		PGDSN:             v.GetString("pg-dsn"),
		LogLevel:          v.GetString("log-level"),
	}
}

func poolConfig(v *viper.Viper) PoolConfig {
	return PoolConfig{
		ID:               v.GetString("pool-id"),
		CoinA:            v.GetString("coin-a"),
		CoinB:            v.GetString("coin-b"),
		DecimalsA:        uint8(v.GetUint("decimals-a")),
		DecimalsB:        uint8(v.GetUint("decimals-b")),
		TickSpacing:      v.GetInt32("tick-spacing"),
		FeeRate:          v.GetUint64("fee-rate"),
		ProtocolFeeRate:  v.GetUint64("protocol-fee-rate"),
		InitialPrice:     v.GetString("initial-price"),
		InitialSqrtPrice: v.GetString("initial-sqrt-price"),
	}
}

// Build converts the settings into a pool.Config. An explicit sqrt price
// wins over a decimal price.
func (c PoolConfig) Build() (pool.Config, error) {
	cfg := pool.Config{
		ID:              c.ID,
		CoinA:           c.CoinA,
		CoinB:           c.CoinB,
		DecimalsA:       c.DecimalsA,
		DecimalsB:       c.DecimalsB,
		TickSpacing:     c.TickSpacing,
		FeeRate:         c.FeeRate,
		ProtocolFeeRate: c.ProtocolFeeRate,
	}
	switch {
	case strings.TrimSpace(c.InitialSqrtPrice) != "":
		sqrtPrice, err := replay.ParseU128(c.InitialSqrtPrice)
		if err != nil {
			return pool.Config{}, err
		}
		cfg.InitialSqrtPrice = sqrtPrice
	case strings.TrimSpace(c.InitialPrice) != "":
		price, err := decimal.NewFromString(strings.TrimSpace(c.InitialPrice))
		if err != nil {
			return pool.Config{}, fmt.Errorf("invalid initial price %q: %w", c.InitialPrice, err)
		}
		sqrtPrice, err := fixedpoint.PriceToSqrtPrice(price, c.DecimalsA, c.DecimalsB)
		if err != nil {
			return pool.Config{}, err
		}
		cfg.InitialSqrtPrice = sqrtPrice
	default:
		cfg.InitialSqrtPrice = fixedpoint.Q64
	}
	return cfg, nil
}

// RunConfig converts the settings into a replay.RunConfig.
func (c Config) RunConfig() (replay.RunConfig, error) {
	funding, err := replay.ParseFunding(c.Funding)
	if err != nil {
		return replay.RunConfig{}, err
	}
	start, err := ParseTimestamp(c.StartTime)
	if err != nil {
		return replay.RunConfig{}, fmt.Errorf("invalid start time: %w", err)
	}
	return replay.RunConfig{
		InputPath:         c.Input,
		BatchSize:         c.BatchSize,
		CheckpointPath:    c.Checkpoint,
		CheckpointEnabled: c.CheckpointEnabled,
		MaxRetries:        c.MaxRetries,
		RetryBackoff:      c.RetryBackoff,
		StartTime:         start,
		Funding:           funding,
	}, nil
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("CLMM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log-level", "info")
	v.SetDefault("tick-spacing", 60)
	v.SetDefault("fee-rate", 2500)
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	return cleanStrings(strings.Split(input, ","))
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
