package config

import "github.com/spf13/pflag"

// QuoteConfig holds configuration for the quote command. The pool is rebuilt
// by applying Replay.Input without writing records or checkpoints.
type QuoteConfig struct {
	Replay    Config
	Requests  string
	Out       string
	Workers   int
	CacheSize int
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := newViper(cfgFile, flags, map[string]any{
		"workers":    8,
		"cache-size": 4096,
		"out":        "./data/quotes.jsonl",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Replay:    replayConfig(v),
		Requests:  v.GetString("requests"),
		Out:       v.GetString("out"),
		Workers:   v.GetInt("workers"),
		CacheSize: v.GetInt("cache-size"),
	}, nil
}
