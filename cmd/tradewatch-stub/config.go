package main

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zephyr-g16/tradewatch/internal/model"
)

// stubConfig configures the development trading server. Values come
// from an optional YAML file, with environment variables (loaded from
// .env when present) taking precedence.
type stubConfig struct {
	Addr     string   `yaml:"addr"`
	Symbols  []string `yaml:"symbols"`
	RedisURL string   `yaml:"redis_url"`
	Feed     struct {
		Source string  `yaml:"source"` // "random" or "kraken"
		Seed   int64   `yaml:"seed"`
		Start  float64 `yaml:"start_price"`
	} `yaml:"feed"`
	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

func defaultStubConfig() stubConfig {
	var cfg stubConfig
	cfg.Addr = model.DefaultStubAddr
	cfg.Symbols = []string{"XBT/USD", "ETH/USD", "SOL/USD"}
	cfg.Feed.Source = "random"
	cfg.Feed.Start = 2500
	cfg.Logging.Level = "info"
	return cfg
}

func loadStubConfig(path string) (stubConfig, error) {
	cfg := defaultStubConfig()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	}

	if v := os.Getenv("TRADEWATCH_STUB_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TRADEWATCH_STUB_SYMBOLS"); v != "" {
		cfg.Symbols = splitSymbols(v)
	}
	if v := os.Getenv("TRADEWATCH_REDIS_URL"); v != "" {
		cfg.RedisURL = v
	}
	if v := os.Getenv("TRADEWATCH_FEED"); v != "" {
		cfg.Feed.Source = v
	}
	if v := os.Getenv("TRADEWATCH_FEED_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Feed.Seed = seed
		}
	}
	if v := os.Getenv("TRADEWATCH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg, nil
}

func splitSymbols(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
