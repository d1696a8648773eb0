package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/zephyr-g16/tradewatch/internal/model"
	"github.com/zephyr-g16/tradewatch/internal/persist"
)

// cliConfig holds only dashboard-relevant configuration.
type cliConfig struct {
	APIURL       string        `mapstructure:"api-url"`
	PollInterval time.Duration `mapstructure:"poll-interval"`
	MaxPoints    int           `mapstructure:"max-points"`
	StateFile    string        `mapstructure:"state-file"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	statePath, err := persist.DefaultPath()
	if err != nil {
		return cfg, err
	}

	v := viper.New()
	v.SetEnvPrefix("TRADEWATCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-url", model.DefaultAPIBase)
	v.SetDefault("poll-interval", model.DefaultPollInterval)
	v.SetDefault("max-points", model.MaxSeriesPoints)
	v.SetDefault("state-file", statePath)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "tradewatch", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
