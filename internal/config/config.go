package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	BadgerPath      string        `mapstructure:"badger_path"`
	Secret          string        `mapstructure:"secret"`
	TokenTTL        time.Duration `mapstructure:"token_ttl"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	HistoryPageSize int           `mapstructure:"history_page_size"`
	MsgRateLimit    int           `mapstructure:"msg_rate_limit"`
	MsgRateInterval time.Duration `mapstructure:"msg_rate_interval"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("badger_path", "./data")
	v.SetDefault("secret", "dev-only-secret-change-me")
	v.SetDefault("token_ttl", "24h")
	v.SetDefault("ping_period", "54s")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("send_buffer", 256)
	v.SetDefault("history_page_size", 50)
	v.SetDefault("msg_rate_limit", 20)
	v.SetDefault("msg_rate_interval", "10s")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
