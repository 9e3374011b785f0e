package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Server     Server     `mapstructure:"server"`
	Database   Database   `mapstructure:"database"`
	Logger     Logger     `mapstructure:"logger"`
	MarketData MarketData `mapstructure:"market_data"`
	Trading    Trading    `mapstructure:"trading"`
}

// Server holds the configuration for the HTTP API server.
type Server struct {
	Port int `mapstructure:"port"`
}

// Database holds the configuration for the database.
type Database struct {
	DSN string `mapstructure:"dsn"`
}

// MarketData holds the configuration for the market data providers.
type MarketData struct {
	QuoteURL       string  `mapstructure:"quote_url"`
	RateLimit      float64 `mapstructure:"rate_limit"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

// Trading holds the configuration for the trade engine.
type Trading struct {
	CommissionRate  float64 `mapstructure:"commission_rate"`
	InitialBalance  float64 `mapstructure:"initial_balance"`
	HistoryLimit    int     `mapstructure:"history_limit"`
	ConflictRetries int     `mapstructure:"conflict_retries"`
}

// Logger holds the configuration for the logger.
type Logger struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("yml")    // or yaml, json

	// Allow environment variables to override config file
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("server.port", 5002)
	viper.SetDefault("database.dsn", "paper_trading.db")
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "json")
	viper.SetDefault("market_data.rate_limit", 10)      // requests per second
	viper.SetDefault("market_data.rate_limit_burst", 5) // burst size
	viper.SetDefault("trading.commission_rate", 0.0003)
	viper.SetDefault("trading.initial_balance", 1000000.00)
	viper.SetDefault("trading.history_limit", 50)
	viper.SetDefault("trading.conflict_retries", 3)

	err = viper.ReadInConfig()
	if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
