package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/vovakirdan/nachochat/internal/core"
)

// HistoryConfig controls the bounded chat history.
type HistoryConfig struct {
	Limit           int  `mapstructure:"limit" yaml:"limit"`
	RecordReactions bool `mapstructure:"record_reactions" yaml:"record_reactions"`
}

// ReactionsConfig controls reaction fan-out.
type ReactionsConfig struct {
	// Policy is "forward-always" or "forward-applied".
	Policy string `mapstructure:"policy" yaml:"policy"`
}

// RateLimitConfig throttles inbound frames per connection. PerSecond <= 0 disables it.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second" yaml:"per_second"`
	Burst     int     `mapstructure:"burst" yaml:"burst"`
}

// Config holds server configuration values.
type Config struct {
	Host              string          `mapstructure:"host" yaml:"host"`
	Port              int             `mapstructure:"port" yaml:"port"`
	LogLevel          string          `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string          `mapstructure:"log_format" yaml:"log_format"`
	ReadHeaderTimeout time.Duration   `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration   `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout      time.Duration   `mapstructure:"write_timeout" yaml:"write_timeout"`
	ClientBuffer      int             `mapstructure:"client_buffer" yaml:"client_buffer"`
	MaxMessageBytes   int64           `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	AllowedOrigins    []string        `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	History           HistoryConfig   `mapstructure:"history" yaml:"history"`
	Reactions         ReactionsConfig `mapstructure:"reactions" yaml:"reactions"`
	RateLimit         RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Host:              "0.0.0.0",
		Port:              3000,
		LogLevel:          "info",
		LogFormat:         "console",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		WriteTimeout:      5 * time.Second,
		ClientBuffer:      64,
		MaxMessageBytes:   32 << 10,
		History: HistoryConfig{
			Limit: 200,
		},
		Reactions: ReactionsConfig{
			Policy: "forward-always",
		},
		RateLimit: RateLimitConfig{
			Burst: 10,
		},
	}
}

// Addr returns the host:port the HTTP server listens on.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// UpdateFrom overwrites non-zero values from other config into receiver.
// Only the values the command line can set are considered.
func (c *Config) UpdateFrom(other Config) {
	if other.Host != "" {
		c.Host = other.Host
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.History.Limit < 0 {
		return fmt.Errorf("history.limit must not be negative, got %d", c.History.Limit)
	}
	if c.MaxMessageBytes < 0 {
		return fmt.Errorf("max_message_bytes must not be negative, got %d", c.MaxMessageBytes)
	}
	if _, err := core.ParseReactionPolicy(c.Reactions.Policy); err != nil {
		return fmt.Errorf("reactions.policy: %w", err)
	}
	return nil
}
