package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envPrefix            = "NACHOCHAT"
	envConfigDefaultPath = "NACHOCHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
)

// Load builds configuration from defaults, optional config file, and env vars, and returns
// the config file path that was read ("" when none was found).
// Precedence: defaults < config file < env vars < caller overrides.
// PORT is honoured as well as NACHOCHAT_PORT; the prefixed name wins when both are set.
// No file is created when none exists.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("port", envPrefix+"_PORT", "PORT"); err != nil {
		return cfg, "", fmt.Errorf("bind port env: %w", err)
	}

	configPath, err := resolveConfigPath(explicitPath)
	if err != nil {
		return cfg, "", err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
		if logger != nil {
			logger.Debug().Str("path", configPath).Msg("config file loaded")
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, configPath, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, configPath, nil
}

// Render returns cfg as YAML, the same shape Load accepts.
func Render(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("render config: %w", err)
	}
	return data, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("host", cfg.Host)
	v.SetDefault("port", cfg.Port)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_format", cfg.LogFormat)
	v.SetDefault("read_header_timeout", cfg.ReadHeaderTimeout)
	v.SetDefault("shutdown_timeout", cfg.ShutdownTimeout)
	v.SetDefault("write_timeout", cfg.WriteTimeout)
	v.SetDefault("client_buffer", cfg.ClientBuffer)
	v.SetDefault("max_message_bytes", cfg.MaxMessageBytes)
	v.SetDefault("allowed_origins", cfg.AllowedOrigins)
	v.SetDefault("history.limit", cfg.History.Limit)
	v.SetDefault("history.record_reactions", cfg.History.RecordReactions)
	v.SetDefault("reactions.policy", cfg.Reactions.Policy)
	v.SetDefault("rate_limit.per_second", cfg.RateLimit.PerSecond)
	v.SetDefault("rate_limit.burst", cfg.RateLimit.Burst)
}

// resolveConfigPath returns explicitPath if given, which must exist, and
// otherwise the first config.yaml found in the default locations, or "".
func resolveConfigPath(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("config file: %w", err)
		}
		return explicitPath, nil
	}

	var candidates []string
	if base := os.Getenv(envConfigDefaultPath); base != "" {
		candidates = append(candidates, filepath.Join(base, defaultConfigName))
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, defaultConfigName))
	}

	for _, path := range candidates {
		_, err := os.Stat(path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
	}
	return "", nil
}
