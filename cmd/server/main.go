package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/nachochat/internal/app"
	"github.com/vovakirdan/nachochat/internal/config"
	applog "github.com/vovakirdan/nachochat/internal/log"
)

type rootFlags struct {
	configFile string
	port       int
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "server [host]",
		Short: "NachoChat broadcast server",
		Long: `NachoChat serves a single chat room over WebSocket. New connections
receive the recent history; messages and reactions are relayed to every
other participant.

The listen port comes from PORT (default 3000); the bind host is the
optional positional argument (default 0.0.0.0).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file path")
	cmd.PersistentFlags().IntVar(&flags.port, "port", 0, "listen port (overrides PORT)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "log format: console or json")

	cmd.AddCommand(newConfigCmd(flags))
	return cmd
}

func newConfigCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "config [host]",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, args)
			if err != nil {
				return err
			}
			data, err := config.Render(cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func loadConfig(flags *rootFlags, args []string) (config.Config, error) {
	cfg, _, err := config.Load(nil, flags.configFile)
	if err != nil {
		return cfg, err
	}

	overrides := config.Config{
		Port:      flags.port,
		LogLevel:  flags.logLevel,
		LogFormat: flags.logFormat,
	}
	if len(args) > 0 {
		overrides.Host = args[0]
	}
	cfg.UpdateFrom(overrides)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServer(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := applog.New(cfg.LogLevel, cfg.LogFormat)

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize application")
		return err
	}

	logger.Info().Msgf("starting nachochat server on http://%s", cfg.Addr())
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
