package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/carechat-server/internal/app"
	"github.com/vovakirdan/carechat-server/internal/config"
	"github.com/vovakirdan/carechat-server/internal/log"
)

type flags struct {
	configPath string
	addr       string
	logLevel   string
	logFormat  string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:          "carechat-server",
		Short:        "Real-time support chat relay between website visitors and agents",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), f)
		},
	}
	root.PersistentFlags().StringVar(&f.configPath, "config", "", "path to config file (created with defaults if missing)")
	root.PersistentFlags().StringVar(&f.addr, "addr", "", "HTTP listen address, overrides config")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "", "log format: console or json")

	root.AddCommand(&cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(f)
			if err != nil {
				return err
			}
			data, err := config.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	})

	return root
}

func loadConfig(f *flags) (config.Config, string, error) {
	bootstrap := log.NewWithWriter(os.Stderr, "info", "console")
	cfg, path, err := config.Load(bootstrap, f.configPath)
	if err != nil {
		return cfg, path, err
	}
	cfg.UpdateFrom(config.Config{
		Addr:      f.addr,
		LogLevel:  f.logLevel,
		LogFormat: f.logFormat,
	})
	return cfg, path, nil
}

func serve(parent context.Context, f *flags) error {
	cfg, path, err := loadConfig(f)
	if err != nil {
		return err
	}
	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().Str("config", path).Msg("config loaded")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := app.New(&cfg, logger)

	logger.Info().Str("addr", cfg.Addr).Msg("starting carechat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
