package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"VoyageBot/internal/config"
	"VoyageBot/internal/logging"
	"VoyageBot/internal/scheduler"
)

func main() {
	boot := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		boot.Fatal().Err(err).Msg("load config")
	}

	log, logCloser, err := logging.New(logging.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	}, os.Stdout)
	if err != nil {
		boot.Fatal().Err(err).Msg("init logging")
	}
	defer logCloser.Close()

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	log.Info().Str("base_url", cfg.API.BaseURL).Bool("proxy", cfg.Proxy.Enabled).Msg("VoyageBot starting...")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		var cfgErr *scheduler.ConfigError
		if errors.As(err, &cfgErr) {
			log.Fatal().Int("data", cfgErr.Accounts).Int("proxy", cfgErr.Proxies).Int("dropped", cfgErr.Dropped).Msg(err.Error())
		}
		log.Fatal().Err(err).Msg("startup")
	}
	defer a.close()

	log.Info().Msg("VoyageBot is running. Press Ctrl+C to stop.")
	a.run(ctx)
	log.Info().Msg("VoyageBot stopped")
}
