package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/MikhailRaia/url-mapper/internal/app"
	"github.com/MikhailRaia/url-mapper/internal/config"
	"github.com/MikhailRaia/url-mapper/internal/logger"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	// Screens go to stdout, logs stay on stderr.
	if err := logger.InitLogger(os.Stderr, cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.RunConsole(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("Console stopped")
		stop()
		os.Exit(1)
	}
}
