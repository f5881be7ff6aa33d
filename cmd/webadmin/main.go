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

	if err := logger.InitLogger(os.Stdout, cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	application, err := app.NewApp(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Serve(ctx); err != nil {
		log.Error().Err(err).Msg("Error running admin server")
		stop()
		os.Exit(1)
	}
}
