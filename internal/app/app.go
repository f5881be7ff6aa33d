// Package app wires the token session, the API client and the URL-map
// service into the two admin front ends.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MikhailRaia/url-mapper/internal/client"
	"github.com/MikhailRaia/url-mapper/internal/config"
	"github.com/MikhailRaia/url-mapper/internal/console"
	"github.com/MikhailRaia/url-mapper/internal/service"
	"github.com/MikhailRaia/url-mapper/internal/session"
	"github.com/MikhailRaia/url-mapper/internal/spa"
	"github.com/MikhailRaia/url-mapper/internal/storage"
	"github.com/MikhailRaia/url-mapper/internal/storage/file"
	"github.com/MikhailRaia/url-mapper/internal/storage/memory"
	"github.com/MikhailRaia/url-mapper/internal/web"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type App struct {
	config  *config.Config
	session *session.Session
	service *service.URLMapService
}

func NewApp(cfg *config.Config) (*App, error) {
	var store storage.LocalStorage
	if cfg.TokenStoragePath != "" {
		fileStorage, err := file.NewStorage(cfg.TokenStoragePath)
		if err != nil {
			return nil, fmt.Errorf("open token storage: %w", err)
		}
		store = fileStorage
		log.Info().Str("path", cfg.TokenStoragePath).Msg("Using file token storage")
	} else {
		store = memory.NewStorage()
		log.Info().Msg("Using in-memory token storage")
	}

	sess := session.New(store)
	apiClient := client.New(cfg.APIHost, sess, client.WithTimeout(cfg.RequestTimeout))

	return &App{
		config:  cfg,
		session: sess,
		service: service.NewURLMapService(apiClient),
	}, nil
}

func (a *App) Session() *session.Session {
	return a.session
}

// Handler returns the server-rendered admin pages.
func (a *App) Handler() (http.Handler, error) {
	h, err := web.NewHandler(a.service, a.session)
	if err != nil {
		return nil, err
	}
	return h.RegisterRoutes(), nil
}

// Serve runs the admin web server until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	handler, err := a.Handler()
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:    a.config.ServerAddress,
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", a.config.ServerAddress).
			Str("api_host", a.config.APIHost).
			Msg("Starting admin server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down admin server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// RunConsole drives the routed views from a line-oriented terminal.
func (a *App) RunConsole(ctx context.Context, in io.Reader, out io.Writer) error {
	spaApp := spa.NewApp(a.service, a.session)
	if err := spaApp.Start(ctx, spa.PathIndex); err != nil {
		log.Warn().Err(err).Msg("Failed to load url maps")
		fmt.Fprintf(out, "error: %v\n", err)
	}
	return console.New(spaApp, in, out).Run(ctx)
}
