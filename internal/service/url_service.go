package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/rs/zerolog/log"
)

var (
	ErrDeleteDeclined = errors.New("delete was not confirmed")
	ErrDeleteFailed   = errors.New("delete was rejected by the API")
	ErrKeyChanged     = errors.New("the key of an existing url map cannot be changed")
)

// URLMapAPI is the remote contract shared by both presentation layers.
type URLMapAPI interface {
	List(ctx context.Context) ([]model.URLMap, error)
	Get(ctx context.Context, key string) (model.URLMap, error)
	Create(ctx context.Context, urlMap model.URLMap) (model.URLMap, error)
	Update(ctx context.Context, urlMap model.URLMap) (model.URLMap, error)
	Delete(ctx context.Context, key string) (bool, error)
	RedirectURL(key string) string
}

// Confirmer asks the operator to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// DeletePrompt is shown before a mapping is deleted.
const DeletePrompt = "Are you sure?"

// URLMapService applies the delete and rename policies on top of the API.
type URLMapService struct {
	api URLMapAPI
}

// NewURLMapService constructs a URLMapService over api.
func NewURLMapService(api URLMapAPI) *URLMapService {
	return &URLMapService{api: api}
}

// List returns every mapping. The result is never cached.
func (s *URLMapService) List(ctx context.Context) ([]model.URLMap, error) {
	start := time.Now()
	urlMaps, err := s.api.List(ctx)
	logOutcome("list", "", start, err)
	if err != nil {
		return nil, fmt.Errorf("list url maps: %w", err)
	}
	return urlMaps, nil
}

// Get loads one mapping for editing.
func (s *URLMapService) Get(ctx context.Context, key string) (model.URLMap, error) {
	start := time.Now()
	urlMap, err := s.api.Get(ctx, key)
	logOutcome("get", key, start, err)
	if err != nil {
		return model.URLMap{}, fmt.Errorf("get url map %q: %w", key, err)
	}
	return urlMap, nil
}

// Create stores a new mapping.
func (s *URLMapService) Create(ctx context.Context, urlMap model.URLMap) (model.URLMap, error) {
	start := time.Now()
	created, err := s.api.Create(ctx, urlMap)
	logOutcome("create", urlMap.Key, start, err)
	if err != nil {
		return model.URLMap{}, fmt.Errorf("create url map %q: %w", urlMap.Key, err)
	}
	return created, nil
}

// Update replaces the destination of the mapping loaded under originalKey.
// The form may not rename the mapping.
func (s *URLMapService) Update(ctx context.Context, originalKey string, urlMap model.URLMap) (model.URLMap, error) {
	if urlMap.Key != originalKey {
		log.Warn().Str("key", originalKey).Str("new_key", urlMap.Key).Msg("Refused url map rename")
		return model.URLMap{}, ErrKeyChanged
	}

	start := time.Now()
	updated, err := s.api.Update(ctx, urlMap)
	logOutcome("update", urlMap.Key, start, err)
	if err != nil {
		return model.URLMap{}, fmt.Errorf("update url map %q: %w", urlMap.Key, err)
	}
	return updated, nil
}

// Delete removes key after the confirmer approves it.
func (s *URLMapService) Delete(ctx context.Context, key string, confirmer Confirmer) error {
	if confirmer == nil || !confirmer.Confirm(ctx, DeletePrompt) {
		log.Debug().Str("key", key).Msg("Delete declined")
		return ErrDeleteDeclined
	}

	start := time.Now()
	ok, err := s.api.Delete(ctx, key)
	if err == nil && !ok {
		err = ErrDeleteFailed
	}
	logOutcome("delete", key, start, err)
	if err != nil {
		return fmt.Errorf("delete url map %q: %w", key, err)
	}
	return nil
}

// RedirectURL is the public link used to test a mapping.
func (s *URLMapService) RedirectURL(key string) string {
	return s.api.RedirectURL(key)
}

func logOutcome(op, key string, start time.Time, err error) {
	if err != nil {
		log.Error().
			Err(err).
			Str("op", op).
			Str("key", key).
			Dur("duration", time.Since(start)).
			Msg("URL map operation failed")
		return
	}

	log.Info().
		Str("op", op).
		Str("key", key).
		Dur("duration", time.Since(start)).
		Msg("URL map operation succeeded")
}
