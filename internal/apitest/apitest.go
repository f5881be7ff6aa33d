// Package apitest provides an in-process URL-map API for tests.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"
	"testing"

	"github.com/MikhailRaia/url-mapper/internal/auth"
	"github.com/MikhailRaia/url-mapper/internal/logger"
	"github.com/MikhailRaia/url-mapper/internal/middleware"
	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/samber/lo"
)

// Request is what the API saw of one call.
type Request struct {
	Method           string
	Path             string
	Authorization    string
	HasAuthorization bool
	ContentType      string
}

// API is a fake of the external URL-map service.
type API struct {
	mu         sync.RWMutex
	urlMaps    map[string]string
	requests   []Request
	failDelete bool
	auth       *middleware.AuthMiddleware
}

// Option configures an API.
type Option func(*API)

// WithJWT makes the API require tokens issued by jwtService.
func WithJWT(jwtService *auth.JWTService) Option {
	return func(a *API) {
		a.auth = middleware.NewAuthMiddleware(jwtService)
	}
}

// WithURLMaps seeds the API with mappings.
func WithURLMaps(urlMaps ...model.URLMap) Option {
	return func(a *API) {
		for _, m := range urlMaps {
			a.urlMaps[m.Key] = m.URL
		}
	}
}

// New creates a fake API.
func New(opts ...Option) *API {
	a := &API{
		urlMaps: make(map[string]string),
		auth:    middleware.NewAuthMiddleware(nil),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewServer starts the fake API on a local listener closed at test cleanup.
func NewServer(t testing.TB, opts ...Option) (*API, *httptest.Server) {
	t.Helper()

	a := New(opts...)
	srv := httptest.NewServer(a.Routes())
	t.Cleanup(srv.Close)

	return a, srv
}

// Routes builds the REST contract plus the public redirect endpoint.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(logger.RequestLogger)
	r.Use(a.record)

	r.Route("/api/url_maps", func(r chi.Router) {
		r.Use(a.auth.RequireToken)

		r.Get("/", a.handleList)
		r.Post("/", a.handleCreate)
		r.Get("/{key}", a.handleGet)
		r.Put("/{key}", a.handleUpdate)
		r.Delete("/{key}", a.handleDelete)
	})
	r.Get("/{key}", a.handleRedirect)

	return r
}

// FailDeletes makes every following DELETE answer 500.
func (a *API) FailDeletes(fail bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failDelete = fail
}

// Requests returns a copy of every call received so far.
func (a *API) Requests() []Request {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return slices.Clone(a.requests)
}

// LastRequest returns the most recent call.
func (a *API) LastRequest() (Request, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if len(a.requests) == 0 {
		return Request{}, false
	}
	return a.requests[len(a.requests)-1], true
}

// URLMaps returns the stored mappings ordered by key.
func (a *API) URLMaps() []model.URLMap {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortedLocked()
}

func (a *API) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.mu.Lock()
		a.requests = append(a.requests, Request{
			Method:           r.Method,
			Path:             r.URL.Path,
			Authorization:    r.Header.Get(middleware.AuthorizationHeader),
			HasAuthorization: middleware.HasAuthorizationHeader(r),
			ContentType:      r.Header.Get("Content-Type"),
		})
		a.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	urlMaps := a.sortedLocked()
	a.mu.RUnlock()

	writeJSON(w, http.StatusOK, urlMaps)
}

func (a *API) handleGet(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	a.mu.RLock()
	target, found := a.urlMaps[key]
	a.mu.RUnlock()

	if !found {
		http.Error(w, "Key does not exist", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, model.URLMap{Key: key, URL: target})
}

func (a *API) handleCreate(w http.ResponseWriter, r *http.Request) {
	var urlMap model.URLMap
	if err := json.NewDecoder(r.Body).Decode(&urlMap); err != nil || urlMap.Key == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	if _, exists := a.urlMaps[urlMap.Key]; exists {
		a.mu.Unlock()
		http.Error(w, "Key already exists", http.StatusUnprocessableEntity)
		return
	}
	a.urlMaps[urlMap.Key] = urlMap.URL
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, urlMap)
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	if _, exists := a.urlMaps[key]; !exists {
		a.mu.Unlock()
		http.Error(w, "Key does not exist", http.StatusUnprocessableEntity)
		return
	}
	a.urlMaps[key] = body.URL
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, model.URLMap{Key: key, URL: body.URL})
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failDelete {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if _, exists := a.urlMaps[key]; !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	delete(a.urlMaps, key)

	w.WriteHeader(http.StatusOK)
}

func (a *API) handleRedirect(w http.ResponseWriter, r *http.Request) {
	key := keyParam(r)

	a.mu.RLock()
	target, found := a.urlMaps[key]
	a.mu.RUnlock()

	if !found {
		http.Error(w, "Key does not exist", http.StatusNotFound)
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// keyParam decodes {key}; chi leaves it escaped when routing on RawPath.
func keyParam(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if r.URL.RawPath == "" {
		return key
	}
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}

func (a *API) sortedLocked() []model.URLMap {
	keys := lo.Keys(a.urlMaps)
	slices.Sort(keys)

	return lo.Map(keys, func(key string, _ int) model.URLMap {
		return model.URLMap{Key: key, URL: a.urlMaps[key]}
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
