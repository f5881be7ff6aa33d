// Package client talks to the URL-map REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MikhailRaia/url-mapper/internal/model"
	"github.com/MikhailRaia/url-mapper/internal/pool"
	"github.com/rs/zerolog/log"
)

const (
	collectionPath = "/api/url_maps"

	// AuthorizationHeader carries the operator token on every request.
	AuthorizationHeader = "Authorization"

	maxErrorBody = 512
)

// TokenSource supplies the authorization token for each request.
type TokenSource interface {
	Token() string
}

// Client performs the five URL-map operations against an API host.
type Client struct {
	apiHost    string
	tokens     TokenSource
	httpClient *http.Client
	buffers    *pool.Pool[*bytes.Buffer]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A nil hc is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout bounds every request. The default is no timeout.
// The client passed to WithHTTPClient is copied, never modified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// New creates a Client for apiHost that reads its token from tokens.
func New(apiHost string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		apiHost:    strings.TrimRight(apiHost, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		buffers:    pool.New(8, func() *bytes.Buffer { return new(bytes.Buffer) }),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// List returns every mapping known to the API.
func (c *Client) List(ctx context.Context) ([]model.URLMap, error) {
	urlMaps := []model.URLMap{}
	if err := c.doJSON(ctx, http.MethodGet, collectionPath, nil, &urlMaps); err != nil {
		return nil, err
	}
	if urlMaps == nil {
		urlMaps = []model.URLMap{}
	}
	return urlMaps, nil
}

// Get returns the mapping stored under key.
func (c *Client) Get(ctx context.Context, key string) (model.URLMap, error) {
	if key == "" {
		return model.URLMap{}, ErrEmptyKey
	}

	var urlMap model.URLMap
	if err := c.doJSON(ctx, http.MethodGet, resourcePath(key), nil, &urlMap); err != nil {
		return model.URLMap{}, err
	}
	return urlMap, nil
}

// Create posts a new mapping and returns the API's echo of it.
func (c *Client) Create(ctx context.Context, urlMap model.URLMap) (model.URLMap, error) {
	var created model.URLMap
	if err := c.doJSON(ctx, http.MethodPost, collectionPath, urlMap, &created); err != nil {
		return model.URLMap{}, err
	}
	return created, nil
}

// Update replaces the mapping addressed by urlMap.Key.
func (c *Client) Update(ctx context.Context, urlMap model.URLMap) (model.URLMap, error) {
	if urlMap.Key == "" {
		return model.URLMap{}, ErrEmptyKey
	}

	var updated model.URLMap
	if err := c.doJSON(ctx, http.MethodPut, resourcePath(urlMap.Key), urlMap, &updated); err != nil {
		return model.URLMap{}, err
	}
	return updated, nil
}

// Delete removes the mapping under key and reports whether the API
// answered with a 2xx status. Only transport failures return an error.
func (c *Client) Delete(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, ErrEmptyKey
	}

	resp, err := c.do(ctx, http.MethodDelete, resourcePath(key), nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return isSuccess(resp.StatusCode), nil
}

// RedirectURL is the public short link served by the redirect service.
func (c *Client) RedirectURL(key string) string {
	return c.apiHost + "/" + url.PathEscape(key)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := c.buffers.Get()
	defer c.buffers.Put(buf)

	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if !isSuccess(resp.StatusCode) {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       truncate(strings.TrimSpace(buf.String()), maxErrorBody),
		}
	}

	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiHost+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	// Sent even when empty; the API decides what an empty token means.
	req.Header.Set(AuthorizationHeader, c.tokens.Token())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("method", method).Str("path", path).Msg("API request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request completed")

	return resp, nil
}

func resourcePath(key string) string {
	return collectionPath + "/" + url.PathEscape(key)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
