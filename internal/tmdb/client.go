// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tmdb is a client for The Movie Database v3 REST API. Requests are
// throttled by a token bucket, retried with exponential backoff on rate
// limiting and server errors, and their bodies are cached by request path.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jaycherian/gcp-go-movie-discovery/internal/cloud"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL      = "https://api.themoviedb.org/3"
	DefaultImageBaseURL = "https://image.tmdb.org/t/p"

	// DetailsAppend is the set of sub-resources fetched with movie details.
	DetailsAppend = "videos,similar,credits,keywords,watch/providers"

	cacheKeyPrefix = "tmdb:"
	maxErrorBody   = 256
)

var (
	// ErrNotFound is returned when TMDB answers 404.
	ErrNotFound = errors.New("tmdb: resource not found")
	// ErrUnauthorized is returned when TMDB answers 401 or no api key is configured.
	ErrUnauthorized = errors.New("tmdb: unauthorized")
)

// StatusError is a non-2xx response that is neither 401 nor 404.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s failed with status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Retryable reports whether the request may succeed when repeated.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ImageURL returns the CDN url of an image path at the given size, or an
// empty string when the path is empty.
func ImageURL(size string, path string) string {
	return imageURL(DefaultImageBaseURL, size, path)
}

func imageURL(base string, size string, path string) string {
	if path == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimSuffix(base, "/") + "/" + size + path
}

// Client calls the TMDB API. It is safe for concurrent use.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	language     string
	region       string
	maxRetries   int
	retryDelay   time.Duration
	cacheTTL     time.Duration
	httpClient   *http.Client
	limiter      *rate.Limiter
	cache        cloud.Cache
	tracer       trace.Tracer
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRetryDelay sets the initial backoff delay between retries.
func WithRetryDelay(delay time.Duration) Option {
	return func(c *Client) {
		c.retryDelay = delay
	}
}

// NewClient creates a TMDB client.
//
// Inputs:
//   - settings: The [tmdb] configuration section.
//   - cache: The response cache; nil disables caching.
//   - opts: Optional overrides.
//
// Outputs:
//   - *Client: The configured client.
func NewClient(settings cloud.TMDB, cache cloud.Cache, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimSuffix(settings.BaseURL, "/"),
		imageBaseURL: settings.ImageBaseURL,
		apiKey:       strings.TrimSpace(settings.APIKey),
		language:     settings.Language,
		region:       settings.Region,
		maxRetries:   settings.MaxRetries,
		retryDelay:   500 * time.Millisecond,
		cacheTTL:     settings.CacheTTL(),
		httpClient:   &http.Client{Timeout: settings.Timeout()},
		limiter:      rate.NewLimiter(rate.Inf, 0),
		cache:        cache,
		tracer:       otel.Tracer("tmdb"),
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.imageBaseURL == "" {
		c.imageBaseURL = DefaultImageBaseURL
	}
	if c.region == "" {
		c.region = "US"
	}
	if c.maxRetries == 0 {
		c.maxRetries = cloud.MaxRetries
	}
	if settings.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(settings.RateLimit), settings.RateLimit)
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Region is the country used to select watch providers.
func (c *Client) Region() string {
	return c.region
}

// ImageURL returns the url of an image path on the configured CDN.
func (c *Client) ImageURL(size string, path string) string {
	return imageURL(c.imageBaseURL, size, path)
}

// Trending returns the movies trending today.
func (c *Client) Trending(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "/trending/movie/day", nil)
}

// Popular returns the current popular movies.
func (c *Client) Popular(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "/movie/popular", nil)
}

// Upcoming returns the upcoming releases.
func (c *Client) Upcoming(ctx context.Context) ([]Movie, error) {
	return c.list(ctx, "/movie/upcoming", nil)
}

// Details returns a movie with its videos, similar movies, credits,
// keywords and watch providers.
func (c *Client) Details(ctx context.Context, id int) (*Movie, error) {
	var movie Movie
	params := url.Values{"append_to_response": {DetailsAppend}}
	if err := c.get(ctx, "/movie/"+strconv.Itoa(id), params, &movie); err != nil {
		return nil, err
	}
	return &movie, nil
}

// Search returns the movies matching query. A blank query returns an empty
// list without calling TMDB.
func (c *Client) Search(ctx context.Context, query string) ([]Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []Movie{}, nil
	}
	return c.list(ctx, "/search/movie", url.Values{
		"query":         {query},
		"include_adult": {"false"},
	})
}

// DiscoverByGenres returns popular movies having any of the genres.
func (c *Client) DiscoverByGenres(ctx context.Context, genreIDs []int) ([]Movie, error) {
	ids := make([]string, len(genreIDs))
	for i, id := range genreIDs {
		ids[i] = strconv.Itoa(id)
	}
	return c.list(ctx, "/discover/movie", url.Values{
		"with_genres":   {strings.Join(ids, "|")},
		"sort_by":       {"popularity.desc"},
		"include_adult": {"false"},
	})
}

// GenreList returns the official movie genres.
func (c *Client) GenreList(ctx context.Context) ([]Genre, error) {
	var out genreList
	if err := c.get(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

func (c *Client) list(ctx context.Context, path string, params url.Values) ([]Movie, error) {
	var page Page
	if err := c.get(ctx, path, params, &page); err != nil {
		return nil, err
	}
	if page.Results == nil {
		return []Movie{}, nil
	}
	return page.Results, nil
}

// get fetches path and decodes the JSON body into out. Successful bodies are
// cached under the path and query without the api key.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.apiKey == "" {
		return fmt.Errorf("%w: no api key configured", ErrUnauthorized)
	}
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if c.language != "" {
		query.Set("language", c.language)
	}
	cacheKey := cacheKeyPrefix + path + "?" + query.Encode()

	if c.cache != nil {
		if raw, err := c.cache.Get(ctx, cacheKey); err == nil {
			if err := json.Unmarshal(raw, out); err == nil {
				return nil
			}
			slog.Warn("discarding undecodable cached tmdb response", "key", cacheKey)
		} else if !errors.Is(err, cloud.ErrCacheMiss) {
			slog.Warn("tmdb cache read failed", "key", cacheKey, "error", err)
		}
	}

	query.Set("api_key", c.apiKey)
	target := c.baseURL + path + "?" + query.Encode()

	spanCtx, span := c.tracer.Start(ctx, "tmdb-get")
	defer span.End()
	span.SetAttributes(attribute.String("path", path))

	var raw []byte
	err := retry.Do(
		func() error {
			var err error
			raw, err = c.do(spanCtx, path, target)
			return err
		},
		retry.Context(spanCtx),
		retry.Attempts(uint(max(c.maxRetries, 0)+1)),
		retry.Delay(c.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.OnRetry(func(n uint, err error) {
			slog.Debug("retrying tmdb request", "path", path, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		span.SetStatus(codes.Error, "decode")
		return fmt.Errorf("tmdb: decode %s: %w", path, err)
	}
	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, raw, c.cacheTTL); err != nil {
			slog.Warn("tmdb cache write failed", "key", cacheKey, "error", err)
		}
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, target string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The error text contains the url and with it the api key.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, fmt.Errorf("tmdb: %s: %w", path, urlErr.Err)
		}
		return nil, fmt.Errorf("tmdb: %s: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tmdb: read %s: %w", path, err)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, path)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body := string(raw)
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Path: path, Body: body}
	}
	return raw, nil
}

// retryable reports whether err is worth another attempt: rate limiting,
// server errors and transport failures.
func retryable(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Retryable()
	}
	return true
}
