// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package weather proxies the OpenWeatherMap One Call API.

The upstream JSON is passed through untouched. Successful bodies are cached
per rounded coordinate pair; a cache outage only costs an upstream call.
*/
package weather

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
	"time"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/constants"
	"github.com/taibuivan/dublinbikes/internal/platform/metrics"
)

// CodeUpstreamFailure is returned when OpenWeatherMap cannot serve the request.
const CodeUpstreamFailure = 50001

// cacheName labels cache metrics.
const cacheName = "weather"

// maxUpstreamBody caps how much of an upstream response is read.
const maxUpstreamBody = 4 << 20

// Config configures a [Client].
type Config struct {
	BaseURL  string
	APIKey   string
	CacheTTL time.Duration
	Timeout  time.Duration
}

// Client fetches forecasts, consulting the cache first.
type Client struct {
	httpClient *http.Client
	config     Config
	cache      Cache
	logger     *slog.Logger
}

// NewClient builds a [Client]. A nil cache disables caching.
func NewClient(config Config, cache Cache, logger *slog.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = constants.WeatherUpstreamTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: config.Timeout},
		config:     config,
		cache:      cache,
		logger:     logger.With(slog.String("component", "weather")),
	}
}

/*
Forecast returns the One Call payload for a coordinate pair.

Returns:
  - json.RawMessage: upstream body, unchanged
  - error: an upstream [apperr.AppError] (code 50001) carrying the upstream
    HTTP status, or 502 when the upstream could not be reached
*/
func (client *Client) Forecast(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	key := CacheKey(lat, lon)

	if body, ok := client.cached(ctx, key); ok {
		return body, nil
	}

	body, err := client.fetch(ctx, lat, lon)
	if err != nil {
		return nil, err
	}

	if client.cache != nil {
		if err := client.cache.Set(ctx, key, body, client.config.CacheTTL); err != nil {
			client.logger.WarnContext(ctx, "weather_cache_store_failed", slog.Any("error", err))
		}
	}

	return body, nil
}

// CacheKey rounds coordinates to two decimals (about 1 km).
func CacheKey(lat, lon float64) string {
	return fmt.Sprintf("%s%.2f:%.2f", constants.RedisPrefixWeather, lat, lon)
}

func (client *Client) cached(ctx context.Context, key string) (json.RawMessage, bool) {
	if client.cache == nil {
		return nil, false
	}

	body, found, err := client.cache.Get(ctx, key)
	switch {
	case err != nil:
		metrics.ObserveCache(cacheName, "error")
		client.logger.WarnContext(ctx, "weather_cache_lookup_failed", slog.Any("error", err))
		return nil, false
	case !found:
		metrics.ObserveCache(cacheName, "miss")
		return nil, false
	default:
		metrics.ObserveCache(cacheName, "hit")
		return body, true
	}
}

func (client *Client) fetch(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	endpoint, err := url.Parse(client.config.BaseURL)
	if err != nil {
		return nil, upstreamError(http.StatusInternalServerError, fmt.Errorf("invalid base URL: %w", err))
	}

	query := endpoint.Query()
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("appid", client.config.APIKey)
	query.Set("exclude", "minutely")
	endpoint.RawQuery = query.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, upstreamError(http.StatusInternalServerError, err)
	}

	response, err := client.httpClient.Do(request)
	if err != nil {
		return nil, upstreamError(http.StatusBadGateway, withoutURL(err))
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, maxUpstreamBody))
	if err != nil {
		return nil, upstreamError(http.StatusBadGateway, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, upstreamError(response.StatusCode, fmt.Errorf("upstream returned %s", response.Status))
	}

	if !json.Valid(body) {
		return nil, upstreamError(http.StatusBadGateway, errors.New("upstream returned invalid JSON"))
	}

	return body, nil
}

// MsgUpstreamFailure is the client-facing message of every upstream failure.
const MsgUpstreamFailure = "Failed to fetch weather data"

// upstreamError keeps the upstream status so clients see e.g. 401 for a bad API key.
// The cause only reaches the logs.
func upstreamError(status int, cause error) *apperr.AppError {
	return apperr.New(CodeUpstreamFailure, status, MsgUpstreamFailure).WithCause(cause)
}

// withoutURL drops the request URL from transport errors; it carries the API key.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("weather upstream %s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
