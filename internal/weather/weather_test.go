// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package weather_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/weather"
)

const forecastBody = `{"lat":53.35,"lon":-6.26,"current":{"temp":284.2}}`

// memoryCache is a map-backed [weather.Cache] that can be switched to failing.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	broken  bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, false, errors.New("connection refused")
	}
	value, ok := c.entries[key]
	return value, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errors.New("connection refused")
	}
	c.entries[key] = value
	c.ttls[key] = ttl
	return nil
}

type upstream struct {
	server *httptest.Server
	calls  atomic.Int32
	query  atomic.Value
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		u.query.Store(r.URL.Query())
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(u.server.Close)
	return u
}

func newClient(baseURL string, cache weather.Cache) *weather.Client {
	return weather.NewClient(weather.Config{
		BaseURL:  baseURL,
		APIKey:   "test-key",
		CacheTTL: 10 * time.Minute,
		Timeout:  2 * time.Second,
	}, cache, nil)
}

func TestForecast_PassesQueryAndCaches(t *testing.T) {
	up := newUpstream(t, http.StatusOK, forecastBody)
	cache := newMemoryCache()
	client := newClient(up.server.URL, cache)

	first, err := client.Forecast(context.Background(), 53.3498, -6.2603)
	require.NoError(t, err)
	assert.JSONEq(t, forecastBody, string(first))

	query := up.query.Load().(url.Values)
	assert.Equal(t, []string{"53.3498"}, query["lat"])
	assert.Equal(t, []string{"-6.2603"}, query["lon"])
	assert.Equal(t, []string{"test-key"}, query["appid"])
	assert.Equal(t, []string{"minutely"}, query["exclude"])

	// Nearby coordinates share the rounded key.
	second, err := client.Forecast(context.Background(), 53.3501, -6.2599)
	require.NoError(t, err)
	assert.JSONEq(t, forecastBody, string(second))
	assert.Equal(t, int32(1), up.calls.Load())

	assert.Equal(t, 10*time.Minute, cache.ttls[weather.CacheKey(53.35, -6.26)])
}

func TestForecast_CacheOutageFallsThrough(t *testing.T) {
	up := newUpstream(t, http.StatusOK, forecastBody)
	cache := newMemoryCache()
	cache.broken = true
	client := newClient(up.server.URL, cache)

	body, err := client.Forecast(context.Background(), 53.35, -6.26)
	require.NoError(t, err)
	assert.JSONEq(t, forecastBody, string(body))
}

func TestForecast_UpstreamStatusIsKept(t *testing.T) {
	up := newUpstream(t, http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`)
	cache := newMemoryCache()
	client := newClient(up.server.URL, cache)

	_, err := client.Forecast(context.Background(), 53.35, -6.26)
	require.Error(t, err)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, weather.CodeUpstreamFailure, appErr.Code)
	assert.Equal(t, http.StatusUnauthorized, appErr.HTTPStatus)
	assert.Empty(t, cache.entries, "failures are never cached")
}

func TestForecast_UnreachableUpstream(t *testing.T) {
	up := newUpstream(t, http.StatusOK, forecastBody)
	baseURL := up.server.URL
	up.server.Close()

	_, err := newClient(baseURL, nil).Forecast(context.Background(), 1, 2)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, weather.CodeUpstreamFailure, appErr.Code)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
	assert.Equal(t, weather.MsgUpstreamFailure, appErr.Message)
	assert.NotContains(t, err.Error(), "test-key")
	require.Error(t, appErr.Cause)
	assert.NotContains(t, appErr.Cause.Error(), "test-key")
}

func TestHTTP_UnreachableUpstreamHidesAPIKey(t *testing.T) {
	up := newUpstream(t, http.StatusOK, forecastBody)
	baseURL := up.server.URL
	up.server.Close()

	router := weather.NewHandler(newClient(baseURL, nil)).Routes()
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/?lat=53.3&lon=-6.2", nil))

	assert.Equal(t, http.StatusBadGateway, recorder.Code)
	assert.NotContains(t, recorder.Body.String(), "test-key")
	assert.NotContains(t, recorder.Body.String(), "appid")

	var body struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, weather.CodeUpstreamFailure, body.Code)
	assert.Equal(t, weather.MsgUpstreamFailure, body.Msg)
}

func TestForecast_InvalidJSON(t *testing.T) {
	up := newUpstream(t, http.StatusOK, `<html>maintenance</html>`)

	_, err := newClient(up.server.URL, nil).Forecast(context.Background(), 1, 2)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, http.StatusBadGateway, appErr.HTTPStatus)
}

func TestHTTP_GetForecast(t *testing.T) {
	up := newUpstream(t, http.StatusOK, forecastBody)
	router := weather.NewHandler(newClient(up.server.URL, nil)).Routes()

	tests := []struct {
		name   string
		query  string
		status int
		code   int
	}{
		{"ok", "?lat=53.35&lon=-6.26", http.StatusOK, 0},
		{"missing_lat", "?lon=-6.26", http.StatusBadRequest, apperr.CodeValidation},
		{"missing_lon", "?lat=53.35", http.StatusBadRequest, apperr.CodeValidation},
		{"not_a_number", "?lat=north&lon=-6.26", http.StatusBadRequest, apperr.CodeValidation},
		{"out_of_range", "?lat=91&lon=-6.26", http.StatusBadRequest, apperr.CodeValidation},
		{"nan", "?lat=NaN&lon=-6.26", http.StatusBadRequest, apperr.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/"+tt.query, nil))

			assert.Equal(t, tt.status, recorder.Code)

			var body struct {
				Code int             `json:"code"`
				Data json.RawMessage `json:"data"`
			}
			require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, forecastBody, string(body.Data))
			}
		})
	}
}
