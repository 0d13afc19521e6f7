// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package station_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dublinbikes/internal/bikes/station"
	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/clock"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) ListStations(ctx context.Context) ([]*station.Station, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*station.Station), args.Error(1)
}

func (m *mockRepository) Exists(ctx context.Context, number int) (bool, error) {
	args := m.Called(ctx, number)
	return args.Bool(0), args.Error(1)
}

func (m *mockRepository) ListAvailabilitySince(ctx context.Context, number int, since time.Time) ([]*station.Availability, error) {
	args := m.Called(ctx, number, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*station.Availability), args.Error(1)
}

func newRouter(repo *mockRepository) http.Handler {
	service := station.NewService(repo, clock.NewManual(now), nil)
	return station.NewHandler(service).Routes()
}

func get(t *testing.T, handler http.Handler, path string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return recorder, body
}

func TestListStations(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListStations", mock.Anything).Return([]*station.Station{
		{Number: 2, Name: "BLESSINGTON STREET", Latitude: 53.3568, Longitude: -6.26814, BikeStands: 20},
		{Number: 3, Name: "BOLTON STREET", Banking: true},
	}, nil)

	recorder, body := get(t, newRouter(repo), "/")

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `0`, string(body["code"]))

	var stations []station.Station
	require.NoError(t, json.Unmarshal(body["data"], &stations))
	require.Len(t, stations, 2)
	assert.Equal(t, 2, stations[0].Number)
	assert.Equal(t, 20, stations[0].BikeStands)
	assert.Contains(t, string(body["data"]), `"contract_name"`)
}

func TestListStations_Empty(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListStations", mock.Anything).Return([]*station.Station{}, nil)

	_, body := get(t, newRouter(repo), "/")
	assert.JSONEq(t, `[]`, string(body["data"]))
}

func TestRecentAvailability_UsesLastDay(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Exists", mock.Anything, 42).Return(true, nil)
	repo.On("ListAvailabilitySince", mock.Anything, 42, now.Add(-24*time.Hour)).Return([]*station.Availability{
		{Number: 42, AvailableBikes: 5, AvailableBikeStands: 15, Status: "OPEN", LastUpdate: 1770047175000, RequestedAt: now.Add(-time.Hour)},
	}, nil)

	recorder, body := get(t, newRouter(repo), "/42/availability")

	require.Equal(t, http.StatusOK, recorder.Code)
	var history []station.Availability
	require.NoError(t, json.Unmarshal(body["data"], &history))
	require.Len(t, history, 1)
	assert.Equal(t, "OPEN", history[0].Status)
	assert.Equal(t, int64(1770047175000), history[0].LastUpdate)
	repo.AssertExpectations(t)
}

func TestRecentAvailability_UnknownStation(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Exists", mock.Anything, 999).Return(false, nil)

	recorder, body := get(t, newRouter(repo), "/999/availability")

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	assert.JSONEq(t, `40402`, string(body["code"]))
	repo.AssertNotCalled(t, "ListAvailabilitySince", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecentAvailability_NonIntegerNumber(t *testing.T) {
	recorder, body := get(t, newRouter(new(mockRepository)), "/abc/availability")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.JSONEq(t, `40001`, string(body["code"]))
}

func TestRecentAvailability_StorageFailure(t *testing.T) {
	repo := new(mockRepository)
	repo.On("Exists", mock.Anything, 1).Return(false, apperr.Internal(errors.New("pool closed")))

	recorder, body := get(t, newRouter(repo), "/1/availability")

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `50000`, string(body["code"]))
}

func TestService_LogsStorageCause(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListStations", mock.Anything).Return(nil, apperr.Internal(errors.New("pool closed")))

	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	service := station.NewService(repo, clock.NewManual(now), logger)

	_, err := service.ListStations(context.Background())
	require.Error(t, err)

	assert.Contains(t, logs.String(), `"msg":"station_list_failed"`)
	assert.Contains(t, logs.String(), "pool closed")
	assert.Contains(t, logs.String(), `"component":"station"`)
}
