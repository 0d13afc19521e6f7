// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package weather

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/dublinbikes/internal/platform/request"
	"github.com/taibuivan/dublinbikes/internal/platform/respond"
	"github.com/taibuivan/dublinbikes/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements the /api/weather HTTP endpoint.
type Handler struct {
	client *Client
}

// NewHandler constructs a new [Handler] around a forecast [Client].
func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

// Routes returns a [chi.Router] configured with the weather route.
//
// # Endpoints
//   - GET /?lat=&lon= : Forecast for a coordinate pair.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.getForecast)
	return router
}

/*
GetForecast proxies the One Call forecast for a coordinate pair.

GET /api/weather?lat=&lon=

Response:
  - 200: upstream One Call JSON
  - 400: lat or lon missing, not a number or out of range
  - 4xx/5xx with code 50001: upstream failure
*/
func (handler *Handler) getForecast(writer http.ResponseWriter, request *http.Request) {
	lat, err := requestutil.FloatQuery(request, "lat")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	lon, err := requestutil.FloatQuery(request, "lon")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.Float("lat", lat, -90, 90).Float("lon", lon, -180, 180)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	forecast, err := handler.client.Forecast(request.Context(), lat, lon)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, forecast)
}
