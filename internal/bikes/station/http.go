// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package station

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/dublinbikes/internal/platform/request"
	"github.com/taibuivan/dublinbikes/internal/platform/respond"
)

// ParamNumber is the URL parameter carrying the station number.
const ParamNumber = "number"

// # Definitions & Constructors

// Handler implements the /api/stations HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the station routes.
//
// # Endpoints
//   - GET /                        : Lists every station.
//   - GET /{number}/availability   : Availability of the last 24 hours.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listStations)
	router.Get("/{"+ParamNumber+"}/availability", handler.getAvailability)
	return router
}

/*
ListStations returns the station catalogue.

GET /api/stations

Response:
  - 200: []Station ordered by number
*/
func (handler *Handler) listStations(writer http.ResponseWriter, request *http.Request) {
	stations, err := handler.service.ListStations(request.Context())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, stations)
}

/*
GetAvailability returns the recent availability history of one station.

GET /api/stations/{number}/availability

Response:
  - 200: []Availability ordered by requested_at
  - 400: number is not an integer
  - 404: StationNotFound
*/
func (handler *Handler) getAvailability(writer http.ResponseWriter, request *http.Request) {
	number, err := requestutil.IntParam(request, ParamNumber)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	history, err := handler.service.RecentAvailability(request.Context(), number)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, history)
}
