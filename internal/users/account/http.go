// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account provides the HTTP delivery layer for the rider's own profile.

# Security

Every endpoint in this package requires a valid access token; the router
applies the Authenticate and RequireAuth middleware itself.
*/
package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dublinbikes/internal/platform/middleware"
	requestutil "github.com/taibuivan/dublinbikes/internal/platform/request"
	"github.com/taibuivan/dublinbikes/internal/platform/respond"
)

// Handler implements the HTTP layer for profile access.
type Handler struct {
	accountService *Service
	verifier       middleware.TokenVerifier
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service, verifier middleware.TokenVerifier) *Handler {
	return &Handler{accountService: service, verifier: verifier}
}

// Routes returns a [chi.Router] meant to be mounted at /api/users/me.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Use(middleware.Authenticate(handler.verifier))
	router.Use(middleware.RequireAuth)

	router.Get("/", handler.getMe)

	return router
}

/*
GET /api/users/me.

Description: Retrieves the profile of the authenticated rider.

Response:
  - 200: Profile
  - 401: missing, invalid, expired or revoked token; account gone or disabled
*/
func (handler *Handler) getMe(writer http.ResponseWriter, request *http.Request) {
	accountID, err := requestutil.RequiredAccountID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	profile, err := handler.accountService.GetProfile(request.Context(), accountID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, profile)
}
