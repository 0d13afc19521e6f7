// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package requestutil provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/ctxutil"
	"github.com/taibuivan/dublinbikes/internal/platform/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Bodies are capped at 1 MiB. Fields the target does not declare are ignored.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(io.LimitReader(request.Body, maxBodyBytes))
	if err := decoder.Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
IntParam retrieves a named URL parameter and parses it as a base-10 integer.

Returns:
  - error: a validation error naming the parameter when it is not an integer
*/
func IntParam(request *http.Request, name string) (int, error) {
	raw := chi.URLParam(request, name)
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validate.RequiredError(name, "Must be an integer")
	}
	return value, nil
}

/*
FloatQuery parses a required float query parameter.
*/
func FloatQuery(request *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(request.URL.Query().Get(name))
	if raw == "" {
		return 0, validate.RequiredError(name, "This field is required")
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, validate.RequiredError(name, "Must be a number")
	}
	return value, nil
}

/*
BearerToken extracts the token of an "Authorization: Bearer <token>" header.

Returns:
  - string: the raw token
  - bool: false when the header is absent or not a bearer credential
*/
func BearerToken(request *http.Request) (string, bool) {
	header := request.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

/*
RequiredAccountID returns the id of the currently logged-in account.

Returns:
  - int64: account id
  - error: apperr.Unauthorized if not authenticated
*/
func RequiredAccountID(request *http.Request) (int64, error) {
	id, ok := ctxutil.GetAccountID(request.Context())
	if !ok {
		return 0, apperr.Unauthorized("Missing or invalid token")
	}
	return id, nil
}
