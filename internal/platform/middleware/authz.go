// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net/http"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/constants"
	"github.com/taibuivan/dublinbikes/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/dublinbikes/internal/platform/request"
	"github.com/taibuivan/dublinbikes/internal/platform/respond"
	"github.com/taibuivan/dublinbikes/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify access tokens in middleware.
//
// Defining TokenVerifier here decouples the middleware from the account
// service, allowing mocks to be injected during unit testing.
type TokenVerifier interface {
	Authenticate(ctx context.Context, accessToken string) (*sec.Claims, error)
}

// errMissingToken is the response for absent or unparseable Authorization headers.
var errMissingToken = apperr.Unauthorized("Missing or invalid token")

// Authenticate extracts and verifies the access token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous.
//  3. If present, verify it via [TokenVerifier]; failures are rendered as-is.
//  4. Inject [*sec.Claims] into the request context for downstream use.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if request.Header.Get(constants.HeaderAuthorization) == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			token, ok := requestutil.BearerToken(request)
			if !ok {
				respond.Error(writer, request, errMissingToken)
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.Authenticate(request.Context(), token)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, errMissingToken)
			return
		}
		next.ServeHTTP(writer, request)
	})
}
