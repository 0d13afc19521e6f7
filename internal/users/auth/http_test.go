// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/users/auth"
)

// envelope mirrors the response shape with raw data for per-test decoding.
type envelope struct {
	Code    int                 `json:"code"`
	Msg     string              `json:"msg"`
	Data    json.RawMessage     `json:"data"`
	Details []apperr.FieldError `json:"details"`
}

func call(t *testing.T, handler http.Handler, method, path string, body any, bearer string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	switch v := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(v))
	default:
		raw, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	request := httptest.NewRequest(method, path, reader)
	request.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return recorder, decoded
}

func newRouter(f *fixture) http.Handler {
	return auth.NewHandler(f.service).Routes()
}

/*
TestHTTP_RegisterActivateLoginLogout drives the full lifecycle through the router.
*/
func TestHTTP_RegisterActivateLoginLogout(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	// Register
	recorder, body := call(t, router, http.MethodPost, "/register", map[string]any{
		"username":   "alice",
		"email":      "Alice@Example.com",
		"password":   "password123",
		"avatar_url": "  ",
	}, "")
	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.Equal(t, 0, body.Code)
	assert.Equal(t, auth.MsgUserRegistered, body.Msg)

	var profile auth.Profile
	require.NoError(t, json.Unmarshal(body.Data, &profile))
	assert.Equal(t, "alice@example.com", profile.Email)
	assert.False(t, profile.IsActive)
	assert.Nil(t, profile.AvatarURL)
	assert.NotContains(t, string(body.Data), "password")
	assert.NotContains(t, string(body.Data), "verification_code")

	// Activate with the stored code
	code := *f.repo.snapshot(t, profile.ID).VerificationCode
	recorder, body = call(t, router, http.MethodPost, "/activate", map[string]string{
		"identifier": "alice", "code": code,
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgAccountActivated, body.Msg)

	// Login
	recorder, body = call(t, router, http.MethodPost, "/login", map[string]string{
		"identifier": "alice@example.com", "password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var pair auth.TokenPair
	require.NoError(t, json.Unmarshal(body.Data, &pair))
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)

	// Refresh
	recorder, body = call(t, router, http.MethodPost, "/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, body.Code)

	// Logout
	recorder, body = call(t, router, http.MethodPost, "/logout", nil, pair.AccessToken)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgLoggedOut, body.Msg)
	assert.Equal(t, "null", string(body.Data))

	// Old tokens are revoked
	recorder, body = call(t, router, http.MethodPost, "/logout", nil, pair.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, auth.CodeTokenRevoked, body.Code)

	recorder, body = call(t, router, http.MethodPost, "/refresh", map[string]string{
		"refresh_token": pair.RefreshToken,
	}, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, auth.CodeTokenRevoked, body.Code)
}

/*
TestHTTP_RegisterValidation rejects malformed payloads before the service runs.
*/
func TestHTTP_RegisterValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  any
		field string
	}{
		{"invalid_json", `{"username":`, ""},
		{"short_username", map[string]string{"username": "al", "email": "a@example.com", "password": "password123"}, "username"},
		{"bad_username_chars", map[string]string{"username": "al ice", "email": "a@example.com", "password": "password123"}, "username"},
		{"bad_email", map[string]string{"username": "alice", "email": "nope", "password": "password123"}, "email"},
		{"short_password", map[string]string{"username": "alice", "email": "a@example.com", "password": "short"}, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			recorder, body := call(t, newRouter(f), http.MethodPost, "/register", tt.body, "")

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, apperr.CodeValidation, body.Code)
			assert.Equal(t, "null", string(body.Data))
			if tt.field != "" {
				require.NotEmpty(t, body.Details)
				assert.Equal(t, tt.field, body.Details[0].Field)
			}
			f.notifier.AssertNotCalled(t, "Enqueue")
		})
	}
}

/*
TestHTTP_RegisterConflicts maps duplicates to 409 with distinct codes.
*/
func TestHTTP_RegisterConflicts(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.register(t, "alice", "alice@example.com", "password123")

	recorder, body := call(t, router, http.MethodPost, "/register", map[string]string{
		"username": "alice", "email": "new@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, auth.CodeUsernameExists, body.Code)

	recorder, body = call(t, router, http.MethodPost, "/register", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Equal(t, auth.CodeEmailExists, body.Code)
}

/*
TestHTTP_SendVerificationCode_RateLimited sets the Retry-After header.
*/
func TestHTTP_SendVerificationCode_RateLimited(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.register(t, "bob", "bob@example.com", "password123")

	f.clock.Advance(15 * time.Second)
	recorder, body := call(t, router, http.MethodPost, "/send-verification-code", map[string]string{
		"identifier": "bob",
	}, "")
	assert.Equal(t, http.StatusTooManyRequests, recorder.Code)
	assert.Equal(t, apperr.CodeRateLimited, body.Code)
	assert.Equal(t, "45", recorder.Header().Get("Retry-After"))

	f.clock.Advance(time.Minute)
	recorder, body = call(t, router, http.MethodPost, "/send-verification-code", map[string]string{
		"identifier": "bob",
	}, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgCodeSent, body.Msg)

	var dispatch auth.CodeDispatch
	require.NoError(t, json.Unmarshal(body.Data, &dispatch))
	assert.Equal(t, 300, dispatch.ExpiresIn)
	assert.Equal(t, 60, dispatch.ResendAfter)
}

/*
TestHTTP_ActivateValidation requires a six-digit code.
*/
func TestHTTP_ActivateValidation(t *testing.T) {
	f := newFixture(t)
	recorder, body := call(t, newRouter(f), http.MethodPost, "/activate", map[string]string{
		"identifier": "alice", "code": "12ab56",
	}, "")

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, apperr.CodeValidation, body.Code)
	require.NotEmpty(t, body.Details)
	assert.Equal(t, auth.FieldCode, body.Details[0].Field)
}

/*
TestHTTP_ActivateByLink redeems the path token once.
*/
func TestHTTP_ActivateByLink(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	account := f.register(t, "carol", "carol@example.com", "password123")
	token := *f.repo.snapshot(t, account.ID).ActivationToken

	recorder, body := call(t, router, http.MethodGet, "/activate/"+token, nil, "")
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, auth.MsgAccountActivated, body.Msg)

	recorder, body = call(t, router, http.MethodPost, "/activate-by-token", map[string]string{"token": token}, "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, auth.CodeInvalidOrExpiredLink, body.Code)
}

/*
TestHTTP_LoginFailures keeps the unknown-user and wrong-password responses identical.
*/
func TestHTTP_LoginFailures(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	f.activate(t, "dave", "dave@example.com", "password123")

	unknownRecorder, unknownBody := call(t, router, http.MethodPost, "/login", map[string]string{
		"identifier": "nobody", "password": "password123",
	}, "")
	wrongRecorder, wrongBody := call(t, router, http.MethodPost, "/login", map[string]string{
		"identifier": "dave", "password": "password999",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, unknownRecorder.Code)
	assert.Equal(t, unknownRecorder.Code, wrongRecorder.Code)
	assert.Equal(t, unknownBody, wrongBody)
	assert.Equal(t, auth.CodeInvalidCredentials, wrongBody.Code)
}

/*
TestHTTP_LogoutRequiresBearer rejects missing and malformed headers.
*/
func TestHTTP_LogoutRequiresBearer(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	recorder, body := call(t, router, http.MethodPost, "/logout", nil, "")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, auth.CodeTokenMalformed, body.Code)

	request := httptest.NewRequest(http.MethodPost, "/logout", nil)
	request.Header.Set("Authorization", "Token abc")
	raw := httptest.NewRecorder()
	router.ServeHTTP(raw, request)
	assert.Equal(t, http.StatusUnauthorized, raw.Code)

	recorder, body = call(t, router, http.MethodPost, "/logout", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Equal(t, auth.CodeTokenMalformed, body.Code)
}
