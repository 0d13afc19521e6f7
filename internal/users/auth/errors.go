// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
)

// # Business Codes

const (
	CodeNoPendingCode          = 40002
	CodeCodeExpired            = 40003
	CodeInvalidCode            = 40004
	CodeAlreadyActive          = 40005
	CodeInvalidOrExpiredLink   = 40006
	CodeLinkExpired            = 40007
	CodeInvalidCredentials     = 40101
	CodeTokenExpired           = 40102
	CodeTokenMalformed         = apperr.CodeUnauthorized
	CodeTokenWrongKind         = 40104
	CodeUserNotFoundOrDisabled = 40105
	CodeTokenRevoked           = 40106
	CodeAccountDisabled        = 40301
	CodeAccountNotFound        = 40401
	CodeUsernameExists         = 40901
	CodeEmailExists            = 40902
	CodeConflict               = 40903
)

// # Failure Kinds

// Sentinels are matched by code through [apperr.AppError.Is], so callers can use
// errors.Is even when a copy carries a cause.
var (
	ErrAccountNotFound = apperr.NotFound(CodeAccountNotFound, "Account")
	ErrAlreadyActive   = apperr.New(CodeAlreadyActive, http.StatusBadRequest, "Account is already active")
	ErrNoPendingCode   = apperr.New(CodeNoPendingCode, http.StatusBadRequest, "No verification code has been requested")
	ErrCodeExpired     = apperr.New(CodeCodeExpired, http.StatusBadRequest, "Verification code has expired")
	ErrInvalidCode     = apperr.New(CodeInvalidCode, http.StatusBadRequest, "Verification code is invalid")

	ErrInvalidOrExpiredLink = apperr.New(CodeInvalidOrExpiredLink, http.StatusBadRequest, "Activation link is invalid or has already been used")
	ErrLinkExpired          = apperr.New(CodeLinkExpired, http.StatusBadRequest, "Activation link has expired")

	// ErrInvalidCredentials is shared by the unknown-identifier and wrong-password paths.
	ErrInvalidCredentials = apperr.New(CodeInvalidCredentials, http.StatusUnauthorized, "Invalid username/email or password")
	ErrAccountDisabled    = apperr.New(CodeAccountDisabled, http.StatusForbidden, "Account is not activated")

	ErrTokenExpired           = apperr.New(CodeTokenExpired, http.StatusUnauthorized, "Token has expired")
	ErrTokenMalformed         = apperr.New(CodeTokenMalformed, http.StatusUnauthorized, "Missing or invalid token")
	ErrTokenWrongKind         = apperr.New(CodeTokenWrongKind, http.StatusUnauthorized, "Wrong token type")
	ErrUserNotFoundOrDisabled = apperr.New(CodeUserNotFoundOrDisabled, http.StatusUnauthorized, "User not found or disabled")
	ErrTokenRevoked           = apperr.New(CodeTokenRevoked, http.StatusUnauthorized, "Token has been revoked")

	ErrUsernameExists = apperr.Conflict(CodeUsernameExists, "Username is already taken")
	ErrEmailExists    = apperr.Conflict(CodeEmailExists, "Email is already registered")
	ErrConflict       = apperr.Conflict(CodeConflict, "Username or email was registered concurrently")
)
