// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Input Constraints

const (
	UsernameMinLength   = 3
	UsernameMaxLength   = 64
	EmailMaxLength      = 120
	PasswordMinLength   = 8
	PasswordMaxLength   = 128
	AvatarURLMaxLength  = 255
	IdentifierMaxLength = 120
)

// # Field Identifiers

// Field names used in request payloads and validation errors.
const (
	FieldUsername     = "username"
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldAvatarURL    = "avatar_url"
	FieldIdentifier   = "identifier"
	FieldCode         = "code"
	FieldToken        = "token"
	FieldRefreshToken = "refresh_token"
)

// # Operation Names

// Operation labels used in logs and metrics.
const (
	OpRegister        = "register"
	OpRequestCode     = "request_code"
	OpActivateByCode  = "activate_by_code"
	OpActivateByToken = "activate_by_token"
	OpLogin           = "login"
	OpRefresh         = "refresh"
	OpLogout          = "logout"
	OpAuthenticate    = "authenticate"
)

// TokenTypeBearer is the token_type of every issued pair.
const TokenTypeBearer = "Bearer"
