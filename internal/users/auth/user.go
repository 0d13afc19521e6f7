// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the account verification and authentication core.

It defines the Account entity, the lifecycle that moves an account from
unverified to active, and bearer-token issuance for active accounts.

# Architecture

  - Service: the Account Lifecycle Manager (Register, RequestCode, ActivateByCode,
    ActivateByToken, Login, Refresh, Logout, Authenticate).
  - AccountRepository: atomic read and compare-and-write access to accounts.
  - Handler: the /api/users HTTP surface.
*/
package auth

import (
	"time"
)

// # Domain Entities

// Account is one registered rider.
//
// # Invariants
//
// At most one verification code is outstanding; its code, expiry and sent-time
// are set or cleared together. An active account has no verification fields.
type Account struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	AvatarURL    *string
	IsActive     bool

	VerificationCode          *string
	VerificationCodeExpiresAt *time.Time
	VerificationCodeSentAt    *time.Time
	ActivationToken           *string

	// TokenVersion is embedded in every issued token; bumping it revokes them all.
	TokenVersion int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasPendingCode reports whether a verification code is outstanding.
func (account *Account) HasPendingCode() bool {
	return account.VerificationCode != nil && *account.VerificationCode != ""
}

// Profile is the client-facing projection of an [Account].
type Profile struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToProfile strips credentials and verification secrets.
func (account *Account) ToProfile() Profile {
	return Profile{
		ID:        account.ID,
		Username:  account.Username,
		Email:     account.Email,
		AvatarURL: account.AvatarURL,
		IsActive:  account.IsActive,
		CreatedAt: account.CreatedAt.UTC(),
	}
}

// TokenPair is returned by Login and Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}
