// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (hashing, JWT signing, one-time
// secrets) from the domain logic. It acts as an infrastructure service injected
// into the account lifecycle via small interfaces.
package sec

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Kinds

// TokenKind distinguishes the two bearer token families.
type TokenKind string

const (
	// KindAccess authorizes ordinary API calls.
	KindAccess TokenKind = "access"

	// KindRefresh is only exchanged for a new token pair.
	KindRefresh TokenKind = "refresh"
)

// # Verification Failures

var (
	// ErrTokenExpired is returned when now >= exp.
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenMalformed covers bad signatures, bad structure and non-integer subjects.
	ErrTokenMalformed = errors.New("sec: token malformed")

	// ErrTokenWrongKind is returned when the kind tag differs from the requested kind.
	ErrTokenWrongKind = errors.New("sec: wrong token kind")
)

// Claims represents the payload embedded inside every bearer token.
//
// The subject travels as the registered "sub" claim (a decimal string). The
// account's token version is embedded so a logout can invalidate every token
// issued before it.
type Claims struct {
	jwt.RegisteredClaims

	// Kind is the token family tag.
	Kind TokenKind `json:"typ"`

	// Version is the account token_version at issue time.
	Version int `json:"ver"`
}

// SubjectID parses the subject claim as an account id.
func (c *Claims) SubjectID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q is not an integer", ErrTokenMalformed, c.Subject)
	}
	return id, nil
}

// # Codec

// TokenConfig carries the per-kind secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

type kindSettings struct {
	secret []byte
	ttl    time.Duration
}

// TokenCodec issues and verifies HS256 bearer tokens.
//
// Verification is stateless: validity is a function of the signature and the
// embedded timestamps, compared against the caller-supplied instant.
type TokenCodec struct {
	kinds  map[TokenKind]kindSettings
	issuer string
	parser *jwt.Parser
}

// NewTokenCodec validates cfg and returns a ready codec.
func NewTokenCodec(cfg TokenConfig) (*TokenCodec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, errors.New("sec: token secrets must not be empty")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("sec: token lifetimes must be positive")
	}

	return &TokenCodec{
		kinds: map[TokenKind]kindSettings{
			KindAccess:  {secret: cfg.AccessSecret, ttl: cfg.AccessTTL},
			KindRefresh: {secret: cfg.RefreshSecret, ttl: cfg.RefreshTTL},
		},
		issuer: cfg.Issuer,
		// Expiry is checked against the injected clock below, not time.Now.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// TTL returns the configured lifetime for kind.
func (codec *TokenCodec) TTL(kind TokenKind) time.Duration {
	return codec.kinds[kind].ttl
}

// Issue signs a token of the given kind for subjectID.
func (codec *TokenCodec) Issue(subjectID int64, kind TokenKind, version int, now time.Time) (string, time.Time, error) {
	settings, ok := codec.kinds[kind]
	if !ok {
		return "", time.Time{}, fmt.Errorf("sec: unknown token kind %q", kind)
	}

	// JWT NumericDate has second precision; truncate so exp round-trips exactly.
	issuedAt := now.UTC().Truncate(time.Second)
	expiresAt := issuedAt.Add(settings.ttl)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Kind:    kind,
		Version: version,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(settings.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signedToken, expiresAt, nil
}

// Verify checks signature, structure, kind and expiry of tokenString.
//
// The token is verified with the secret of the expected kind. A token of the
// other kind carries a different signature, so on failure it is re-checked against
// the other secret to report [ErrTokenWrongKind] instead of a generic failure.
func (codec *TokenCodec) Verify(tokenString string, kind TokenKind, now time.Time) (*Claims, error) {
	settings, ok := codec.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("sec: unknown token kind %q", kind)
	}

	claims := &Claims{}
	_, err := codec.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return settings.secret, nil
	})
	if err != nil {
		if codec.isOtherKind(tokenString, kind) {
			return nil, ErrTokenWrongKind
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}

	if claims.Kind == "" {
		return nil, fmt.Errorf("%w: missing typ", ErrTokenMalformed)
	}

	if claims.Kind != kind {
		return nil, ErrTokenWrongKind
	}

	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrTokenMalformed)
	}

	if _, err := claims.SubjectID(); err != nil {
		return nil, err
	}

	if !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	return claims, nil
}

// isOtherKind reports whether tokenString is validly signed as a different kind.
func (codec *TokenCodec) isOtherKind(tokenString string, expected TokenKind) bool {
	for kind, settings := range codec.kinds {
		if kind == expected {
			continue
		}
		claims := &Claims{}
		_, err := codec.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			return settings.secret, nil
		})
		if err == nil && claims.Kind == kind {
			return true
		}
	}
	return false
}
