// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"math/big"
)

// # One-Time Secrets

const (
	// CodeLength is the number of digits in a verification code.
	CodeLength = 6

	// ActivationTokenBytes is the entropy of an activation link token (256 bits).
	ActivationTokenBytes = 32
)

// codeSpace is 10^CodeLength.
var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a uniformly drawn 6-digit numeric string (leading zeros kept).
//
// The 10^6 space is only acceptable because codes are short-lived and their
// issuance is rate-limited.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("sec: failed to generate code: %w", err)
	}
	return fmt.Sprintf("%0*d", CodeLength, n.Int64()), nil
}

// GenerateSecureToken returns byteLength random bytes encoded as unpadded base64url.
func GenerateSecureToken(byteLength int) (string, error) {
	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec: failed to read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// GenerateActivationToken returns an opaque URL-safe capability for activation links.
func GenerateActivationToken() (string, error) {
	return GenerateSecureToken(ActivationTokenBytes)
}

// EqualSecret compares two secrets in constant time.
func EqualSecret(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
