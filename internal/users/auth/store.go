// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # Account Data Access

// AccountRepository defines the data access contract for accounts.
//
// Lookups return [dberr.ErrNotFound] when no row matches. Conditional writes
// report whether the row still matched their precondition; a false result with a
// nil error means another request changed the row first.
type AccountRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - ctx: context.Context
		  - id: int64

		Returns:
		  - *Account: Hydrated entity
		  - error: dberr.ErrNotFound or database failures
	*/
	FindByID(ctx context.Context, id int64) (*Account, error)

	/*
		FindByUsername returns the account whose username matches exactly.
	*/
	FindByUsername(ctx context.Context, username string) (*Account, error)

	/*
		FindByEmail returns the account whose email matches case-insensitively.
	*/
	FindByEmail(ctx context.Context, email string) (*Account, error)

	/*
		FindByUsernameOrEmail resolves a login identifier.

		Description: The username is compared exactly and the email
		case-insensitively. Usernames cannot contain '@', so at most one
		account matches.
	*/
	FindByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error)

	/*
		FindByActivationToken returns the account holding the activation token.
	*/
	FindByActivationToken(ctx context.Context, token string) (*Account, error)

	/*
		Create persists a brand-new account and fills its ID and timestamps.

		Returns:
		  - error: dberr.ErrUniqueViolation when a concurrent insert holds the
		    username or email, or database failures
	*/
	Create(ctx context.Context, account *Account) error

	/*
		ReplaceCode overwrites the outstanding code triple of an inactive account.

		Description: The write only applies while verification_code_sent_at
		still equals previousSentAt (nil matches NULL), so two concurrent
		resends cannot both pass the cooldown.

		Returns:
		  - bool: false when the precondition no longer holds
	*/
	ReplaceCode(ctx context.Context, id int64, code string, expiresAt, sentAt time.Time, previousSentAt *time.Time) (bool, error)

	/*
		ActivateWithCode activates the account and clears every verification
		field, provided it is still inactive and still holds code.
	*/
	ActivateWithCode(ctx context.Context, id int64, code string) (bool, error)

	/*
		ActivateWithToken activates the account and clears every verification
		field, provided it is still inactive and still holds token.
	*/
	ActivateWithToken(ctx context.Context, id int64, token string) (bool, error)

	/*
		IncrementTokenVersion bumps token_version and returns the new value.
	*/
	IncrementTokenVersion(ctx context.Context, id int64) (int, error)
}
