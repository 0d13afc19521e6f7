// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/dublinbikes/internal/platform/dberr"
)

// # Account Repository

// accountColumns is the projection scanned by [scanAccount].
const accountColumns = `
	id, username, email, password_hash, avatar_url, is_active,
	verification_code, verification_code_expires_at, verification_code_sent_at,
	activation_token, token_version, created_at, updated_at`

// PostgresAccountRepository implements [AccountRepository] using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// scanAccount hydrates an [Account] and normalizes every timestamp to UTC.
func scanAccount(row pgx.Row) (*Account, error) {
	account := &Account{}
	err := row.Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.AvatarURL,
		&account.IsActive,
		&account.VerificationCode,
		&account.VerificationCodeExpiresAt,
		&account.VerificationCodeSentAt,
		&account.ActivationToken,
		&account.TokenVersion,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	account.VerificationCodeExpiresAt = utcPtr(account.VerificationCodeExpiresAt)
	account.VerificationCodeSentAt = utcPtr(account.VerificationCodeSentAt)

	return account, nil
}

func utcPtr(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	normalized := value.UTC()
	return &normalized
}

func (repository *PostgresAccountRepository) findOne(ctx context.Context, action, query string, args ...any) (*Account, error) {
	account, err := scanAccount(repository.pool.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, dberr.Wrap(err, action)
	}
	return account, nil
}

// FindByID retrieves an account by primary key.
func (repository *PostgresAccountRepository) FindByID(ctx context.Context, id int64) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE id = $1`
	return repository.findOne(ctx, "postgres_account_find_by_id", query, id)
}

// FindByUsername retrieves an account by exact username.
func (repository *PostgresAccountRepository) FindByUsername(ctx context.Context, username string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE username = $1`
	return repository.findOne(ctx, "postgres_account_find_by_username", query, username)
}

// FindByEmail retrieves an account by email, ignoring case (served by the lower(email) index).
func (repository *PostgresAccountRepository) FindByEmail(ctx context.Context, email string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE lower(email) = lower($1)`
	return repository.findOne(ctx, "postgres_account_find_by_email", query, email)
}

/*
FindByUsernameOrEmail resolves a login identifier.

Description: An exact username match wins over an email match, although the
username alphabet excludes '@' so both cannot match different rows in practice.
*/
func (repository *PostgresAccountRepository) FindByUsernameOrEmail(ctx context.Context, identifier string) (*Account, error) {
	const query = `
		SELECT ` + accountColumns + `
		FROM users.account
		WHERE username = $1 OR lower(email) = lower($1)
		ORDER BY (username = $1) DESC
		LIMIT 1`
	return repository.findOne(ctx, "postgres_account_find_by_identifier", query, identifier)
}

// FindByActivationToken retrieves the account holding an activation token.
func (repository *PostgresAccountRepository) FindByActivationToken(ctx context.Context, token string) (*Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM users.account WHERE activation_token = $1`
	return repository.findOne(ctx, "postgres_account_find_by_activation_token", query, token)
}

/*
Create persists a new account into the users.account table.

Description: The database assigns the id and timestamps; they are written back
into account. Unique index collisions surface as [dberr.ErrUniqueViolation].
*/
func (repository *PostgresAccountRepository) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO users.account (
			username, email, password_hash, avatar_url, is_active,
			verification_code, verification_code_expires_at, verification_code_sent_at,
			activation_token, token_version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		RETURNING id, created_at, updated_at`

	createdAt := account.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := repository.pool.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.AvatarURL,
		account.IsActive,
		account.VerificationCode,
		account.VerificationCodeExpiresAt,
		account.VerificationCodeSentAt,
		account.ActivationToken,
		account.TokenVersion,
		createdAt,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return dberr.Wrap(err, "postgres_account_create")
	}

	account.CreatedAt = account.CreatedAt.UTC()
	account.UpdatedAt = account.UpdatedAt.UTC()
	return nil
}

// ReplaceCode overwrites the code triple while the previous sent-time still matches.
func (repository *PostgresAccountRepository) ReplaceCode(ctx context.Context, id int64, code string, expiresAt, sentAt time.Time, previousSentAt *time.Time) (bool, error) {
	const query = `
		UPDATE users.account
		SET verification_code = $2,
		    verification_code_expires_at = $3,
		    verification_code_sent_at = $4,
		    updated_at = $4
		WHERE id = $1
		  AND is_active = FALSE
		  AND verification_code_sent_at IS NOT DISTINCT FROM $5`

	tag, err := repository.pool.Exec(ctx, query, id, code, expiresAt, sentAt, previousSentAt)
	if err != nil {
		return false, dberr.Wrap(err, "postgres_account_replace_code")
	}
	return tag.RowsAffected() == 1, nil
}

// ActivateWithCode activates the account while it still holds code.
func (repository *PostgresAccountRepository) ActivateWithCode(ctx context.Context, id int64, code string) (bool, error) {
	const query = `
		UPDATE users.account
		SET is_active = TRUE,
		    verification_code = NULL,
		    verification_code_expires_at = NULL,
		    verification_code_sent_at = NULL,
		    activation_token = NULL,
		    updated_at = now()
		WHERE id = $1 AND is_active = FALSE AND verification_code = $2`

	tag, err := repository.pool.Exec(ctx, query, id, code)
	if err != nil {
		return false, dberr.Wrap(err, "postgres_account_activate_with_code")
	}
	return tag.RowsAffected() == 1, nil
}

// ActivateWithToken activates the account while it still holds token.
func (repository *PostgresAccountRepository) ActivateWithToken(ctx context.Context, id int64, token string) (bool, error) {
	const query = `
		UPDATE users.account
		SET is_active = TRUE,
		    verification_code = NULL,
		    verification_code_expires_at = NULL,
		    verification_code_sent_at = NULL,
		    activation_token = NULL,
		    updated_at = now()
		WHERE id = $1 AND is_active = FALSE AND activation_token = $2`

	tag, err := repository.pool.Exec(ctx, query, id, token)
	if err != nil {
		return false, dberr.Wrap(err, "postgres_account_activate_with_token")
	}
	return tag.RowsAffected() == 1, nil
}

// IncrementTokenVersion bumps token_version atomically and returns the new value.
func (repository *PostgresAccountRepository) IncrementTokenVersion(ctx context.Context, id int64) (int, error) {
	const query = `
		UPDATE users.account
		SET token_version = token_version + 1, updated_at = now()
		WHERE id = $1
		RETURNING token_version`

	var version int
	if err := repository.pool.QueryRow(ctx, query, id).Scan(&version); err != nil {
		return 0, dberr.Wrap(err, "postgres_account_increment_token_version")
	}
	return version, nil
}
