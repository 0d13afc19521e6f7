// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/taibuivan/dublinbikes/internal/platform/apperr"
	"github.com/taibuivan/dublinbikes/internal/platform/clock"
	"github.com/taibuivan/dublinbikes/internal/platform/dberr"
	"github.com/taibuivan/dublinbikes/internal/platform/mailer"
	"github.com/taibuivan/dublinbikes/internal/platform/metrics"
	"github.com/taibuivan/dublinbikes/internal/platform/sec"
	"github.com/taibuivan/dublinbikes/pkg/pointer"
)

// # Contracts & Types

// Notifier accepts outbound mail without waiting for delivery.
//
// Enqueue reports false when the message was dropped; the caller never fails
// because of it.
type Notifier interface {
	Enqueue(message mailer.Message) bool
}

// Config holds the verification policy of the [Service].
type Config struct {
	// CodeTTL is how long a verification code (and the activation link) stays valid.
	CodeTTL time.Duration
	// ResendCooldown is the minimum gap between two codes for one account.
	ResendCooldown time.Duration
	// FrontendBaseURL prefixes activation links.
	FrontendBaseURL string
}

// Service is the account lifecycle manager.
//
// # Concurrency
//
// Service holds no mutable state. Per-account atomicity comes from the
// conditional writes of [AccountRepository] and the store's unique indexes.
type Service struct {
	accounts AccountRepository
	tokens   *sec.TokenCodec
	notifier Notifier
	clock    clock.Clock
	config   Config
	logger   *slog.Logger
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(
	accounts AccountRepository,
	tokens *sec.TokenCodec,
	notifier Notifier,
	clk clock.Clock,
	config Config,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		accounts: accounts,
		tokens:   tokens,
		notifier: notifier,
		clock:    clk,
		config:   config,
		logger:   logger.With(slog.String("component", "auth")),
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new rider.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	AvatarURL *string
}

/*
Register creates an unverified account and schedules its verification mail.

Description: Pre-checks username then email uniqueness, hashes the password,
generates the first code and the activation token, and persists the row. A
unique-index collision at insert time (a concurrent registration) surfaces as
[ErrConflict], distinct from the pre-check failures.

Returns:
  - *Account: Created entity
  - error: ErrUsernameExists, ErrEmailExists, ErrConflict or storage errors
*/
func (service *Service) Register(ctx context.Context, input RegisterInput) (account *Account, err error) {
	defer func() { service.observe(OpRegister, err) }()

	username := strings.TrimSpace(input.Username)
	email := NormalizeEmail(input.Email)

	// Check username first so the reported conflict is deterministic.
	if _, err := service.accounts.FindByUsername(ctx, username); err == nil {
		return nil, ErrUsernameExists
	} else if !errors.Is(err, dberr.ErrNotFound) {
		return nil, err
	}

	if _, err := service.accounts.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, dberr.ErrNotFound) {
		return nil, err
	}

	passwordHash, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	code, err := sec.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("auth_service_code_failed: %w", err)
	}

	activationToken, err := sec.GenerateActivationToken()
	if err != nil {
		return nil, fmt.Errorf("auth_service_activation_token_failed: %w", err)
	}

	now := service.clock.Now()

	account = &Account{
		Username:                  username,
		Email:                     email,
		PasswordHash:              passwordHash,
		AvatarURL:                 pointer.NonEmpty(input.AvatarURL),
		IsActive:                  false,
		VerificationCode:          pointer.To(code),
		VerificationCodeExpiresAt: pointer.To(now.Add(service.config.CodeTTL)),
		VerificationCodeSentAt:    pointer.To(now),
		ActivationToken:           pointer.To(activationToken),
		CreatedAt:                 now,
	}

	if err := service.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, dberr.ErrUniqueViolation) {
			return nil, ErrConflict.WithCause(err)
		}
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_registered",
		slog.Int64("account_id", account.ID),
		slog.String("username", account.Username),
	)

	service.sendVerification(ctx, account, code)

	return account, nil
}

// # Verification Flow

// CodeDispatch describes a freshly issued verification code.
type CodeDispatch struct {
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int       `json:"expires_in"`
	ResendAfter int       `json:"resend_after"`
}

/*
RequestCode issues a new verification code, replacing the outstanding one.

Description: Enforces the resend cooldown per account. The activation token is
kept, so a link from an earlier mail stays usable until the new code expires.

Returns:
  - *CodeDispatch: expiry information for the client
  - error: ErrAccountNotFound, ErrAlreadyActive, apperr.RateLimited or storage errors
*/
func (service *Service) RequestCode(ctx context.Context, identifier string) (dispatch *CodeDispatch, err error) {
	defer func() { service.observe(OpRequestCode, err) }()

	account, err := service.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if account.IsActive {
		return nil, ErrAlreadyActive
	}

	now := service.clock.Now()
	if account.VerificationCodeSentAt != nil {
		elapsed := now.Sub(*account.VerificationCodeSentAt)
		if elapsed < service.config.ResendCooldown {
			return nil, apperr.RateLimited(remainingSeconds(service.config.ResendCooldown - elapsed))
		}
	}

	code, err := sec.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("auth_service_code_failed: %w", err)
	}
	expiresAt := now.Add(service.config.CodeTTL)

	replaced, err := service.accounts.ReplaceCode(ctx, account.ID, code, expiresAt, now, account.VerificationCodeSentAt)
	if err != nil {
		return nil, fmt.Errorf("auth_service_replace_code_failed: %w", err)
	}
	if !replaced {
		// Another resend won the race and restarted the cooldown.
		return nil, apperr.RateLimited(remainingSeconds(service.config.ResendCooldown))
	}

	account.VerificationCode = pointer.To(code)
	account.VerificationCodeExpiresAt = pointer.To(expiresAt)
	account.VerificationCodeSentAt = pointer.To(now)

	service.sendVerification(ctx, account, code)

	return &CodeDispatch{
		ExpiresAt:   expiresAt,
		ExpiresIn:   remainingSeconds(service.config.CodeTTL),
		ResendAfter: remainingSeconds(service.config.ResendCooldown),
	}, nil
}

/*
ActivateByCode activates an account with its outstanding verification code.

Description: Checks, in order, that the account exists, is not active, has a
pending code, that the code has not expired, and that it matches.

Returns:
  - *Account: the activated account
  - error: ErrAccountNotFound, ErrAlreadyActive, ErrNoPendingCode, ErrCodeExpired, ErrInvalidCode
*/
func (service *Service) ActivateByCode(ctx context.Context, identifier, code string) (account *Account, err error) {
	defer func() { service.observe(OpActivateByCode, err) }()

	account, err = service.findByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if account.IsActive {
		return nil, ErrAlreadyActive
	}

	if !account.HasPendingCode() {
		return nil, ErrNoPendingCode
	}

	now := service.clock.Now()
	if isExpired(account.VerificationCodeExpiresAt, now) {
		return nil, ErrCodeExpired
	}

	stored := *account.VerificationCode
	if !sec.EqualSecret(strings.TrimSpace(code), stored) {
		return nil, ErrInvalidCode
	}

	activated, err := service.accounts.ActivateWithCode(ctx, account.ID, stored)
	if err != nil {
		return nil, fmt.Errorf("auth_service_activate_failed: %w", err)
	}
	if !activated {
		return nil, service.lostActivationRace(ctx, account.ID, ErrInvalidCode)
	}

	service.markActive(account)
	service.logger.InfoContext(ctx, "account_activated",
		slog.Int64("account_id", account.ID),
		slog.String("method", "code"),
	)

	return account, nil
}

/*
ActivateByToken activates an account through its single-use activation link.

Description: The link shares the code's expiry; resending a code extends it.

Returns:
  - *Account: the activated account
  - error: ErrInvalidOrExpiredLink, ErrAlreadyActive, ErrLinkExpired
*/
func (service *Service) ActivateByToken(ctx context.Context, token string) (account *Account, err error) {
	defer func() { service.observe(OpActivateByToken, err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidOrExpiredLink
	}

	account, err = service.accounts.FindByActivationToken(ctx, token)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, ErrInvalidOrExpiredLink
		}
		return nil, err
	}

	if account.IsActive {
		return nil, ErrAlreadyActive
	}

	now := service.clock.Now()
	if isExpired(account.VerificationCodeExpiresAt, now) {
		return nil, ErrLinkExpired
	}

	activated, err := service.accounts.ActivateWithToken(ctx, account.ID, token)
	if err != nil {
		return nil, fmt.Errorf("auth_service_activate_failed: %w", err)
	}
	if !activated {
		return nil, ErrInvalidOrExpiredLink
	}

	service.markActive(account)
	service.logger.InfoContext(ctx, "account_activated",
		slog.Int64("account_id", account.ID),
		slog.String("method", "link"),
	)

	return account, nil
}

// # Authentication Flow

/*
Login verifies credentials and issues an access and refresh token pair.

Description: Unknown identifiers and wrong passwords fail with the same
[ErrInvalidCredentials] and spend the same bcrypt work. The activation state is
only revealed after the password matched.
*/
func (service *Service) Login(ctx context.Context, identifier, password string) (pair *TokenPair, err error) {
	defer func() { service.observe(OpLogin, err) }()

	account, err := service.accounts.FindByUsernameOrEmail(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			sec.BurnPasswordCheck(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !sec.CheckPasswordHash(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	return service.issuePair(account)
}

/*
Refresh exchanges a refresh token for a new token pair.

Description: The presented refresh token is not consumed; it stays valid until
it expires or the account logs out.
*/
func (service *Service) Refresh(ctx context.Context, refreshToken string) (pair *TokenPair, err error) {
	defer func() { service.observe(OpRefresh, err) }()

	claims, err := service.tokens.Verify(strings.TrimSpace(refreshToken), sec.KindRefresh, service.clock.Now())
	if err != nil {
		return nil, tokenError(err)
	}

	account, err := service.activeSubject(ctx, claims)
	if err != nil {
		return nil, err
	}

	return service.issuePair(account)
}

/*
Logout revokes every token issued to the account so far.

Description: Verifies the access token like any protected call, then bumps
token_version. Tokens carrying the old version fail with [ErrTokenRevoked].
*/
func (service *Service) Logout(ctx context.Context, accessToken string) (err error) {
	defer func() { service.observe(OpLogout, err) }()

	claims, err := service.Authenticate(ctx, accessToken)
	if err != nil {
		return err
	}

	accountID, err := claims.SubjectID()
	if err != nil {
		return ErrTokenMalformed.WithCause(err)
	}

	version, err := service.accounts.IncrementTokenVersion(ctx, accountID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return ErrUserNotFoundOrDisabled
		}
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.logger.InfoContext(ctx, "account_logged_out",
		slog.Int64("account_id", accountID),
		slog.Int("token_version", version),
	)

	return nil
}

/*
Authenticate verifies an access token for a protected request.

Returns:
  - *sec.Claims: verified claims of an active, non-revoked subject
  - error: token failures, ErrUserNotFoundOrDisabled or ErrTokenRevoked
*/
func (service *Service) Authenticate(ctx context.Context, accessToken string) (*sec.Claims, error) {
	claims, err := service.tokens.Verify(accessToken, sec.KindAccess, service.clock.Now())
	if err != nil {
		return nil, tokenError(err)
	}

	if _, err := service.activeSubject(ctx, claims); err != nil {
		return nil, err
	}

	return claims, nil
}

// # Helpers

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(email))
}

func (service *Service) findByIdentifier(ctx context.Context, identifier string) (*Account, error) {
	account, err := service.accounts.FindByUsernameOrEmail(ctx, strings.TrimSpace(identifier))
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// activeSubject resolves the token subject to an active account holding the same token version.
func (service *Service) activeSubject(ctx context.Context, claims *sec.Claims) (*Account, error) {
	accountID, err := claims.SubjectID()
	if err != nil {
		return nil, ErrTokenMalformed.WithCause(err)
	}

	account, err := service.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, ErrUserNotFoundOrDisabled
		}
		return nil, err
	}

	if !account.IsActive {
		return nil, ErrUserNotFoundOrDisabled
	}

	if claims.Version != account.TokenVersion {
		return nil, ErrTokenRevoked
	}

	return account, nil
}

func (service *Service) issuePair(account *Account) (*TokenPair, error) {
	now := service.clock.Now()

	accessToken, _, err := service.tokens.Issue(account.ID, sec.KindAccess, account.TokenVersion, now)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	refreshToken, _, err := service.tokens.Issue(account.ID, sec.KindRefresh, account.TokenVersion, now)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    int(service.tokens.TTL(sec.KindAccess).Seconds()),
	}, nil
}

// lostActivationRace classifies a conditional activation that matched no row.
func (service *Service) lostActivationRace(ctx context.Context, accountID int64, fallback *apperr.AppError) error {
	current, err := service.accounts.FindByID(ctx, accountID)
	if err == nil && current.IsActive {
		return ErrAlreadyActive
	}
	return fallback
}

func (service *Service) markActive(account *Account) {
	account.IsActive = true
	account.VerificationCode = nil
	account.VerificationCodeExpiresAt = nil
	account.VerificationCodeSentAt = nil
	account.ActivationToken = nil
}

// sendVerification renders and enqueues the verification mail. It never fails the caller.
func (service *Service) sendVerification(ctx context.Context, account *Account, code string) {
	link := ""
	if account.ActivationToken != nil {
		link = ActivationLink(service.config.FrontendBaseURL, *account.ActivationToken)
	}

	expiresMinutes := int(math.Ceil(service.config.CodeTTL.Minutes()))
	message, err := renderVerificationMail(account.Email, code, expiresMinutes, link)
	if err != nil {
		service.logger.ErrorContext(ctx, "verification_mail_render_failed",
			slog.Int64("account_id", account.ID),
			slog.Any("error", err),
		)
		return
	}

	if !service.notifier.Enqueue(message) {
		service.logger.WarnContext(ctx, "verification_mail_dropped",
			slog.Int64("account_id", account.ID),
		)
	}
}

func (service *Service) observe(operation string, err error) {
	code := apperr.CodeOK
	if err != nil {
		code = apperr.CodeInternal
		if appErr := apperr.As(err); appErr != nil {
			code = appErr.Code
		}
	}
	metrics.ObserveAuth(operation, code)
}

// tokenError maps codec failures to client errors, keeping the cause for logs.
func tokenError(err error) error {
	switch {
	case errors.Is(err, sec.ErrTokenExpired):
		return ErrTokenExpired.WithCause(err)
	case errors.Is(err, sec.ErrTokenWrongKind):
		return ErrTokenWrongKind.WithCause(err)
	default:
		return ErrTokenMalformed.WithCause(err)
	}
}

// isExpired reports whether now is past expiresAt. A missing expiry counts as expired.
func isExpired(expiresAt *time.Time, now time.Time) bool {
	return expiresAt == nil || now.After(*expiresAt)
}

// remainingSeconds rounds a wait up to whole seconds, never below one.
func remainingSeconds(wait time.Duration) int {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}
