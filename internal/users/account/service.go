// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/dublinbikes/internal/platform/dberr"
	"github.com/taibuivan/dublinbikes/internal/users/auth"
)

// # Contracts

// AccountReader is the read-only slice of [auth.AccountRepository] the
// profile endpoints need.
type AccountReader interface {
	FindByID(ctx context.Context, id int64) (*auth.Account, error)
}

// # Service Layer

// Service serves the authenticated rider's own profile.
type Service struct {
	accounts AccountReader
	logger   *slog.Logger
}

// NewService constructs a new [Service] with its repository dependency.
func NewService(accounts AccountReader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{accounts: accounts, logger: logger.With(slog.String("component", "account"))}
}

/*
GetProfile retrieves the public projection of an active account.

Parameters:
  - ctx: context.Context
  - accountID: int64

Returns:
  - *auth.Profile: profile without credentials or verification secrets
  - error: auth.ErrUserNotFoundOrDisabled or storage failures
*/
func (service *Service) GetProfile(ctx context.Context, accountID int64) (*auth.Profile, error) {
	account, err := service.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, auth.ErrUserNotFoundOrDisabled
		}
		service.logger.ErrorContext(ctx, "account_profile_lookup_failed",
			slog.Int64("account_id", accountID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}

	if !account.IsActive {
		return nil, auth.ErrUserNotFoundOrDisabled
	}

	profile := account.ToProfile()
	return &profile, nil
}
