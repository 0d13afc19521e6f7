// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/dublinbikes/internal/platform/clock"
	"github.com/taibuivan/dublinbikes/internal/platform/dberr"
	"github.com/taibuivan/dublinbikes/internal/platform/mailer"
	"github.com/taibuivan/dublinbikes/internal/platform/sec"
	"github.com/taibuivan/dublinbikes/internal/users/auth"
)

var epoch = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// # In-Memory Repository

// memoryRepository is an [auth.AccountRepository] backed by a map.
// It copies accounts in and out so tests cannot alias stored state.
type memoryRepository struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]*auth.Account

	// createHook runs before an insert; a non-nil error aborts it.
	createHook func(account *auth.Account) error
	// replaceCodeHook runs before a conditional code replacement.
	replaceCodeHook func()
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{accounts: make(map[int64]*auth.Account)}
}

func cloneAccount(account *auth.Account) *auth.Account {
	clone := *account
	if account.VerificationCode != nil {
		code := *account.VerificationCode
		clone.VerificationCode = &code
	}
	if account.VerificationCodeExpiresAt != nil {
		expiresAt := *account.VerificationCodeExpiresAt
		clone.VerificationCodeExpiresAt = &expiresAt
	}
	if account.VerificationCodeSentAt != nil {
		sentAt := *account.VerificationCodeSentAt
		clone.VerificationCodeSentAt = &sentAt
	}
	if account.ActivationToken != nil {
		token := *account.ActivationToken
		clone.ActivationToken = &token
	}
	return &clone
}

// find returns the first match in id order, trying each predicate in turn.
func (repository *memoryRepository) find(matches ...func(*auth.Account) bool) (*auth.Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	ids := make([]int64, 0, len(repository.accounts))
	for id := range repository.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, match := range matches {
		for _, id := range ids {
			if account := repository.accounts[id]; match(account) {
				return cloneAccount(account), nil
			}
		}
	}
	return nil, dberr.ErrNotFound
}

func (repository *memoryRepository) FindByID(_ context.Context, id int64) (*auth.Account, error) {
	return repository.find(func(a *auth.Account) bool { return a.ID == id })
}

func (repository *memoryRepository) FindByUsername(_ context.Context, username string) (*auth.Account, error) {
	return repository.find(func(a *auth.Account) bool { return a.Username == username })
}

func (repository *memoryRepository) FindByEmail(_ context.Context, email string) (*auth.Account, error) {
	return repository.find(func(a *auth.Account) bool { return strings.EqualFold(a.Email, email) })
}

// FindByUsernameOrEmail prefers an exact username match, like ORDER BY (username = $1) DESC.
func (repository *memoryRepository) FindByUsernameOrEmail(_ context.Context, identifier string) (*auth.Account, error) {
	return repository.find(
		func(a *auth.Account) bool { return a.Username == identifier },
		func(a *auth.Account) bool { return strings.EqualFold(a.Email, identifier) },
	)
}

func (repository *memoryRepository) FindByActivationToken(_ context.Context, token string) (*auth.Account, error) {
	return repository.find(func(a *auth.Account) bool {
		return a.ActivationToken != nil && *a.ActivationToken == token
	})
}

func (repository *memoryRepository) Create(_ context.Context, account *auth.Account) error {
	if repository.createHook != nil {
		if err := repository.createHook(account); err != nil {
			return err
		}
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.accounts {
		if existing.Username == account.Username || strings.EqualFold(existing.Email, account.Email) {
			return dberr.ErrUniqueViolation
		}
	}

	repository.nextID++
	account.ID = repository.nextID
	account.UpdatedAt = account.CreatedAt
	repository.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (repository *memoryRepository) ReplaceCode(_ context.Context, id int64, code string, expiresAt, sentAt time.Time, previousSentAt *time.Time) (bool, error) {
	if repository.replaceCodeHook != nil {
		repository.replaceCodeHook()
	}

	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[id]
	if !ok || account.IsActive {
		return false, nil
	}
	if !sameInstant(account.VerificationCodeSentAt, previousSentAt) {
		return false, nil
	}

	account.VerificationCode = &code
	account.VerificationCodeExpiresAt = &expiresAt
	account.VerificationCodeSentAt = &sentAt
	return true, nil
}

func (repository *memoryRepository) ActivateWithCode(_ context.Context, id int64, code string) (bool, error) {
	return repository.activate(id, func(a *auth.Account) bool {
		return a.VerificationCode != nil && *a.VerificationCode == code
	}), nil
}

func (repository *memoryRepository) ActivateWithToken(_ context.Context, id int64, token string) (bool, error) {
	return repository.activate(id, func(a *auth.Account) bool {
		return a.ActivationToken != nil && *a.ActivationToken == token
	}), nil
}

func (repository *memoryRepository) activate(id int64, holds func(*auth.Account) bool) bool {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[id]
	if !ok || account.IsActive || !holds(account) {
		return false
	}

	account.IsActive = true
	account.VerificationCode = nil
	account.VerificationCodeExpiresAt = nil
	account.VerificationCodeSentAt = nil
	account.ActivationToken = nil
	return true
}

func (repository *memoryRepository) IncrementTokenVersion(_ context.Context, id int64) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[id]
	if !ok {
		return 0, dberr.ErrNotFound
	}
	account.TokenVersion++
	return account.TokenVersion, nil
}

// mutate edits a stored account in place.
func (repository *memoryRepository) mutate(id int64, edit func(*auth.Account)) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	edit(repository.accounts[id])
}

// snapshot returns a copy of the stored account.
func (repository *memoryRepository) snapshot(t *testing.T, id int64) *auth.Account {
	t.Helper()
	repository.mu.Lock()
	defer repository.mu.Unlock()
	account, ok := repository.accounts[id]
	require.True(t, ok, "account %d not stored", id)
	return cloneAccount(account)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// # Notifier Mock

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Enqueue(message mailer.Message) bool {
	args := m.Called(message)
	return args.Bool(0)
}

// # Fixture

type fixture struct {
	service  *auth.Service
	repo     *memoryRepository
	clock    *clock.Manual
	notifier *mockNotifier
	codec    *sec.TokenCodec
}

const (
	codeTTL        = 300 * time.Second
	resendCooldown = 60 * time.Second
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	codec, err := sec.NewTokenCodec(sec.TokenConfig{
		AccessSecret:  []byte("test-access-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
		Issuer:        "dublinbikes-test",
	})
	require.NoError(t, err)

	repo := newMemoryRepository()
	clk := clock.NewManual(epoch)
	notifier := new(mockNotifier)
	notifier.On("Enqueue", mock.Anything).Return(true).Maybe()

	service := auth.NewService(repo, codec, notifier, clk, auth.Config{
		CodeTTL:         codeTTL,
		ResendCooldown:  resendCooldown,
		FrontendBaseURL: "https://bikes.example.com",
	}, nil)

	return &fixture{service: service, repo: repo, clock: clk, notifier: notifier, codec: codec}
}

// register creates an account through the service and returns it.
func (f *fixture) register(t *testing.T, username, email, password string) *auth.Account {
	t.Helper()
	account, err := f.service.Register(context.Background(), auth.RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(t, err)
	return account
}

// activate registers and activates an account, returning its id.
func (f *fixture) activate(t *testing.T, username, email, password string) int64 {
	t.Helper()
	account := f.register(t, username, email, password)
	stored := f.repo.snapshot(t, account.ID)
	_, err := f.service.ActivateByCode(context.Background(), username, *stored.VerificationCode)
	require.NoError(t, err)
	return account.ID
}
