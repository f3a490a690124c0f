package services

import (
	"context"
	"sync/atomic"

	"github.com/BradenHooton/lockbox/internal/models"
	pkgauth "github.com/BradenHooton/lockbox/pkg/auth"
)

// MockAccountRepository implements AccountRepository for testing
type MockAccountRepository struct {
	GetByEmailFunc func(ctx context.Context, email string) (*models.Account, error)
	CreateFunc     func(ctx context.Context, email, passwordHash string) (*models.Account, error)
	ModifyFunc     func(ctx context.Context, email string, fn func(*models.Account) *models.AccountUpdate) (*models.Account, error)
	ListFunc       func(ctx context.Context) ([]*models.Account, error)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Create(ctx context.Context, email, passwordHash string) (*models.Account, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, email, passwordHash)
	}
	return nil, models.ErrInternalServer
}

func (m *MockAccountRepository) Modify(ctx context.Context, email string, fn func(*models.Account) *models.AccountUpdate) (*models.Account, error) {
	if m.ModifyFunc != nil {
		return m.ModifyFunc(ctx, email, fn)
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) List(ctx context.Context) ([]*models.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Account{}, nil
}

// MockLimiter implements RequestLimiter for testing. The zero value admits everything.
type MockLimiter struct {
	CheckFunc func(key string) RateLimitDecision
}

func (m *MockLimiter) Check(key string) RateLimitDecision {
	if m.CheckFunc != nil {
		return m.CheckFunc(key)
	}
	return RateLimitDecision{Allowed: true}
}

// countingHasher wraps a real hasher and counts Compare calls
type countingHasher struct {
	*pkgauth.BcryptHasher
	compares atomic.Int64
}

func (h *countingHasher) Compare(hash, password string) bool {
	h.compares.Add(1)
	return h.BcryptHasher.Compare(hash, password)
}
