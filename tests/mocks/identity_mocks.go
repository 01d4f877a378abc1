package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mailgo/mailgo-backend/internal/models"
)

// MockResolver implements identity.Resolver
type MockResolver struct {
	mock.Mock
}

// Resolve resolves a single address
func (m *MockResolver) Resolve(ctx context.Context, address string) (*models.User, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// ResolveAll bulk-resolves addresses to contactable users
func (m *MockResolver) ResolveAll(ctx context.Context, addresses []string) (map[string]*models.User, error) {
	args := m.Called(ctx, addresses)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*models.User), args.Error(1)
}

// IsContactable reports whether the user can receive mail
func (m *MockResolver) IsContactable(user *models.User) bool {
	args := m.Called(user)
	return args.Bool(0)
}

// AutoReply returns the auto-reply configuration for an address
func (m *MockResolver) AutoReply(ctx context.Context, address string) (*models.AutoReply, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutoReply), args.Error(1)
}
