// Package identity resolves addresses to verified user records for the
// delivery pipeline. It is the boundary to account management: delivery only
// needs to know whether an address belongs to a contactable user and what
// that user's auto-reply configuration is.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
)

// ErrNotFound indicates the address does not belong to any user.
var ErrNotFound = errors.New("identity not found")

// Resolver maps addresses to verified, contactable user records. Lookups
// always read the latest committed state; the resolver never caches across
// pipeline invocations.
type Resolver interface {
	// Resolve returns the user owning the address, or ErrNotFound.
	Resolve(ctx context.Context, address string) (*models.User, error)

	// ResolveAll bulk-resolves a set of addresses to contactable users,
	// keyed by address. Addresses that do not resolve to a contactable
	// user are absent from the result.
	ResolveAll(ctx context.Context, addresses []string) (map[string]*models.User, error)

	// IsContactable reports whether the user can receive mail.
	IsContactable(user *models.User) bool

	// AutoReply returns the current auto-reply configuration for the user
	// owning the address.
	AutoReply(ctx context.Context, address string) (*models.AutoReply, error)
}

// resolver implements Resolver over the user repository.
type resolver struct {
	users repository.UserRepository
}

// NewResolver creates a Resolver backed by the user store.
func NewResolver(users repository.UserRepository) Resolver {
	return &resolver{users: users}
}

// Resolve returns the user owning the address.
func (r *resolver) Resolve(ctx context.Context, address string) (*models.User, error) {
	user, err := r.users.GetByEmail(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to resolve address: %w", err)
	}
	return user, nil
}

// ResolveAll bulk-resolves addresses to contactable users.
func (r *resolver) ResolveAll(ctx context.Context, addresses []string) (map[string]*models.User, error) {
	users, err := r.users.GetVerifiedByEmails(ctx, addresses)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve addresses: %w", err)
	}
	resolved := make(map[string]*models.User, len(users))
	for i := range users {
		resolved[users[i].Email] = &users[i]
	}
	return resolved, nil
}

// IsContactable reports whether the user has a verified address.
func (r *resolver) IsContactable(user *models.User) bool {
	return user != nil && user.Email != "" && user.IsEmailVerified
}

// AutoReply returns the latest committed auto-reply configuration.
func (r *resolver) AutoReply(ctx context.Context, address string) (*models.AutoReply, error) {
	reply, err := r.users.GetAutoReply(ctx, address)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read auto-reply config: %w", err)
	}
	return reply, nil
}
