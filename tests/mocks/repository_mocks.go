// Package mocks provides testify mocks for the repository and delivery
// interfaces used across handler and pipeline tests.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mailgo/mailgo-backend/internal/models"
	"github.com/mailgo/mailgo-backend/internal/repository"
)

// MockMessageRepository implements repository.MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Create creates a new message copy
func (m *MockMessageRepository) Create(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// CreateWithAttachments creates a message copy with attachments
func (m *MockMessageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	args := m.Called(ctx, message, attachments)
	return args.Error(0)
}

// GetByID retrieves a message copy by ID
func (m *MockMessageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// GetOwned retrieves an owned message copy
func (m *MockMessageRepository) GetOwned(ctx context.Context, owner string, id uint) (*models.Message, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// GetOwnedAttachment retrieves an owned attachment row
func (m *MockMessageRepository) GetOwnedAttachment(ctx context.Context, owner string, id uint) (*models.Attachment, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

// ListFolder lists a folder view
func (m *MockMessageRepository) ListFolder(ctx context.Context, owner, folder, label string, limit, offset int) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, owner, folder, label, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// Search runs a filtered search
func (m *MockMessageRepository) Search(ctx context.Context, owner string, q repository.SearchQuery) ([]models.MessageListItem, int64, error) {
	args := m.Called(ctx, owner, q)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.MessageListItem), args.Get(1).(int64), args.Error(2)
}

// SetRead sets the read flag
func (m *MockMessageRepository) SetRead(ctx context.Context, owner string, id uint, isRead bool) error {
	args := m.Called(ctx, owner, id, isRead)
	return args.Error(0)
}

// SetStarred sets the starred flag
func (m *MockMessageRepository) SetStarred(ctx context.Context, owner string, id uint, isStarred bool) error {
	args := m.Called(ctx, owner, id, isStarred)
	return args.Error(0)
}

// MoveToFolder moves a copy between folders
func (m *MockMessageRepository) MoveToFolder(ctx context.Context, owner string, id uint, folder models.Folder) error {
	args := m.Called(ctx, owner, id, folder)
	return args.Error(0)
}

// SetLabels replaces a copy's label set
func (m *MockMessageRepository) SetLabels(ctx context.Context, owner string, id uint, labels []string) error {
	args := m.Called(ctx, owner, id, labels)
	return args.Error(0)
}

// UpdateDraft updates a draft copy
func (m *MockMessageRepository) UpdateDraft(ctx context.Context, message *models.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// RenameLabelAll cascades a label rename over an owner's copies
func (m *MockMessageRepository) RenameLabelAll(ctx context.Context, owner, oldName, newName string) (int64, error) {
	args := m.Called(ctx, owner, oldName, newName)
	return args.Get(0).(int64), args.Error(1)
}

// RemoveLabelAll cascades a label delete over an owner's copies
func (m *MockMessageRepository) RemoveLabelAll(ctx context.Context, owner, name string) (int64, error) {
	args := m.Called(ctx, owner, name)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create creates a user
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID retrieves a user by ID
func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetVerifiedByEmails bulk-retrieves verified users
func (m *MockUserRepository) GetVerifiedByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	args := m.Called(ctx, emails)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.User), args.Error(1)
}

// UpdateSettings updates a user's settings
func (m *MockUserRepository) UpdateSettings(ctx context.Context, id uint, settings models.UserSettings) error {
	args := m.Called(ctx, id, settings)
	return args.Error(0)
}

// GetAutoReply retrieves a user's auto-reply configuration
func (m *MockUserRepository) GetAutoReply(ctx context.Context, email string) (*models.AutoReply, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AutoReply), args.Error(1)
}

// MockLabelRepository implements repository.LabelRepository
type MockLabelRepository struct {
	mock.Mock
}

// Create creates a label
func (m *MockLabelRepository) Create(ctx context.Context, label *models.Label) error {
	args := m.Called(ctx, label)
	return args.Error(0)
}

// GetByID retrieves a label by ID
func (m *MockLabelRepository) GetByID(ctx context.Context, id uint) (*models.Label, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Label), args.Error(1)
}

// GetByName retrieves a label by owner and name
func (m *MockLabelRepository) GetByName(ctx context.Context, owner, name string) (*models.Label, error) {
	args := m.Called(ctx, owner, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Label), args.Error(1)
}

// ListByOwner lists an owner's labels
func (m *MockLabelRepository) ListByOwner(ctx context.Context, owner string) ([]models.Label, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Label), args.Error(1)
}

// Rename renames a label
func (m *MockLabelRepository) Rename(ctx context.Context, id uint, newName string) error {
	args := m.Called(ctx, id, newName)
	return args.Error(0)
}

// Delete deletes a label
func (m *MockLabelRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
