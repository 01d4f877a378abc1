package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgo/mailgo-backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetVerifiedByEmails(ctx context.Context, emails []string) ([]models.User, error)
	UpdateSettings(ctx context.Context, id uint, settings models.UserSettings) error
	GetAutoReply(ctx context.Context, email string) (*models.AutoReply, error)
}

// userRepository implements UserRepository using GORM
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	result := r.db.WithContext(ctx).Create(user)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("user with email '%s' already exists: %w", user.Email, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create user: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", result.Error)
	}
	return &user, nil
}

// GetByEmail retrieves a user by email address
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", result.Error)
	}
	return &user, nil
}

// GetVerifiedByEmails retrieves all verified users whose email is in the given
// set. Callers compare the result against the requested set to detect
// unresolvable addresses.
func (r *userRepository) GetVerifiedByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	var users []models.User
	result := r.db.WithContext(ctx).
		Where("email IN ? AND is_email_verified = ?", emails, true).
		Find(&users)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to get users by emails: %w", result.Error)
	}
	return users, nil
}

// UpdateSettings updates the owner-mutable settings of a user
func (r *userRepository) UpdateSettings(ctx context.Context, id uint, settings models.UserSettings) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Updates(map[string]interface{}{
		"auto_reply_enabled":    settings.AutoReplyEnabled,
		"auto_reply_message":    settings.AutoReplyMessage,
		"notifications_enabled": settings.NotificationsEnabled,
		"notification_sound":    settings.NotificationSound,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update settings: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetAutoReply reads the latest committed auto-reply configuration for the
// user owning the given address. Never cached: the delivery pipeline must see
// the current value on every invocation.
func (r *userRepository) GetAutoReply(ctx context.Context, email string) (*models.AutoReply, error) {
	var user models.User
	result := r.db.WithContext(ctx).
		Select("auto_reply_enabled", "auto_reply_message").
		Where("email = ?", email).
		First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get auto-reply config: %w", result.Error)
	}
	return &models.AutoReply{Enabled: user.AutoReplyEnabled, Message: user.AutoReplyMessage}, nil
}
