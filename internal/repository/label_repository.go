package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/mailgo/mailgo-backend/internal/models"
	"gorm.io/gorm"
)

// LabelRepository defines the interface for label data access
type LabelRepository interface {
	Create(ctx context.Context, label *models.Label) error
	GetByID(ctx context.Context, id uint) (*models.Label, error)
	GetByName(ctx context.Context, owner, name string) (*models.Label, error)
	ListByOwner(ctx context.Context, owner string) ([]models.Label, error)
	Rename(ctx context.Context, id uint, newName string) error
	Delete(ctx context.Context, id uint) error
}

// labelRepository implements LabelRepository using GORM
type labelRepository struct {
	db *gorm.DB
}

// NewLabelRepository creates a new LabelRepository instance
func NewLabelRepository(db *gorm.DB) LabelRepository {
	return &labelRepository{db: db}
}

// Create creates a new label
func (r *labelRepository) Create(ctx context.Context, label *models.Label) error {
	result := r.db.WithContext(ctx).Create(label)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("label '%s' already exists for this user: %w", label.Name, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to create label: %w", result.Error)
	}
	return nil
}

// GetByID retrieves a label by its ID
func (r *labelRepository) GetByID(ctx context.Context, id uint) (*models.Label, error) {
	var label models.Label
	result := r.db.WithContext(ctx).First(&label, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get label by ID: %w", result.Error)
	}
	return &label, nil
}

// GetByName retrieves a label by owner and name
func (r *labelRepository) GetByName(ctx context.Context, owner, name string) (*models.Label, error) {
	var label models.Label
	result := r.db.WithContext(ctx).Where("owner = ? AND name = ?", owner, name).First(&label)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get label by name: %w", result.Error)
	}
	return &label, nil
}

// ListByOwner retrieves all labels belonging to the owner
func (r *labelRepository) ListByOwner(ctx context.Context, owner string) ([]models.Label, error) {
	var labels []models.Label
	result := r.db.WithContext(ctx).Where("owner = ?", owner).Order("name ASC").Find(&labels)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list labels: %w", result.Error)
	}
	return labels, nil
}

// Rename changes a label's name
func (r *labelRepository) Rename(ctx context.Context, id uint, newName string) error {
	result := r.db.WithContext(ctx).Model(&models.Label{}).Where("id = ?", id).Update("name", newName)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return fmt.Errorf("label '%s' already exists for this user: %w", newName, ErrDuplicateEntry)
		}
		return fmt.Errorf("failed to rename label: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete deletes a label by its ID
func (r *labelRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Label{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete label: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
