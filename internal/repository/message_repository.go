package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mailgo/mailgo-backend/internal/models"
	"gorm.io/gorm"
)

// MaxPageSize caps list/search page sizes regardless of the requested limit.
const MaxPageSize = 100

// SearchQuery holds the optional filters of the search surface. All filters
// are combined with AND; the owner scope is always applied.
type SearchQuery struct {
	Keyword       string
	From          string
	To            string
	HasAttachment *bool
	Start         *time.Time
	End           *time.Time
	Label         string
	Limit         int
	Offset        int
}

// MessageRepository defines the interface for message data access
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Message, error)
	GetOwned(ctx context.Context, owner string, id uint) (*models.Message, error)
	GetOwnedAttachment(ctx context.Context, owner string, id uint) (*models.Attachment, error)
	ListFolder(ctx context.Context, owner, folder, label string, limit, offset int) ([]models.MessageListItem, int64, error)
	Search(ctx context.Context, owner string, q SearchQuery) ([]models.MessageListItem, int64, error)
	SetRead(ctx context.Context, owner string, id uint, isRead bool) error
	SetStarred(ctx context.Context, owner string, id uint, isStarred bool) error
	MoveToFolder(ctx context.Context, owner string, id uint, folder models.Folder) error
	SetLabels(ctx context.Context, owner string, id uint, labels []string) error
	UpdateDraft(ctx context.Context, message *models.Message) error
	RenameLabelAll(ctx context.Context, owner, oldName, newName string) (int64, error)
	RemoveLabelAll(ctx context.Context, owner, name string) (int64, error)
}

// messageRepository implements MessageRepository using GORM
type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new MessageRepository instance
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create creates a new message copy
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	result := r.db.WithContext(ctx).Create(message)
	if result.Error != nil {
		return fmt.Errorf("failed to create message: %w", result.Error)
	}
	return nil
}

// CreateWithAttachments creates a message copy with its attachment rows in a
// transaction. Attachment rows reference existing storage URLs; no file
// content moves here.
func (r *messageRepository) CreateWithAttachments(ctx context.Context, message *models.Message, attachments []models.Attachment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}
		for i := range attachments {
			attachments[i].ID = 0
			attachments[i].MessageID = message.ID
			if err := tx.Create(&attachments[i]).Error; err != nil {
				return fmt.Errorf("failed to create attachment: %w", err)
			}
		}
		return nil
	})
}

// GetByID retrieves a message copy by its ID with preloaded attachments
func (r *messageRepository) GetByID(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Preload("Attachments").First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// GetOwned retrieves a message copy only when it belongs to owner
func (r *messageRepository) GetOwned(ctx context.Context, owner string, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).Preload("Attachments").
		Where("id = ? AND owner = ?", id, owner).First(&message)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", result.Error)
	}
	return &message, nil
}

// GetOwnedAttachment retrieves an attachment row only when its parent
// message copy belongs to owner
func (r *messageRepository) GetOwnedAttachment(ctx context.Context, owner string, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	result := r.db.WithContext(ctx).
		Joins("JOIN messages ON messages.id = attachments.message_id").
		Where("attachments.id = ? AND messages.owner = ?", id, owner).
		First(&attachment)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", result.Error)
	}
	return &attachment, nil
}

// folderScope applies the folder filter for a list query. The inbox view is a
// unified inbox: it includes system-assigned spam. "starred" is accepted as a
// derived filter over is_starred rather than a real folder.
func folderScope(q *gorm.DB, folder string) *gorm.DB {
	switch folder {
	case "inbox":
		return q.Where("folder IN ?", []string{string(models.FolderInbox), string(models.FolderSpam)})
	case "starred":
		return q.Where("is_starred = ? AND folder <> ?", true, string(models.FolderTrash))
	default:
		return q.Where("folder = ?", folder)
	}
}

// labelScope matches rows whose JSON label array contains the name.
func labelScope(q *gorm.DB, label string) *gorm.DB {
	return q.Where("labels LIKE ?", `%"`+label+`"%`)
}

// clampPage bounds limit/offset.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

const listColumns = `messages.id, messages.owner, messages.sender, messages.subject,
	messages.folder, messages.is_read, messages.is_starred, messages.sent_at,
	(SELECT COUNT(*) FROM attachments a WHERE a.message_id = messages.id) AS attachment_count`

// ListFolder retrieves one page of the owner's view of a folder, newest
// first, optionally restricted to a label.
func (r *messageRepository) ListFolder(ctx context.Context, owner, folder, label string, limit, offset int) ([]models.MessageListItem, int64, error) {
	limit, offset = clampPage(limit, offset)

	base := r.db.WithContext(ctx).Model(&models.Message{}).Where("owner = ?", owner)
	base = folderScope(base, folder)
	if label != "" {
		base = labelScope(base, label)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	var results []models.MessageListItem
	err := base.Session(&gorm.Session{}).
		Select(listColumns).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return results, total, nil
}

// Search retrieves one page of the owner's messages matching the query,
// newest first.
func (r *messageRepository) Search(ctx context.Context, owner string, q SearchQuery) ([]models.MessageListItem, int64, error) {
	limit, offset := clampPage(q.Limit, q.Offset)

	base := r.db.WithContext(ctx).Model(&models.Message{}).Where("owner = ?", owner)

	if q.Keyword != "" {
		pattern := "%" + q.Keyword + "%"
		base = base.Where("LOWER(subject) LIKE LOWER(?) OR LOWER(body) LIKE LOWER(?)", pattern, pattern)
	}
	if q.From != "" {
		base = base.Where("sender = ?", q.From)
	}
	if q.To != "" {
		base = base.Where("recipients LIKE ?", `%"`+q.To+`"%`)
	}
	if q.HasAttachment != nil {
		exists := "EXISTS (SELECT 1 FROM attachments a WHERE a.message_id = messages.id)"
		if *q.HasAttachment {
			base = base.Where(exists)
		} else {
			base = base.Where("NOT " + exists)
		}
	}
	if q.Start != nil {
		base = base.Where("sent_at >= ?", *q.Start)
	}
	if q.End != nil {
		base = base.Where("sent_at <= ?", *q.End)
	}
	if q.Label != "" {
		base = labelScope(base, q.Label)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count search results: %w", err)
	}

	var results []models.MessageListItem
	err := base.Session(&gorm.Session{}).
		Select(listColumns).
		Order("sent_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&results).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search messages: %w", err)
	}
	return results, total, nil
}

// updateOwned runs a single-column update scoped to (owner, id). Re-applying
// the same value is a no-op success: the row still matches, so RowsAffected
// stays non-zero.
func (r *messageRepository) updateOwned(ctx context.Context, owner string, id uint, column string, value interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND owner = ?", id, owner).
		Update(column, value)
	if result.Error != nil {
		return fmt.Errorf("failed to update message %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRead sets the read flag on the owner's copy
func (r *messageRepository) SetRead(ctx context.Context, owner string, id uint, isRead bool) error {
	return r.updateOwned(ctx, owner, id, "is_read", isRead)
}

// SetStarred sets the starred flag on the owner's copy
func (r *messageRepository) SetStarred(ctx context.Context, owner string, id uint, isStarred bool) error {
	return r.updateOwned(ctx, owner, id, "is_starred", isStarred)
}

// MoveToFolder moves the owner's copy to the given folder. Transition rules
// are enforced by the caller; this only checks the folder name.
func (r *messageRepository) MoveToFolder(ctx context.Context, owner string, id uint, folder models.Folder) error {
	if !models.ValidFolder(string(folder)) {
		return ErrInvalidInput
	}
	return r.updateOwned(ctx, owner, id, "folder", string(folder))
}

// jsonList encodes a string slice the way the json serializer stores it.
// Column-level Update/Updates bypass gorm's field serializer, so writes to
// the serialized list columns must marshal explicitly.
func jsonList(values []string) (string, error) {
	if values == nil {
		values = []string{}
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "", fmt.Errorf("failed to encode list column: %w", err)
	}
	return string(b), nil
}

// SetLabels replaces the label set on the owner's copy
func (r *messageRepository) SetLabels(ctx context.Context, owner string, id uint, labels []string) error {
	encoded, err := jsonList(labels)
	if err != nil {
		return err
	}
	return r.updateOwned(ctx, owner, id, "labels", encoded)
}

// UpdateDraft persists the mutable fields of a draft copy and refreshes
// draft_saved_at.
func (r *messageRepository) UpdateDraft(ctx context.Context, message *models.Message) error {
	now := time.Now()
	message.DraftSavedAt = &now
	recipients, err := jsonList(message.Recipients)
	if err != nil {
		return err
	}
	cc, err := jsonList(message.Cc)
	if err != nil {
		return err
	}
	bcc, err := jsonList(message.Bcc)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&models.Message{}).
		Where("id = ? AND owner = ? AND folder = ?", message.ID, message.Owner, string(models.FolderDraft)).
		Updates(map[string]interface{}{
			"recipients":     recipients,
			"cc":             cc,
			"bcc":            bcc,
			"subject":        message.Subject,
			"body":           message.Body,
			"draft_saved_at": message.DraftSavedAt,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update draft: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RenameLabelAll replaces oldName with newName on every message copy owned by
// owner that carries it. Labels live as JSON arrays inside message rows, so
// the cascade rewrites each matching row. Returns the number of rows changed.
func (r *messageRepository) RenameLabelAll(ctx context.Context, owner, oldName, newName string) (int64, error) {
	return r.rewriteLabels(ctx, owner, oldName, func(labels []string) []string {
		out := make([]string, 0, len(labels))
		for _, l := range labels {
			if l == oldName {
				l = newName
			}
			out = append(out, l)
		}
		return out
	})
}

// RemoveLabelAll pulls name from every message copy owned by owner.
func (r *messageRepository) RemoveLabelAll(ctx context.Context, owner, name string) (int64, error) {
	return r.rewriteLabels(ctx, owner, name, func(labels []string) []string {
		out := make([]string, 0, len(labels))
		for _, l := range labels {
			if l != name {
				out = append(out, l)
			}
		}
		return out
	})
}

func (r *messageRepository) rewriteLabels(ctx context.Context, owner, name string, rewrite func([]string) []string) (int64, error) {
	var changed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []models.Message
		if err := labelScope(tx.Where("owner = ?", owner), name).Find(&rows).Error; err != nil {
			return fmt.Errorf("failed to find labeled messages: %w", err)
		}
		for i := range rows {
			if !rows[i].HasLabel(name) {
				// LIKE matched a substring of another label name.
				continue
			}
			encoded, err := jsonList(rewrite(rows[i].Labels))
			if err != nil {
				return err
			}
			if err := tx.Model(&models.Message{}).Where("id = ?", rows[i].ID).
				Update("labels", encoded).Error; err != nil {
				return fmt.Errorf("failed to rewrite labels: %w", err)
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
