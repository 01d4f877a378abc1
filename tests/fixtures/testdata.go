// Package fixtures provides builders for test data.
package fixtures

import (
	"time"

	"github.com/mailgo/mailgo-backend/internal/models"
)

// UserBuilder creates test User instances with fluent API
type UserBuilder struct {
	user models.User
}

// NewUserBuilder creates a new UserBuilder with sensible defaults
func NewUserBuilder() *UserBuilder {
	now := time.Now()
	return &UserBuilder{
		user: models.User{
			ID:                   1,
			Name:                 "Alice Example",
			Email:                "alice@example.com",
			PasswordHash:         "$2a$10$fixturehashfixturehashfixturehashfixtureha",
			IsEmailVerified:      true,
			NotificationsEnabled: true,
			NotificationSound:    true,
			CreatedAt:            now,
		},
	}
}

// WithID sets the user ID
func (b *UserBuilder) WithID(id uint) *UserBuilder {
	b.user.ID = id
	return b
}

// WithEmail sets the email address
func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.user.Email = email
	return b
}

// WithName sets the display name
func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.user.Name = name
	return b
}

// WithVerified sets the email verification flag
func (b *UserBuilder) WithVerified(verified bool) *UserBuilder {
	b.user.IsEmailVerified = verified
	return b
}

// WithAutoReply enables auto-reply with the given message
func (b *UserBuilder) WithAutoReply(message string) *UserBuilder {
	b.user.AutoReplyEnabled = true
	b.user.AutoReplyMessage = message
	return b
}

// Build returns the constructed User
func (b *UserBuilder) Build() *models.User {
	user := b.user
	return &user
}

// MessageBuilder creates test Message instances with fluent API
type MessageBuilder struct {
	message models.Message
}

// NewMessageBuilder creates a new MessageBuilder with sensible defaults
func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		message: models.Message{
			ID:         1,
			Owner:      "alice@example.com",
			Sender:     "bob@example.com",
			Recipients: []string{"alice@example.com"},
			Subject:    "Test Subject",
			Body:       "Test body text",
			Folder:     models.FolderInbox,
			SentAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

// WithID sets the message ID
func (b *MessageBuilder) WithID(id uint) *MessageBuilder {
	b.message.ID = id
	return b
}

// WithOwner sets the owning mailbox address
func (b *MessageBuilder) WithOwner(owner string) *MessageBuilder {
	b.message.Owner = owner
	return b
}

// WithSender sets the sender address
func (b *MessageBuilder) WithSender(sender string) *MessageBuilder {
	b.message.Sender = sender
	return b
}

// WithRecipients sets the recipient set
func (b *MessageBuilder) WithRecipients(recipients ...string) *MessageBuilder {
	b.message.Recipients = recipients
	return b
}

// WithCc sets the cc set
func (b *MessageBuilder) WithCc(cc ...string) *MessageBuilder {
	b.message.Cc = cc
	return b
}

// WithBcc sets the bcc set
func (b *MessageBuilder) WithBcc(bcc ...string) *MessageBuilder {
	b.message.Bcc = bcc
	return b
}

// WithSubject sets the subject
func (b *MessageBuilder) WithSubject(subject string) *MessageBuilder {
	b.message.Subject = subject
	return b
}

// WithBody sets the body
func (b *MessageBuilder) WithBody(body string) *MessageBuilder {
	b.message.Body = body
	return b
}

// WithFolder sets the folder
func (b *MessageBuilder) WithFolder(folder models.Folder) *MessageBuilder {
	b.message.Folder = folder
	return b
}

// WithRead sets the read flag
func (b *MessageBuilder) WithRead(isRead bool) *MessageBuilder {
	b.message.IsRead = isRead
	return b
}

// WithStarred sets the starred flag
func (b *MessageBuilder) WithStarred(isStarred bool) *MessageBuilder {
	b.message.IsStarred = isStarred
	return b
}

// WithLabels sets the label names
func (b *MessageBuilder) WithLabels(labels ...string) *MessageBuilder {
	b.message.Labels = labels
	return b
}

// WithSentAt sets the sent timestamp
func (b *MessageBuilder) WithSentAt(t time.Time) *MessageBuilder {
	b.message.SentAt = t
	return b
}

// Build returns the constructed Message
func (b *MessageBuilder) Build() *models.Message {
	message := b.message
	return &message
}

// LabelBuilder creates test Label instances with fluent API
type LabelBuilder struct {
	label models.Label
}

// NewLabelBuilder creates a new LabelBuilder with sensible defaults
func NewLabelBuilder() *LabelBuilder {
	return &LabelBuilder{
		label: models.Label{
			ID:        1,
			Owner:     "alice@example.com",
			Name:      "work",
			CreatedAt: time.Now(),
		},
	}
}

// WithID sets the label ID
func (b *LabelBuilder) WithID(id uint) *LabelBuilder {
	b.label.ID = id
	return b
}

// WithOwner sets the owner address
func (b *LabelBuilder) WithOwner(owner string) *LabelBuilder {
	b.label.Owner = owner
	return b
}

// WithName sets the label name
func (b *LabelBuilder) WithName(name string) *LabelBuilder {
	b.label.Name = name
	return b
}

// Build returns the constructed Label
func (b *LabelBuilder) Build() *models.Label {
	label := b.label
	return &label
}

// AttachmentBuilder creates test Attachment instances with fluent API
type AttachmentBuilder struct {
	attachment models.Attachment
}

// NewAttachmentBuilder creates a new AttachmentBuilder with sensible defaults
func NewAttachmentBuilder() *AttachmentBuilder {
	return &AttachmentBuilder{
		attachment: models.Attachment{
			ID:          1,
			MessageID:   1,
			Filename:    "report.pdf",
			ContentType: "application/pdf",
			StorageURL:  "/attachments/ab/report.pdf",
			SizeBytes:   1024,
		},
	}
}

// WithID sets the attachment ID
func (b *AttachmentBuilder) WithID(id uint) *AttachmentBuilder {
	b.attachment.ID = id
	return b
}

// WithMessageID sets the parent message ID
func (b *AttachmentBuilder) WithMessageID(id uint) *AttachmentBuilder {
	b.attachment.MessageID = id
	return b
}

// WithFilename sets the filename
func (b *AttachmentBuilder) WithFilename(filename string) *AttachmentBuilder {
	b.attachment.Filename = filename
	return b
}

// WithStorageURL sets the storage URL
func (b *AttachmentBuilder) WithStorageURL(url string) *AttachmentBuilder {
	b.attachment.StorageURL = url
	return b
}

// Build returns the constructed Attachment
func (b *AttachmentBuilder) Build() *models.Attachment {
	attachment := b.attachment
	return &attachment
}
