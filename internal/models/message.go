package models

import (
	"time"
)

// Folder names a mailbox folder. Starred is a filter over is_starred, not a folder.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderDraft   Folder = "draft"
	FolderTrash   Folder = "trash"
	FolderArchive Folder = "archive"
	FolderSpam    Folder = "spam"
)

// ValidFolder reports whether name is a known folder.
func ValidFolder(name string) bool {
	switch Folder(name) {
	case FolderInbox, FolderSent, FolderDraft, FolderTrash, FolderArchive, FolderSpam:
		return true
	}
	return false
}

// Message is one mailbox copy: one persisted row per owner view of a logical
// piece of mail. The sender's sent copy and each recipient's inbox copy are
// separate rows. Mutating one copy (read/star/folder/labels) never affects
// any other copy.
type Message struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	Owner  string `gorm:"not null;size:255;index:idx_messages_owner_folder" json:"owner"`
	Sender string `gorm:"not null;size:255;index" json:"sender"`

	// Full participant sets as recorded for display. Recipient and cc copies
	// are persisted with an empty Bcc slice so bcc addresses are never
	// inferable from another participant's row.
	Recipients []string `gorm:"serializer:json" json:"recipients"`
	Cc         []string `gorm:"serializer:json" json:"cc,omitempty"`
	Bcc        []string `gorm:"serializer:json" json:"bcc,omitempty"`

	Subject string `gorm:"size:998" json:"subject"`
	Body    string `json:"body"`

	Folder    Folder `gorm:"not null;size:16;default:inbox;index:idx_messages_owner_folder" json:"folder"`
	IsRead    bool   `gorm:"default:false" json:"is_read"`
	IsStarred bool   `gorm:"default:false" json:"is_starred"`

	// Label names owned by Owner.
	Labels []string `gorm:"serializer:json" json:"labels,omitempty"`

	SentAt       time.Time  `gorm:"not null;index" json:"sent_at"`
	DraftSavedAt *time.Time `json:"draft_saved_at,omitempty"`

	// References to other message rows, set once at creation.
	InReplyTo     *uint `json:"in_reply_to,omitempty"`
	ForwardedFrom *uint `json:"forwarded_from,omitempty"`

	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageListItem is a lightweight version for list views
type MessageListItem struct {
	ID              uint      `json:"id"`
	Owner           string    `json:"owner"`
	Sender          string    `json:"sender"`
	Subject         string    `json:"subject"`
	Folder          Folder    `json:"folder"`
	IsRead          bool      `json:"is_read"`
	IsStarred       bool      `json:"is_starred"`
	SentAt          time.Time `json:"sent_at"`
	AttachmentCount int       `json:"attachment_count"`
}

// HasParticipant reports whether address is the sender or appears in the
// recipient, cc or bcc set of this copy.
func (m *Message) HasParticipant(address string) bool {
	if m.Sender == address {
		return true
	}
	for _, set := range [][]string{m.Recipients, m.Cc, m.Bcc} {
		for _, a := range set {
			if a == address {
				return true
			}
		}
	}
	return false
}

// HasLabel reports whether this copy carries the given label name.
func (m *Message) HasLabel(name string) bool {
	for _, l := range m.Labels {
		if l == name {
			return true
		}
	}
	return false
}
