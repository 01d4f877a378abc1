package models

// Attachment represents a file attached to a message copy. The stored file is
// referenced by its storage URL; forwarding reuses the URL and never
// re-uploads the content.
type Attachment struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	MessageID   uint   `gorm:"not null;index" json:"message_id"`
	Filename    string `gorm:"size:255" json:"filename"`
	ContentType string `gorm:"size:100" json:"content_type"`
	StorageURL  string `gorm:"size:500" json:"storage_url"`
	SizeBytes   int64  `json:"size_bytes"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}

// AttachmentRef is the transport form of an attachment: a stable storage URL
// plus display metadata. It is what compose requests carry.
type AttachmentRef struct {
	StorageURL  string `json:"storage_url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Ref returns the transport form of this attachment.
func (a Attachment) Ref() AttachmentRef {
	return AttachmentRef{
		StorageURL:  a.StorageURL,
		Filename:    a.Filename,
		ContentType: a.ContentType,
		SizeBytes:   a.SizeBytes,
	}
}
