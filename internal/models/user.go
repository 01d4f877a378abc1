package models

import (
	"time"
)

// User is an account identity. Mail rows reference users by email address.
// A user is contactable once their email address is verified.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Name         string `gorm:"not null;size:255" json:"name"`
	Phone        string `gorm:"size:32" json:"phone,omitempty"`
	Email        string `gorm:"uniqueIndex;not null;size:255" json:"email"`
	PasswordHash string `gorm:"not null;size:255" json:"-"`
	Avatar       string `gorm:"size:500" json:"avatar,omitempty"`

	IsEmailVerified bool `gorm:"default:false" json:"is_email_verified"`

	// Auto-reply configuration, read by the delivery pipeline at delivery
	// time. Mutated only through the settings surface.
	AutoReplyEnabled bool   `gorm:"default:false" json:"auto_reply_enabled"`
	AutoReplyMessage string `gorm:"size:2000;default:'Thank you for your email. I am currently using auto-reply mode.'" json:"auto_reply_message"`

	NotificationsEnabled bool `gorm:"default:true" json:"notifications_enabled"`
	NotificationSound    bool `gorm:"default:true" json:"notification_sound"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}

// AutoReply is a user's auto-reply configuration.
type AutoReply struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

// UserSettings is the owner-mutable settings view of a user.
type UserSettings struct {
	AutoReplyEnabled     bool   `json:"auto_reply_enabled"`
	AutoReplyMessage     string `json:"auto_reply_message"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
	NotificationSound    bool   `json:"notification_sound"`
}
