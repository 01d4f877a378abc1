package models

import (
	"time"
)

// Label is a user-scoped named tag. Message rows carry label names, so
// renaming or deleting a label cascades over the owner's message copies.
type Label struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Owner     string    `gorm:"not null;size:255;uniqueIndex:idx_labels_owner_name" json:"owner"`
	Name      string    `gorm:"not null;size:64;uniqueIndex:idx_labels_owner_name" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for Label
func (Label) TableName() string {
	return "labels"
}
