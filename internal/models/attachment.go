package models

import (
	"time"
)

// Attachment is the metadata row for a file stored in external object
// storage. ObjectKey is the unguessable storage key; Name is only for
// display. Content never touches the database.
type Attachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	MessageID   uint      `gorm:"not null;index" json:"message_id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	ObjectKey   string    `gorm:"uniqueIndex;not null;size:255" json:"-"`
	ContentType string    `gorm:"size:100" json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Attachment
func (Attachment) TableName() string {
	return "attachments"
}
