package models

import (
	"time"
)

// Message represents a mail message exchanged between two users.
// A message row is immutable after creation except for the read flag;
// all folder state lives in Placement rows.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Subject    string    `gorm:"not null;size:255" json:"subject"`
	Body       string    `gorm:"not null;size:4000" json:"body"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	SenderID   uint      `gorm:"not null;index" json:"sender_id"`
	ReceiverID uint      `gorm:"not null;index" json:"receiver_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Sender      User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver    User         `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Attachments []Attachment `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// TableName returns the table name for Message
func (Message) TableName() string {
	return "messages"
}

// MessageListItem is a lightweight version for folder list views
type MessageListItem struct {
	ID               uint      `json:"id"`
	Subject          string    `json:"subject"`
	Body             string    `json:"body"`
	IsRead           bool      `json:"is_read"`
	SenderUsername   string    `json:"sender_username"`
	ReceiverUsername string    `json:"receiver_username"`
	CreatedAt        time.Time `json:"created_at"`
	PlacedAt         time.Time `json:"placed_at"`
	AttachmentCount  int       `json:"attachment_count"`
}
