package models

import (
	"time"
)

// User represents an account that can send and receive messages.
// Authentication happens outside this service; the identity middleware
// only resolves a verified username to this row.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null;size:150" json:"username"`
	FirstName string    `gorm:"size:150" json:"first_name,omitempty"`
	LastName  string    `gorm:"size:150" json:"last_name,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName returns the table name for User
func (User) TableName() string {
	return "users"
}
