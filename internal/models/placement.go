package models

import (
	"time"
)

// Folder identifies one of the per-user membership sets a message can
// belong to. Inbox, Sent, Starred and Trash are independent: the same
// message can be starred and trashed at once, and each participant
// manages their own rows.
type Folder string

const (
	FolderInbox   Folder = "inbox"
	FolderSent    Folder = "sent"
	FolderStarred Folder = "starred"
	FolderTrash   Folder = "trash"
)

// Valid reports whether f is one of the known folder kinds.
func (f Folder) Valid() bool {
	switch f {
	case FolderInbox, FolderSent, FolderStarred, FolderTrash:
		return true
	}
	return false
}

// Placement records that a message is visible to a user under a folder
// kind. The composite unique index enforces at most one row per
// (user, folder, message), which is what keeps concurrent transitions
// from duplicating folder state.
type Placement struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_placements_user_folder_message;index:idx_placements_folder_listing,priority:1" json:"user_id"`
	Folder    Folder    `gorm:"not null;size:16;uniqueIndex:idx_placements_user_folder_message;index:idx_placements_folder_listing,priority:2" json:"folder"`
	MessageID uint      `gorm:"not null;uniqueIndex:idx_placements_user_folder_message;index" json:"message_id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Message Message `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for Placement
func (Placement) TableName() string {
	return "placements"
}
