package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/replyhq/reply-backend/internal/models"
	"gorm.io/gorm"
)

// MailboxRepository defines the interface for mailbox state access.
// Every transition that touches more than one row runs in a single
// transaction so concurrent readers never observe partial state.
type MailboxRepository interface {
	// Send creates the message and both placements (receiver inbox,
	// sender sent) atomically. Returns ErrUnknownRecipient when the
	// receiver username does not resolve.
	Send(ctx context.Context, senderID uint, receiverUsername, subject, body string) (*models.Message, error)

	// ListFolder returns the messages placed in (userID, folder),
	// newest placement first.
	ListFolder(ctx context.Context, userID uint, folder models.Folder) ([]models.MessageListItem, error)

	// GetMessage retrieves a message with its attachments.
	GetMessage(ctx context.Context, id uint) (*models.Message, error)

	// MarkRead updates the message-scoped read flag.
	MarkRead(ctx context.Context, messageID uint, read bool) (*models.Message, error)

	// ToggleStar creates the starred placement if absent, removes it if
	// present. Returns the resulting starred state.
	ToggleStar(ctx context.Context, userID, messageID uint) (bool, error)

	// TrashFromInbox moves a message from the user's inbox to their trash.
	TrashFromInbox(ctx context.Context, userID, messageID uint) error

	// RestoreToInbox moves a message from the user's trash back to their
	// inbox. Restoring a message that is not in trash is a no-op.
	RestoreToInbox(ctx context.Context, userID, messageID uint) error

	// PurgeFromTrash permanently removes the trash placement. When no
	// placement references the message afterwards, the message and its
	// attachment metadata are deleted too; the orphaned object keys are
	// returned so the caller can clean up external storage.
	PurgeFromTrash(ctx context.Context, userID, messageID uint) ([]string, error)

	// PurgeFromSent permanently removes the sent placement, with the
	// same orphan handling as PurgeFromTrash.
	PurgeFromSent(ctx context.Context, userID, messageID uint) ([]string, error)

	// IsVisibleTo reports whether the user has any placement referencing
	// the message. Used as the access check before issuing attachment links.
	IsVisibleTo(ctx context.Context, userID, messageID uint) (bool, error)
}

// mailboxRepository implements MailboxRepository using GORM
type mailboxRepository struct {
	db *gorm.DB
}

// NewMailboxRepository creates a new MailboxRepository instance
func NewMailboxRepository(db *gorm.DB) MailboxRepository {
	return &mailboxRepository{db: db}
}

// Send creates the message and its two placements in one transaction
func (r *mailboxRepository) Send(ctx context.Context, senderID uint, receiverUsername, subject, body string) (*models.Message, error) {
	var message *models.Message

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receiver models.User
		if err := tx.Where("username = ?", receiverUsername).First(&receiver).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownRecipient
			}
			return fmt.Errorf("failed to resolve receiver: %w", err)
		}

		message = &models.Message{
			Subject:    subject,
			Body:       body,
			SenderID:   senderID,
			ReceiverID: receiver.ID,
		}
		if err := tx.Create(message).Error; err != nil {
			return fmt.Errorf("failed to create message: %w", err)
		}

		placements := []models.Placement{
			{UserID: receiver.ID, Folder: models.FolderInbox, MessageID: message.ID},
			{UserID: senderID, Folder: models.FolderSent, MessageID: message.ID},
		}
		for i := range placements {
			if err := tx.Create(&placements[i]).Error; err != nil {
				return fmt.Errorf("failed to create %s placement: %w", placements[i].Folder, err)
			}
		}

		message.Receiver = receiver
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Load sender for the response; outside the transaction on purpose,
	// the placements are already committed.
	if err := r.db.WithContext(ctx).First(&message.Sender, senderID).Error; err != nil {
		return nil, fmt.Errorf("failed to load sender: %w", err)
	}

	return message, nil
}

// ListFolder retrieves the folder view, ordered by placement time descending
func (r *mailboxRepository) ListFolder(ctx context.Context, userID uint, folder models.Folder) ([]models.MessageListItem, error) {
	if !folder.Valid() {
		return nil, fmt.Errorf("%w: folder %q", ErrInvalidInput, folder)
	}

	var results []models.MessageListItem

	query := `
		SELECT
			m.id,
			m.subject,
			m.body,
			m.is_read,
			m.created_at,
			su.username AS sender_username,
			ru.username AS receiver_username,
			p.created_at AS placed_at,
			COALESCE((SELECT COUNT(*) FROM attachments a WHERE a.message_id = m.id), 0) AS attachment_count
		FROM placements p
		JOIN messages m ON m.id = p.message_id
		JOIN users su ON su.id = m.sender_id
		JOIN users ru ON ru.id = m.receiver_id
		WHERE p.user_id = ? AND p.folder = ?
		ORDER BY p.created_at DESC, p.id DESC
	`

	if err := r.db.WithContext(ctx).Raw(query, userID, folder).Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list %s folder: %w", folder, err)
	}

	return results, nil
}

// GetMessage retrieves a message by its ID with preloaded attachments
func (r *mailboxRepository) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	var message models.Message
	result := r.db.WithContext(ctx).
		Preload("Attachments").
		Preload("Sender").
		Preload("Receiver").
		First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get message by ID: %w", result.Error)
	}
	return &message, nil
}

// MarkRead updates the read flag on the message row
func (r *mailboxRepository) MarkRead(ctx context.Context, messageID uint, read bool) (*models.Message, error) {
	result := r.db.WithContext(ctx).Model(&models.Message{}).Where("id = ?", messageID).Update("is_read", read)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update read flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetMessage(ctx, messageID)
}

// ToggleStar flips the starred placement for (user, message)
func (r *mailboxRepository) ToggleStar(ctx context.Context, userID, messageID uint) (bool, error) {
	var starred bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.Message{}).Where("id = ?", messageID).Count(&exists).Error; err != nil {
			return fmt.Errorf("failed to check message: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}

		result := tx.Where("user_id = ? AND folder = ? AND message_id = ?",
			userID, models.FolderStarred, messageID).Delete(&models.Placement{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove starred placement: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			starred = false
			return nil
		}

		placement := models.Placement{UserID: userID, Folder: models.FolderStarred, MessageID: messageID}
		if err := tx.Create(&placement).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create starred placement: %w", err)
		}
		starred = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return starred, nil
}

// TrashFromInbox moves the placement from inbox to trash atomically
func (r *mailboxRepository) TrashFromInbox(ctx context.Context, userID, messageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND folder = ? AND message_id = ?",
			userID, models.FolderInbox, messageID).Delete(&models.Placement{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove inbox placement: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotInFolder
		}

		placement := models.Placement{UserID: userID, Folder: models.FolderTrash, MessageID: messageID}
		if err := tx.Create(&placement).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create trash placement: %w", err)
		}
		return nil
	})
}

// RestoreToInbox moves the placement from trash back to inbox.
// A message that is not in trash is left untouched, matching the
// toggle-style semantics of the other transitions.
func (r *mailboxRepository) RestoreToInbox(ctx context.Context, userID, messageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND folder = ? AND message_id = ?",
			userID, models.FolderTrash, messageID).Delete(&models.Placement{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove trash placement: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil
		}

		placement := models.Placement{UserID: userID, Folder: models.FolderInbox, MessageID: messageID}
		if err := tx.Create(&placement).Error; err != nil {
			if isDuplicateKeyError(err) {
				return ErrConflict
			}
			return fmt.Errorf("failed to create inbox placement: %w", err)
		}
		return nil
	})
}

// PurgeFromTrash permanently removes the trash placement
func (r *mailboxRepository) PurgeFromTrash(ctx context.Context, userID, messageID uint) ([]string, error) {
	return r.purge(ctx, userID, models.FolderTrash, messageID)
}

// PurgeFromSent permanently removes the sent placement
func (r *mailboxRepository) PurgeFromSent(ctx context.Context, userID, messageID uint) ([]string, error) {
	return r.purge(ctx, userID, models.FolderSent, messageID)
}

// purge removes one placement and reaps the message row when nothing
// references it anymore. Returns the object keys of any attachment
// metadata deleted alongside the message.
func (r *mailboxRepository) purge(ctx context.Context, userID uint, folder models.Folder, messageID uint) ([]string, error) {
	var orphanedKeys []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND folder = ? AND message_id = ?",
			userID, folder, messageID).Delete(&models.Placement{})
		if result.Error != nil {
			return fmt.Errorf("failed to remove %s placement: %w", folder, result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotInFolder
		}

		var remaining int64
		if err := tx.Model(&models.Placement{}).Where("message_id = ?", messageID).Count(&remaining).Error; err != nil {
			return fmt.Errorf("failed to count remaining placements: %w", err)
		}
		if remaining > 0 {
			return nil
		}

		// Last reference gone: reap the message and its attachment metadata.
		var attachments []models.Attachment
		if err := tx.Where("message_id = ?", messageID).Find(&attachments).Error; err != nil {
			return fmt.Errorf("failed to list attachments for reaping: %w", err)
		}
		for _, a := range attachments {
			orphanedKeys = append(orphanedKeys, a.ObjectKey)
		}

		if err := tx.Where("message_id = ?", messageID).Delete(&models.Attachment{}).Error; err != nil {
			return fmt.Errorf("failed to delete attachment metadata: %w", err)
		}
		if err := tx.Delete(&models.Message{}, messageID).Error; err != nil {
			return fmt.Errorf("failed to delete message: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return orphanedKeys, nil
}

// IsVisibleTo checks whether any placement links the user to the message
func (r *mailboxRepository) IsVisibleTo(ctx context.Context, userID, messageID uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Placement{}).
		Where("user_id = ? AND message_id = ?", userID, messageID).
		Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("failed to check visibility: %w", result.Error)
	}
	return count > 0, nil
}
