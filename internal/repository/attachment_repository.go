package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/replyhq/reply-backend/internal/models"
	"gorm.io/gorm"
)

// AttachmentRepository defines the interface for attachment metadata access
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *models.Attachment) error
	GetByID(ctx context.Context, id uint) (*models.Attachment, error)
	ListByMessage(ctx context.Context, messageID uint) ([]models.Attachment, error)
	Delete(ctx context.Context, id uint) error
}

// attachmentRepository implements AttachmentRepository using GORM
type attachmentRepository struct {
	db *gorm.DB
}

// NewAttachmentRepository creates a new AttachmentRepository instance
func NewAttachmentRepository(db *gorm.DB) AttachmentRepository {
	return &attachmentRepository{db: db}
}

// Create creates a new attachment metadata record
func (r *attachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	result := r.db.WithContext(ctx).Create(attachment)
	if result.Error != nil {
		if isDuplicateKeyError(result.Error) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("failed to create attachment: %w", result.Error)
	}
	return nil
}

// GetByID retrieves an attachment by its ID
func (r *attachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	var attachment models.Attachment
	result := r.db.WithContext(ctx).First(&attachment, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get attachment by ID: %w", result.Error)
	}
	return &attachment, nil
}

// ListByMessage retrieves all attachments for a message in creation order
func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	var attachments []models.Attachment
	result := r.db.WithContext(ctx).
		Where("message_id = ?", messageID).
		Order("created_at ASC, id ASC").
		Find(&attachments)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", result.Error)
	}
	return attachments, nil
}

// Delete deletes an attachment metadata record
func (r *attachmentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Attachment{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete attachment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
