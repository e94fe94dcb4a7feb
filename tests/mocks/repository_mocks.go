package mocks

import (
	"context"

	"github.com/replyhq/reply-backend/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockMailboxRepository implements repository.MailboxRepository
type MockMailboxRepository struct {
	mock.Mock
}

// Send creates a message with both placements
func (m *MockMailboxRepository) Send(ctx context.Context, senderID uint, receiverUsername, subject, body string) (*models.Message, error) {
	args := m.Called(ctx, senderID, receiverUsername, subject, body)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ListFolder lists the messages in a user's folder
func (m *MockMailboxRepository) ListFolder(ctx context.Context, userID uint, folder models.Folder) ([]models.MessageListItem, error) {
	args := m.Called(ctx, userID, folder)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MessageListItem), args.Error(1)
}

// GetMessage retrieves a message with its attachments
func (m *MockMailboxRepository) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// MarkRead updates the message-scoped read flag
func (m *MockMailboxRepository) MarkRead(ctx context.Context, messageID uint, read bool) (*models.Message, error) {
	args := m.Called(ctx, messageID, read)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Message), args.Error(1)
}

// ToggleStar flips the starred placement
func (m *MockMailboxRepository) ToggleStar(ctx context.Context, userID, messageID uint) (bool, error) {
	args := m.Called(ctx, userID, messageID)
	return args.Bool(0), args.Error(1)
}

// TrashFromInbox moves a message from inbox to trash
func (m *MockMailboxRepository) TrashFromInbox(ctx context.Context, userID, messageID uint) error {
	args := m.Called(ctx, userID, messageID)
	return args.Error(0)
}

// RestoreToInbox moves a message from trash back to inbox
func (m *MockMailboxRepository) RestoreToInbox(ctx context.Context, userID, messageID uint) error {
	args := m.Called(ctx, userID, messageID)
	return args.Error(0)
}

// PurgeFromTrash permanently removes the trash placement
func (m *MockMailboxRepository) PurgeFromTrash(ctx context.Context, userID, messageID uint) ([]string, error) {
	args := m.Called(ctx, userID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// PurgeFromSent permanently removes the sent placement
func (m *MockMailboxRepository) PurgeFromSent(ctx context.Context, userID, messageID uint) ([]string, error) {
	args := m.Called(ctx, userID, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// IsVisibleTo reports whether the user has any placement for the message
func (m *MockMailboxRepository) IsVisibleTo(ctx context.Context, userID, messageID uint) (bool, error) {
	args := m.Called(ctx, userID, messageID)
	return args.Bool(0), args.Error(1)
}

// MockUserRepository implements repository.UserRepository
type MockUserRepository struct {
	mock.Mock
}

// Create creates a new user
func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// GetByID retrieves a user by id
func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// GetByUsername retrieves a user by their unique username
func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockAttachmentRepository implements repository.AttachmentRepository
type MockAttachmentRepository struct {
	mock.Mock
}

// Create creates a new attachment metadata record
func (m *MockAttachmentRepository) Create(ctx context.Context, attachment *models.Attachment) error {
	args := m.Called(ctx, attachment)
	return args.Error(0)
}

// GetByID retrieves an attachment by its ID
func (m *MockAttachmentRepository) GetByID(ctx context.Context, id uint) (*models.Attachment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Attachment), args.Error(1)
}

// ListByMessage retrieves all attachments for a message in creation order
func (m *MockAttachmentRepository) ListByMessage(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attachment), args.Error(1)
}

// Delete deletes an attachment metadata record
func (m *MockAttachmentRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
