package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/api/middleware"
	"github.com/replyhq/reply-backend/internal/attachment"
	"github.com/replyhq/reply-backend/internal/models"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"github.com/replyhq/reply-backend/internal/repository"
	"github.com/replyhq/reply-backend/tests/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MailboxHandlerTestSuite is the test suite for MailboxHandler
type MailboxHandlerTestSuite struct {
	suite.Suite
	echo               *echo.Echo
	handler            *MailboxHandler
	mockMailboxRepo    *mocks.MockMailboxRepository
	mockAttachmentRepo *mocks.MockAttachmentRepository
	store              *objectstore.MemoryStore
	user               *models.User
}

// SetupTest runs before each test
func (s *MailboxHandlerTestSuite) SetupTest() {
	s.echo = echo.New()
	s.mockMailboxRepo = new(mocks.MockMailboxRepository)
	s.mockAttachmentRepo = new(mocks.MockAttachmentRepository)
	s.store = objectstore.NewMemoryStore()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	gateway := attachment.NewGateway(s.mockAttachmentRepo, s.store, log)

	s.handler = NewMailboxHandler(s.mockMailboxRepo, gateway, nil, 1024, log)
	s.user = &models.User{ID: 1, Username: "alice"}
}

// TearDownTest runs after each test
func (s *MailboxHandlerTestSuite) TearDownTest() {
	s.mockMailboxRepo.AssertExpectations(s.T())
	s.mockAttachmentRepo.AssertExpectations(s.T())
}

// TestMailboxHandlerTestSuite runs the test suite
func TestMailboxHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(MailboxHandlerTestSuite))
}

// Helper function to create a test context with the authenticated user set
func (s *MailboxHandlerTestSuite) createContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	middleware.SetCurrentUser(c, s.user)
	return c, rec
}

// Helper function to create a multipart send request
func (s *MailboxHandlerTestSuite) createSendContext(email SendRequest, files map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	payload, err := json.Marshal(email)
	s.Require().NoError(err)
	s.Require().NoError(writer.WriteField("email", string(payload)))

	for name, content := range files {
		part, err := writer.CreateFormFile("attachments", name)
		s.Require().NoError(err)
		_, err = part.Write([]byte(content))
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/inbox", &buf)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	rec := httptest.NewRecorder()
	c := s.echo.NewContext(req, rec)
	middleware.SetCurrentUser(c, s.user)
	return c, rec
}

// ==================== Folder Listing Tests ====================

func (s *MailboxHandlerTestSuite) TestInbox_Success() {
	items := []models.MessageListItem{
		{ID: 2, Subject: "newer"},
		{ID: 1, Subject: "older"},
	}
	s.mockMailboxRepo.On("ListFolder", mock.Anything, uint(1), models.FolderInbox).Return(items, nil)

	c, rec := s.createContext(http.MethodGet, "/api/inbox", "")
	err := s.handler.Inbox(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "newer")
	s.Contains(rec.Body.String(), "older")
}

func (s *MailboxHandlerTestSuite) TestInbox_EmptyFolderIsEmptyArray() {
	s.mockMailboxRepo.On("ListFolder", mock.Anything, uint(1), models.FolderInbox).
		Return([]models.MessageListItem(nil), nil)

	c, rec := s.createContext(http.MethodGet, "/api/inbox", "")
	err := s.handler.Inbox(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"data":[]`)
}

func (s *MailboxHandlerTestSuite) TestTrash_RepositoryError() {
	s.mockMailboxRepo.On("ListFolder", mock.Anything, uint(1), models.FolderTrash).
		Return(nil, errors.New("db down"))

	c, rec := s.createContext(http.MethodGet, "/api/trash", "")
	err := s.handler.Trash(c)

	s.NoError(err)
	s.Equal(http.StatusInternalServerError, rec.Code)
}

// ==================== Send Tests ====================

func (s *MailboxHandlerTestSuite) TestSend_Success() {
	message := &models.Message{ID: 10, Subject: "Hello", SenderID: 1, ReceiverID: 2}
	s.mockMailboxRepo.On("Send", mock.Anything, uint(1), "bob", "Hello", "Hi Bob").Return(message, nil)

	c, rec := s.createSendContext(SendRequest{Subject: "Hello", Body: "Hi Bob", Receiver: "bob"}, nil)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"subject":"Hello"`)
}

func (s *MailboxHandlerTestSuite) TestSend_WithAttachments() {
	message := &models.Message{ID: 10, Subject: "Files", SenderID: 1, ReceiverID: 2}
	s.mockMailboxRepo.On("Send", mock.Anything, uint(1), "bob", "Files", "See attached").Return(message, nil)
	s.mockAttachmentRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Attachment) bool {
		return a.MessageID == 10 && a.Name == "a.txt"
	})).Return(nil)

	c, rec := s.createSendContext(
		SendRequest{Subject: "Files", Body: "See attached", Receiver: "bob"},
		map[string]string{"a.txt": "content"},
	)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), `"filename":"a.txt"`)
	s.Equal(1, s.store.Len())
}

func (s *MailboxHandlerTestSuite) TestSend_OversizedAttachmentReportedNotFatal() {
	message := &models.Message{ID: 10, Subject: "Big", SenderID: 1, ReceiverID: 2}
	s.mockMailboxRepo.On("Send", mock.Anything, uint(1), "bob", "Big", "body").Return(message, nil)

	// Max size is 1024 in SetupTest; this file exceeds it
	c, rec := s.createSendContext(
		SendRequest{Subject: "Big", Body: "body", Receiver: "bob"},
		map[string]string{"big.bin": strings.Repeat("x", 2048)},
	)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusCreated, rec.Code)
	s.Contains(rec.Body.String(), "file_too_large")
	s.Equal(0, s.store.Len())
}

func (s *MailboxHandlerTestSuite) TestSend_UnknownRecipient() {
	s.mockMailboxRepo.On("Send", mock.Anything, uint(1), "nobody", "Hello", "Hi").
		Return(nil, repository.ErrUnknownRecipient)

	c, rec := s.createSendContext(SendRequest{Subject: "Hello", Body: "Hi", Receiver: "nobody"}, nil)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "receiver does not exist")
}

func (s *MailboxHandlerTestSuite) TestSend_InvalidPayload() {
	c, rec := s.createSendContext(SendRequest{Subject: "", Body: "Hi", Receiver: "bob"}, nil)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *MailboxHandlerTestSuite) TestSend_InvalidReceiverUsername() {
	c, rec := s.createSendContext(SendRequest{Subject: "Hello", Body: "Hi", Receiver: "not a user!"}, nil)
	err := s.handler.Send(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// ==================== MarkRead Tests ====================

func (s *MailboxHandlerTestSuite) TestMarkRead_DefaultsToTrue() {
	message := &models.Message{ID: 5, IsRead: true}
	s.mockMailboxRepo.On("MarkRead", mock.Anything, uint(5), true).Return(message, nil)

	c, rec := s.createContext(http.MethodPut, "/api/inbox?email_id=5", "")
	err := s.handler.MarkRead(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"is_read":true`)
}

func (s *MailboxHandlerTestSuite) TestMarkRead_ExplicitFalse() {
	message := &models.Message{ID: 5, IsRead: false}
	s.mockMailboxRepo.On("MarkRead", mock.Anything, uint(5), false).Return(message, nil)

	c, rec := s.createContext(http.MethodPut, "/api/inbox?email_id=5", `{"read": false}`)
	err := s.handler.MarkRead(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
}

func (s *MailboxHandlerTestSuite) TestMarkRead_NotFound() {
	s.mockMailboxRepo.On("MarkRead", mock.Anything, uint(99), true).Return(nil, repository.ErrNotFound)

	c, rec := s.createContext(http.MethodPut, "/api/inbox?email_id=99", "")
	err := s.handler.MarkRead(c)

	s.NoError(err)
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *MailboxHandlerTestSuite) TestMarkRead_InvalidID() {
	c, rec := s.createContext(http.MethodPut, "/api/inbox?email_id=abc", "")
	err := s.handler.MarkRead(c)

	s.NoError(err)
	s.Equal(http.StatusBadRequest, rec.Code)
}

// ==================== GetMessage Tests ====================

func (s *MailboxHandlerTestSuite) TestGetMessage_Success() {
	message := &models.Message{ID: 5, Subject: "Hello"}
	s.mockMailboxRepo.On("IsVisibleTo", mock.Anything, uint(1), uint(5)).Return(true, nil)
	s.mockMailboxRepo.On("GetMessage", mock.Anything, uint(5)).Return(message, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	err := s.handler.GetMessage(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"subject":"Hello"`)
}

func (s *MailboxHandlerTestSuite) TestGetMessage_NotVisibleIsNotFound() {
	s.mockMailboxRepo.On("IsVisibleTo", mock.Anything, uint(1), uint(5)).Return(false, nil)

	c, rec := s.createContext(http.MethodGet, "/api/messages/5", "")
	c.SetParamNames("id")
	c.SetParamValues("5")
	err := s.handler.GetMessage(c)

	s.NoError(err)
	s.Equal(http.StatusNotFound, rec.Code)
	s.mockMailboxRepo.AssertNotCalled(s.T(), "GetMessage", mock.Anything, mock.Anything)
}

// ==================== Batch Transition Tests ====================

func (s *MailboxHandlerTestSuite) TestToggleStar_ReportsResultingState() {
	s.mockMailboxRepo.On("ToggleStar", mock.Anything, uint(1), uint(5)).Return(true, nil)

	c, rec := s.createContext(http.MethodPost, "/api/starred?email_id=5", "")
	err := s.handler.ToggleStar(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"starred":true`)
}

func (s *MailboxHandlerTestSuite) TestTrashFromInbox_BatchMixedOutcomes() {
	s.mockMailboxRepo.On("TrashFromInbox", mock.Anything, uint(1), uint(1)).Return(nil)
	s.mockMailboxRepo.On("TrashFromInbox", mock.Anything, uint(1), uint(2)).Return(repository.ErrNotInFolder)

	c, rec := s.createContext(http.MethodDelete, "/api/inbox?email_id=1,2,abc", "")
	err := s.handler.TrashFromInbox(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	var envelope struct {
		Data []BatchResult `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	s.Require().Len(envelope.Data, 3)

	s.True(envelope.Data[0].OK)
	s.False(envelope.Data[1].OK)
	s.Equal("not_in_folder", envelope.Data[1].Code)
	s.False(envelope.Data[2].OK)
	s.Equal("invalid_id", envelope.Data[2].Code)
}

func (s *MailboxHandlerTestSuite) TestRestoreToInbox_Batch() {
	s.mockMailboxRepo.On("RestoreToInbox", mock.Anything, uint(1), uint(3)).Return(nil)
	s.mockMailboxRepo.On("RestoreToInbox", mock.Anything, uint(1), uint(4)).Return(nil)

	c, rec := s.createContext(http.MethodPatch, "/api/trash?email_id=3,4", "")
	err := s.handler.RestoreToInbox(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)

	var envelope struct {
		Data []BatchResult `json:"data"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &envelope))
	s.Require().Len(envelope.Data, 2)
	s.True(envelope.Data[0].OK)
	s.True(envelope.Data[1].OK)
}

func (s *MailboxHandlerTestSuite) TestPurgeFromTrash_CleansUpOrphanedObjects() {
	s.Require().NoError(s.store.Put(context.Background(), "orphan-key", "text/plain", strings.NewReader("x")))
	s.mockMailboxRepo.On("PurgeFromTrash", mock.Anything, uint(1), uint(5)).
		Return([]string{"orphan-key"}, nil)

	c, rec := s.createContext(http.MethodDelete, "/api/trash?email_id=5", "")
	err := s.handler.PurgeFromTrash(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(0, s.store.Len())
}

func (s *MailboxHandlerTestSuite) TestPurgeFromSent_NotInFolder() {
	s.mockMailboxRepo.On("PurgeFromSent", mock.Anything, uint(1), uint(5)).
		Return(nil, repository.ErrNotInFolder)

	c, rec := s.createContext(http.MethodDelete, "/api/sent?email_id=5", "")
	err := s.handler.PurgeFromSent(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "not_in_folder")
}

// ==================== CurrentUser Tests ====================

func (s *MailboxHandlerTestSuite) TestCurrentUser() {
	c, rec := s.createContext(http.MethodGet, "/api/current-user", "")
	err := s.handler.CurrentUser(c)

	s.NoError(err)
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"username":"alice"`)
}
