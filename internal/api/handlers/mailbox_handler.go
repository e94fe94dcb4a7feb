package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/api/middleware"
	"github.com/replyhq/reply-backend/internal/api/response"
	"github.com/replyhq/reply-backend/internal/attachment"
	"github.com/replyhq/reply-backend/internal/models"
	"github.com/replyhq/reply-backend/internal/repository"
	"github.com/replyhq/reply-backend/internal/validator"
	"github.com/replyhq/reply-backend/internal/websocket"
)

// MailboxHandler handles folder views and mailbox state transitions
type MailboxHandler struct {
	mailboxRepo       repository.MailboxRepository
	gateway           *attachment.Gateway
	hub               *websocket.Hub
	maxAttachmentSize int64
	logger            *slog.Logger
}

// NewMailboxHandler creates a new MailboxHandler
func NewMailboxHandler(
	mailboxRepo repository.MailboxRepository,
	gateway *attachment.Gateway,
	hub *websocket.Hub,
	maxAttachmentSize int64,
	logger *slog.Logger,
) *MailboxHandler {
	return &MailboxHandler{
		mailboxRepo:       mailboxRepo,
		gateway:           gateway,
		hub:               hub,
		maxAttachmentSize: maxAttachmentSize,
		logger:            logger,
	}
}

// SendRequest is the typed payload of the "email" multipart field
type SendRequest struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Receiver string `json:"receiver"`
}

// SendResponse pairs the created message with per-file upload outcomes
type SendResponse struct {
	Message     *models.Message            `json:"message"`
	Attachments []attachment.UploadOutcome `json:"attachments,omitempty"`
}

// BatchResult is the per-id outcome of a batch transition. ID is echoed
// back as received so unparseable tokens can still be reported.
type BatchResult struct {
	ID      string `json:"id"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Starred *bool  `json:"starred,omitempty"`
}

// CurrentUser handles GET /api/current-user
func (h *MailboxHandler) CurrentUser(c echo.Context) error {
	return response.Success(c, middleware.CurrentUser(c))
}

// Inbox handles GET /api/inbox
func (h *MailboxHandler) Inbox(c echo.Context) error {
	return h.listFolder(c, models.FolderInbox)
}

// Sent handles GET /api/sent
func (h *MailboxHandler) Sent(c echo.Context) error {
	return h.listFolder(c, models.FolderSent)
}

// Starred handles GET /api/starred
func (h *MailboxHandler) Starred(c echo.Context) error {
	return h.listFolder(c, models.FolderStarred)
}

// Trash handles GET /api/trash
func (h *MailboxHandler) Trash(c echo.Context) error {
	return h.listFolder(c, models.FolderTrash)
}

func (h *MailboxHandler) listFolder(c echo.Context, folder models.Folder) error {
	user := middleware.CurrentUser(c)

	messages, err := h.mailboxRepo.ListFolder(c.Request().Context(), user.ID, folder)
	if err != nil {
		return response.InternalError(c, "failed to list folder")
	}
	if messages == nil {
		messages = []models.MessageListItem{}
	}

	return response.Success(c, messages)
}

// Send handles POST /api/inbox: a multipart request with an "email"
// JSON field and optional "attachments" files. The message and both
// placements commit atomically; attachment registration happens after
// and reports per-file outcomes without affecting the send.
func (h *MailboxHandler) Send(c echo.Context) error {
	user := middleware.CurrentUser(c)

	var req SendRequest
	if err := json.Unmarshal([]byte(c.FormValue("email")), &req); err != nil {
		return response.BadRequest(c, "invalid email payload")
	}

	req.Receiver = strings.TrimSpace(req.Receiver)
	if err := validator.ValidateUsername(req.Receiver); err != nil {
		return response.BadRequest(c, "invalid receiver username")
	}
	if err := validator.ValidateSubject(req.Subject); err != nil {
		return response.BadRequest(c, "invalid subject")
	}
	if err := validator.ValidateBody(req.Body); err != nil {
		return response.BadRequest(c, "invalid body")
	}

	message, err := h.mailboxRepo.Send(c.Request().Context(), user.ID, req.Receiver, req.Subject, req.Body)
	if err != nil {
		if errors.Is(err, repository.ErrUnknownRecipient) {
			return response.BadRequest(c, "receiver does not exist")
		}
		return response.InternalError(c, "failed to send message")
	}

	outcomes := h.registerAttachments(c, message.ID)

	if h.hub != nil {
		h.hub.NotifyNewMessage(message.ReceiverID, &websocket.NewMessagePayload{
			ID:             message.ID,
			SenderUsername: user.Username,
			Subject:        message.Subject,
			CreatedAt:      message.CreatedAt,
		})
	}

	return response.Created(c, SendResponse{
		Message:     message,
		Attachments: outcomes,
	})
}

// registerAttachments uploads the request's multipart files for the
// committed message, one outcome per file.
func (h *MailboxHandler) registerAttachments(c echo.Context, messageID uint) []attachment.UploadOutcome {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}

	files := form.File["attachments"]
	if len(files) == 0 {
		return nil
	}

	var uploads []attachment.Upload
	var outcomes []attachment.UploadOutcome
	var open []interface{ Close() error }

	for _, fh := range files {
		if err := validator.ValidateAttachmentSize(fh.Size, h.maxAttachmentSize); err != nil {
			outcomes = append(outcomes, attachment.UploadOutcome{
				Filename: fh.Filename,
				Error:    "file_too_large",
			})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			outcomes = append(outcomes, attachment.UploadOutcome{
				Filename: fh.Filename,
				Error:    "unreadable_file",
			})
			continue
		}
		open = append(open, f)

		uploads = append(uploads, attachment.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			SizeBytes:   fh.Size,
			Content:     f,
		})
	}

	registered := h.gateway.RegisterUploads(c.Request().Context(), messageID, uploads)
	for _, f := range open {
		f.Close()
	}

	return append(outcomes, registered...)
}

// MarkRead handles PUT /api/inbox?email_id=N with an optional JSON body
// {"read": bool}, defaulting to true. The read flag is message-scoped,
// shared between sender and receiver.
func (h *MailboxHandler) MarkRead(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("email_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	read := true
	var body struct {
		Read *bool `json:"read"`
	}
	if err := c.Bind(&body); err == nil && body.Read != nil {
		read = *body.Read
	}

	message, err := h.mailboxRepo.MarkRead(c.Request().Context(), uint(id), read)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to update read flag")
	}

	return response.Success(c, message)
}

// GetMessage handles GET /api/messages/:id
func (h *MailboxHandler) GetMessage(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}

	user := middleware.CurrentUser(c)
	visible, err := h.mailboxRepo.IsVisibleTo(c.Request().Context(), user.ID, uint(id))
	if err != nil {
		return response.InternalError(c, "failed to check message access")
	}
	if !visible {
		return response.NotFound(c, "message not found")
	}

	message, err := h.mailboxRepo.GetMessage(c.Request().Context(), uint(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	return response.Success(c, message)
}

// ToggleStar handles POST /api/starred?email_id=1,2
func (h *MailboxHandler) ToggleStar(c echo.Context) error {
	user := middleware.CurrentUser(c)

	results := h.forEachID(c, func(id uint, result *BatchResult) error {
		starred, err := h.mailboxRepo.ToggleStar(c.Request().Context(), user.ID, id)
		if err != nil {
			return err
		}
		result.Starred = &starred
		return nil
	})

	return response.Success(c, results)
}

// TrashFromInbox handles DELETE /api/inbox?email_id=1,2
func (h *MailboxHandler) TrashFromInbox(c echo.Context) error {
	user := middleware.CurrentUser(c)

	results := h.forEachID(c, func(id uint, _ *BatchResult) error {
		return h.mailboxRepo.TrashFromInbox(c.Request().Context(), user.ID, id)
	})

	return response.Success(c, results)
}

// RestoreToInbox handles PATCH /api/trash?email_id=1,2
func (h *MailboxHandler) RestoreToInbox(c echo.Context) error {
	user := middleware.CurrentUser(c)

	results := h.forEachID(c, func(id uint, _ *BatchResult) error {
		return h.mailboxRepo.RestoreToInbox(c.Request().Context(), user.ID, id)
	})

	return response.Success(c, results)
}

// PurgeFromTrash handles DELETE /api/trash?email_id=1,2
func (h *MailboxHandler) PurgeFromTrash(c echo.Context) error {
	user := middleware.CurrentUser(c)

	results := h.forEachID(c, func(id uint, _ *BatchResult) error {
		orphaned, err := h.mailboxRepo.PurgeFromTrash(c.Request().Context(), user.ID, id)
		if err != nil {
			return err
		}
		h.gateway.CleanupObjects(c.Request().Context(), orphaned)
		return nil
	})

	return response.Success(c, results)
}

// PurgeFromSent handles DELETE /api/sent?email_id=1,2
func (h *MailboxHandler) PurgeFromSent(c echo.Context) error {
	user := middleware.CurrentUser(c)

	results := h.forEachID(c, func(id uint, _ *BatchResult) error {
		orphaned, err := h.mailboxRepo.PurgeFromSent(c.Request().Context(), user.ID, id)
		if err != nil {
			return err
		}
		h.gateway.CleanupObjects(c.Request().Context(), orphaned)
		return nil
	})

	return response.Success(c, results)
}

// forEachID runs op for every id in the email_id query parameter.
// Each id is parsed and processed independently; one failure never
// stops the rest of the batch.
func (h *MailboxHandler) forEachID(c echo.Context, op func(id uint, result *BatchResult) error) []BatchResult {
	tokens := strings.Split(c.QueryParam("email_id"), ",")
	results := make([]BatchResult, 0, len(tokens))

	for _, token := range tokens {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		result := BatchResult{ID: token}

		id, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			result.Code = "invalid_id"
			results = append(results, result)
			continue
		}

		if err := op(uint(id), &result); err != nil {
			result.Code = transitionCode(err)
			if h.logger != nil && result.Code == "internal_error" {
				h.logger.Error("batch transition failed",
					slog.String("id", token), slog.Any("error", err))
			}
		} else {
			result.OK = true
		}

		results = append(results, result)
	}

	return results
}

// transitionCode maps repository errors to stable per-id outcome codes
func transitionCode(err error) string {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrNotInFolder):
		return "not_in_folder"
	case errors.Is(err, repository.ErrConflict):
		return "conflict"
	default:
		return "internal_error"
	}
}
