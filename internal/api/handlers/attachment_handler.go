package handlers

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/replyhq/reply-backend/internal/api/middleware"
	"github.com/replyhq/reply-backend/internal/api/response"
	"github.com/replyhq/reply-backend/internal/attachment"
	applog "github.com/replyhq/reply-backend/internal/logger"
	"github.com/replyhq/reply-backend/internal/repository"
)

// AttachmentHandler handles attachment-related HTTP requests
type AttachmentHandler struct {
	gateway     *attachment.Gateway
	mailboxRepo repository.MailboxRepository
	presignTTL  time.Duration
	logger      *slog.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler
func NewAttachmentHandler(
	gateway *attachment.Gateway,
	mailboxRepo repository.MailboxRepository,
	presignTTL time.Duration,
	logger *slog.Logger,
) *AttachmentHandler {
	return &AttachmentHandler{
		gateway:     gateway,
		mailboxRepo: mailboxRepo,
		presignTTL:  presignTTL,
		logger:      logger,
	}
}

// LinksResponse carries the per-attachment retrieval links for a message
type LinksResponse struct {
	MessageID   uint                       `json:"message_id"`
	TTLSeconds  int                        `json:"ttl_seconds"`
	Attachments []attachment.RetrievalLink `json:"attachments"`
}

// Links handles GET /api/attachments?email_id=N. The folder-membership
// check happens here; the gateway itself knows nothing about folders.
func (h *AttachmentHandler) Links(c echo.Context) error {
	id, err := strconv.ParseUint(c.QueryParam("email_id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "invalid message ID")
	}
	messageID := uint(id)

	if _, err := h.mailboxRepo.GetMessage(c.Request().Context(), messageID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return response.NotFound(c, "message not found")
		}
		return response.InternalError(c, "failed to get message")
	}

	user := middleware.CurrentUser(c)
	visible, err := h.mailboxRepo.IsVisibleTo(c.Request().Context(), user.ID, messageID)
	if err != nil {
		return response.InternalError(c, "failed to check message access")
	}
	if !visible {
		if h.logger != nil {
			applog.SecurityLoggerFrom(h.logger).
				ForbiddenAccess(c.RealIP(), c.Path(), user.ID, messageID)
		}
		// Report not found rather than forbidden; the id space must
		// not be probeable.
		return response.NotFound(c, "message not found")
	}

	links, err := h.gateway.IssueRetrievalLinks(c.Request().Context(), messageID, h.presignTTL)
	if err != nil {
		return response.InternalError(c, "failed to issue retrieval links")
	}
	if links == nil {
		links = []attachment.RetrievalLink{}
	}

	return response.Success(c, LinksResponse{
		MessageID:   messageID,
		TTLSeconds:  int(h.presignTTL.Seconds()),
		Attachments: links,
	})
}
