// Package attachment implements the gateway between message attachments
// and external object storage: upload registration, metadata listing,
// and time-bounded retrieval links.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/replyhq/reply-backend/internal/models"
	"github.com/replyhq/reply-backend/internal/objectstore"
	"github.com/replyhq/reply-backend/internal/repository"
	"github.com/replyhq/reply-backend/internal/validator"
	"golang.org/x/sync/errgroup"
)

// ErrStorageUnavailable mirrors objectstore.ErrUnavailable at the
// gateway boundary so handlers only import this package.
var ErrStorageUnavailable = objectstore.ErrUnavailable

// Upload describes one file to register for a message.
type Upload struct {
	Filename    string
	ContentType string
	SizeBytes   int64
	Content     io.Reader
}

// UploadOutcome is the per-file result of a batch registration.
type UploadOutcome struct {
	Filename   string             `json:"filename"`
	Attachment *models.Attachment `json:"attachment,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// RetrievalLink is the per-attachment result of link issuance.
type RetrievalLink struct {
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Gateway owns attachment metadata and talks to the object store.
// It knows nothing about folders; callers verify message visibility
// before asking for links.
type Gateway struct {
	repo   repository.AttachmentRepository
	store  objectstore.ObjectStore
	logger *slog.Logger
}

// NewGateway creates a new Gateway instance.
func NewGateway(repo repository.AttachmentRepository, store objectstore.ObjectStore, logger *slog.Logger) *Gateway {
	return &Gateway{
		repo:   repo,
		store:  store,
		logger: logger,
	}
}

// RegisterUpload stores the file content under a fresh object key and
// persists the metadata row. The row is only created after the put
// succeeds, so a storage failure never leaves metadata pointing at a
// missing object.
func (g *Gateway) RegisterUpload(ctx context.Context, messageID uint, up Upload) (*models.Attachment, error) {
	if err := validator.ValidateFilename(up.Filename); err != nil {
		return nil, fmt.Errorf("%w: %w", repository.ErrInvalidInput, err)
	}

	key := generateObjectKey(up.Filename)

	if err := g.store.Put(ctx, key, up.ContentType, up.Content); err != nil {
		return nil, err
	}

	attachment := &models.Attachment{
		MessageID:   messageID,
		Name:        up.Filename,
		ObjectKey:   key,
		ContentType: up.ContentType,
		SizeBytes:   up.SizeBytes,
	}
	if err := g.repo.Create(ctx, attachment); err != nil {
		// Metadata insert failed after the object landed; remove the
		// object so neither side is orphaned.
		if delErr := g.store.Delete(ctx, key); delErr != nil {
			g.logger.Warn("failed to clean up object after metadata failure",
				slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, err
	}

	return attachment, nil
}

// RegisterUploads registers the files in parallel and reports one
// outcome per file. A failed file never unwinds the others or the
// already-committed message.
func (g *Gateway) RegisterUploads(ctx context.Context, messageID uint, uploads []Upload) []UploadOutcome {
	outcomes := make([]UploadOutcome, len(uploads))

	grp, ctx := errgroup.WithContext(ctx)
	for i, up := range uploads {
		grp.Go(func() error {
			outcomes[i].Filename = up.Filename
			attachment, err := g.RegisterUpload(ctx, messageID, up)
			if err != nil {
				g.logger.Warn("attachment registration failed",
					slog.Uint64("message_id", uint64(messageID)),
					slog.String("filename", up.Filename),
					slog.Any("error", err))
				outcomes[i].Error = outcomeError(err)
				return nil
			}
			outcomes[i].Attachment = attachment
			return nil
		})
	}
	// Errors are reported per file; the group never fails as a whole.
	_ = grp.Wait()

	return outcomes
}

// ListByMessage returns the message's attachment metadata in creation order.
func (g *Gateway) ListByMessage(ctx context.Context, messageID uint) ([]models.Attachment, error) {
	return g.repo.ListByMessage(ctx, messageID)
}

// IssueRetrievalLinks produces a presigned URL per attachment of the
// message, valid for ttl. A storage failure on one attachment is flagged
// on that entry only; the rest of the batch still gets URLs.
func (g *Gateway) IssueRetrievalLinks(ctx context.Context, messageID uint, ttl time.Duration) ([]RetrievalLink, error) {
	attachments, err := g.repo.ListByMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	links := make([]RetrievalLink, len(attachments))
	for i, a := range attachments {
		links[i].Filename = a.Name

		url, err := g.store.PresignGet(ctx, a.ObjectKey, ttl)
		if err != nil {
			g.logger.Warn("failed to presign attachment",
				slog.Uint64("attachment_id", uint64(a.ID)),
				slog.Any("error", err))
			links[i].Error = outcomeError(err)
			continue
		}
		links[i].URL = url
	}

	return links, nil
}

// CleanupObjects deletes orphaned objects best-effort after their
// metadata rows are gone. Failures are logged, never returned; the
// objects are unreachable either way.
func (g *Gateway) CleanupObjects(ctx context.Context, keys []string) {
	for _, key := range keys {
		if err := g.store.Delete(ctx, key); err != nil {
			g.logger.Warn("failed to delete orphaned object",
				slog.String("key", key), slog.Any("error", err))
		}
	}
}

// generateObjectKey builds an unguessable storage key: a random UUID
// combined with the display name, the same shape the web client expects.
func generateObjectKey(filename string) string {
	return uuid.New().String() + "_" + filename
}

// outcomeError maps gateway errors to the stable codes reported in
// batch outcomes.
func outcomeError(err error) string {
	switch {
	case errors.Is(err, ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, repository.ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal_error"
	}
}
