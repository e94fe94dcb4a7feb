// Package objectstore abstracts the external object-storage collaborator
// that holds attachment content. Implementations are constructed once and
// injected; nothing in this package keeps global state.
package objectstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnavailable indicates the external object store failed or timed out.
// All implementation errors wrap it so callers can classify failures
// without knowing the backend.
var ErrUnavailable = errors.New("object storage unavailable")

// ObjectStore is the put/presign/delete contract the attachment gateway
// consumes. Keys are opaque; callers never build URLs from them directly.
type ObjectStore interface {
	// Put stores content under key. The call is bounded by the
	// implementation's timeout and fails with ErrUnavailable rather
	// than hanging.
	Put(ctx context.Context, key, contentType string, content io.Reader) error

	// PresignGet returns a time-bounded URL granting read access to the
	// object for ttl from issuance.
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)

	// Delete removes the object. Used for best-effort cleanup after the
	// owning message is purged.
	Delete(ctx context.Context, key string) error

	// Check verifies the backend is reachable. Used by health reporting
	// only; mailbox operations keep working when it fails.
	Check(ctx context.Context) error
}
