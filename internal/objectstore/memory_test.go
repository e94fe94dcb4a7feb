package objectstore

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutAndOpen(t *testing.T) {
	store := NewMemoryStore()

	err := store.Put(context.Background(), "key1", "text/plain", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	url, err := store.PresignGet(context.Background(), "key1", time.Minute)
	require.NoError(t, err)

	body, err := store.Open(url)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestMemoryStore_PresignUnknownKey(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.PresignGet(context.Background(), "missing", time.Minute)

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestMemoryStore_OpenAfterExpiry(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "key1", "text/plain", strings.NewReader("x")))

	url, err := store.PresignGet(context.Background(), "key1", time.Minute)
	require.NoError(t, err)

	store.SetClock(func() time.Time { return time.Now().Add(2 * time.Minute) })

	_, err = store.Open(url)
	assert.Error(t, err)
}

func TestMemoryStore_KeysWithSpecialCharactersRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	key := "550e8400-e29b-41d4-a716-446655440000_annual report (final).pdf"

	require.NoError(t, store.Put(context.Background(), key, "application/pdf", strings.NewReader("pdf")))

	url, err := store.PresignGet(context.Background(), key, time.Minute)
	require.NoError(t, err)

	body, err := store.Open(url)
	require.NoError(t, err)
	body.Close()
}

func TestMemoryStore_Delete(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Put(context.Background(), "key1", "text/plain", strings.NewReader("x")))

	err := store.Delete(context.Background(), "key1")

	assert.NoError(t, err)
	assert.Equal(t, 0, store.Len())

	// Deleting an absent key is not an error
	assert.NoError(t, store.Delete(context.Background(), "key1"))
}

func TestMemoryStore_FailureFlags(t *testing.T) {
	store := NewMemoryStore()
	store.FailPut = true

	err := store.Put(context.Background(), "key1", "text/plain", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnavailable)

	store.FailPut = false
	store.FailPresign = true
	require.NoError(t, store.Put(context.Background(), "key1", "text/plain", strings.NewReader("x")))

	_, err = store.PresignGet(context.Background(), "key1", time.Minute)
	assert.ErrorIs(t, err, ErrUnavailable)
}
