package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/empassist/empassist/pkg/adapters/memory"
	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	_, err := io.ReadFull(rand.Reader, k)
	require.NoError(t, err)
	return k
}

func sampleSession(id string) *domain.Session {
	s := domain.NewSession(id, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	s.EmployeeID = "EMP01012"
	s.FirstName = "Brian"
	s.LastName = "Phillips"
	s.Phase = domain.PhaseCollectingUpdate
	s.Validated = true
	s.Identity = &domain.Identity{EmployeeID: "EMP01012", FirstName: "Brian", LastName: "Phillips"}
	s.AddPendingField(domain.FieldAddress)
	s.SetPendingValue(domain.FieldAddress, "5 Oak Avenue", false)
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	key := generateKey(t)
	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})(underlying)

	ctx := context.Background()
	original := sampleSession("enc-session")

	require.NoError(t, secure.Save(ctx, original))

	// The underlying record must be an opaque envelope.
	stored, err := underlying.Load(ctx, "enc-session")
	require.NoError(t, err)
	require.NotEmpty(t, stored.Sealed)
	require.Empty(t, stored.EmployeeID)
	require.Empty(t, stored.FirstName)
	require.Nil(t, stored.Identity)
	require.Empty(t, stored.PendingFields)

	// Loading through the middleware restores the full session.
	loaded, err := secure.Load(ctx, "enc-session")
	require.NoError(t, err)
	require.Equal(t, "EMP01012", loaded.EmployeeID)
	require.Equal(t, "Brian", loaded.FirstName)
	require.True(t, loaded.Validated)
	require.Equal(t, "5 Oak Avenue", loaded.PendingValues[domain.FieldAddress])
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	ctx := context.Background()

	// Written under the old key.
	oldStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlying)
	require.NoError(t, oldStore.Save(ctx, sampleSession("rotating")))

	// Readable with the new key as long as the old one is a fallback.
	rotated := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlying)

	loaded, err := rotated.Load(ctx, "rotating")
	require.NoError(t, err)
	require.Equal(t, "EMP01012", loaded.EmployeeID)
}

func TestEncryptionMiddleware_WrongKeyFails(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	writer := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	require.NoError(t, writer.Save(ctx, sampleSession("locked")))

	reader := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := reader.Load(ctx, "locked")
	require.ErrorContains(t, err, "failed to decrypt session")
}

func TestEncryptionMiddleware_RejectsPlainRecords(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()

	// A record written without encryption must not pass through silently.
	require.NoError(t, underlying.Save(ctx, sampleSession("plain")))

	secure := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlying)
	_, err := secure.Load(ctx, "plain")
	require.ErrorContains(t, err, "missing encrypted data envelope")
}

func TestEncryptionMiddleware_ShortKeyPanics(t *testing.T) {
	require.Panics(t, func() {
		middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	})
}
