package tests

import (
	"context"
	"testing"
	"time"

	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SessionStoreContractTest is a reusable suite that verifies an adapter
// complies with ports.SessionStore semantics.
func SessionStoreContractTest(t *testing.T, store ports.SessionStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := store.Load(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Save_Load_RoundTrip", func(t *testing.T) {
		s := domain.NewSession("contract-1", time.Now().UTC())
		s.EmployeeID = "EMP01012"
		s.SetPendingValue(domain.FieldAddress, "123 Main Street, Seattle, WA 98101", false)
		s.ValidationAttempts = 1

		require.NoError(t, store.Save(ctx, s))

		loaded, err := store.Load(ctx, "contract-1")
		require.NoError(t, err)
		assert.Equal(t, "EMP01012", loaded.EmployeeID)
		assert.Equal(t, 1, loaded.ValidationAttempts)
		assert.Equal(t, "123 Main Street, Seattle, WA 98101", loaded.PendingValues[domain.FieldAddress])
		assert.Equal(t, []domain.Field{domain.FieldAddress}, loaded.PendingFields)
	})

	t.Run("Load_IsIsolatedFromStore", func(t *testing.T) {
		s := domain.NewSession("contract-2", time.Now().UTC())
		require.NoError(t, store.Save(ctx, s))

		first, err := store.Load(ctx, "contract-2")
		require.NoError(t, err)
		first.AddPendingField(domain.FieldDepartment)

		second, err := store.Load(ctx, "contract-2")
		require.NoError(t, err)
		assert.Empty(t, second.PendingFields, "mutating a loaded session must not leak into the store")
	})

	t.Run("Delete", func(t *testing.T) {
		s := domain.NewSession("contract-3", time.Now().UTC())
		require.NoError(t, store.Save(ctx, s))
		require.NoError(t, store.Delete(ctx, "contract-3"))

		_, err := store.Load(ctx, "contract-3")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("List", func(t *testing.T) {
		s := domain.NewSession("contract-list", time.Now().UTC())
		require.NoError(t, store.Save(ctx, s))

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, "contract-list")
	})
}
