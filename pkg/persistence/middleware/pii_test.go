package middleware_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/empassist/empassist/pkg/adapters/memory"
	"github.com/empassist/empassist/pkg/domain"
	"github.com/empassist/empassist/pkg/persistence/middleware"
)

func TestRedact_MasksIdentityAndValues(t *testing.T) {
	session := sampleSession("pii-session")

	redacted := middleware.Redact(session)

	require.Equal(t, "***", redacted.EmployeeID)
	require.Equal(t, "***", redacted.FirstName)
	require.Equal(t, "***", redacted.LastName)
	require.Equal(t, "***", redacted.Identity.EmployeeID)
	require.Equal(t, "***", redacted.PendingValues[domain.FieldAddress])

	// Structure and dialogue progress survive redaction.
	require.Equal(t, domain.PhaseCollectingUpdate, redacted.Phase)
	require.True(t, redacted.Validated)
	require.Equal(t, []domain.Field{domain.FieldAddress}, redacted.PendingFields)

	// The original is untouched.
	require.Equal(t, "EMP01012", session.EmployeeID)
	require.Equal(t, "5 Oak Avenue", session.PendingValues[domain.FieldAddress])
}

func TestRedact_LeavesEmptyFieldsAlone(t *testing.T) {
	session := domain.NewSession("fresh", sampleSession("x").CreatedAt)

	redacted := middleware.Redact(session)

	require.Empty(t, redacted.EmployeeID)
	require.Nil(t, redacted.Identity)
}

func TestAuditMiddleware_DoesNotAlterStoredData(t *testing.T) {
	underlying := memory.NewStore()
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	audited := middleware.NewAuditMiddleware(logger)(underlying)

	ctx := context.Background()
	require.NoError(t, audited.Save(ctx, sampleSession("audited")))

	loaded, err := audited.Load(ctx, "audited")
	require.NoError(t, err)
	require.Equal(t, "EMP01012", loaded.EmployeeID)
	require.Equal(t, "Brian", loaded.FirstName)

	// The log mentions the session but never the raw PII.
	logged := buf.String()
	require.Contains(t, logged, "audited")
	require.NotContains(t, logged, "EMP01012")
	require.NotContains(t, logged, "Brian")
}
