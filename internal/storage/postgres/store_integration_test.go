package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/require"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// TestStoreIntegration exercises the store against a live Postgres database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_POSTGRES_INTEGRATION") != "true" {
		t.Skip("set RUN_POSTGRES_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := Open(ctx, dbURL)
	require.NoError(t, err)
	defer store.Close()

	suffix := time.Now().UnixNano()
	username := fmt.Sprintf("officer_%d@gov.in", suffix)
	_, err = store.CreateUser(ctx, models.User{Username: username, PasswordHash: "x", Role: models.RoleGovernment})
	require.NoError(t, err)
	_, err = store.CreateUser(ctx, models.User{Username: username, PasswordHash: "y", Role: models.RoleGovernment})
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	state := fmt.Sprintf("State-%d", suffix)
	now := time.Now().UTC()
	_, err = store.ApplyTransaction(ctx, models.AuditEntry{CreatedAt: now, User: username, State: state, Type: models.TypeAdd, Amount: 100, Note: "grant"}, 100)
	require.NoError(t, err)
	p, err := store.ApplyTransaction(ctx, models.AuditEntry{CreatedAt: now, User: username, State: state, Type: models.TypeSubtract, Amount: 30, Note: "spent"}, -30)
	require.NoError(t, err)
	require.Equal(t, 70.0, p.Allocation)

	funds, err := store.Funds(ctx)
	require.NoError(t, err)
	require.Equal(t, 70.0, funds.Allocations[state])

	huge := models.AuditEntry{CreatedAt: now, User: username, State: state + "-max", Type: models.TypeAdd, Amount: 1e308}
	_, err = store.ApplyTransaction(ctx, huge, 1e308)
	require.NoError(t, err)
	_, err = store.ApplyTransaction(ctx, huge, 1e308)
	require.ErrorIs(t, err, storage.ErrOutOfRange)

	_, err = store.CreateResetRequest(ctx, models.ResetRequest{Email: username, CreatedAt: now})
	require.NoError(t, err)
	reqs, err := store.ListResetRequests(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, reqs)
}

func loadDotEnv() {
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		_ = godotenv.Overload(path)
	}
}
