package services

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
	"github.com/nhm-india/fund-tracker/internal/storage/sqlite"
)

const adminUser = "jeet@123gmail.com"

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.Open(context.Background(), "file:svc_"+uuid.NewString()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func apply(t *testing.T, svc *LedgerService, state, amount, kind, note, user string) models.Project {
	t.Helper()
	p, err := svc.ApplyTransaction(context.Background(), TransactionRequest{
		State: state, Amount: amount, Type: kind, Note: note, User: user,
	})
	require.NoError(t, err)
	return p
}

func TestLogin(t *testing.T) {
	store := newStore(t)
	svc := NewAccessService(store, zap.NewNop())
	ctx := context.Background()

	_, err := svc.ProvisionDefaultAdmin(ctx, adminUser, "jeet123")
	require.NoError(t, err)

	user, err := svc.Login(ctx, adminUser, "jeet123")
	require.NoError(t, err)
	require.Equal(t, adminUser, user.Username)
	require.Equal(t, models.RoleAdmin, user.Role)

	_, wrongPassword := svc.Login(ctx, adminUser, "nope")
	_, unknownUser := svc.Login(ctx, "ghost@gov.in", "jeet123")
	require.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	require.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	require.Equal(t, wrongPassword.Error(), unknownUser.Error(), "failures must not reveal whether the user exists")
}

func TestAddClient(t *testing.T) {
	store := newStore(t)
	svc := NewAccessService(store, zap.NewNop())
	ctx := context.Background()

	created, err := svc.AddClient(ctx, "officer@gov.in", "pw-one")
	require.NoError(t, err)
	require.Equal(t, models.RoleGovernment, created.Role)

	_, err = svc.AddClient(ctx, "officer@gov.in", "a-different-password")
	require.ErrorIs(t, err, ErrAlreadyExists)

	user, err := svc.Login(ctx, "officer@gov.in", "pw-one")
	require.NoError(t, err)
	require.Equal(t, models.RoleGovernment, user.Role)
}

func TestAddClient_StoresUsernameAsGiven(t *testing.T) {
	svc := NewAccessService(newStore(t), zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddClient(ctx, " officer@gov.in", "pw")
	require.NoError(t, err)

	_, err = svc.Login(ctx, " officer@gov.in", "pw")
	require.NoError(t, err)
	_, err = svc.Login(ctx, "officer@gov.in", "pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAddClient_InvalidInput(t *testing.T) {
	svc := NewAccessService(newStore(t), zap.NewNop())
	ctx := context.Background()

	_, err := svc.AddClient(ctx, "", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddClient(ctx, "   ", "pw")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddClient(ctx, "a@gov.in", "")
	require.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.AddClient(ctx, "a@gov.in", string(make([]byte, 80)))
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestProvisionDefaultAdmin_Idempotent(t *testing.T) {
	store := newStore(t)
	svc := NewAccessService(store, zap.NewNop())
	ctx := context.Background()

	created, err := svc.ProvisionDefaultAdmin(ctx, adminUser, "jeet123")
	require.NoError(t, err)
	require.True(t, created)
	first, err := store.FindByUsername(ctx, adminUser)
	require.NoError(t, err)

	created, err = svc.ProvisionDefaultAdmin(ctx, adminUser, "changed")
	require.NoError(t, err)
	require.False(t, created)
	second, err := store.FindByUsername(ctx, adminUser)
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.PasswordHash, second.PasswordHash)
}

// raceUserStore reports the admin missing, then loses the insert race.
type raceUserStore struct{}

func (raceUserStore) CreateUser(context.Context, models.User) (models.User, error) {
	return models.User{}, storage.ErrAlreadyExists
}

func (raceUserStore) FindByUsername(context.Context, string) (models.User, error) {
	return models.User{}, storage.ErrNotFound
}

func TestProvisionDefaultAdmin_LostRace(t *testing.T) {
	svc := NewAccessService(raceUserStore{}, zap.NewNop())

	created, err := svc.ProvisionDefaultAdmin(context.Background(), adminUser, "jeet123")
	require.NoError(t, err)
	require.False(t, created)
}

func TestApplyTransaction_KeralaScenario(t *testing.T) {
	store := newStore(t)
	svc := NewLedgerService(store, zap.NewNop())

	apply(t, svc, "Kerala", "100.0", "add", "initial grant", adminUser)
	p := apply(t, svc, "Kerala", "30.0", "subtract", "disbursed", adminUser)
	require.Equal(t, 70.0, p.Allocation)

	funds, err := svc.ListFunds(context.Background())
	require.NoError(t, err)
	require.Equal(t, 70.0, funds.Allocations["Kerala"])
	require.Len(t, funds.Logs, 2)
	require.Equal(t, "disbursed", funds.Logs[0].Note)
	require.Equal(t, "initial grant", funds.Logs[1].Note)
	require.Equal(t, models.TypeSubtract, funds.Logs[0].Type)
	require.Equal(t, 30.0, funds.Logs[0].Amount)
}

func TestApplyTransaction_UnknownTypeSubtracts(t *testing.T) {
	svc := NewLedgerService(newStore(t), zap.NewNop())

	p := apply(t, svc, "Goa", "50.0", "withdrawal", "typo type", "x")
	require.Equal(t, -50.0, p.Allocation)
	apply(t, svc, "Goa", "1", "subtract", "", "x")

	funds, err := svc.ListFunds(context.Background())
	require.NoError(t, err)
	require.Equal(t, models.TypeSubtract, funds.Logs[1].Type)
	require.Equal(t, "withdrawal", funds.Logs[1].RequestedType)
	require.Empty(t, funds.Logs[0].RequestedType)
}

func TestApplyTransaction_NotNumeric(t *testing.T) {
	store := newStore(t)
	svc := NewLedgerService(store, zap.NewNop())

	for _, amount := range []string{"", "abc", "12,5", "NaN", "Inf", "1e400", "-1e400"} {
		_, err := svc.ApplyTransaction(context.Background(), TransactionRequest{State: "Goa", Amount: amount, Type: "add"})
		require.ErrorIs(t, err, ErrNotNumeric, "amount %q", amount)
	}

	funds, err := svc.ListFunds(context.Background())
	require.NoError(t, err)
	require.Empty(t, funds.Allocations)
	require.Empty(t, funds.Logs)
}

func TestApplyTransaction_SumOfSequence(t *testing.T) {
	svc := NewLedgerService(newStore(t), zap.NewNop())
	rng := rand.New(rand.NewSource(42))
	kinds := []string{"add", "subtract", "add", "refund", ""}

	var want float64
	for i := 0; i < 40; i++ {
		cents := rng.Intn(100000)
		amount := strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
		kind := kinds[rng.Intn(len(kinds))]

		parsed, err := strconv.ParseFloat(amount, 64)
		require.NoError(t, err)
		if kind == "add" {
			want += parsed
		} else {
			want -= parsed
		}
		apply(t, svc, "Punjab", amount, kind, "", "u")
	}

	funds, err := svc.ListFunds(context.Background())
	require.NoError(t, err)
	require.InDelta(t, want, funds.Allocations["Punjab"], 1e-6)
	require.Len(t, funds.Logs, 40)
}

func TestApplyTransaction_UsesClock(t *testing.T) {
	svc := NewLedgerService(newStore(t), zap.NewNop())
	fixed := time.Date(2026, 4, 1, 12, 30, 0, 0, time.FixedZone("IST", 19800))
	svc.now = func() time.Time { return fixed }

	apply(t, svc, "Delhi", "1", "add", "", "u")

	funds, err := svc.ListFunds(context.Background())
	require.NoError(t, err)
	require.Equal(t, time.UTC, funds.Logs[0].CreatedAt.Location())
	require.True(t, funds.Logs[0].CreatedAt.Equal(fixed))
}

func TestClearAuditLog(t *testing.T) {
	svc := NewLedgerService(newStore(t), zap.NewNop())
	ctx := context.Background()

	apply(t, svc, "Kerala", "10", "add", "", "u")
	apply(t, svc, "Goa", "5", "subtract", "", "u")

	n, err := svc.ClearAuditLog(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	funds, err := svc.ListFunds(ctx)
	require.NoError(t, err)
	require.Empty(t, funds.Logs)
	require.Equal(t, map[string]float64{"Kerala": 10, "Goa": -5}, funds.Allocations)
}

type failingLedger struct{ storage.LedgerStore }

func (failingLedger) ApplyTransaction(context.Context, models.AuditEntry, float64) (models.Project, error) {
	return models.Project{}, errors.New("database is locked")
}

func TestApplyTransaction_AllocationOverflow(t *testing.T) {
	svc := NewLedgerService(newStore(t), zap.NewNop())
	ctx := context.Background()

	apply(t, svc, "Kerala", "1e308", "add", "", "u")
	_, err := svc.ApplyTransaction(ctx, TransactionRequest{State: "Kerala", Amount: "1e308", Type: "add"})
	require.ErrorIs(t, err, ErrOutOfRange)

	funds, err := svc.ListFunds(ctx)
	require.NoError(t, err)
	require.Equal(t, 1e308, funds.Allocations["Kerala"])
	require.Len(t, funds.Logs, 1)
}

func TestApplyTransaction_StoreError(t *testing.T) {
	svc := NewLedgerService(failingLedger{}, zap.NewNop())

	_, err := svc.ApplyTransaction(context.Background(), TransactionRequest{State: "Goa", Amount: "1", Type: "add"})
	require.ErrorContains(t, err, "database is locked")
	require.NotErrorIs(t, err, ErrNotNumeric)
}

func TestResetService(t *testing.T) {
	svc := NewResetService(newStore(t), zap.NewNop())
	ctx := context.Background()

	_, err := svc.RequestReset(ctx, "unknown@gov.in")
	require.NoError(t, err)
	_, err = svc.RequestReset(ctx, "unknown@gov.in")
	require.NoError(t, err)

	reqs, err := svc.ListRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	require.Equal(t, "unknown@gov.in", reqs[0].Email)
}
