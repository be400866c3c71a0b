package storage

import (
	"context"
	"errors"

	"github.com/nhm-india/fund-tracker/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrOutOfRange indicates a write that would leave a stored number non-finite.
var ErrOutOfRange = errors.New("value out of range")

// UserStore captures credential persistence.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// LedgerStore captures allocation and audit trail persistence.
type LedgerStore interface {
	// ApplyTransaction adds delta to the state's allocation, creating the row
	// at zero if needed, and appends entry. Both writes commit together.
	// A result that does not fit a finite float64 rolls back with ErrOutOfRange.
	ApplyTransaction(ctx context.Context, entry models.AuditEntry, delta float64) (models.Project, error)
	// Funds reads every allocation and the audit trail, newest entry first.
	Funds(ctx context.Context) (models.Funds, error)
	// ClearAuditLog deletes every audit entry and reports how many were removed.
	ClearAuditLog(ctx context.Context) (int64, error)
}

// ResetStore captures the password-reset request queue.
type ResetStore interface {
	CreateResetRequest(ctx context.Context, req models.ResetRequest) (models.ResetRequest, error)
	ListResetRequests(ctx context.Context) ([]models.ResetRequest, error)
}

// Store is the full persistence handle injected into services.
type Store interface {
	UserStore
	LedgerStore
	ResetStore
	Close() error
}
