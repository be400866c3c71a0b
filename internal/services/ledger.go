package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// TransactionRequest is one allocation change as submitted by a client.
type TransactionRequest struct {
	State  string
	Amount string
	Type   string
	Note   string
	User   string
}

// LedgerService applies transactions and reads the ledger.
type LedgerService struct {
	ledger storage.LedgerStore
	log    *zap.Logger
	now    func() time.Time
}

// NewLedgerService constructs the service.
func NewLedgerService(ledger storage.LedgerStore, log *zap.Logger) *LedgerService {
	return &LedgerService{ledger: ledger, log: log, now: time.Now}
}

// ParseAmount parses a transaction amount as a decimal that fits a finite float64.
func ParseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || math.IsInf(amount.InexactFloat64(), 0) {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrNotNumeric, raw)
	}
	return amount, nil
}

// ApplyTransaction credits the state's allocation for type "add" and debits
// it for any other type, creating the state on first use, and records the
// change in the audit trail. Both writes commit or neither does.
func (s *LedgerService) ApplyTransaction(ctx context.Context, req TransactionRequest) (models.Project, error) {
	amount, err := ParseAmount(req.Amount)
	if err != nil {
		return models.Project{}, err
	}

	kind, known := models.ParseTransactionType(req.Type)
	if !known {
		s.log.Warn("unrecognized transaction type treated as subtract",
			zap.String("type", req.Type), zap.String("state", req.State))
	}

	delta := amount
	if kind == models.TypeSubtract {
		delta = amount.Neg()
	}

	entry := models.AuditEntry{
		CreatedAt: s.now().UTC(),
		User:      req.User,
		State:     req.State,
		Type:      kind,
		Amount:    amount.InexactFloat64(),
		Note:      req.Note,
	}
	if !known {
		entry.RequestedType = req.Type
	}
	project, err := s.ledger.ApplyTransaction(ctx, entry, delta.InexactFloat64())
	if err != nil {
		if errors.Is(err, storage.ErrOutOfRange) {
			return models.Project{}, fmt.Errorf("%w: %s", ErrOutOfRange, req.State)
		}
		return models.Project{}, fmt.Errorf("apply transaction: %w", err)
	}

	s.log.Info("transaction applied",
		zap.String("state", project.State),
		zap.String("type", string(kind)),
		zap.String("amount", amount.String()),
		zap.Float64("allocation", project.Allocation),
		zap.String("user", req.User),
	)
	return project, nil
}

// ListFunds returns every allocation and the audit trail, newest first.
func (s *LedgerService) ListFunds(ctx context.Context) (models.Funds, error) {
	funds, err := s.ledger.Funds(ctx)
	if err != nil {
		return models.Funds{}, fmt.Errorf("list funds: %w", err)
	}
	return funds, nil
}

// ClearAuditLog irreversibly removes the whole audit trail. Allocations are untouched.
func (s *LedgerService) ClearAuditLog(ctx context.Context) (int64, error) {
	n, err := s.ledger.ClearAuditLog(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Warn("audit log cleared", zap.Int64("deleted", n))
	return n, nil
}
