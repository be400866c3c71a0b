package handlers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/http/respond"
	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/models/dto"
	"github.com/nhm-india/fund-tracker/internal/services"
)

// Ledger is the part of the ledger service the fund endpoints use.
type Ledger interface {
	ApplyTransaction(ctx context.Context, req services.TransactionRequest) (models.Project, error)
	ListFunds(ctx context.Context) (models.Funds, error)
	ClearAuditLog(ctx context.Context) (int64, error)
}

// FundsHandler owns the allocation and audit trail endpoints.
type FundsHandler struct {
	ledger Ledger
	log    *zap.Logger
}

// NewFundsHandler constructs the handler.
func NewFundsHandler(ledger Ledger, log *zap.Logger) *FundsHandler {
	return &FundsHandler{ledger: ledger, log: log}
}

// Register attaches fund routes to the mux. admin wraps admin-only routes.
func (h *FundsHandler) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("GET /api/funds", h.handleFunds)
	mux.HandleFunc("POST /api/sync", h.handleSync)
	mux.Handle("POST /api/admin/clear-logs", admin(http.HandlerFunc(h.handleClearLogs)))
}

func (h *FundsHandler) handleFunds(w http.ResponseWriter, r *http.Request) {
	funds, err := h.ledger.ListFunds(r.Context())
	if err != nil {
		h.log.Error("list funds", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load funds")
		return
	}
	respond.JSON(w, http.StatusOK, dto.NewFundsResponse(funds))
}

func (h *FundsHandler) handleSync(w http.ResponseWriter, r *http.Request) {
	var req dto.SyncRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	_, err := h.ledger.ApplyTransaction(r.Context(), services.TransactionRequest{
		State:  req.State,
		Amount: req.AmountText(),
		Type:   req.Type,
		Note:   req.Note,
		User:   req.User,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotNumeric) || errors.Is(err, services.ErrOutOfRange) {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("apply transaction", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to apply transaction")
		return
	}
	respond.JSON(w, http.StatusOK, dto.SyncResponse{Success: true})
}

func (h *FundsHandler) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if _, err := h.ledger.ClearAuditLog(r.Context()); err != nil {
		h.log.Error("clear audit log", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to clear audit history")
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Audit History Cleared"})
}
