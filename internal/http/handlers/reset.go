package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/http/respond"
	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/models/dto"
)

// ResetQueue accepts password-reset requests.
type ResetQueue interface {
	RequestReset(ctx context.Context, email string) (models.ResetRequest, error)
}

// ResetHandler owns the forgot-password endpoint.
type ResetHandler struct {
	resets ResetQueue
	log    *zap.Logger
}

// NewResetHandler constructs the forgot-password handler.
func NewResetHandler(resets ResetQueue, log *zap.Logger) *ResetHandler {
	return &ResetHandler{resets: resets, log: log}
}

// Register attaches the forgot-password route to mux. It is open to everyone.
func (h *ResetHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/forgot-password", h.handleForgotPassword)
}

func (h *ResetHandler) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if _, err := h.resets.RequestReset(r.Context(), req.Email); err != nil {
		h.log.Error("queue reset request", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to queue reset request")
		return
	}
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "Reset request sent to Admin"})
}
