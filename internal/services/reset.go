package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nhm-india/fund-tracker/internal/models"
	"github.com/nhm-india/fund-tracker/internal/storage"
)

// ResetService queues password-reset requests for an operator to handle.
type ResetService struct {
	resets storage.ResetStore
	log    *zap.Logger
	now    func() time.Time
}

// NewResetService constructs the service.
func NewResetService(resets storage.ResetStore, log *zap.Logger) *ResetService {
	return &ResetService{resets: resets, log: log, now: time.Now}
}

// RequestReset records a request for email. The email is not checked
// against existing accounts.
func (s *ResetService) RequestReset(ctx context.Context, email string) (models.ResetRequest, error) {
	req, err := s.resets.CreateResetRequest(ctx, models.ResetRequest{Email: email, CreatedAt: s.now().UTC()})
	if err != nil {
		return models.ResetRequest{}, err
	}
	s.log.Info("password reset requested", zap.String("email", email))
	return req, nil
}

// ListRequests returns queued requests, newest first.
func (s *ResetService) ListRequests(ctx context.Context) ([]models.ResetRequest, error) {
	return s.resets.ListResetRequests(ctx)
}
