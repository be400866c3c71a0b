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

// Accounts is the part of the access service the auth endpoints use.
type Accounts interface {
	Login(ctx context.Context, username, password string) (models.User, error)
	AddClient(ctx context.Context, gmail, password string) (models.User, error)
}

// TokenIssuer signs a session token for a logged-in user.
type TokenIssuer interface {
	Generate(user models.User) (string, error)
}

// AuthHandler owns the login and officer-provisioning endpoints.
type AuthHandler struct {
	accounts Accounts
	tokens   TokenIssuer
	log      *zap.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(accounts Accounts, tokens TokenIssuer, log *zap.Logger) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, log: log}
}

// Register attaches auth routes to the mux. admin wraps admin-only routes.
func (h *AuthHandler) Register(mux *http.ServeMux, admin func(http.Handler) http.Handler) {
	mux.HandleFunc("POST /api/login", h.handleLogin)
	mux.Handle("POST /api/admin/add-client", admin(http.HandlerFunc(h.handleAddClient)))
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	user, err := h.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "Invalid Credentials")
			return
		}
		h.log.Error("login failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	token, err := h.tokens.Generate(user)
	if err != nil {
		h.log.Error("generate token", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.LoginResponse{User: user.Username, Role: user.Role, Token: token})
}

func (h *AuthHandler) handleAddClient(w http.ResponseWriter, r *http.Request) {
	var req dto.AddClientRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	created, err := h.accounts.AddClient(r.Context(), req.Gmail, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyExists):
			respond.Error(w, http.StatusBadRequest, "User already exists")
		case errors.Is(err, services.ErrInvalidInput):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			h.log.Error("create user", zap.Error(err))
			respond.Error(w, http.StatusInternalServerError, "failed to create user")
		}
		return
	}
	h.log.Info("officer added", zap.String("username", created.Username))
	respond.JSON(w, http.StatusOK, dto.MessageResponse{Message: "New Officer Added Successfully"})
}
