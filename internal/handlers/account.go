package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/lockbox/internal/models"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
)

// AccountServiceInterface defines the account operations exposed over HTTP
type AccountServiceInterface interface {
	Register(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error)
	Login(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error)
}

// AccountHandler handles registration and login
type AccountHandler struct {
	service  AccountServiceInterface
	ipConfig *pkghttp.IPConfig
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface, ipConfig *pkghttp.IPConfig) *AccountHandler {
	return &AccountHandler{
		service:  service,
		ipConfig: ipConfig,
	}
}

// CredentialsRequest is the body of /register and /login.
// Presence and format are checked by the service so that rate limiting applies first.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"max=320"`
	Password string `json:"password" validate:"max=1024"`
}

// AuthResponse is the JSON body for register and login
type AuthResponse struct {
	*models.AuthResult
	Locked bool `json:"locked,omitempty"`
}

// Register handles POST /register
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.Register)
}

// Login handles POST /login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.service.Login)
}

type accountOp func(ctx context.Context, sourceKey, email, password string) (*models.AuthResult, error)

func (h *AccountHandler) handle(w http.ResponseWriter, r *http.Request, op accountOp) {
	var req CredentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	sourceKey := pkghttp.ExtractClientIP(r, h.ipConfig)

	result, err := op(r.Context(), sourceKey, req.Email, req.Password)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	if result.Status == models.StatusRateLimited {
		pkghttp.SetRetryAfter(w, result.RetryAfter)
	}

	pkghttp.WriteJSON(w, statusFor(result.Status), AuthResponse{
		AuthResult: result,
		Locked:     result.Status == models.StatusLocked,
	})
}

// statusFor maps a domain outcome to an HTTP status code
func statusFor(status models.AuthStatus) int {
	switch status {
	case models.StatusOK:
		return http.StatusOK
	case models.StatusInvalidInput:
		return http.StatusBadRequest
	case models.StatusAlreadyRegistered:
		return http.StatusConflict
	case models.StatusInvalidCredentials:
		return http.StatusUnauthorized
	case models.StatusLocked:
		return http.StatusForbidden
	case models.StatusRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
