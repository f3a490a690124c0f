package handlers

import (
	"context"
	"net/http"

	"github.com/BradenHooton/lockbox/internal/models"
	pkghttp "github.com/BradenHooton/lockbox/pkg/http"
)

// AccountLister lists accounts for the admin view
type AccountLister interface {
	ListAccounts(ctx context.Context) ([]models.AccountSummary, error)
}

// AdminHandler handles admin HTTP requests. Authorization is done by middleware.
type AdminHandler struct {
	service AccountLister
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(service AccountLister) *AdminHandler {
	return &AdminHandler{service: service}
}

// ListUsersResponse is the body of GET /users
type ListUsersResponse struct {
	Users []models.AccountSummary `json:"users"`
}

// ListUsers handles GET /users
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAccounts(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list users")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, ListUsersResponse{Users: users})
}
