package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/eduauth/internal/auth"
	"github.com/DukeRupert/eduauth/internal/csrf"
	"github.com/DukeRupert/eduauth/internal/templ/pages/dashboard"
)

// DashboardHandler serves the signed-in landing page.
type DashboardHandler struct {
	logger   *slog.Logger
	isSecure bool
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(logger *slog.Logger, isSecure bool) *DashboardHandler {
	return &DashboardHandler{
		logger:   logger,
		isSecure: isSecure,
	}
}

// Show greets the signed-in user by name. Must run behind RequireUser.
func (h *DashboardHandler) Show(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"id":            user.ID,
				"name":          user.Name,
				"email":         user.Email,
				"emailVerified": user.EmailVerified,
			},
		})
		return
	}

	data := dashboard.PageData{
		UserName:  user.DisplayName(),
		Email:     user.Email,
		Flash:     popFlash(w, r, h.isSecure),
		CSRFToken: csrf.EnsureToken(w, r, h.isSecure),
	}
	renderComponent(w, r, h.logger, http.StatusOK, dashboard.Page(data))
}
