package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/service"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/store"
	"github.com/engsync/briefing/internal/web"
)

// DashboardHandler serves the live task overview page.
type DashboardHandler struct {
	newsletter service.NewsletterService
	tokens     auth.LinkTokenService
	recipients service.RecipientRepository
	renderer   *web.Renderer
	logger     *slog.Logger

	// now is replaceable in tests.
	now func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(
	newsletter service.NewsletterService,
	tokens auth.LinkTokenService,
	recipients service.RecipientRepository,
	renderer *web.Renderer,
	logger *slog.Logger,
) *DashboardHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardHandler{
		newsletter: newsletter,
		tokens:     tokens,
		recipients: recipients,
		renderer:   renderer,
		logger:     logger.With("component", "dashboard_handler"),
		now:        time.Now,
	}
}

// GetDashboard handles GET /dashboard requests. A valid ?token= query
// parameter narrows the view to the recipient's subscriptions, with
// placeholder sections for subscribed categories the tracker dropped.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	snapshot, enriched, err := h.newsletter.Snapshot(r.Context())
	if err != nil {
		h.logger.Error("failed to build dashboard snapshot", "error", err)
		htmlErrorPage(w, r, h.renderer, err)
		return
	}

	if token := r.URL.Query().Get("token"); token != "" {
		view, err := h.personalize(r, token, snapshot)
		if err != nil {
			htmlErrorPage(w, r, h.renderer, err)
			return
		}
		snapshot = view
	}

	html, err := h.renderer.Dashboard(snapshot, enriched, h.now())
	if err != nil {
		h.logger.Error("failed to render dashboard", "error", err)
		htmlErrorPage(w, r, h.renderer, err)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// personalize narrows the snapshot to the token holder's subscriptions. A
// token for an address that never registered still shows the full view;
// registration happens lazily on the manage page.
func (h *DashboardHandler) personalize(r *http.Request, token string, snapshot []domain.CategoryActivity) ([]domain.CategoryActivity, error) {
	claims, err := h.tokens.ValidateToken(r.Context(), token)
	if err != nil {
		return nil, err
	}

	recipient, err := h.recipients.GetByEmail(r.Context(), claims.Email)
	if err != nil {
		if errors.Is(err, store.ErrRecipientNotFound) {
			return snapshot, nil
		}
		h.logger.Error("failed to look up dashboard recipient",
			"error", err, "email", claims.Email)
		return nil, err
	}

	return service.PersonalizeSnapshot(recipient, snapshot), nil
}
