package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/engsync/briefing/internal/service"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/web"
	"github.com/go-chi/chi/v5"
)

// SubscriptionHandler serves the token-authenticated subscription pages
// reached from newsletter email links.
type SubscriptionHandler struct {
	subscriptions service.SubscriptionService
	tokens        auth.LinkTokenService
	renderer      *web.Renderer
	baseURL       string
	logger        *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(
	subscriptions service.SubscriptionService,
	tokens auth.LinkTokenService,
	renderer *web.Renderer,
	baseURL string,
	logger *slog.Logger,
) *SubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		tokens:        tokens,
		renderer:      renderer,
		baseURL:       strings.TrimRight(baseURL, "/"),
		logger:        logger.With("component", "subscription_handler"),
	}
}

// GetManagePage handles GET /manage/{token} requests.
func (h *SubscriptionHandler) GetManagePage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	view, err := h.subscriptions.ResolveManage(r.Context(), token)
	if err != nil {
		htmlErrorPage(w, r, h.renderer, err)
		return
	}

	data := web.ManagePageData{
		Token:      token,
		Email:      view.Recipient.Email,
		Categories: make([]web.ManageCategory, len(view.Categories)),
	}
	for i, option := range view.Categories {
		data.Categories[i] = web.ManageCategory{
			ID:         option.Category.ID,
			Name:       option.Category.Name,
			Subscribed: option.Subscribed,
		}
	}

	html, err := h.renderer.ManagePage(data)
	if err != nil {
		h.logger.Error("failed to render manage page", "error", err)
		htmlErrorPage(w, r, h.renderer, err)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// SaveSubscriptions handles POST /subscriptions form submissions from the
// manage page. Checked categories arrive as category_{id} form fields.
func (h *SubscriptionHandler) SaveSubscriptions(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		htmlErrorPage(w, r, h.renderer, auth.ErrMissingToken)
		return
	}

	token := r.PostFormValue("token")
	categoryIDs := parseCategoryFields(r.PostForm)

	recipient, err := h.subscriptions.SaveSubscriptions(r.Context(), token, categoryIDs)
	if err != nil {
		htmlErrorPage(w, r, h.renderer, err)
		return
	}

	message := fmt.Sprintf("Your preferences have been saved. You are subscribed to %d categories.", len(categoryIDs))
	if len(categoryIDs) == 0 {
		message = "Your preferences have been saved. With no categories selected you will receive the full bulletin."
	}

	h.logger.Info("subscriptions updated via manage page",
		"email", recipient.Email, "category_count", len(categoryIDs))

	h.confirmation(w, r, web.ConfirmationData{
		Title:     "Preferences Saved",
		Heading:   "Preferences Saved",
		Message:   message,
		ManageURL: h.manageURL(token),
	})
}

// Subscribe handles GET /subscribe/{token} one-click links.
func (h *SubscriptionHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	change, err := h.subscriptions.Subscribe(r.Context(), token)
	if err != nil {
		htmlErrorPage(w, r, h.renderer, err)
		return
	}

	h.confirmation(w, r, web.ConfirmationData{
		Title:     "Subscribed",
		Heading:   "You're Subscribed",
		Message:   fmt.Sprintf("%s will now receive updates for %s.", change.Email, change.CategoryName),
		ManageURL: h.manageURLFor(r, change.Email),
	})
}

// Unsubscribe handles GET /unsubscribe/{token} one-click links.
func (h *SubscriptionHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	change, err := h.subscriptions.Unsubscribe(r.Context(), token)
	if err != nil {
		htmlErrorPage(w, r, h.renderer, err)
		return
	}

	h.confirmation(w, r, web.ConfirmationData{
		Title:     "Unsubscribed",
		Heading:   "You're Unsubscribed",
		Message:   fmt.Sprintf("%s will no longer receive updates for %s.", change.Email, change.CategoryName),
		ManageURL: h.manageURLFor(r, change.Email),
	})
}

func (h *SubscriptionHandler) confirmation(w http.ResponseWriter, r *http.Request, data web.ConfirmationData) {
	html, err := h.renderer.Confirmation(data)
	if err != nil {
		h.logger.Error("failed to render confirmation page", "error", err)
		htmlErrorPage(w, r, h.renderer, err)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

func (h *SubscriptionHandler) manageURL(token string) string {
	return fmt.Sprintf("%s/manage/%s", h.baseURL, token)
}

// manageURLFor mints a manage token so confirmation pages can link to the
// full preferences form. A minting failure only drops the link.
func (h *SubscriptionHandler) manageURLFor(r *http.Request, email string) string {
	token, err := h.tokens.GenerateManageToken(r.Context(), email)
	if err != nil {
		h.logger.Error("failed to generate manage token for confirmation",
			"error", err, "email", email)
		return ""
	}
	return h.manageURL(token)
}

// parseCategoryFields extracts category IDs from category_{id} form fields.
func parseCategoryFields(form map[string][]string) []int {
	ids := make([]int, 0, len(form))
	for field := range form {
		rest, ok := strings.CutPrefix(field, "category_")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
