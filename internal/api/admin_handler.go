package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/engsync/briefing/internal/api/shared"
	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/store"
	"github.com/engsync/briefing/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// recentDeliveryLimit caps the deliveries table on the admin overview.
const recentDeliveryLimit = 50

// CreateRecipientRequest is the body of POST /admin/recipients.
type CreateRecipientRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RecipientResponse is the JSON shape of a recipient on the admin API.
type RecipientResponse struct {
	ID            string   `json:"id"`
	Email         string   `json:"email"`
	Subscriptions []string `json:"subscriptions"`
}

// AdminHandler serves the basic-auth admin surface: the recipients and
// deliveries overview plus recipient management.
type AdminHandler struct {
	recipients store.RecipientStore
	deliveries store.DeliveryStore
	renderer   *web.Renderer
	logger     *slog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	recipients store.RecipientStore,
	deliveries store.DeliveryStore,
	renderer *web.Renderer,
	logger *slog.Logger,
) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{
		recipients: recipients,
		deliveries: deliveries,
		renderer:   renderer,
		logger:     logger.With("component", "admin_handler"),
	}
}

// Overview handles GET /admin requests with an HTML summary of recipients
// and recent deliveries.
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	recipients, err := h.recipients.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list recipients for overview", "error", err)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load recipients", err)
		return
	}

	deliveries, err := h.deliveries.ListRecent(r.Context(), recentDeliveryLimit)
	if err != nil {
		h.logger.Error("failed to list recent deliveries", "error", err)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to load deliveries", err)
		return
	}

	data := web.AdminData{
		Recipients: make([]web.AdminRecipient, len(recipients)),
		Deliveries: make([]web.AdminDelivery, len(deliveries)),
	}
	for i, recipient := range recipients {
		names := make([]string, len(recipient.Subscriptions))
		for j, sub := range recipient.Subscriptions {
			names[j] = sub.Name
		}
		data.Recipients[i] = web.AdminRecipient{
			ID:            recipient.ID.String(),
			Email:         recipient.Email,
			Subscriptions: strings.Join(names, ", "),
		}
	}
	for i, delivery := range deliveries {
		data.Deliveries[i] = web.AdminDelivery{
			When:          delivery.CreatedAt.Format("2006-01-02 15:04"),
			Subject:       delivery.Subject,
			CategoryCount: delivery.CategoryCount,
			TaskCount:     delivery.TaskCount,
			Status:        string(delivery.Status),
			Error:         delivery.Error,
		}
	}

	html, err := h.renderer.Admin(data)
	if err != nil {
		h.logger.Error("failed to render admin overview", "error", err)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to render overview", err)
		return
	}
	writeHTML(w, http.StatusOK, html)
}

// CreateRecipient handles POST /admin/recipients requests.
func (h *AdminHandler) CreateRecipient(w http.ResponseWriter, r *http.Request) {
	var req CreateRecipientRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "A valid email address is required")
		return
	}

	recipient, err := domain.NewRecipient(req.Email)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "A valid email address is required")
		return
	}

	if err := h.recipients.Create(r.Context(), recipient); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			shared.RespondWithError(w, r, http.StatusConflict, "Email is already registered")
			return
		}
		h.logger.Error("failed to create recipient", "error", err, "email", recipient.Email)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to create recipient", err)
		return
	}

	h.logger.Info("recipient created via admin", "email", recipient.Email)
	shared.RespondWithJSON(w, r, http.StatusCreated, recipientToResponse(recipient))
}

// DeleteRecipient handles DELETE /admin/recipients/{id} requests.
func (h *AdminHandler) DeleteRecipient(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid recipient ID")
		return
	}

	if err := h.recipients.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrRecipientNotFound) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Recipient not found")
			return
		}
		h.logger.Error("failed to delete recipient", "error", err, "recipient_id", id)
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to delete recipient", err)
		return
	}

	h.logger.Info("recipient deleted via admin", "recipient_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func recipientToResponse(recipient *domain.Recipient) RecipientResponse {
	subs := make([]string, len(recipient.Subscriptions))
	for i, sub := range recipient.Subscriptions {
		subs[i] = sub.Name
	}
	return RecipientResponse{
		ID:            recipient.ID.String(),
		Email:         recipient.Email,
		Subscriptions: subs,
	}
}
