package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/engsync/briefing/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminRouter(h *AdminHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/admin", h.Overview)
	r.Post("/admin/recipients", h.CreateRecipient)
	r.Delete("/admin/recipients/{id}", h.DeleteRecipient)
	return r
}

func TestAdminOverview(t *testing.T) {
	t.Parallel()

	t.Run("renders recipients and deliveries", func(t *testing.T) {
		t.Parallel()

		recipients := newFakeRecipientStore()
		subscriber := recipients.add("alice@example.com", testCategory(7, "Bug Fixes"))
		recipients.add("bob@example.com")

		delivery, err := domain.NewDelivery(subscriber.ID, "📰 My Bulletin – 2026-08-24", 2, 3, domain.DeliverySent, nil)
		require.NoError(t, err)
		failed, err := domain.NewDelivery(subscriber.ID, "📰 My Bulletin – 2026-08-23", 2, 3, domain.DeliveryFailed, errors.New("smtp 550"))
		require.NoError(t, err)
		deliveries := &fakeDeliveryStore{deliveries: []domain.Delivery{*delivery, *failed}}

		handler := NewAdminHandler(recipients, deliveries, testRenderer(t), testLogger())

		rr := httptest.NewRecorder()
		adminRouter(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		body := rr.Body.String()
		assert.Contains(t, body, "alice@example.com")
		assert.Contains(t, body, "bob@example.com")
		assert.Contains(t, body, "Bug Fixes")
		assert.Contains(t, body, "2026-08-24")
		assert.Contains(t, body, "smtp 550")
	})

	t.Run("store failure returns 500", func(t *testing.T) {
		t.Parallel()

		recipients := newFakeRecipientStore()
		recipients.listErr = errors.New("db down")

		handler := NewAdminHandler(recipients, &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := httptest.NewRecorder()
		adminRouter(handler).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin", nil))

		require.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "db down")
	})
}

func TestCreateRecipient(t *testing.T) {
	t.Parallel()

	post := func(handler *AdminHandler, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/admin/recipients", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		adminRouter(handler).ServeHTTP(rr, req)
		return rr
	}

	t.Run("creates and returns recipient", func(t *testing.T) {
		t.Parallel()

		recipients := newFakeRecipientStore()
		handler := NewAdminHandler(recipients, &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := post(handler, `{"email": "New.User@Example.com"}`)

		require.Equal(t, http.StatusCreated, rr.Code)

		var resp RecipientResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "new.user@example.com", resp.Email)
		assert.NotEmpty(t, resp.ID)
		assert.Empty(t, resp.Subscriptions)

		_, err := recipients.GetByEmail(context.Background(), "new.user@example.com")
		assert.NoError(t, err)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		t.Parallel()

		recipients := newFakeRecipientStore()
		recipients.add("taken@example.com")
		handler := NewAdminHandler(recipients, &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := post(handler, `{"email": "taken@example.com"}`)

		require.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "already registered")
	})

	t.Run("invalid email returns 400", func(t *testing.T) {
		t.Parallel()

		handler := NewAdminHandler(newFakeRecipientStore(), &fakeDeliveryStore{}, testRenderer(t), testLogger())

		for _, body := range []string{`{"email": "not-an-email"}`, `{"email": ""}`, `{}`} {
			rr := post(handler, body)
			assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
		}
	})

	t.Run("malformed JSON returns 400", func(t *testing.T) {
		t.Parallel()

		handler := NewAdminHandler(newFakeRecipientStore(), &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := post(handler, `{"email": `)
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDeleteRecipient(t *testing.T) {
	t.Parallel()

	del := func(handler *AdminHandler, id string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		adminRouter(handler).ServeHTTP(rr,
			httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/admin/recipients/%s", id), nil))
		return rr
	}

	t.Run("deletes recipient", func(t *testing.T) {
		t.Parallel()

		recipients := newFakeRecipientStore()
		recipient := recipients.add("gone@example.com")
		handler := NewAdminHandler(recipients, &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := del(handler, recipient.ID.String())

		require.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, []uuid.UUID{recipient.ID}, recipients.deleted)
	})

	t.Run("unknown recipient returns 404", func(t *testing.T) {
		t.Parallel()

		handler := NewAdminHandler(newFakeRecipientStore(), &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := del(handler, uuid.NewString())
		require.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("malformed ID returns 400", func(t *testing.T) {
		t.Parallel()

		handler := NewAdminHandler(newFakeRecipientStore(), &fakeDeliveryStore{}, testRenderer(t), testLogger())

		rr := del(handler, "not-a-uuid")
		require.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
