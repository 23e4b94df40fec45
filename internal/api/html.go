package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/engsync/briefing/internal/service"
	"github.com/engsync/briefing/internal/service/auth"
	"github.com/engsync/briefing/internal/web"
)

// writeHTML writes a rendered page with the given status code.
func writeHTML(w http.ResponseWriter, status int, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write([]byte(html)); err != nil {
		slog.Error("failed to write HTML response", "error", err)
	}
}

// htmlErrorPage maps a service or auth error to a status code and a
// user-facing confirmation page. Raw error details never reach the client.
func htmlErrorPage(w http.ResponseWriter, r *http.Request, renderer *web.Renderer, err error) {
	status, heading, message := classifyError(err)

	slog.Debug("rendering error page",
		"status", status,
		"path", r.URL.Path,
		"error", err)

	html, renderErr := renderer.Confirmation(web.ConfirmationData{
		Title:   heading,
		Heading: heading,
		Message: message,
	})
	if renderErr != nil {
		slog.Error("failed to render error page", "error", renderErr)
		http.Error(w, message, status)
		return
	}
	writeHTML(w, status, html)
}

func classifyError(err error) (status int, heading, message string) {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return http.StatusBadRequest, "Link Expired",
			"This link has expired. Request a fresh newsletter to get a new one."
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrWrongAction):
		return http.StatusBadRequest, "Invalid Link",
			"This link is invalid. Use the links from your most recent newsletter."
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, "Not Allowed",
			"The newsletter sender account cannot manage subscriptions."
	case errors.Is(err, service.ErrCategoryNotFound):
		return http.StatusNotFound, "Category Not Found",
			"The category in this link no longer exists."
	case errors.Is(err, service.ErrRecipientNotFound):
		return http.StatusNotFound, "Not Registered",
			"This email address is not registered for the newsletter."
	case errors.Is(err, service.ErrSnapshotUnavailable):
		return http.StatusServiceUnavailable, "Temporarily Unavailable",
			"The task tracker is not reachable right now. Try again in a few minutes."
	default:
		return http.StatusInternalServerError, "Something Went Wrong",
			"An unexpected error occurred. Try again later."
	}
}
