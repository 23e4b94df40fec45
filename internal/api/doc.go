// Package api contains the HTTP handlers of the newsletter system: the
// public dashboard and token-authenticated subscription pages, the refresh
// trigger, and the basic-auth admin surface. Handlers translate between HTTP
// and the service layer and render HTML through internal/web.
package api
