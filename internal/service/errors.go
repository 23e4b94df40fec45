package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to HTTP
// status codes.
var (
	// ErrAccessDenied indicates the system sender account attempted to manage
	// subscriptions. API layer should map this to HTTP 403 Forbidden.
	ErrAccessDenied = errors.New("the system sender account cannot manage subscriptions")

	// ErrCategoryNotFound indicates the category referenced by a link token
	// does not exist. API layer should map this to HTTP 404 Not Found.
	ErrCategoryNotFound = errors.New("category not found")

	// ErrRecipientNotFound indicates the recipient referenced by a link token
	// is not registered. API layer should map this to HTTP 404 Not Found.
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrSnapshotUnavailable indicates no tracker snapshot could be produced.
	ErrSnapshotUnavailable = errors.New("tracker snapshot unavailable")
)
