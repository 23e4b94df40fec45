// Package domain contains the core domain entities of the briefing service:
// tracked tasks and categories pulled from the external tracker, newsletter
// recipients with their subscription preferences, and delivery records.
// Entities validate themselves; persistence lives behind the store interfaces.
package domain
