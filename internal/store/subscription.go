package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
)

// SubscriptionStore defines the interface for the recipient-category
// subscription mapping.
type SubscriptionStore interface {
	// Replace atomically replaces the recipient's subscriptions with the
	// given category IDs. Unknown category IDs are ignored rather than
	// rejected; the manage form can race a category re-sync.
	Replace(ctx context.Context, recipientID uuid.UUID, categoryIDs []int) error

	// Add subscribes the recipient to a single category. Adding an existing
	// subscription is a no-op.
	Add(ctx context.Context, recipientID uuid.UUID, categoryID int) error

	// Remove unsubscribes the recipient from a single category. Removing a
	// missing subscription is a no-op.
	Remove(ctx context.Context, recipientID uuid.UUID, categoryID int) error

	// Clear removes all subscriptions for the recipient.
	Clear(ctx context.Context, recipientID uuid.UUID) error

	// WithTx returns a new SubscriptionStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) SubscriptionStore
}
