package store

import (
	"context"
	"database/sql"

	"github.com/engsync/briefing/internal/domain"
	"github.com/google/uuid"
)

// DeliveryStore defines the interface for the newsletter delivery audit log.
type DeliveryStore interface {
	// Create records the outcome of one personalized send.
	// Returns ErrInvalidEntity wrapping the domain validation error if the
	// delivery record is invalid.
	Create(ctx context.Context, delivery *domain.Delivery) error

	// ListRecent returns the most recent deliveries, newest first, up to
	// limit rows.
	ListRecent(ctx context.Context, limit int) ([]domain.Delivery, error)

	// ListForRecipient returns the recipient's deliveries, newest first, up
	// to limit rows.
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Delivery, error)

	// WithTx returns a new DeliveryStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) DeliveryStore
}
