package store

import (
	"context"
	"database/sql"

	"github.com/engsync/briefing/internal/domain"
	"github.com/google/uuid"
)

// RecipientStore defines the interface for recipient persistence.
type RecipientStore interface {
	// Create saves a new recipient to the store.
	// Returns ErrEmailExists if the email is already registered.
	// Returns ErrInvalidEntity wrapping the domain validation error if the
	// recipient data is invalid.
	Create(ctx context.Context, recipient *domain.Recipient) error

	// GetByID retrieves a recipient by their unique ID, with subscriptions
	// loaded. Returns ErrRecipientNotFound if the recipient does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error)

	// GetByEmail retrieves a recipient by normalized email address, with
	// subscriptions loaded. Returns ErrRecipientNotFound if the recipient
	// does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.Recipient, error)

	// GetOrCreateByEmail retrieves the recipient with the given email,
	// creating them first if necessary. Used to auto-provision configured
	// broadcast recipients.
	GetOrCreateByEmail(ctx context.Context, email string) (*domain.Recipient, error)

	// List returns all recipients with their subscriptions loaded, ordered
	// by email.
	List(ctx context.Context) ([]*domain.Recipient, error)

	// Delete removes a recipient and their subscriptions.
	// Returns ErrRecipientNotFound if the recipient does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new RecipientStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) RecipientStore
}
