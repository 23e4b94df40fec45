package postgres

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/engsync/briefing/internal/platform/logger"
	"github.com/engsync/briefing/internal/store"
	"github.com/google/uuid"
)

// PostgresSubscriptionStore implements the store.SubscriptionStore interface
// using a PostgreSQL database.
type PostgresSubscriptionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.SubscriptionStore = (*PostgresSubscriptionStore)(nil)

// NewPostgresSubscriptionStore creates a new PostgresSubscriptionStore.
func NewPostgresSubscriptionStore(db store.DBTX, logger *slog.Logger) *PostgresSubscriptionStore {
	if db == nil {
		panic("db cannot be nil for PostgresSubscriptionStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSubscriptionStore{
		db:     db,
		logger: logger.With("component", "subscription_store"),
	}
}

// WithTx returns a new SubscriptionStore instance bound to the given
// transaction.
func (s *PostgresSubscriptionStore) WithTx(tx *sql.Tx) store.SubscriptionStore {
	return &PostgresSubscriptionStore{
		db:     tx,
		logger: s.logger,
	}
}

// Replace implements store.SubscriptionStore.Replace. When the store is
// backed by a plain database connection the delete and insert run in a
// single transaction, so a failed insert never leaves the recipient with no
// subscriptions.
func (s *PostgresSubscriptionStore) Replace(ctx context.Context, recipientID uuid.UUID, categoryIDs []int) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.WithTx(tx).Replace(ctx, recipientID, categoryIDs)
		})
	}

	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.Clear(ctx, recipientID); err != nil {
		return err
	}

	// Join against categories so category IDs the tracker no longer reports
	// are silently dropped instead of failing the whole form submit.
	query := `
		INSERT INTO subscriptions (recipient_id, category_id)
		SELECT $1, c.id FROM categories c WHERE c.id = $2
		ON CONFLICT (recipient_id, category_id) DO NOTHING
	`

	for _, categoryID := range categoryIDs {
		if _, err := s.db.ExecContext(ctx, query, recipientID, categoryID); err != nil {
			log.ErrorContext(ctx, "failed to insert subscription",
				"error", err,
				"recipient_id", recipientID,
				"category_id", categoryID)
			return MapError(err)
		}
	}

	log.DebugContext(ctx, "subscriptions replaced",
		"recipient_id", recipientID,
		"requested", len(categoryIDs))
	return nil
}

// Add implements store.SubscriptionStore.Add.
func (s *PostgresSubscriptionStore) Add(ctx context.Context, recipientID uuid.UUID, categoryID int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO subscriptions (recipient_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (recipient_id, category_id) DO NOTHING
	`

	if _, err := s.db.ExecContext(ctx, query, recipientID, categoryID); err != nil {
		log.ErrorContext(ctx, "failed to add subscription",
			"error", err,
			"recipient_id", recipientID,
			"category_id", categoryID)
		return MapError(err)
	}
	return nil
}

// Remove implements store.SubscriptionStore.Remove.
func (s *PostgresSubscriptionStore) Remove(ctx context.Context, recipientID uuid.UUID, categoryID int) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM subscriptions WHERE recipient_id = $1 AND category_id = $2`

	if _, err := s.db.ExecContext(ctx, query, recipientID, categoryID); err != nil {
		log.ErrorContext(ctx, "failed to remove subscription",
			"error", err,
			"recipient_id", recipientID,
			"category_id", categoryID)
		return MapError(err)
	}
	return nil
}

// Clear implements store.SubscriptionStore.Clear.
func (s *PostgresSubscriptionStore) Clear(ctx context.Context, recipientID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM subscriptions WHERE recipient_id = $1`

	if _, err := s.db.ExecContext(ctx, query, recipientID); err != nil {
		log.ErrorContext(ctx, "failed to clear subscriptions",
			"error", err,
			"recipient_id", recipientID)
		return MapError(err)
	}
	return nil
}
