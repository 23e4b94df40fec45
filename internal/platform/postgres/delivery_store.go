package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/platform/logger"
	"github.com/engsync/briefing/internal/store"
	"github.com/google/uuid"
)

// PostgresDeliveryStore implements the store.DeliveryStore interface
// using a PostgreSQL database.
type PostgresDeliveryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.DeliveryStore = (*PostgresDeliveryStore)(nil)

// NewPostgresDeliveryStore creates a new PostgresDeliveryStore.
func NewPostgresDeliveryStore(db store.DBTX, logger *slog.Logger) *PostgresDeliveryStore {
	if db == nil {
		panic("db cannot be nil for PostgresDeliveryStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeliveryStore{
		db:     db,
		logger: logger.With("component", "delivery_store"),
	}
}

// WithTx returns a new DeliveryStore instance bound to the given transaction.
func (s *PostgresDeliveryStore) WithTx(tx *sql.Tx) store.DeliveryStore {
	return &PostgresDeliveryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.DeliveryStore.Create.
func (s *PostgresDeliveryStore) Create(ctx context.Context, delivery *domain.Delivery) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := delivery.Validate(); err != nil {
		log.WarnContext(ctx, "delivery validation failed during create",
			"error", err,
			"delivery_id", delivery.ID)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO deliveries (id, recipient_id, subject, category_count, task_count, status, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.ExecContext(ctx, query,
		delivery.ID,
		delivery.RecipientID,
		delivery.Subject,
		delivery.CategoryCount,
		delivery.TaskCount,
		string(delivery.Status),
		delivery.Error,
		delivery.CreatedAt,
	)
	if err != nil {
		log.ErrorContext(ctx, "failed to create delivery record",
			"error", err,
			"delivery_id", delivery.ID,
			"recipient_id", delivery.RecipientID)
		return MapError(err)
	}

	log.DebugContext(ctx, "delivery recorded",
		"delivery_id", delivery.ID,
		"status", delivery.Status)
	return nil
}

// ListRecent implements store.DeliveryStore.ListRecent.
func (s *PostgresDeliveryStore) ListRecent(ctx context.Context, limit int) ([]domain.Delivery, error) {
	query := `
		SELECT id, recipient_id, subject, category_count, task_count, status, error, created_at
		FROM deliveries
		ORDER BY created_at DESC
		LIMIT $1
	`
	return s.queryDeliveries(ctx, query, limit)
}

// ListForRecipient implements store.DeliveryStore.ListForRecipient.
func (s *PostgresDeliveryStore) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit int) ([]domain.Delivery, error) {
	query := `
		SELECT id, recipient_id, subject, category_count, task_count, status, error, created_at
		FROM deliveries
		WHERE recipient_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	return s.queryDeliveries(ctx, query, recipientID, limit)
}

func (s *PostgresDeliveryStore) queryDeliveries(ctx context.Context, query string, args ...any) ([]domain.Delivery, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.ErrorContext(ctx, "failed to query deliveries", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var deliveries []domain.Delivery
	for rows.Next() {
		var d domain.Delivery
		var status string
		var errMsg sql.NullString
		var createdAt time.Time

		err := rows.Scan(&d.ID, &d.RecipientID, &d.Subject, &d.CategoryCount,
			&d.TaskCount, &status, &errMsg, &createdAt)
		if err != nil {
			return nil, MapError(err)
		}

		d.Status = domain.DeliveryStatus(status)
		d.Error = errMsg.String
		d.CreatedAt = createdAt.UTC()
		deliveries = append(deliveries, d)
	}
	return deliveries, MapError(rows.Err())
}
