package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/platform/logger"
	"github.com/engsync/briefing/internal/store"
	"github.com/google/uuid"
)

// PostgresRecipientStore implements the store.RecipientStore interface
// using a PostgreSQL database.
type PostgresRecipientStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// Ensure implementation satisfies the interface at compile time.
var _ store.RecipientStore = (*PostgresRecipientStore)(nil)

// NewPostgresRecipientStore creates a new PostgresRecipientStore.
func NewPostgresRecipientStore(db store.DBTX, logger *slog.Logger) *PostgresRecipientStore {
	if db == nil {
		panic("db cannot be nil for PostgresRecipientStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRecipientStore{
		db:     db,
		logger: logger.With("component", "recipient_store"),
	}
}

// WithTx returns a new RecipientStore instance bound to the given transaction.
func (s *PostgresRecipientStore) WithTx(tx *sql.Tx) store.RecipientStore {
	return &PostgresRecipientStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.RecipientStore.Create.
func (s *PostgresRecipientStore) Create(ctx context.Context, recipient *domain.Recipient) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := recipient.Validate(); err != nil {
		log.WarnContext(ctx, "recipient validation failed during create",
			"error", err,
			"recipient_id", recipient.ID)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO recipients (id, email, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		recipient.ID,
		domain.NormalizeEmail(recipient.Email),
		recipient.Name,
		recipient.CreatedAt,
		recipient.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.WarnContext(ctx, "email already exists", "recipient_id", recipient.ID)
			return store.ErrEmailExists
		}
		log.ErrorContext(ctx, "failed to create recipient",
			"error", err,
			"recipient_id", recipient.ID)
		return MapError(err)
	}

	log.DebugContext(ctx, "recipient created", "recipient_id", recipient.ID)
	return nil
}

// GetByID implements store.RecipientStore.GetByID.
func (s *PostgresRecipientStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recipient, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, name, created_at, updated_at
		FROM recipients
		WHERE id = $1
	`

	recipient, err := s.scanRecipient(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.DebugContext(ctx, "recipient not found by ID", "recipient_id", id)
			return nil, store.ErrRecipientNotFound
		}
		log.ErrorContext(ctx, "failed to get recipient by ID",
			"error", err,
			"recipient_id", id)
		return nil, MapError(err)
	}

	if err := s.loadSubscriptions(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// GetByEmail implements store.RecipientStore.GetByEmail.
func (s *PostgresRecipientStore) GetByEmail(ctx context.Context, email string) (*domain.Recipient, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, name, created_at, updated_at
		FROM recipients
		WHERE email = $1
	`

	recipient, err := s.scanRecipient(s.db.QueryRowContext(ctx, query, domain.NormalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.DebugContext(ctx, "recipient not found by email")
			return nil, store.ErrRecipientNotFound
		}
		log.ErrorContext(ctx, "failed to get recipient by email", "error", err)
		return nil, MapError(err)
	}

	if err := s.loadSubscriptions(ctx, recipient); err != nil {
		return nil, err
	}
	return recipient, nil
}

// GetOrCreateByEmail implements store.RecipientStore.GetOrCreateByEmail.
// A concurrent insert of the same email is resolved by re-fetching.
func (s *PostgresRecipientStore) GetOrCreateByEmail(ctx context.Context, email string) (*domain.Recipient, error) {
	recipient, err := s.GetByEmail(ctx, email)
	if err == nil {
		return recipient, nil
	}
	if !errors.Is(err, store.ErrRecipientNotFound) {
		return nil, err
	}

	recipient, err = domain.NewRecipient(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	if err := s.Create(ctx, recipient); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			return s.GetByEmail(ctx, email)
		}
		return nil, err
	}

	return recipient, nil
}

// List implements store.RecipientStore.List.
func (s *PostgresRecipientStore) List(ctx context.Context) ([]*domain.Recipient, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, email, name, created_at, updated_at
		FROM recipients
		ORDER BY email
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.ErrorContext(ctx, "failed to list recipients", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var recipients []*domain.Recipient
	for rows.Next() {
		recipient, err := s.scanRecipient(rows)
		if err != nil {
			log.ErrorContext(ctx, "failed to scan recipient row", "error", err)
			return nil, MapError(err)
		}
		recipients = append(recipients, recipient)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	for _, recipient := range recipients {
		if err := s.loadSubscriptions(ctx, recipient); err != nil {
			return nil, err
		}
	}

	return recipients, nil
}

// Delete implements store.RecipientStore.Delete. Subscriptions are removed
// by the ON DELETE CASCADE on the subscriptions table.
func (s *PostgresRecipientStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `DELETE FROM recipients WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		log.ErrorContext(ctx, "failed to delete recipient",
			"error", err,
			"recipient_id", id)
		return MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return MapError(err)
	}
	if affected == 0 {
		log.DebugContext(ctx, "recipient not found for delete", "recipient_id", id)
		return store.ErrRecipientNotFound
	}

	log.DebugContext(ctx, "recipient deleted", "recipient_id", id)
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresRecipientStore) scanRecipient(row rowScanner) (*domain.Recipient, error) {
	var recipient domain.Recipient
	var name sql.NullString
	var createdAt, updatedAt time.Time

	err := row.Scan(&recipient.ID, &recipient.Email, &name, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	recipient.Name = name.String
	recipient.CreatedAt = createdAt.UTC()
	recipient.UpdatedAt = updatedAt.UTC()
	return &recipient, nil
}

// loadSubscriptions populates the recipient's subscribed categories.
func (s *PostgresRecipientStore) loadSubscriptions(ctx context.Context, recipient *domain.Recipient) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT c.id, c.name, c.updated_at
		FROM subscriptions sub
		JOIN categories c ON c.id = sub.category_id
		WHERE sub.recipient_id = $1
		ORDER BY c.name
	`

	rows, err := s.db.QueryContext(ctx, query, recipient.ID)
	if err != nil {
		log.ErrorContext(ctx, "failed to load subscriptions",
			"error", err,
			"recipient_id", recipient.ID)
		return MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var category domain.Category
		var updatedAt time.Time
		if err := rows.Scan(&category.ID, &category.Name, &updatedAt); err != nil {
			return MapError(err)
		}
		category.UpdatedAt = updatedAt.UTC()
		recipient.Subscriptions = append(recipient.Subscriptions, category)
	}
	return MapError(rows.Err())
}
