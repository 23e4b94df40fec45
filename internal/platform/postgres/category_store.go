package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/platform/logger"
	"github.com/engsync/briefing/internal/store"
)

// PostgresCategoryStore implements the store.CategoryStore interface
// using a PostgreSQL database.
type PostgresCategoryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// NewPostgresCategoryStore creates a new PostgresCategoryStore.
func NewPostgresCategoryStore(db store.DBTX, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil for PostgresCategoryStore")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With("component", "category_store"),
	}
}

// WithTx returns a new CategoryStore instance bound to the given transaction.
func (s *PostgresCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore {
	return &PostgresCategoryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Sync implements store.CategoryStore.Sync. Categories are keyed by their
// tracker IDs, so the upsert conflicts on the primary key.
func (s *PostgresCategoryStore) Sync(ctx context.Context, categories []domain.Category) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO categories (id, name, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, updated_at = EXCLUDED.updated_at
		RETURNING (xmax = 0) AS inserted
	`

	now := time.Now().UTC()
	inserted := 0
	for _, category := range categories {
		var isNew bool
		err := s.db.QueryRowContext(ctx, query, category.ID, category.Name, now).Scan(&isNew)
		if err != nil {
			log.ErrorContext(ctx, "failed to upsert category",
				"error", err,
				"category_id", category.ID)
			return inserted, MapError(err)
		}
		if isNew {
			inserted++
		}
	}

	log.DebugContext(ctx, "categories synced",
		"total", len(categories),
		"inserted", inserted)
	return inserted, nil
}

// GetByID implements store.CategoryStore.GetByID.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id int) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, updated_at FROM categories WHERE id = $1`

	var category domain.Category
	var updatedAt time.Time
	err := s.db.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.DebugContext(ctx, "category not found", "category_id", id)
			return nil, store.ErrCategoryNotFound
		}
		log.ErrorContext(ctx, "failed to get category", "error", err, "category_id", id)
		return nil, MapError(err)
	}

	category.UpdatedAt = updatedAt.UTC()
	return &category, nil
}

// List implements store.CategoryStore.List.
func (s *PostgresCategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT id, name, updated_at FROM categories ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		log.ErrorContext(ctx, "failed to list categories", "error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var categories []domain.Category
	for rows.Next() {
		var category domain.Category
		var updatedAt time.Time
		if err := rows.Scan(&category.ID, &category.Name, &updatedAt); err != nil {
			return nil, MapError(err)
		}
		category.UpdatedAt = updatedAt.UTC()
		categories = append(categories, category)
	}
	return categories, MapError(rows.Err())
}
