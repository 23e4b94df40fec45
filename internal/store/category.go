package store

import (
	"context"
	"database/sql"

	"github.com/engsync/briefing/internal/domain"
)

// CategoryStore defines the interface for tracker category persistence.
// Categories mirror the tracker API and are upserted during snapshot syncs;
// they are never deleted so that stale subscriptions remain visible.
type CategoryStore interface {
	// Sync upserts the given categories by tracker ID, updating names of
	// existing rows. Returns the number of newly inserted categories.
	Sync(ctx context.Context, categories []domain.Category) (int, error)

	// GetByID retrieves a category by its tracker ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id int) (*domain.Category, error)

	// List returns all known categories ordered by name.
	List(ctx context.Context) ([]domain.Category, error)

	// WithTx returns a new CategoryStore instance that uses the provided
	// transaction.
	WithTx(tx *sql.Tx) CategoryStore
}
