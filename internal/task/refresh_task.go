package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/engsync/briefing/internal/domain"
	"github.com/google/uuid"
)

// SnapshotRefresher runs the snapshot refresh pipeline. Aligned with
// service.NewsletterService.
type SnapshotRefresher interface {
	Refresh(ctx context.Context) ([]domain.CategoryActivity, error)
}

// RefreshTask rebuilds the enriched tracker snapshot in the background.
type RefreshTask struct {
	id        uuid.UUID
	refresher SnapshotRefresher
}

// NewRefreshTask creates a snapshot refresh task.
func NewRefreshTask(refresher SnapshotRefresher) (*RefreshTask, error) {
	if refresher == nil {
		return nil, errors.New("refresher cannot be nil")
	}
	return &RefreshTask{
		id:        uuid.New(),
		refresher: refresher,
	}, nil
}

// ID returns the task's unique identifier.
func (t *RefreshTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *RefreshTask) Type() string {
	return TaskTypeSnapshotRefresh
}

// Execute runs the refresh pipeline and discards the snapshot; it lands in
// the cache as a side effect.
func (t *RefreshTask) Execute(ctx context.Context) error {
	if _, err := t.refresher.Refresh(ctx); err != nil {
		return fmt.Errorf("snapshot refresh failed: %w", err)
	}
	return nil
}

var _ Task = (*RefreshTask)(nil)
