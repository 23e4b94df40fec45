package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/engsync/briefing/internal/service"
	"github.com/google/uuid"
)

// Broadcaster sends the newsletter to every recipient. Aligned with
// service.BroadcastService.
type Broadcaster interface {
	Broadcast(ctx context.Context) (*service.BroadcastReport, error)
}

// BroadcastTask sends the personalized newsletter in the background.
type BroadcastTask struct {
	id          uuid.UUID
	broadcaster Broadcaster
}

// NewBroadcastTask creates a newsletter broadcast task.
func NewBroadcastTask(broadcaster Broadcaster) (*BroadcastTask, error) {
	if broadcaster == nil {
		return nil, errors.New("broadcaster cannot be nil")
	}
	return &BroadcastTask{
		id:          uuid.New(),
		broadcaster: broadcaster,
	}, nil
}

// ID returns the task's unique identifier.
func (t *BroadcastTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier.
func (t *BroadcastTask) Type() string {
	return TaskTypeNewsletterBroadcast
}

// Execute runs the broadcast. The per-recipient outcomes are recorded in the
// delivery log by the broadcast service itself.
func (t *BroadcastTask) Execute(ctx context.Context) error {
	if _, err := t.broadcaster.Broadcast(ctx); err != nil {
		return fmt.Errorf("newsletter broadcast failed: %w", err)
	}
	return nil
}

var _ Task = (*BroadcastTask)(nil)
