package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/engsync/briefing/internal/events"
)

// TaskRunnerSubmitter accepts tasks for background execution. Aligned with
// *Runner, narrowed so tests can fake submission.
type TaskRunnerSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// DispatchEventHandler implements the events.EventHandler interface,
// turning TaskRequestEvents into queued background tasks. It is the one place
// that knows which task type each event maps to.
type DispatchEventHandler struct {
	runner      TaskRunnerSubmitter
	refresher   SnapshotRefresher
	broadcaster Broadcaster
	logger      *slog.Logger
}

// NewDispatchEventHandler creates the event handler behind the task pipeline.
func NewDispatchEventHandler(
	runner TaskRunnerSubmitter,
	refresher SnapshotRefresher,
	broadcaster Broadcaster,
	logger *slog.Logger,
) *DispatchEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchEventHandler{
		runner:      runner,
		refresher:   refresher,
		broadcaster: broadcaster,
		logger:      logger.With("component", "task_dispatch_handler"),
	}
}

// HandleEvent builds the task for the event type and submits it to the
// runner.
func (h *DispatchEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	var (
		t   Task
		err error
	)

	switch event.Type {
	case TaskTypeSnapshotRefresh:
		t, err = NewRefreshTask(h.refresher)
	case TaskTypeNewsletterBroadcast:
		t, err = NewBroadcastTask(h.broadcaster)
	default:
		return fmt.Errorf("unknown task type: %s", event.Type)
	}
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"event_id", event.ID,
			"event_type", event.Type)
		return fmt.Errorf("failed to create task for event %s: %w", event.ID, err)
	}

	if err := h.runner.Submit(ctx, t); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", t.ID(),
			"task_type", t.Type())
		return fmt.Errorf("failed to submit task %s: %w", t.ID(), err)
	}

	h.logger.Debug("task dispatched",
		"task_id", t.ID(),
		"task_type", t.Type(),
		"event_id", event.ID)
	return nil
}

var _ events.EventHandler = (*DispatchEventHandler)(nil)
