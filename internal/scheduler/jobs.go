package scheduler

import (
	"context"
	"fmt"

	"github.com/engsync/briefing/internal/events"
	"github.com/engsync/briefing/internal/task"
)

// EventJob is a scheduled job that emits one task request event per run.
// The event handler in the task package turns it into a queued task, so a
// slow refresh or broadcast never blocks the cron loop beyond the emit.
type EventJob struct {
	name     string
	taskType string
	emitter  events.EventEmitter
}

// NewRefreshJob creates the periodic snapshot refresh job.
func NewRefreshJob(emitter events.EventEmitter) *EventJob {
	return &EventJob{
		name:     "snapshot-refresh",
		taskType: task.TaskTypeSnapshotRefresh,
		emitter:  emitter,
	}
}

// NewBroadcastJob creates the weekly newsletter broadcast job.
func NewBroadcastJob(emitter events.EventEmitter) *EventJob {
	return &EventJob{
		name:     "newsletter-broadcast",
		taskType: task.TaskTypeNewsletterBroadcast,
		emitter:  emitter,
	}
}

// Name returns the job name used in scheduler logs.
func (j *EventJob) Name() string {
	return j.name
}

// Run emits the job's task request event.
func (j *EventJob) Run() error {
	event, err := events.NewTaskRequestEvent(j.taskType, nil)
	if err != nil {
		return fmt.Errorf("failed to create %s event: %w", j.taskType, err)
	}
	if err := j.emitter.EmitEvent(context.Background(), event); err != nil {
		return fmt.Errorf("failed to emit %s event: %w", j.taskType, err)
	}
	return nil
}

var _ Job = (*EventJob)(nil)
