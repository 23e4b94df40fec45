// Package task manages background job queuing and processing. Snapshot
// refreshes and newsletter broadcasts run here so HTTP handlers and the
// scheduler can trigger them without blocking. Jobs are idempotent and
// re-triggered on a schedule, so the queue is purely in-memory.
package task
