// Package events decouples the components that want background work done
// (HTTP handlers, the cron scheduler) from the task pipeline that does it.
// Emitters publish TaskRequestEvents without knowing which handlers turn
// them into queued tasks, which keeps the api, scheduler, and task packages
// free of dependencies on each other.
package events
