package api

import (
	"log/slog"
	"net/http"

	"github.com/engsync/briefing/internal/api/shared"
	"github.com/engsync/briefing/internal/cache"
	"github.com/engsync/briefing/internal/events"
	"github.com/engsync/briefing/internal/task"
)

// TriggerHandler queues background work in response to HTTP triggers. The
// work itself runs on the task runner; responses return immediately.
type TriggerHandler struct {
	emitter events.EventEmitter
	cache   *cache.SnapshotCache
	logger  *slog.Logger
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(emitter events.EventEmitter, snapshotCache *cache.SnapshotCache, logger *slog.Logger) *TriggerHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriggerHandler{
		emitter: emitter,
		cache:   snapshotCache,
		logger:  logger.With("component", "trigger_handler"),
	}
}

// RefreshSnapshot handles POST /api/refresh requests: the cached snapshots
// are invalidated and a refresh task is queued.
func (h *TriggerHandler) RefreshSnapshot(w http.ResponseWriter, r *http.Request) {
	h.cache.Invalidate()

	if err := h.emit(r, task.TaskTypeSnapshotRefresh); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			"Failed to queue snapshot refresh", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"status": "refresh queued",
	})
}

// TriggerBroadcast handles POST /admin/broadcast requests.
func (h *TriggerHandler) TriggerBroadcast(w http.ResponseWriter, r *http.Request) {
	if err := h.emit(r, task.TaskTypeNewsletterBroadcast); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusServiceUnavailable,
			"Failed to queue newsletter broadcast", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"status": "broadcast queued",
	})
}

func (h *TriggerHandler) emit(r *http.Request, taskType string) error {
	event, err := events.NewTaskRequestEvent(taskType, nil)
	if err != nil {
		return err
	}

	h.logger.Info("queueing background task", "task_type", taskType)
	return h.emitter.EmitEvent(r.Context(), event)
}
