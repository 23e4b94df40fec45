package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTaskRequestEvent(t *testing.T) {
	t.Parallel()

	type refreshPayload struct {
		Reason string `json:"reason"`
	}

	event, err := NewTaskRequestEvent("snapshot_refresh", refreshPayload{Reason: "manual"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "snapshot_refresh", event.Type)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)

	var decoded refreshPayload
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, "manual", decoded.Reason)
}

func TestNewTaskRequestEventNilPayload(t *testing.T) {
	t.Parallel()

	event, err := NewTaskRequestEvent("newsletter_broadcast", nil)
	require.NoError(t, err)
	assert.Equal(t, json.RawMessage("null"), event.Payload)
}

// recordingHandler implements EventHandler for emitter tests.
type recordingHandler struct {
	lastEvent *TaskRequestEvent
	err       error
	handled   int
}

func (h *recordingHandler) HandleEvent(_ context.Context, event *TaskRequestEvent) error {
	h.lastEvent = event
	h.handled++
	return h.err
}
