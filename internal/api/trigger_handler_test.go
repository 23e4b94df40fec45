package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/engsync/briefing/internal/cache"
	"github.com/engsync/briefing/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshSnapshotTrigger(t *testing.T) {
	t.Parallel()

	t.Run("invalidates cache and queues refresh", func(t *testing.T) {
		t.Parallel()

		snapshotCache := cache.NewSnapshotCache(time.Hour)
		snapshotCache.SetBasic(testSnapshot())
		emitter := &fakeEmitter{}

		handler := NewTriggerHandler(emitter, snapshotCache, testLogger())

		rr := httptest.NewRecorder()
		handler.RefreshSnapshot(rr, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Contains(t, rr.Body.String(), "refresh queued")

		_, ok := snapshotCache.Freshest()
		assert.False(t, ok, "cache should be invalidated")

		require.Len(t, emitter.events, 1)
		assert.Equal(t, task.TaskTypeSnapshotRefresh, emitter.events[0].Type)
	})

	t.Run("emit failure returns 503", func(t *testing.T) {
		t.Parallel()

		emitter := &fakeEmitter{err: errors.New("queue full")}
		handler := NewTriggerHandler(emitter, cache.NewSnapshotCache(time.Hour), testLogger())

		rr := httptest.NewRecorder()
		handler.RefreshSnapshot(rr, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.NotContains(t, rr.Body.String(), "queue full")
	})
}

func TestBroadcastTrigger(t *testing.T) {
	t.Parallel()

	t.Run("queues broadcast", func(t *testing.T) {
		t.Parallel()

		emitter := &fakeEmitter{}
		handler := NewTriggerHandler(emitter, cache.NewSnapshotCache(time.Hour), testLogger())

		rr := httptest.NewRecorder()
		handler.TriggerBroadcast(rr, httptest.NewRequest(http.MethodPost, "/admin/broadcast", nil))

		require.Equal(t, http.StatusAccepted, rr.Code)
		assert.Contains(t, rr.Body.String(), "broadcast queued")

		require.Len(t, emitter.events, 1)
		assert.Equal(t, task.TaskTypeNewsletterBroadcast, emitter.events[0].Type)
	})

	t.Run("emit failure returns 503", func(t *testing.T) {
		t.Parallel()

		emitter := &fakeEmitter{err: errors.New("queue closed")}
		handler := NewTriggerHandler(emitter, cache.NewSnapshotCache(time.Hour), testLogger())

		rr := httptest.NewRecorder()
		handler.TriggerBroadcast(rr, httptest.NewRequest(http.MethodPost, "/admin/broadcast", nil))

		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})
}
