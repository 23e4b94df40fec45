package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/engsync/briefing/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(config.TrackerConfig{
		BaseURL:          server.URL,
		APIKey:           "test-key",
		TimeoutSeconds:   5,
		FetchConcurrency: 4,
	}, slog.Default())
	require.NoError(t, err)
	return client, server
}

func TestGetAllCategories(t *testing.T) {
	t.Parallel()

	t.Run("bare list with modern field names", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/GetAllCategories", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
			fmt.Fprint(w, `[{"TaskCategoryId": 7, "TaskCategoryName": "ScribeRyte Issues"}]`)
		}))

		categories, err := client.GetAllCategories(context.Background())
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, 7, categories[0].ID)
		assert.Equal(t, "ScribeRyte Issues", categories[0].Name)
	})

	t.Run("Data envelope with legacy field names", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"Data": [{"CategoryId": 12, "CategoryName": "Bug Fixes"}]}`)
		}))

		categories, err := client.GetAllCategories(context.Background())
		require.NoError(t, err)
		require.Len(t, categories, 1)
		assert.Equal(t, 12, categories[0].ID)
		assert.Equal(t, "Bug Fixes", categories[0].Name)
	})

	t.Run("upstream error surfaces", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))

		_, err := client.GetAllCategories(context.Background())
		assert.Error(t, err)
	})
}

func TestGetCategoryTasks(t *testing.T) {
	t.Parallel()

	t.Run("tasksList envelope", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/GetCategoryTasks", r.URL.Path)
			assert.Equal(t, "7", r.URL.Query().Get("CategoryId"))
			fmt.Fprint(w, `{"tasksList": [{"taskId": 101, "taskSubject": "Fix Login Bug", "taskStatus": "In Progress", "taskPriority": "High", "assigneeName": "Alice"}]}`)
		}))

		tasks, err := client.GetCategoryTasks(context.Background(), 7)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 101, tasks[0].ID)
		assert.Equal(t, "Fix Login Bug", tasks[0].Subject)
		assert.Equal(t, "Alice", tasks[0].Assignee)
	})

	t.Run("department fallback above ID threshold", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/GetCategoryTasks":
				fmt.Fprint(w, `[]`)
			case "/GetDepartmentTasks":
				assert.Equal(t, "1022", r.URL.Query().Get("DepartmentId"))
				fmt.Fprint(w, `{"Data": [{"taskId": 200, "taskSubject": "Dept task"}]}`)
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
			}
		}))

		tasks, err := client.GetCategoryTasks(context.Background(), 1022)
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, 200, tasks[0].ID)
	})

	t.Run("no department fallback for small IDs", func(t *testing.T) {
		t.Parallel()

		var deptCalled atomic.Bool
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/GetDepartmentTasks" {
				deptCalled.Store(true)
			}
			fmt.Fprint(w, `[]`)
		}))

		tasks, err := client.GetCategoryTasks(context.Background(), 7)
		require.NoError(t, err)
		assert.Empty(t, tasks)
		assert.False(t, deptCalled.Load())
	})
}

func TestGetTaskComments(t *testing.T) {
	t.Parallel()

	now := time.Now()
	recent := now.AddDate(0, 0, -2).Format("2006-01-02T15:04:05")
	older := now.AddDate(0, 0, -3).Format("2006-01-02T15:04:05")
	stale := now.AddDate(0, 0, -10).Format("2006-01-02T15:04:05")

	t.Run("filters to window and sorts chronologically", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, 131, body["TaskId"])
			assert.Equal(t, -1, body["PageSize"])

			fmt.Fprintf(w, `{"Data": {"FollowUpHistoryDetails": [
				{"FollowUpDate": %q, "TaskFollowUpComments": "newest update"},
				{"FollowUpDate": %q, "FollowUpComment": "older update"},
				{"FollowUpDate": %q, "Comment": "too old"},
				{"FollowUpDate": %q, "Comment": "   "},
				{"Comment": "missing date"}
			]}}`, recent, older, stale, recent)
		}))

		comments, err := client.GetTaskComments(context.Background(), 131)
		require.NoError(t, err)
		require.Equal(t, []string{"older update", "newest update"}, comments)
	})

	t.Run("falls back to small page when full fetch fails", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var body map[string]int
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

			if calls.Add(1) == 1 {
				assert.Equal(t, -1, body["PageSize"])
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			assert.Equal(t, 20, body["PageSize"])
			fmt.Fprintf(w, `{"Data": {"FollowUpHistoryDetails": [{"FollowUpDate": %q, "Comment": "recovered"}]}}`, recent)
		}))

		comments, err := client.GetTaskComments(context.Background(), 55)
		require.NoError(t, err)
		assert.Equal(t, []string{"recovered"}, comments)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("both fetches failing returns error", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))

		_, err := client.GetTaskComments(context.Background(), 55)
		assert.Error(t, err)
	})
}

func TestFetchSnapshot(t *testing.T) {
	t.Parallel()

	t.Run("fetches tasks for every category and injects missing stream", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/GetAllCategories":
				fmt.Fprint(w, `[{"CategoryId": 7, "CategoryName": "Bugs"}]`)
			case "/GetCategoryTasks":
				fmt.Fprintf(w, `[{"taskId": 1, "taskSubject": "for category %s"}]`, r.URL.Query().Get("CategoryId"))
			case "/GetDepartmentTasks":
				fmt.Fprint(w, `[]`)
			}
		}))

		activities, err := client.FetchSnapshot(context.Background())
		require.NoError(t, err)
		require.Len(t, activities, 2)

		byID := map[int]string{}
		for _, activity := range activities {
			byID[activity.CategoryID] = activity.CategoryName
		}
		assert.Equal(t, "Bugs", byID[7])
		assert.Equal(t, "ScribeRyte-related tasks", byID[1022])
	})

	t.Run("does not duplicate an existing ScribeRyte stream", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/GetAllCategories":
				fmt.Fprint(w, `[{"CategoryId": 1022, "CategoryName": "scriberyte-related tasks"}]`)
			default:
				fmt.Fprint(w, `[]`)
			}
		}))

		activities, err := client.FetchSnapshot(context.Background())
		require.NoError(t, err)
		assert.Len(t, activities, 1)
	})

	t.Run("per-category failure degrades to empty tasks", func(t *testing.T) {
		t.Parallel()

		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/GetAllCategories":
				fmt.Fprint(w, `[{"CategoryId": 7, "CategoryName": "Bugs"}, {"CategoryId": 8, "CategoryName": "Chores"}]`)
			case "/GetCategoryTasks":
				if r.URL.Query().Get("CategoryId") == "7" {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				fmt.Fprint(w, `[{"taskId": 9, "taskSubject": "ok"}]`)
			default:
				fmt.Fprint(w, `[]`)
			}
		}))

		activities, err := client.FetchSnapshot(context.Background())
		require.NoError(t, err)
		require.Len(t, activities, 3)

		for _, activity := range activities {
			switch activity.CategoryID {
			case 7:
				assert.Empty(t, activity.Tasks)
			case 8:
				assert.Len(t, activity.Tasks, 1)
			}
		}
	})
}

func TestParseFollowUpDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{"2026-08-20T10:30:00", false},
		{"2026-08-20T10:30:00.1234567Z", false},
		{"2026-08-20 10:30:00", false},
		{"2026-08-20", false},
		{"not a date", true},
		{"", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			t.Parallel()
			_, err := parseFollowUpDate(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
