package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/engsync/briefing/internal/config"
	"github.com/engsync/briefing/internal/domain"
)

// commentWindowDays is the look-back window for follow-up comments.
const commentWindowDays = 7

// departmentIDThreshold marks where category IDs start doubling as
// department IDs upstream; empty results above it trigger the department
// endpoint fallback.
const departmentIDThreshold = 1000

// scribeRyteCategoryID identifies the category the upstream sometimes omits
// from GetAllCategories even though its tasks are fetchable.
const (
	scribeRyteCategoryID   = 1022
	scribeRyteCategoryName = "ScribeRyte-related tasks"
)

// Client talks to the upstream tracker API.
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	logger      *slog.Logger
	concurrency int

	// now is replaceable in tests to pin the comment window.
	now func() time.Time
}

// NewClient creates a tracker API client from configuration.
func NewClient(cfg config.TrackerConfig, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("tracker base URL cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	concurrency := cfg.FetchConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	return &Client{
		baseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With("component", "tracker_client"),
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

// GetAllCategories fetches every category the tracker reports.
func (c *Client) GetAllCategories(ctx context.Context) ([]domain.Category, error) {
	body, err := c.get(ctx, "/GetAllCategories", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch categories: %w", err)
	}

	raw, err := decodeCategories(body)
	if err != nil {
		return nil, err
	}

	categories := make([]domain.Category, 0, len(raw))
	for _, rc := range raw {
		if rc.id() == 0 {
			continue
		}
		categories = append(categories, domain.Category{ID: rc.id(), Name: rc.name()})
	}
	return categories, nil
}

// GetCategoryTasks fetches the tasks for one category. Large category IDs
// double as department IDs upstream, so an empty result above the threshold
// falls back to the department endpoint.
func (c *Client) GetCategoryTasks(ctx context.Context, categoryID int) ([]domain.TrackedTask, error) {
	log := c.logger

	tasks, err := c.fetchTasks(ctx, "/GetCategoryTasks", url.Values{
		"CategoryId": []string{strconv.Itoa(categoryID)},
	})
	if err != nil {
		log.WarnContext(ctx, "GetCategoryTasks failed",
			"error", err,
			"category_id", categoryID)
	}

	if len(tasks) == 0 && categoryID > departmentIDThreshold {
		deptTasks, deptErr := c.fetchTasks(ctx, "/GetDepartmentTasks", url.Values{
			"DepartmentId": []string{strconv.Itoa(categoryID)},
		})
		if deptErr != nil {
			log.WarnContext(ctx, "department fallback failed",
				"error", deptErr,
				"category_id", categoryID)
		} else if len(deptTasks) > 0 {
			log.InfoContext(ctx, "fetched tasks via department fallback",
				"category_id", categoryID,
				"count", len(deptTasks))
			return deptTasks, nil
		}
	}

	if err != nil && len(tasks) == 0 {
		return nil, err
	}
	return tasks, nil
}

// GetTaskComments fetches the task's follow-up comments from the last seven
// days in chronological order. The full-history request (PageSize -1) can
// time out upstream on long-lived tasks, so a failed call retries with a
// small page.
func (c *Client) GetTaskComments(ctx context.Context, taskID int) ([]string, error) {
	history, err := c.fetchHistory(ctx, taskID, -1)
	if err != nil {
		c.logger.WarnContext(ctx, "full history fetch failed, trying small page",
			"error", err,
			"task_id", taskID)
		history, err = c.fetchHistory(ctx, taskID, 20)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch follow-up history for task %d: %w", taskID, err)
		}
	}
	return filterRecentComments(c.now(), history), nil
}

// FetchSnapshot fetches all categories with their tasks, bounding in-flight
// category fetches with a semaphore. Per-category failures degrade to an
// empty task list rather than failing the snapshot.
func (c *Client) FetchSnapshot(ctx context.Context) ([]domain.CategoryActivity, error) {
	categories, err := c.GetAllCategories(ctx)
	if err != nil {
		return nil, err
	}
	categories = injectScribeRyteCategory(categories)
	if len(categories) == 0 {
		c.logger.WarnContext(ctx, "no categories found")
		return nil, nil
	}

	activities := make([]domain.CategoryActivity, len(categories))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup

	for i, category := range categories {
		wg.Add(1)
		go func(i int, category domain.Category) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			tasks, err := c.GetCategoryTasks(ctx, category.ID)
			if err != nil {
				c.logger.ErrorContext(ctx, "failed to fetch tasks for category",
					"error", err,
					"category_id", category.ID,
					"category_name", category.Name)
			}
			activities[i] = domain.CategoryActivity{
				CategoryID:   category.ID,
				CategoryName: category.Name,
				Tasks:        tasks,
			}
		}(i, category)
	}
	wg.Wait()

	c.logger.InfoContext(ctx, "fetched tracker snapshot",
		"categories", len(activities))
	return activities, nil
}

// injectScribeRyteCategory appends the ScribeRyte category when the upstream
// listing omits it, matching by normalized name.
func injectScribeRyteCategory(categories []domain.Category) []domain.Category {
	for _, category := range categories {
		if strings.EqualFold(strings.TrimSpace(category.Name), scribeRyteCategoryName) {
			return categories
		}
	}
	return append(categories, domain.Category{
		ID:   scribeRyteCategoryID,
		Name: scribeRyteCategoryName,
	})
}

func (c *Client) fetchTasks(ctx context.Context, path string, params url.Values) ([]domain.TrackedTask, error) {
	body, err := c.get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return decodeTasks(body)
}

func (c *Client) fetchHistory(ctx context.Context, taskID, pageSize int) ([]followUpItem, error) {
	payload, err := json.Marshal(map[string]int{"TaskId": taskID, "PageSize": pageSize})
	if err != nil {
		return nil, err
	}

	body, err := c.post(ctx, "/GetTaskFollowUpHistory", payload)
	if err != nil {
		return nil, err
	}
	return decodeHistory(body)
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tracker API returned status %d for %s", resp.StatusCode, req.URL.Path)
	}
	return body, nil
}
