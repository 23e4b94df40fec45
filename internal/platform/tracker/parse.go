package tracker

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/engsync/briefing/internal/domain"
)

// trackerCategory tolerates both field-name generations the upstream API has
// used for categories.
type trackerCategory struct {
	TaskCategoryID   *int   `json:"TaskCategoryId"`
	CategoryID       *int   `json:"CategoryId"`
	TaskCategoryName string `json:"TaskCategoryName"`
	CategoryName     string `json:"CategoryName"`
}

func (c trackerCategory) id() int {
	if c.TaskCategoryID != nil {
		return *c.TaskCategoryID
	}
	if c.CategoryID != nil {
		return *c.CategoryID
	}
	return 0
}

func (c trackerCategory) name() string {
	if c.TaskCategoryName != "" {
		return c.TaskCategoryName
	}
	if c.CategoryName != "" {
		return c.CategoryName
	}
	return fmt.Sprintf("Category %d", c.id())
}

// followUpItem is one raw history entry. The comment text has appeared under
// five different field names across upstream versions.
type followUpItem struct {
	FollowUpDate        string `json:"FollowUpDate"`
	TaskFollowUpComment string `json:"TaskFollowUpComments"`
	FollowUpComment     string `json:"FollowUpComment"`
	Comment             string `json:"Comment"`
	Description         string `json:"Description"`
	Note                string `json:"Note"`
}

func (f followUpItem) text() string {
	for _, candidate := range []string{
		f.TaskFollowUpComment, f.FollowUpComment, f.Comment, f.Description, f.Note,
	} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// decodeCategories accepts a bare category list or a Data/categories envelope.
func decodeCategories(body []byte) ([]trackerCategory, error) {
	var categories []trackerCategory
	if err := json.Unmarshal(body, &categories); err == nil {
		return categories, nil
	}

	var envelope struct {
		Data       json.RawMessage `json:"Data"`
		Categories json.RawMessage `json:"categories"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized categories payload: %w", err)
	}

	for _, raw := range []json.RawMessage{envelope.Data, envelope.Categories} {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &categories); err == nil {
			return categories, nil
		}
	}
	return nil, nil
}

// decodeTasks accepts a bare task list or a Data/tasks/tasksList envelope.
func decodeTasks(body []byte) ([]domain.TrackedTask, error) {
	var tasks []domain.TrackedTask
	if err := json.Unmarshal(body, &tasks); err == nil {
		return tasks, nil
	}

	var envelope struct {
		Data      json.RawMessage `json:"Data"`
		Tasks     json.RawMessage `json:"tasks"`
		TasksList json.RawMessage `json:"tasksList"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized tasks payload: %w", err)
	}

	for _, raw := range []json.RawMessage{envelope.Data, envelope.Tasks, envelope.TasksList} {
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &tasks); err == nil {
			return tasks, nil
		}
	}
	return nil, nil
}

// decodeHistory accepts the follow-up history in three shapes: an object with
// Data.FollowUpHistoryDetails, an object whose Data is itself the list, or an
// object with a top-level FollowUpHistoryDetails list.
func decodeHistory(body []byte) ([]followUpItem, error) {
	var envelope struct {
		Data    json.RawMessage `json:"Data"`
		Details json.RawMessage `json:"FollowUpHistoryDetails"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unrecognized history payload: %w", err)
	}

	if len(envelope.Data) > 0 {
		var inner struct {
			Details []followUpItem `json:"FollowUpHistoryDetails"`
		}
		if err := json.Unmarshal(envelope.Data, &inner); err == nil && inner.Details != nil {
			return inner.Details, nil
		}

		var list []followUpItem
		if err := json.Unmarshal(envelope.Data, &list); err == nil {
			return list, nil
		}
	}

	if len(envelope.Details) > 0 {
		var list []followUpItem
		if err := json.Unmarshal(envelope.Details, &list); err == nil {
			return list, nil
		}
	}
	return nil, nil
}

// followUpDateLayouts covers the timestamp shapes the upstream emits, after
// the trailing Z has been trimmed.
var followUpDateLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseFollowUpDate(value string) (time.Time, error) {
	cleaned := strings.TrimSuffix(strings.TrimSpace(value), "Z")
	for _, layout := range followUpDateLayouts {
		if ts, err := time.Parse(layout, cleaned); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized follow-up date %q", value)
}

// filterRecentComments keeps comments from the last sevenDays before now,
// sorted oldest first so summaries read as a timeline. Entries with missing
// or unparsable dates, or no comment text, are dropped.
func filterRecentComments(now time.Time, history []followUpItem) []string {
	type dated struct {
		at   time.Time
		text string
	}

	threshold := now.AddDate(0, 0, -commentWindowDays)
	var items []dated
	for _, item := range history {
		if item.FollowUpDate == "" {
			continue
		}
		at, err := parseFollowUpDate(item.FollowUpDate)
		if err != nil {
			continue
		}
		if at.Before(threshold) {
			continue
		}
		if text := item.text(); text != "" {
			items = append(items, dated{at: at, text: text})
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].at.Before(items[j].at) })

	comments := make([]string, 0, len(items))
	for _, item := range items {
		comments = append(comments, item.text)
	}
	return comments
}
