package domain

import (
	"strings"
	"time"
)

// Category is a tracker category persisted in the subscription store.
// The ID is the tracker's own CategoryId so that subscriptions survive
// re-syncs against the external API.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NormalizedName returns the category name lowered and trimmed, used when
// matching subscriptions against snapshot categories whose IDs drifted.
func (c Category) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(c.Name))
}

// CategoryActivity is one category of the fetched tracker snapshot together
// with its tasks and, after enrichment, the LLM digest of the week.
type CategoryActivity struct {
	CategoryID   int           `json:"categoryId"`
	CategoryName string        `json:"categoryName"`
	Digest       string        `json:"categorySummary,omitempty"`
	Tasks        []TrackedTask `json:"tasks"`
}

// NormalizedName mirrors Category.NormalizedName for snapshot entries.
func (c CategoryActivity) NormalizedName() string {
	return strings.ToLower(strings.TrimSpace(c.CategoryName))
}

// ActiveTasks returns the tasks that are not done, preserving order.
func (c CategoryActivity) ActiveTasks() []TrackedTask {
	active := make([]TrackedTask, 0, len(c.Tasks))
	for _, t := range c.Tasks {
		if !t.IsDone() {
			active = append(active, t)
		}
	}
	return active
}

// PlaceholderDigest is used for subscribed categories that the tracker no
// longer reports. The section still appears in the recipient's newsletter so
// a stale subscription is visible rather than silently dropped.
const PlaceholderDigest = "This department stream is currently unavailable or has been archived in the central system."

// NewPlaceholderActivity builds an empty snapshot section for a subscribed
// category that is missing from the tracker response.
func NewPlaceholderActivity(cat Category) CategoryActivity {
	return CategoryActivity{
		CategoryID:   cat.ID,
		CategoryName: cat.Name,
		Digest:       PlaceholderDigest,
	}
}
