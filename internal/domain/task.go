package domain

import "strings"

// Task priority labels as reported by the tracker API.
const (
	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

// TrackedTask is a single work item fetched from the external tracker,
// optionally enriched with its recent follow-up comments and an LLM summary.
type TrackedTask struct {
	ID       int    `json:"taskId"`
	Subject  string `json:"taskSubject"`
	Status   string `json:"taskStatus"`
	Priority string `json:"taskPriority"`
	Assignee string `json:"assigneeName"`

	// Comments holds the follow-up comments from the last 7 days,
	// oldest first. Populated during enrichment.
	Comments []string `json:"followUpComments,omitempty"`

	// CommentSummary is the LLM-generated recap of Comments.
	CommentSummary string `json:"summarizedComments,omitempty"`

	// Relevance is the TF-IDF importance score of the task within its
	// category. Higher scores sort first on the dashboard.
	Relevance float64 `json:"importanceScore,omitempty"`
}

// IsDone reports whether the task has reached a terminal status.
// Done tasks are excluded from enrichment and the dashboard snapshot.
func (t TrackedTask) IsDone() bool {
	return strings.EqualFold(strings.TrimSpace(t.Status), "done")
}

// PriorityRank maps the task priority to a sortable rank:
// High < Medium < Low < anything else. Bulletins list tasks in rank order,
// preserving input order within equal ranks.
func (t TrackedTask) PriorityRank() int {
	switch t.Priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// SortTasksByPriority orders tasks High -> Medium -> Low in place using a
// stable insertion sort so that equal priorities keep their input order.
func SortTasksByPriority(tasks []TrackedTask) {
	for i := 1; i < len(tasks); i++ {
		for j := i; j > 0 && tasks[j].PriorityRank() < tasks[j-1].PriorityRank(); j-- {
			tasks[j], tasks[j-1] = tasks[j-1], tasks[j]
		}
	}
}
