package generation

import (
	"context"

	"github.com/engsync/briefing/internal/domain"
)

// Bulletin is the composed newsletter section for one category stream: a
// narrative over the category's tasks plus the task total the model reported
// alongside it.
type Bulletin struct {
	Content    string `json:"content"`
	TotalTasks int    `json:"totalTasks"`
}

// Summarizer defines the interface for LLM-backed newsletter content
// generation. This interface serves as a boundary between the application
// core and external AI/LLM services.
//
// Implementations must degrade gracefully: when no API credential is
// configured they return deterministic placeholder text rather than an error,
// so the pipeline keeps producing newsletters in development environments.
type Summarizer interface {
	// SummarizeComments produces a short narrative recap (a few lines) of a
	// task's recent follow-up comments, oldest first. Returns empty output
	// without error when there are no comments.
	SummarizeComments(ctx context.Context, taskSubject string, comments []string) (string, error)

	// CategoryDigest produces a digest paragraph for one category's task
	// activity, weaving in status breakdowns and recurring themes.
	CategoryDigest(ctx context.Context, categoryName string, tasks []domain.TrackedTask) (string, error)

	// RenderBulletin produces the prioritized newsletter section for one
	// category. Tasks are presented High to Medium to Low, preserving input
	// order within equal priority, and every task is included.
	RenderBulletin(ctx context.Context, categoryName string, tasks []domain.TrackedTask) (*Bulletin, error)
}
