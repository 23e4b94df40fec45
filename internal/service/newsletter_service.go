package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/engsync/briefing/internal/cache"
	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/generation"
	"github.com/engsync/briefing/internal/relevance"
)

// Enrichment fallback lines. These appear verbatim in rendered newsletters
// when a task or category has nothing to report.
const (
	noRecentActivitySummary = "No recent activity recorded in the last 7 days."
	updateRetrievalError    = "Update retrieval error."
	noActiveWorkDigest      = "No active work items recorded in this workstream for the current period."
)

// defaultEnrichConcurrency bounds concurrent per-task enrichment calls.
const defaultEnrichConcurrency = 10

// SnapshotSource abstracts the tracker API for the newsletter pipeline.
type SnapshotSource interface {
	// FetchSnapshot returns every tracker category with its current tasks.
	FetchSnapshot(ctx context.Context) ([]domain.CategoryActivity, error)

	// GetTaskComments returns a task's follow-up comments from the last
	// 7 days, oldest first.
	GetTaskComments(ctx context.Context, taskID int) ([]string, error)
}

// CategorySyncer persists the tracker categories seen in a snapshot so that
// subscriptions can reference them.
type CategorySyncer interface {
	// Sync upserts categories by tracker ID and returns the number of newly
	// inserted rows.
	Sync(ctx context.Context, categories []domain.Category) (int, error)
}

// NewsletterService produces the category snapshots behind the dashboard and
// the broadcast pipeline.
type NewsletterService interface {
	// Refresh fetches a fresh snapshot, syncs its categories to the store,
	// enriches every active task with an LLM recap of its recent comments,
	// attaches per-category digests, and caches both snapshot flavors.
	Refresh(ctx context.Context) ([]domain.CategoryActivity, error)

	// Snapshot returns the freshest available snapshot, fetching a basic one
	// from the tracker on a cold cache. The bool reports whether the snapshot
	// is enriched.
	Snapshot(ctx context.Context) ([]domain.CategoryActivity, bool, error)

	// EnrichedSnapshot returns the cached enriched snapshot, running a full
	// Refresh when it is missing or expired.
	EnrichedSnapshot(ctx context.Context) ([]domain.CategoryActivity, error)
}

// NewsletterServiceError wraps errors from the newsletter pipeline with the
// stage that failed.
type NewsletterServiceError struct {
	Stage string
	Err   error
}

// Error implements the error interface for NewsletterServiceError.
func (e *NewsletterServiceError) Error() string {
	return fmt.Sprintf("newsletter %s failed: %v", e.Stage, e.Err)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *NewsletterServiceError) Unwrap() error {
	return e.Err
}

// newsletterServiceImpl implements the NewsletterService interface.
type newsletterServiceImpl struct {
	source      SnapshotSource
	categories  CategorySyncer
	summarizer  generation.Summarizer
	cache       *cache.SnapshotCache
	logger      *slog.Logger
	concurrency int

	// refreshMu serializes full refreshes so a scheduled run and an admin
	// trigger do not enrich the same snapshot twice.
	refreshMu sync.Mutex

	// now is replaceable in tests.
	now func() time.Time
}

// NewNewsletterService creates a NewsletterService.
// It returns an error if any of the required dependencies are nil.
func NewNewsletterService(
	source SnapshotSource,
	categories CategorySyncer,
	summarizer generation.Summarizer,
	snapshotCache *cache.SnapshotCache,
	logger *slog.Logger,
) (NewsletterService, error) {
	if source == nil {
		return nil, errors.New("snapshot source cannot be nil")
	}
	if categories == nil {
		return nil, errors.New("category syncer cannot be nil")
	}
	if summarizer == nil {
		return nil, errors.New("summarizer cannot be nil")
	}
	if snapshotCache == nil {
		return nil, errors.New("snapshot cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &newsletterServiceImpl{
		source:      source,
		categories:  categories,
		summarizer:  summarizer,
		cache:       snapshotCache,
		logger:      logger.With("component", "newsletter_service"),
		concurrency: defaultEnrichConcurrency,
		now:         time.Now,
	}, nil
}

// Refresh runs the full snapshot pipeline: fetch, sync, enrich, cache.
func (s *newsletterServiceImpl) Refresh(ctx context.Context) ([]domain.CategoryActivity, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	started := s.now()

	snapshot, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error("snapshot fetch failed", "error", err)
		return nil, &NewsletterServiceError{Stage: "fetch", Err: err}
	}
	s.cache.SetBasic(snapshot)

	if err := s.syncCategories(ctx, snapshot); err != nil {
		// A sync failure leaves subscriptions stale but the newsletter can
		// still go out, so log and continue.
		s.logger.Error("category sync failed", "error", err)
	}

	enriched := make([]domain.CategoryActivity, len(snapshot))
	for i, activity := range snapshot {
		enriched[i] = s.enrichCategory(ctx, activity)
	}
	s.cache.SetEnriched(enriched)

	s.logger.Info("snapshot refreshed",
		"categories", len(enriched),
		"duration", s.now().Sub(started).String())

	return enriched, nil
}

// Snapshot serves the dashboard: freshest cache entry, else a live fetch.
func (s *newsletterServiceImpl) Snapshot(ctx context.Context) ([]domain.CategoryActivity, bool, error) {
	if snapshot, isEnriched := s.cache.Freshest(); snapshot != nil {
		return snapshot, isEnriched, nil
	}

	snapshot, err := s.source.FetchSnapshot(ctx)
	if err != nil {
		s.logger.Error("live snapshot fetch failed", "error", err)
		return nil, false, fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}
	s.cache.SetBasic(snapshot)

	if err := s.syncCategories(ctx, snapshot); err != nil {
		s.logger.Error("category sync failed", "error", err)
	}

	return snapshot, false, nil
}

// EnrichedSnapshot serves the broadcast pipeline, which always needs digests.
func (s *newsletterServiceImpl) EnrichedSnapshot(ctx context.Context) ([]domain.CategoryActivity, error) {
	if snapshot, ok := s.cache.Enriched(); ok {
		return snapshot, nil
	}
	return s.Refresh(ctx)
}

func (s *newsletterServiceImpl) syncCategories(ctx context.Context, snapshot []domain.CategoryActivity) error {
	categories := make([]domain.Category, 0, len(snapshot))
	now := s.now().UTC()
	for _, activity := range snapshot {
		categories = append(categories, domain.Category{
			ID:        activity.CategoryID,
			Name:      activity.CategoryName,
			UpdatedAt: now,
		})
	}

	inserted, err := s.categories.Sync(ctx, categories)
	if err != nil {
		return err
	}
	if inserted > 0 {
		s.logger.Info("new tracker categories registered", "count", inserted)
	}
	return nil
}

// enrichCategory filters out done tasks, attaches comment recaps, orders the
// remainder by priority then relevance, and writes the category digest.
func (s *newsletterServiceImpl) enrichCategory(ctx context.Context, activity domain.CategoryActivity) domain.CategoryActivity {
	log := s.logger.With("category_id", activity.CategoryID, "category_name", activity.CategoryName)

	active := activity.ActiveTasks()
	enriched := domain.CategoryActivity{
		CategoryID:   activity.CategoryID,
		CategoryName: activity.CategoryName,
		Tasks:        active,
	}

	if len(active) == 0 {
		enriched.Digest = noActiveWorkDigest
		return enriched
	}

	s.enrichTasks(ctx, log, active)

	domain.SortTasksByPriority(active)
	relevance.RankTasks(active)

	digest, err := s.summarizer.CategoryDigest(ctx, activity.CategoryName, active)
	if err != nil {
		log.Warn("category digest generation failed", "error", err)
	} else {
		enriched.Digest = digest
	}

	return enriched
}

// enrichTasks fetches recent comments and recaps them, a bounded number of
// tasks at a time. Each goroutine writes only its own slice element.
func (s *newsletterServiceImpl) enrichTasks(ctx context.Context, log *slog.Logger, tasks []domain.TrackedTask) {
	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup

	for i := range tasks {
		wg.Add(1)
		sem <- struct{}{}
		go func(t *domain.TrackedTask) {
			defer wg.Done()
			defer func() { <-sem }()
			s.enrichTask(ctx, log, t)
		}(&tasks[i])
	}

	wg.Wait()
}

func (s *newsletterServiceImpl) enrichTask(ctx context.Context, log *slog.Logger, t *domain.TrackedTask) {
	comments, err := s.source.GetTaskComments(ctx, t.ID)
	if err != nil {
		log.Warn("comment fetch failed", "task_id", t.ID, "error", err)
		t.CommentSummary = updateRetrievalError
		return
	}

	t.Comments = comments
	if len(comments) == 0 {
		t.CommentSummary = noRecentActivitySummary
		return
	}

	summary, err := s.summarizer.SummarizeComments(ctx, t.Subject, comments)
	if err != nil {
		log.Warn("comment recap failed", "task_id", t.ID, "error", err)
		t.CommentSummary = noRecentActivitySummary
		return
	}
	if summary == "" {
		summary = noRecentActivitySummary
	}
	t.CommentSummary = summary
}

var _ NewsletterService = (*newsletterServiceImpl)(nil)
