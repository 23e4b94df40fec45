package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/engsync/briefing/internal/config"
	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/generation"
	"github.com/engsync/briefing/internal/relevance"
	"google.golang.org/genai"
)

// digestKeywordLimit caps the keyphrases fed into the category digest prompt.
const digestKeywordLimit = 8

// themeTaskLimit caps the tasks listed in the theme-detection prompt.
const themeTaskLimit = 15

// defaultThemes is used when theme detection is unavailable or fails.
var defaultThemes = []string{"General Development"}

// GeminiSummarizer implements the generation.Summarizer interface using
// Google's Gemini API. When constructed without an API key it runs in
// dry-run mode and produces deterministic placeholder output.
type GeminiSummarizer struct {
	logger *slog.Logger
	config config.LLMConfig
	client *genai.Client
	model  string
	dryRun bool
}

var _ generation.Summarizer = (*GeminiSummarizer)(nil)

// NewGeminiSummarizer creates a new GeminiSummarizer with the provided
// configuration. An empty API key is not an error: the summarizer starts in
// dry-run mode so the newsletter pipeline stays runnable without credentials.
func NewGeminiSummarizer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*GeminiSummarizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	s := &GeminiSummarizer{
		logger: logger.With("component", "gemini_summarizer"),
		config: cfg,
		model:  cfg.ModelName,
	}

	if cfg.GeminiAPIKey == "" {
		s.dryRun = true
		s.logger.WarnContext(ctx, "No Gemini API key configured, summarizer running in dry-run mode")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", generation.ErrInvalidConfig, err)
	}
	s.client = client

	return s, nil
}

// DryRun reports whether the summarizer is producing placeholder output.
func (s *GeminiSummarizer) DryRun() bool {
	return s.dryRun
}

// SummarizeComments implements generation.Summarizer.SummarizeComments.
func (s *GeminiSummarizer) SummarizeComments(ctx context.Context, taskSubject string, comments []string) (string, error) {
	if len(comments) == 0 {
		return "", nil
	}

	if s.dryRun {
		return dryRunCommentSummary(comments), nil
	}

	prompt := buildCommentRecapPrompt(taskSubject, comments)
	text, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// CategoryDigest implements generation.Summarizer.CategoryDigest. The digest
// pipeline partitions the tasks by priority and status, detects semantic
// themes, extracts TF-IDF keyphrases, and synthesizes a final narrative.
func (s *GeminiSummarizer) CategoryDigest(ctx context.Context, categoryName string, tasks []domain.TrackedTask) (string, error) {
	if len(tasks) == 0 {
		return "", nil
	}

	var high, blocked, inProgress int
	for _, task := range tasks {
		if strings.EqualFold(task.Priority, "high") {
			high++
		}
		switch strings.ToLower(task.Status) {
		case "blocked":
			blocked++
		case "in progress":
			inProgress++
		}
	}

	keywords := relevance.ExtractKeywords(tasks, digestKeywordLimit)

	if s.dryRun {
		return dryRunDigest(categoryName, len(tasks), high, blocked, inProgress), nil
	}

	themes := s.detectThemes(ctx, tasks)

	prompt := buildDigestPrompt(categoryName, high, blocked, inProgress, themes, keywords)
	text, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// RenderBulletin implements generation.Summarizer.RenderBulletin. Tasks are
// priority-sorted before prompting so the model's required ordering matches
// the input ordering.
func (s *GeminiSummarizer) RenderBulletin(ctx context.Context, categoryName string, tasks []domain.TrackedTask) (*generation.Bulletin, error) {
	ordered := make([]domain.TrackedTask, len(tasks))
	copy(ordered, tasks)
	domain.SortTasksByPriority(ordered)

	if s.dryRun {
		return &generation.Bulletin{
			Content:    fmt.Sprintf("DRY RUN: Weekly Newsletter - %s\n\nSummary for %d tasks.", categoryName, len(ordered)),
			TotalTasks: len(ordered),
		}, nil
	}

	prompt, err := buildBulletinPrompt(categoryName, ordered)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	bulletin, err := parseBulletin(text)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to parse bulletin response",
			"error", err,
			"category", categoryName)
		return nil, err
	}
	return bulletin, nil
}

// detectThemes asks the model to group the tasks into coarse semantic themes.
// Failures fall back to a default theme set rather than failing the digest.
func (s *GeminiSummarizer) detectThemes(ctx context.Context, tasks []domain.TrackedTask) []string {
	prompt := buildThemePrompt(tasks, themeTaskLimit)

	text, err := s.callWithRetry(ctx, prompt)
	if err != nil {
		s.logger.WarnContext(ctx, "Theme detection failed, using defaults", "error", err)
		return defaultThemes
	}

	var themes []string
	for _, theme := range strings.Split(text, ",") {
		if theme = strings.TrimSpace(theme); theme != "" {
			themes = append(themes, theme)
		}
	}
	if len(themes) == 0 {
		return defaultThemes
	}
	return themes
}

// callWithRetry makes a Gemini API call with exponential backoff and jitter.
// Transient errors are retried up to MaxRetries times; permanent errors
// (safety blocks, malformed responses) are returned immediately.
func (s *GeminiSummarizer) callWithRetry(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: empty prompt", generation.ErrGenerationFailed)
	}

	maxRetries := s.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := s.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	for attempt := 0; ; attempt++ {
		s.logger.DebugContext(ctx, "Making Gemini API call",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1)

		text, transient, err := s.generate(ctx, prompt)
		if err == nil {
			return text, nil
		}

		s.logger.ErrorContext(ctx, "Gemini API call failed",
			"attempt", attempt+1,
			"error", err)

		if !transient {
			return "", err
		}
		if attempt >= maxRetries {
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				generation.ErrTransientFailure, maxRetries, err)
		}

		// delay = baseDelay * 2^attempt * (0.5 + rand(0, 0.5))
		backoff := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitter := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoff * jitter * float64(time.Second))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", generation.ErrTransientFailure, ctx.Err())
		}
	}
}

// generate performs one GenerateContent call and classifies the outcome. The
// bool return reports whether the error is transient and worth retrying.
func (s *GeminiSummarizer) generate(ctx context.Context, prompt string) (string, bool, error) {
	resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), nil)
	if err != nil {
		return "", true, fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return "", false, fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", false, fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, candidate.FinishReason)
	}
	if candidate.Content == nil {
		return "", false, fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	text := resp.Text()
	if text == "" {
		return "", false, fmt.Errorf("%w: empty text in response", generation.ErrInvalidResponse)
	}
	return text, false, nil
}

// parseBulletin strips optional markdown code fences from the model output
// and decodes the JSON bulletin envelope.
func parseBulletin(text string) (*generation.Bulletin, error) {
	cleaned := stripCodeFence(text)

	var bulletin generation.Bulletin
	if err := json.Unmarshal([]byte(cleaned), &bulletin); err != nil {
		return nil, fmt.Errorf("%w: failed to decode bulletin JSON: %v", generation.ErrInvalidResponse, err)
	}
	if bulletin.Content == "" {
		return nil, fmt.Errorf("%w: bulletin content is empty", generation.ErrInvalidResponse)
	}
	return &bulletin, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence if present.
func stripCodeFence(text string) string {
	cleaned := strings.TrimSpace(text)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

// dryRunCommentSummary mirrors the real summary's shape without an API call.
func dryRunCommentSummary(comments []string) string {
	preview := comments
	if len(preview) > 2 {
		preview = preview[:2]
	}
	return fmt.Sprintf("[MOCK SUMMARY] Summarized %d comments: %s...", len(comments), strings.Join(preview, " | "))
}

// dryRunDigest produces a deterministic category digest without an API call.
func dryRunDigest(categoryName string, total, high, blocked, inProgress int) string {
	return fmt.Sprintf(
		"DRY RUN digest for %s: %d tasks tracked, %d high priority, %d blocked, %d in progress.",
		categoryName, total, high, blocked, inProgress)
}
