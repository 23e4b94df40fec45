package relevance_test

import (
	"testing"

	"github.com/engsync/briefing/internal/domain"
	"github.com/engsync/briefing/internal/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "lowercases and splits on non-word characters",
			input:    "Fix API-Gateway timeout!",
			expected: []string{"fix", "api", "gateway", "timeout"},
		},
		{
			name:     "drops short tokens",
			input:    "go to DB on io",
			expected: nil,
		},
		{
			name:     "empty input",
			input:    "",
			expected: nil,
		},
		{
			name:     "keeps digits inside word tokens",
			input:    "migrate v2 schema 2024",
			expected: []string{"migrate", "schema", "2024"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, relevance.Tokenize(tc.input))
		})
	}
}

func TestScoreTasks(t *testing.T) {
	t.Parallel()

	t.Run("distinctive terms score higher than shared terms", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.TrackedTask{
			{ID: 1, Subject: "deploy service", Comments: []string{"deploy deploy deploy"}},
			{ID: 2, Subject: "deploy service", Comments: nil},
			{ID: 3, Subject: "investigate kernel panic regression", Comments: nil},
		}

		relevance.ScoreTasks(tasks)

		// Task 3 is the only document with its terms, so every term carries
		// full inverse document frequency.
		assert.Greater(t, tasks[2].Relevance, tasks[1].Relevance)
	})

	t.Run("task with no tokens scores zero", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.TrackedTask{
			{ID: 1, Subject: "a b c"},
			{ID: 2, Subject: "real subject here"},
		}

		relevance.ScoreTasks(tasks)
		assert.Zero(t, tasks[0].Relevance)
	})

	t.Run("empty slice is a no-op", func(t *testing.T) {
		t.Parallel()
		relevance.ScoreTasks(nil)
	})

	t.Run("scores are rounded to four decimals", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.TrackedTask{
			{ID: 1, Subject: "alpha beta gamma"},
			{ID: 2, Subject: "delta epsilon zeta"},
			{ID: 3, Subject: "alpha delta theta"},
		}

		relevance.ScoreTasks(tasks)
		for _, task := range tasks {
			rounded := float64(int(task.Relevance*10000+0.5)) / 10000
			assert.InDelta(t, rounded, task.Relevance, 1e-9)
		}
	})
}

func TestRankTasks(t *testing.T) {
	t.Parallel()

	tasks := []domain.TrackedTask{
		{ID: 1, Subject: "shared words only", Comments: []string{"shared words"}},
		{ID: 2, Subject: "unique distinctive vocabulary everywhere", Comments: []string{"singular phrasing"}},
		{ID: 3, Subject: "shared words only"},
	}

	relevance.RankTasks(tasks)

	require.Len(t, tasks, 3)
	assert.Equal(t, 2, tasks[0].ID, "most distinctive task ranks first")
	// Stable sort keeps the tied tasks in input order.
	assert.Equal(t, 1, tasks[1].ID)
	assert.Equal(t, 3, tasks[2].ID)
}

func TestExtractKeywords(t *testing.T) {
	t.Parallel()

	t.Run("skips stop words and respects limit", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.TrackedTask{
			{Subject: "the database migration", CommentSummary: "migration for the replica"},
			{Subject: "database failover drill", CommentSummary: "drill with the replica"},
		}

		keywords := relevance.ExtractKeywords(tasks, 3)
		require.NotEmpty(t, keywords)
		assert.LessOrEqual(t, len(keywords), 3)
		assert.NotContains(t, keywords, "the")
		assert.NotContains(t, keywords, "for")
		assert.NotContains(t, keywords, "with")
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, relevance.ExtractKeywords(nil, 8))
		assert.Nil(t, relevance.ExtractKeywords([]domain.TrackedTask{{Subject: "x"}}, 0))
	})

	t.Run("output is deterministic", func(t *testing.T) {
		t.Parallel()

		tasks := []domain.TrackedTask{
			{Subject: "cache eviction tuning", CommentSummary: "eviction policy updated"},
			{Subject: "cache warmup script", CommentSummary: "warmup timing measured"},
		}

		first := relevance.ExtractKeywords(tasks, 8)
		second := relevance.ExtractKeywords(tasks, 8)
		assert.Equal(t, first, second)
	})
}
