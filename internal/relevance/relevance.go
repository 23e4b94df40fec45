// Package relevance ranks tasks within a category by TF-IDF importance and
// extracts keyphrases for category digests. Each task is treated as one
// document built from its subject and follow-up comments.
package relevance

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/engsync/briefing/internal/domain"
)

var wordPattern = regexp.MustCompile(`\w+`)

// stopWords are excluded from keyphrase extraction. Task-tracker boilerplate
// terms are included alongside common English words.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "is": {}, "of": {}, "to": {}, "in": {},
	"a": {}, "with": {}, "for": {}, "on": {}, "was": {}, "not": {},
	"tasks": {}, "task": {},
}

// Tokenize lowercases the text and splits it into word tokens, dropping
// tokens shorter than three characters.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}

	var tokens []string
	for _, t := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(t) > 2 {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// ScoreTasks computes TF-IDF importance scores for every task in the slice,
// treating each task as a document within the category corpus. The score is
// the sum of tf * ln(N/df) over the document's terms, normalized by document
// length and rounded to 4 decimal places. Tasks are mutated in place.
func ScoreTasks(tasks []domain.TrackedTask) {
	if len(tasks) == 0 {
		return
	}

	documents := make([][]string, len(tasks))
	for i, task := range tasks {
		text := task.Subject + " " + strings.Join(task.Comments, " ")
		documents[i] = Tokenize(text)
	}

	numDocs := float64(len(documents))
	df := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]struct{}, len(doc))
		for _, word := range doc {
			if _, ok := seen[word]; !ok {
				seen[word] = struct{}{}
				df[word]++
			}
		}
	}

	for i := range tasks {
		doc := documents[i]
		if len(doc) == 0 {
			tasks[i].Relevance = 0
			continue
		}

		tf := make(map[string]int, len(doc))
		for _, word := range doc {
			tf[word]++
		}

		score := 0.0
		for word, count := range tf {
			if df[word] > 0 {
				score += float64(count) * math.Log(numDocs/float64(df[word]))
			}
		}

		normalized := score / float64(len(doc))
		tasks[i].Relevance = math.Round(normalized*10000) / 10000
	}
}

// RankTasks scores the tasks and sorts them by importance, highest first.
// The sort is stable so equally scored tasks keep their input order.
func RankTasks(tasks []domain.TrackedTask) {
	ScoreTasks(tasks)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Relevance > tasks[j].Relevance
	})
}

// ExtractKeywords returns up to limit keyphrases across the tasks, scored by
// corpus-wide TF-IDF with a smoothed document frequency. Stop words and short
// tokens are skipped. Ties are broken alphabetically so output is stable.
func ExtractKeywords(tasks []domain.TrackedTask, limit int) []string {
	if len(tasks) == 0 || limit <= 0 {
		return nil
	}

	documents := make([][]string, len(tasks))
	for i, task := range tasks {
		text := task.Subject + " " + task.CommentSummary
		documents[i] = Tokenize(text)
	}

	df := make(map[string]int)
	for _, doc := range documents {
		seen := make(map[string]struct{}, len(doc))
		for _, word := range doc {
			if _, ok := seen[word]; !ok {
				seen[word] = struct{}{}
				df[word]++
			}
		}
	}

	numDocs := float64(len(documents))
	scores := make(map[string]float64)
	for _, doc := range documents {
		tf := make(map[string]int, len(doc))
		for _, word := range doc {
			tf[word]++
		}
		for word, count := range tf {
			if _, stop := stopWords[word]; stop {
				continue
			}
			idf := math.Log(numDocs / float64(1+df[word]))
			scores[word] += float64(count) * idf
		}
	}

	words := make([]string, 0, len(scores))
	for word := range scores {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if scores[words[i]] != scores[words[j]] {
			return scores[words[i]] > scores[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > limit {
		words = words[:limit]
	}
	return words
}
