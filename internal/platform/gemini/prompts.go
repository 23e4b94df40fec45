package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/engsync/briefing/internal/domain"
)

// bulletinSystemPrompt steers the bulletin toward a weekly news-anchor
// register and pins down the strict output contract: plain text content, real
// line breaks, task IDs formatted as task(1234), and a JSON envelope.
const bulletinSystemPrompt = `You are a professional news anchor writing a weekly bulletin for the engineering team.

TONE & STYLE GUIDE:
1. Opening anchors: start confident and authoritative.
   - MUST use: "Here's a look at the {total_tasks} key developments in {category_name} this week." or "This week's update covers {total_tasks} tasks from {category_name}."
   - AVOID casual greetings like "Hi team".
2. Transitions: vary transitions to move smoothly between tasks.
   - Use phrases like: "First up...", "Meanwhile...", "Turning to another task...", "In another update...", "Elsewhere...".
   - Do not repeat the same transition in consecutive task paragraphs.
3. Task introductions: adopt a reporter's style, short and punchy.
   - Highlight priority subtly (e.g., "A critical update regarding...").
   - Keep it to ONE short paragraph per task.
4. Status reporting: neutral, factual, emotion-free.
5. Assignee mentions: subtle and professional, no excessive praise.
6. Follow-ups: bring the week to life.
   - Use: "Recent follow-ups indicate...", "Comments over the past week highlight..."
7. Closing: classic newsroom sign-off.
8. Formatting: put exactly ONE blank line between each task paragraph.

RULES:
- INCLUDE ALL tasks.
- Summarize only from the provided follow-up comments.
- If a task has no comments, still include the task.
- One short paragraph per task.
- When mentioning a task, ALWAYS format the ID exactly like this: "task(1234)".
  Do NOT use "Task (1234)" or "Task 1234". Use lowercase "task" and no space before the bracket.
- Start each task paragraph by mentioning the assignee name.
- Include the assignee's LATEST follow-up comment in the summary.
- Mention subject line, task priority and current status for each task.
- Do NOT invent or modify task details.
- Order tasks by priority (High then Medium then Low). If priority is equal, keep input order.
- If there are no tasks, write a short bulletin stating no task activity occurred this week.

IMPORTANT:
- The value of "content" will be sent DIRECTLY as the email body.
- Use real line breaks, no escaped characters.
- Do NOT include markdown formatting, use plain text.
- Do NOT add explanations.

Return ONLY valid JSON in this exact format:
{"content": "<final newsletter email body>", "totalTasks": <number>}`

// commentRecapPrompt frames a task's week of comments as a short dramatic
// progress story, capped at four lines.
const commentRecapPrompt = `You are a high-impact tech journalist writing a dramatic recap of weekly task progression.
Summarize the provided task comments into a concise narrative paragraph of EXACTLY 2 to 4 lines.
Use a dramatic, storytelling tone. Focus on achievements, milestones, and the momentum of the work.
Avoid dry corporate speech; favor cinematic and active language.
Do NOT exceed 4 lines.
The summary MUST follow a chronological timeline of the recent activity.
Structure it like a news report: start with the spark of action, move through development intensity, and conclude with the stakes of the upcoming phase.
IMPORTANT: if comments are provided (even if brief), you MUST summarize them with this dramatic flair.
Do NOT return "No changes reported" if there is input data.`

// themePrompt asks for coarse semantic grouping of a category's tasks.
const themePrompt = `You are a technical analyst. Group the following tasks into 2-3 high-level semantic themes. Return ONLY a comma-separated list of themes.`

// digestSystemPrompt produces the category-level executive paragraph from the
// pipeline's precomputed signals.
const digestSystemPrompt = `You are an executive technical news writer.
Your task is to generate a concise, professional, news-style summary for a single task category.
Style and tone: corporate, authoritative, and clear. 5-6 sentences maximum. No bullet points. No emojis. Emphasize risks, momentum, and priority.
Focus rules:
1. Start with overall momentum or health.
2. Highlight blocked and high-risk items.
3. Reference detected semantic themes.
4. Infuse identified technical keywords.
5. End with an overall assessment.`

// buildBulletinPrompt renders the full bulletin prompt for one category. The
// tasks are serialized as indented JSON so the model sees every field the
// tracker reported.
func buildBulletinPrompt(categoryName string, tasks []domain.TrackedTask) (string, error) {
	tasksJSON, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal tasks for prompt: %w", err)
	}

	var b strings.Builder
	b.WriteString(bulletinSystemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Category Name: %s\n", categoryName)
	fmt.Fprintf(&b, "Total Tasks: %d\n", len(tasks))
	fmt.Fprintf(&b, "Input Tasks (JSON):\n%s\n", tasksJSON)
	return b.String(), nil
}

// buildCommentRecapPrompt renders the per-task comment recap prompt with the
// comments presented as a numbered timeline, oldest first.
func buildCommentRecapPrompt(taskSubject string, comments []string) string {
	var b strings.Builder
	b.WriteString(commentRecapPrompt)
	b.WriteString("\n\n")
	if taskSubject != "" {
		fmt.Fprintf(&b, "Task: %s\n", taskSubject)
	}
	b.WriteString("Recent Activity Timeline:\n")
	for i, comment := range comments {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, comment)
	}
	b.WriteString("\nWrite a 2-3 line narrative story of this week's progression:")
	return b.String()
}

// buildThemePrompt renders the theme-detection prompt over at most limit
// tasks to keep the context small.
func buildThemePrompt(tasks []domain.TrackedTask, limit int) string {
	if limit > len(tasks) {
		limit = len(tasks)
	}

	var b strings.Builder
	b.WriteString(themePrompt)
	b.WriteString("\n\nTasks:\n")
	for _, task := range tasks[:limit] {
		fmt.Fprintf(&b, "- %s: %s\n", task.Subject, task.CommentSummary)
	}
	return b.String()
}

// buildDigestPrompt renders the final narrative-synthesis prompt from the
// partitioned task counts, detected themes, and extracted keyphrases.
func buildDigestPrompt(categoryName string, high, blocked, inProgress int, themes, keywords []string) string {
	var b strings.Builder
	b.WriteString(digestSystemPrompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Category: %s\n", categoryName)
	fmt.Fprintf(&b, "Momentum: %d in progress, %d blocked.\n", inProgress, blocked)
	fmt.Fprintf(&b, "High Priority Items: %d active.\n", high)
	fmt.Fprintf(&b, "Detected Themes: %s\n", strings.Join(themes, ", "))
	fmt.Fprintf(&b, "Technical Keyphrases: %s\n", strings.Join(keywords, ", "))
	b.WriteString("Generate the paragraph summary:")
	return b.String()
}
