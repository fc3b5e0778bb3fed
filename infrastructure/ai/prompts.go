package ai

import (
	"fmt"
	"strings"

	"diary-backend/application/ports"
	"diary-backend/domain/core/valueobjects"
)

func topicIdeasPrompt(topic string, limit int) string {
	return fmt.Sprintf(`Generate %d creative and distinct sub-topics or related concepts for a mind map node titled %q.
Return ONLY a simple comma-separated list of strings.
Example output: %s
Do not include numbering, bullets, or any other text.`, limit, topic, exampleList(limit))
}

func contextualIdeasPrompt(req ports.IdeaRequest, limit int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are helping someone expand a personal mind-map diary.\n")
	if len(req.Path) > 0 {
		fmt.Fprintf(&b, "Path from the root of the map: %s > %s\n", strings.Join(req.Path, " > "), req.Topic)
	} else {
		fmt.Fprintf(&b, "Node: %s\n", req.Topic)
	}
	if strings.TrimSpace(req.Content) != "" {
		fmt.Fprintf(&b, "Notes on this node:\n%s\n", req.Content)
	}
	if len(req.Exclude) > 0 {
		fmt.Fprintf(&b, "Already present as children, do not repeat: %s\n", strings.Join(req.Exclude, ", "))
	}
	fmt.Fprintf(&b, "\nSuggest %d short, distinct child thoughts for %q that fit this context.\n", limit, req.Topic)
	fmt.Fprintf(&b, "Return ONLY a simple comma-separated list of strings.\n")
	fmt.Fprintf(&b, "Example output: %s\n", exampleList(limit))
	b.WriteString("Do not include numbering, bullets, or any other text.")
	return b.String()
}

func exampleList(n int) string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("Idea %d", i+1)
	}
	return strings.Join(items, ", ")
}

func diarySummaryPrompt(markdown string) string {
	return `Read the following diary entry, written as a mind-map outline or free text.
Respond with a single JSON object and nothing else:
{
  "summary": "a warm, concise summary of the day in 3-5 sentences, in the diary's language",
  "emotion": "one emoji that best captures the overall mood",
  "financials": [{"type": "income" or "expense", "label": "what it was", "amount": number}]
}
List every income or expense mentioned with an amount; use an empty array when there are none.

Diary:
` + markdown
}

func reportPrompt(req ports.ReportRequest) string {
	kind := "weekly"
	if req.Type == valueobjects.ReportTypeMonthly {
		kind = "monthly"
	}
	return fmt.Sprintf(`You are writing a %s reflection report for the %s, based on the diary entries below.
Each entry starts with a "## title" heading; entries are separated by "---".
Respond with a single JSON object and nothing else:
{
  "chronological": "markdown describing what happened, in order",
  "thematic": "markdown grouping recurring themes, habits and concerns",
  "summary": "a short overall summary",
  "emotion": "one emoji for the period's overall mood"
}

Entries:
%s`, kind, req.Label, req.Markdown)
}
