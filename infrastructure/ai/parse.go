package ai

import (
	"encoding/json"
	"errors"
	"strings"

	"diary-backend/domain/core/entities"
)

// parseIdeas splits a comma-separated reply into at most limit trimmed items.
func parseIdeas(text string, limit int) []string {
	ideas := make([]string, 0, limit)
	for _, part := range strings.Split(text, ",") {
		idea := strings.TrimSpace(part)
		if idea == "" {
			continue
		}
		ideas = append(ideas, idea)
		if len(ideas) == limit {
			break
		}
	}
	return ideas
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSpace(text)
	return strings.TrimSpace(strings.TrimSuffix(text, "```"))
}

func decodeObject(text string, v interface{}) error {
	body := stripCodeFence(text)
	if start, end := strings.IndexByte(body, '{'), strings.LastIndexByte(body, '}'); start >= 0 && end > start {
		body = body[start : end+1]
	}
	return json.Unmarshal([]byte(body), v)
}

type summaryPayload struct {
	Summary    string `json:"summary"`
	Emotion    string `json:"emotion"`
	Financials []struct {
		Type   string  `json:"type"`
		Label  string  `json:"label"`
		Amount float64 `json:"amount"`
	} `json:"financials"`
}

func parseSummary(text string) (string, string, []entities.FinancialItem, error) {
	var p summaryPayload
	if err := decodeObject(text, &p); err != nil {
		return "", "", nil, err
	}
	if strings.TrimSpace(p.Summary) == "" || strings.TrimSpace(p.Emotion) == "" {
		return "", "", nil, errors.New("summary or emotion missing")
	}

	items := []entities.FinancialItem{}
	for _, f := range p.Financials {
		kind := entities.FinancialType(strings.ToLower(strings.TrimSpace(f.Type)))
		if kind != entities.FinancialIncome && kind != entities.FinancialExpense {
			continue
		}
		items = append(items, entities.FinancialItem{Type: kind, Label: strings.TrimSpace(f.Label), Amount: f.Amount})
	}
	return strings.TrimSpace(p.Summary), strings.TrimSpace(p.Emotion), items, nil
}

type reportPayload struct {
	Chronological string `json:"chronological"`
	Thematic      string `json:"thematic"`
	Summary       string `json:"summary"`
	Emotion       string `json:"emotion"`
}

func parseReport(text string) (reportPayload, error) {
	var p reportPayload
	if err := decodeObject(text, &p); err != nil {
		return p, err
	}
	if strings.TrimSpace(p.Summary) == "" || strings.TrimSpace(p.Chronological) == "" {
		return p, errors.New("chronological or summary missing")
	}
	return p, nil
}
