package services

import (
	"diary-backend/domain/core/valueobjects"
)

// TemplateNode is one node of a seeded map, before ids exist.
// Parent is an index into the template slice, or -1 for the root.
type TemplateNode struct {
	Label    string
	Content  string
	Parent   int
	IsChoice bool
	Position valueobjects.Position
}

// DailyPrompts are the writing prompts placed under a daily map's root.
var DailyPrompts = []string{
	"Today's highlight",
	"What I learned",
	"Grateful for",
	"Tomorrow",
}

// MoodPrompt heads the mutually exclusive mood choices.
const MoodPrompt = "Mood"

// MoodChoices are the exclusive options under the mood prompt.
var MoodChoices = []string{"😊 Good", "😐 Okay", "😞 Rough"}

// DailyTemplate lays out the seed graph of a daily map: the title as root,
// one child per prompt, and a choice group under the mood prompt.
func DailyTemplate(title string, root valueobjects.Position, layout *LayoutAllocator) []TemplateNode {
	nodes := []TemplateNode{{Label: title, Parent: -1, Position: root}}

	prompts := append(append([]string{}, DailyPrompts...), MoodPrompt)
	promptPositions := layout.PlaceChildren(root, nil, len(prompts))
	moodIndex := -1
	for i, label := range prompts {
		nodes = append(nodes, TemplateNode{Label: label, Parent: 0, Position: promptPositions[i]})
		if label == MoodPrompt {
			moodIndex = len(nodes) - 1
		}
	}

	choicePositions := layout.PlaceChildren(nodes[moodIndex].Position, nil, len(MoodChoices))
	for i, label := range MoodChoices {
		nodes = append(nodes, TemplateNode{
			Label:    label,
			Parent:   moodIndex,
			IsChoice: true,
			Position: choicePositions[i],
		})
	}

	return nodes
}
