package services

import (
	"diary-backend/domain/core/entities"
	pkgerrors "diary-backend/pkg/errors"
)

// ChoiceGroup returns the choice nodes tagged with parentID, in input order.
func ChoiceGroup(parentID string, nodes []entities.Node) []entities.Node {
	var group []entities.Node
	for _, n := range nodes {
		if n.IsChoiceOf(parentID) {
			group = append(group, n)
		}
	}
	return group
}

// SelectChoice computes the hidden flag for every member of selectedID's choice group:
// the selected node is shown and its siblings are hidden. Members already in the
// wanted state are omitted.
func SelectChoice(selectedID string, nodes []entities.Node) (map[string]bool, error) {
	var selected *entities.Node
	for i := range nodes {
		if nodes[i].ID == selectedID {
			selected = &nodes[i]
			break
		}
	}
	if selected == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	if !selected.Data.IsChoice || selected.Data.ParentID == "" {
		return nil, pkgerrors.NewValidationError("node is not a choice").
			WithDetail("node_id", selectedID)
	}

	changes := make(map[string]bool)
	for _, n := range ChoiceGroup(selected.Data.ParentID, nodes) {
		hidden := n.ID != selectedID
		if n.Hidden != hidden {
			changes[n.ID] = hidden
		}
	}
	return changes, nil
}

// ResetChoices shows every hidden member of parentID's choice group.
func ResetChoices(parentID string, nodes []entities.Node) map[string]bool {
	changes := make(map[string]bool)
	for _, n := range ChoiceGroup(parentID, nodes) {
		if n.Hidden {
			changes[n.ID] = false
		}
	}
	return changes
}
