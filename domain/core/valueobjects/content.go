package valueobjects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"diary-backend/domain/config"
	pkgerrors "diary-backend/pkg/errors"
)

// NodeText is the validated label and body of a node.
type NodeText struct {
	label   string
	content string
}

// NewNodeText validates label and body against the domain limits.
func NewNodeText(label, content string, cfg *config.DomainConfig) (NodeText, error) {
	label, err := ValidateLabel(label, cfg)
	if err != nil {
		return NodeText{}, err
	}
	if err := ValidateContent(content, cfg); err != nil {
		return NodeText{}, err
	}
	return NodeText{label: label, content: content}, nil
}

// ValidateLabel returns the trimmed label, or a validation error when it is
// empty or too long.
func ValidateLabel(label string, cfg *config.DomainConfig) (string, error) {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return "", pkgerrors.NewValidationError("label cannot be empty")
	}
	if utf8.RuneCountInString(label) > cfg.MaxLabelLength {
		return "", pkgerrors.NewValidationError(
			fmt.Sprintf("label exceeds maximum length of %d characters", cfg.MaxLabelLength))
	}
	return label, nil
}

// ValidateContent checks a node body against the length limit. Empty bodies are allowed.
func ValidateContent(content string, cfg *config.DomainConfig) error {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if utf8.RuneCountInString(content) > cfg.MaxContentLength {
		return pkgerrors.NewValidationError(
			fmt.Sprintf("content exceeds maximum length of %d characters", cfg.MaxContentLength))
	}
	return nil
}

func (t NodeText) Label() string   { return t.label }
func (t NodeText) Content() string { return t.content }

// Preview returns the first n runes of content, with "..." when truncated.
func Preview(content string, n int) string {
	if utf8.RuneCountInString(content) <= n {
		return content
	}
	runes := []rune(content)
	return string(runes[:n]) + "..."
}
