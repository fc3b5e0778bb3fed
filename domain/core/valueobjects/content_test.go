package valueobjects

import (
	"strings"
	"testing"

	"diary-backend/domain/config"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLabel(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	tests := []struct {
		name    string
		label   string
		want    string
		wantErr bool
	}{
		{name: "trimmed", label: "  Coffee  ", want: "Coffee"},
		{name: "at the limit", label: strings.Repeat("가", cfg.MaxLabelLength), want: strings.Repeat("가", cfg.MaxLabelLength)},
		{name: "blank", label: " \t ", wantErr: true},
		{name: "too long", label: strings.Repeat("a", cfg.MaxLabelLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateLabel(tt.label, cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateContent(t *testing.T) {
	cfg := config.DefaultDomainConfig()

	assert.NoError(t, ValidateContent("", cfg))
	assert.NoError(t, ValidateContent(strings.Repeat("b", cfg.MaxContentLength), nil))
	err := ValidateContent(strings.Repeat("b", cfg.MaxContentLength+1), cfg)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestNewNodeText(t *testing.T) {
	text, err := NewNodeText(" Walk ", "by the river", nil)

	require.NoError(t, err)
	assert.Equal(t, "Walk", text.Label())
	assert.Equal(t, "by the river", text.Content())

	_, err = NewNodeText("", "body", nil)
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short", 10))
	assert.Equal(t, "abc...", Preview("abcdef", 3))
}
