package entities

import (
	"testing"
	"time"

	"diary-backend/domain/core/valueobjects"

	"github.com/stretchr/testify/assert"
)

func TestMap_IsDaily(t *testing.T) {
	tests := []struct {
		name string
		m    Map
		want bool
	}{
		{name: "daily type", m: Map{Title: "2024-08-14", Type: valueobjects.MapTypeDaily}, want: true},
		{name: "legacy daily title", m: Map{Title: "14일의 기록", Type: valueobjects.MapTypeBlank}, want: true},
		{name: "blank map", m: Map{Title: "2024-08-14", Type: valueobjects.MapTypeBlank}, want: false},
		{name: "note", m: Map{Title: "Trip", Type: valueobjects.MapTypeNote}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.IsDaily())
		})
	}
}

func TestMap_DateKey(t *testing.T) {
	seoul := time.FixedZone("KST", 9*60*60)
	late := time.Date(2024, 8, 14, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		m    Map
		want string
	}{
		{name: "created wins", m: Map{CreatedAt: late, UpdatedAt: late.Add(72 * time.Hour)}, want: "2024-08-15"},
		{name: "updated fallback", m: Map{UpdatedAt: late}, want: "2024-08-15"},
		{name: "title prefix", m: Map{Title: "2024-08-01 #2"}, want: "2024-08-01"},
		{name: "unknown", m: Map{Title: "Trip"}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.DateKey(seoul))
		})
	}
}
