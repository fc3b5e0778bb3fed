package main

import (
	"bytes"
	"testing"

	"diary-backend/application/services"
	"diary-backend/domain/core/entities"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestTable(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	table(&buf, []string{"ID", "TITLE"}, [][]string{
		{"m1", "Monday"},
		{"m22", "A longer title"},
	})

	want := "  ID   TITLE\n" +
		"  ---  --------------\n" +
		"  m1   Monday\n" +
		"  m22  A longer title\n"
	assert.Equal(t, want, buf.String())
}

func TestTable_Empty(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer

	table(&buf, []string{"ID"}, nil)

	assert.Equal(t, "  (none)\n", buf.String())
}

func TestMoney(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{in: 0, want: "0.00"},
		{in: 12.5, want: "12.50"},
		{in: -3.456, want: "-3.46"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(tt.in))
	}
}

func TestDescribeView(t *testing.T) {
	view := services.GraphView{
		MapID: "m1",
		Nodes: []services.NodeState{
			{Remote: entities.Node{ID: "a"}},
			{Remote: entities.Node{ID: "b", Hidden: true}},
		},
		Edges: []entities.Edge{{ID: "a-b", Source: "a", Target: "b"}},
	}

	assert.Equal(t, "2 nodes (1 visible), 1 edges", describeView(view))
}
