package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"diary-backend/application/ports"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nodes = ports.MapCollection("u1", "m1", ports.CollectionNodes)

func next(t *testing.T, sub ports.Subscription) ports.Snapshot {
	t.Helper()
	select {
	case snap := <-sub.Updates():
		return snap
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for snapshot")
		return ports.Snapshot{}
	}
}

func TestStore_CreateGetFetch(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()

	// Act
	first, err := store.Create(ctx, nodes, "", ports.Fields{"label": "one"})
	require.NoError(t, err)
	_, err = store.Create(ctx, nodes, "fixed", ports.Fields{"label": "two"})
	require.NoError(t, err)

	// Assert
	assert.NotEmpty(t, first)
	doc, err := store.Get(ctx, nodes.Doc("fixed"))
	require.NoError(t, err)
	assert.Equal(t, "two", doc.Fields["label"])

	all, err := store.Fetch(ctx, nodes)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, first, all[0].ID)
	assert.Equal(t, "fixed", all[1].ID)
}

func TestStore_GetMissing(t *testing.T) {
	_, err := NewStore().Get(context.Background(), nodes.Doc("nope"))

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_UpdateMergesDottedPaths(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()
	_, err := store.Create(ctx, nodes, "n1", ports.Fields{
		"label": "old",
		"data":  map[string]interface{}{"label": "old", "isChoice": true},
	})
	require.NoError(t, err)

	// Act
	err = store.Update(ctx, nodes.Doc("n1"), ports.Fields{"label": "new", "data.label": "new"})

	// Assert
	require.NoError(t, err)
	doc, err := store.Get(ctx, nodes.Doc("n1"))
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Fields["label"])
	assert.Equal(t, map[string]interface{}{"label": "new", "isChoice": true}, doc.Fields["data"])
}

func TestStore_UpdateMissingFails(t *testing.T) {
	err := NewStore().Update(context.Background(), nodes.Doc("ghost"), ports.Fields{"label": "x"})

	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestStore_BatchIsAllOrNothing(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()
	_, err := store.Create(ctx, nodes, "keep", ports.Fields{"label": "keep"})
	require.NoError(t, err)

	// Act
	err = store.Batch(ctx, []ports.BatchOp{
		{Kind: ports.BatchDelete, Ref: nodes.Doc("keep")},
		{Kind: ports.BatchUpdate, Ref: nodes.Doc("missing"), Fields: ports.Fields{"label": "x"}},
	})

	// Assert
	require.Error(t, err)
	all, err := store.Fetch(ctx, nodes)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestStore_BatchAcrossCollections(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()
	edges := ports.MapCollection("u1", "m1", ports.CollectionEdges)
	_, _ = store.Create(ctx, nodes, "a", ports.Fields{"label": "a"})
	_, _ = store.Create(ctx, edges, "e1", ports.Fields{"source": "a", "target": "b"})

	// Act
	err := store.Batch(ctx, []ports.BatchOp{
		{Kind: ports.BatchDelete, Ref: nodes.Doc("a")},
		{Kind: ports.BatchDelete, Ref: edges.Doc("e1")},
		{Kind: ports.BatchDelete, Ref: edges.Doc("never-existed")},
		{Kind: ports.BatchSet, Ref: nodes.Doc("b"), Fields: ports.Fields{"label": "b"}},
		{Kind: ports.BatchUpdate, Ref: nodes.Doc("b"), Fields: ports.Fields{"hidden": true}},
	})

	// Assert
	require.NoError(t, err)
	remainingEdges, _ := store.Fetch(ctx, edges)
	assert.Empty(t, remainingEdges)
	b, err := store.Get(ctx, nodes.Doc("b"))
	require.NoError(t, err)
	assert.Equal(t, true, b.Fields["hidden"])
}

func TestStore_InjectedFailure(t *testing.T) {
	// Arrange
	store := NewStore()
	store.FailNextWrite(errors.New("disk full"))

	// Act
	_, err := store.Create(context.Background(), nodes, "", ports.Fields{})

	// Assert
	assert.True(t, pkgerrors.IsDatabase(err))
	_, err = store.Create(context.Background(), nodes, "", ports.Fields{})
	assert.NoError(t, err)
}

func TestStore_SubscribeSeesChanges(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()
	_, _ = store.Create(ctx, nodes, "a", ports.Fields{"label": "a"})
	sub, err := store.Subscribe(ctx, nodes)
	require.NoError(t, err)
	defer sub.Cancel()

	// Act
	initial := next(t, sub)
	_, _ = store.Create(ctx, nodes, "b", ports.Fields{"label": "b"})
	updated := next(t, sub)

	// Assert
	assert.Len(t, initial.Documents, 1)
	require.Len(t, updated.Documents, 2)
	assert.Equal(t, "b", updated.Documents[1].ID)
}

func TestStore_ReturnedFieldsAreCopies(t *testing.T) {
	// Arrange
	ctx := context.Background()
	store := NewStore()
	input := ports.Fields{"position": map[string]interface{}{"x": 1.0, "y": 2.0}}
	_, _ = store.Create(ctx, nodes, "a", input)

	// Act
	input["position"].(map[string]interface{})["x"] = 99.0
	doc, _ := store.Get(ctx, nodes.Doc("a"))
	doc.Fields["position"].(map[string]interface{})["y"] = 99.0

	// Assert
	again, _ := store.Get(ctx, nodes.Doc("a"))
	assert.Equal(t, map[string]interface{}{"x": 1.0, "y": 2.0}, again.Fields["position"])
}
