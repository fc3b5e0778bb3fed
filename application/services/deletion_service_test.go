package services

import (
	"context"
	"testing"

	"diary-backend/domain/events"
	pkgerrors "diary-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeletionService_DeletesSubtree(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	m := f.newMap(t, "day")
	root, err := f.mindmaps.AddNode(ctx, testUser, m.ID, "root", "", nil)
	require.NoError(t, err)
	a, _, err := f.mindmaps.AddChild(ctx, testUser, m.ID, root.ID, "a", "")
	require.NoError(t, err)
	b, _, err := f.mindmaps.AddChild(ctx, testUser, m.ID, root.ID, "b", "")
	require.NoError(t, err)
	a1, _, err := f.mindmaps.AddChild(ctx, testUser, m.ID, a.ID, "a1", "")
	require.NoError(t, err)
	// a1 -> root closes a cycle, so the cascade reaches root and b as well
	_, err = f.mindmaps.Connect(ctx, testUser, m.ID, a1.ID, root.ID)
	require.NoError(t, err)

	// Act
	plan, err := f.deletion.DeleteNode(ctx, testUser, m.ID, a.ID)

	// Assert
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, a1.ID, root.ID, b.ID}, plan.NodeIDs)

	nodes, edges := f.graph(t, m.ID)
	assert.Empty(t, nodes)
	assert.Empty(t, edges)
	assert.Contains(t, f.publisher.types(), events.TypeNodeCascadeDeleted)
}

func TestDeletionService_LeafKeepsRest(t *testing.T) {
	// Arrange
	ctx := context.Background()
	f := newFixture(t)
	m := f.newMap(t, "day")
	root, err := f.mindmaps.AddNode(ctx, testUser, m.ID, "root", "", nil)
	require.NoError(t, err)
	a, _, err := f.mindmaps.AddChild(ctx, testUser, m.ID, root.ID, "a", "")
	require.NoError(t, err)
	_, _, err = f.mindmaps.AddChild(ctx, testUser, m.ID, root.ID, "b", "")
	require.NoError(t, err)

	// Act
	plan, err := f.deletion.DeleteNode(ctx, testUser, m.ID, a.ID)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, plan.NodeIDs)
	assert.Len(t, plan.EdgeIDs, 1)
	nodes, edges := f.graph(t, m.ID)
	assert.Equal(t, []string{"root", "b"}, labels(nodes))
	require.Len(t, edges, 1)
	for _, e := range edges {
		assert.NotEqual(t, a.ID, e.Target)
	}
}

func TestDeletionService_PublishFailureIsNotSurfaced(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.newMap(t, "day")
	root, err := f.mindmaps.AddNode(ctx, testUser, m.ID, "root", "", nil)
	require.NoError(t, err)
	f.publisher.err = assert.AnError

	_, err = f.deletion.DeleteNode(ctx, testUser, m.ID, root.ID)

	assert.NoError(t, err)
}

func TestDeletionService_BatchFailureIsReturned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	m := f.newMap(t, "day")
	root, err := f.mindmaps.AddNode(ctx, testUser, m.ID, "root", "", nil)
	require.NoError(t, err)
	f.store.FailNextWrite(assert.AnError)

	_, err = f.deletion.DeleteNode(ctx, testUser, m.ID, root.ID)

	assert.True(t, pkgerrors.IsDatabase(err))
	nodes, _ := f.graph(t, m.ID)
	assert.Len(t, nodes, 1)
}

func TestDeletionService_UnknownNode(t *testing.T) {
	f := newFixture(t)
	m := f.newMap(t, "day")

	_, err := f.deletion.DeleteNode(context.Background(), testUser, m.ID, "missing")

	assert.True(t, pkgerrors.IsNotFound(err))
}
