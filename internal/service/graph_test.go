package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/internal/pkg/apperrors"
	"github.com/S1riyS/graphfs/internal/repository"
	"github.com/S1riyS/graphfs/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*graphService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := NewGraphService(store, memory.NewNodeRepository(store), memory.NewEdgeRepository(store), nil)
	return svc.(*graphService), store
}

func ptr(id int64) *int64 { return &id }

func ids(nodes []models.Node) []int64 {
	out := make([]int64, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func requireCode(t *testing.T, err error, code int64) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, CodeOf(err), "unexpected error: %v", err)
}

func TestGraphService_TreeLifecycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateDirectory(ctx, "root", nil)
	require.NoError(t, err)
	sub, err := svc.CreateDirectory(ctx, "sub", ptr(root.ID))
	require.NoError(t, err)
	file, err := svc.CreateFile(ctx, "a.txt", "hi", ptr(sub.ID))
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, []int64{root.ID, sub.ID, file.ID})

	children, err := svc.ListDirectory(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(children))
	assert.Equal(t, "sub", children[0].Name)

	all, err := svc.ListDirectoryRecursive(ctx, root.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids(all))

	content, err := svc.ReadFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", content)

	res, err := svc.DeleteNode(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, res.DeletedNodeIDs)
	assert.Equal(t, int64(2), res.DeletedEdges)

	_, err = svc.ReadFile(ctx, file.ID)
	requireCode(t, err, apperrors.NotFound)
	assert.Empty(t, store.NodeIDs(ctx))
	assert.Empty(t, store.Edges(ctx))
}

func TestGraphService_DeletingUserKeepsOwnedFile(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateDirectory(ctx, "root", nil)
	require.NoError(t, err)
	file, err := svc.CreateFile(ctx, "a.txt", "hi", ptr(root.ID))
	require.NoError(t, err)
	user, err := svc.CreateUser(ctx, "alice")
	require.NoError(t, err)

	pairs, err := svc.AddOwner(ctx, file.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Equal(t, file.ID, pairs[0].Node.ID)
	assert.Equal(t, user.ID, pairs[0].User.ID)

	res, err := svc.DeleteNode(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{user.ID}, res.DeletedNodeIDs)
	assert.Equal(t, int64(1), res.DeletedEdges)

	content, err := svc.ReadFile(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, "hi", content)

	owners, err := svc.ListOwners(ctx, file.ID)
	require.NoError(t, err)
	assert.Empty(t, owners)
	assert.Len(t, store.Edges(ctx), 1)
}

func TestGraphService_DeleteKeepsOwnersOfSubtree(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root, _ := svc.CreateDirectory(ctx, "root", nil)
	file, _ := svc.CreateFile(ctx, "f", "", ptr(root.ID))
	bob, _ := svc.CreateUser(ctx, "bob")
	_, err := svc.AddOwner(ctx, file.ID, bob.ID)
	require.NoError(t, err)
	_, err = svc.AddOwner(ctx, root.ID, bob.ID)
	require.NoError(t, err)

	res, err := svc.DeleteNode(ctx, root.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{root.ID, file.ID}, res.DeletedNodeIDs)
	assert.Equal(t, int64(3), res.DeletedEdges)

	assert.Equal(t, []int64{bob.ID}, store.NodeIDs(ctx))
	assert.Empty(t, store.Edges(ctx))
}

func TestGraphService_DeleteUnknownIsNoop(t *testing.T) {
	svc, _ := newTestService(t)

	res, err := svc.DeleteNode(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, res.DeletedNodeIDs)
	assert.Zero(t, res.DeletedEdges)
}

func TestGraphService_CreateWithBadParentLeavesNothing(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root, _ := svc.CreateDirectory(ctx, "root", nil)
	file, _ := svc.CreateFile(ctx, "f", "x", ptr(root.ID))
	user, _ := svc.CreateUser(ctx, "u")

	tests := []struct {
		name     string
		parentID int64
	}{
		{name: "missing", parentID: 999},
		{name: "file as parent", parentID: file.ID},
		{name: "user as parent", parentID: user.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateDirectory(ctx, "d", ptr(tt.parentID))
			requireCode(t, err, apperrors.NotFound)

			_, err = svc.CreateFile(ctx, "f2", "y", ptr(tt.parentID))
			requireCode(t, err, apperrors.NotFound)

			assert.Equal(t, []int64{root.ID, file.ID, user.ID}, store.NodeIDs(ctx))
		})
	}
}

func TestGraphService_EmptyNameRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateDirectory(ctx, "", nil)
	requireCode(t, err, apperrors.Validation)
	_, err = svc.CreateFile(ctx, "", "x", nil)
	requireCode(t, err, apperrors.Validation)
	_, err = svc.CreateUser(ctx, "")
	requireCode(t, err, apperrors.Validation)
}

func TestGraphService_DuplicateSiblingNamesAllowed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, _ := svc.CreateDirectory(ctx, "root", nil)
	_, err := svc.CreateFile(ctx, "same", "1", ptr(root.ID))
	require.NoError(t, err)
	_, err = svc.CreateFile(ctx, "same", "2", ptr(root.ID))
	require.NoError(t, err)

	children, err := svc.ListDirectory(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, children, 2)
}

func TestGraphService_ReadFileRejectsOtherLabels(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	dir, _ := svc.CreateDirectory(ctx, "d", nil)
	_, err := svc.ReadFile(ctx, dir.ID)
	requireCode(t, err, apperrors.NotFound)

	empty, _ := svc.CreateFile(ctx, "empty", "", nil)
	content, err := svc.ReadFile(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestGraphService_ListingUnknownOrWrongLabelIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	file, _ := svc.CreateFile(ctx, "f", "x", nil)

	for _, id := range []int64{file.ID, 404} {
		children, err := svc.ListDirectory(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, children)
		assert.Empty(t, children)

		all, err := svc.ListDirectoryRecursive(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	}
}

func TestGraphService_OwnershipEdgeCases(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	dir, _ := svc.CreateDirectory(ctx, "d", nil)
	file, _ := svc.CreateFile(ctx, "f", "x", ptr(dir.ID))
	user, _ := svc.CreateUser(ctx, "u")

	t.Run("add to missing endpoint is empty", func(t *testing.T) {
		pairs, err := svc.AddOwner(ctx, file.ID, 999)
		require.NoError(t, err)
		assert.Empty(t, pairs)

		pairs, err = svc.AddOwner(ctx, 999, user.ID)
		require.NoError(t, err)
		assert.Empty(t, pairs)

		pairs, err = svc.AddOwner(ctx, user.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	t.Run("directories can be owned", func(t *testing.T) {
		pairs, err := svc.AddOwner(ctx, dir.ID, user.ID)
		require.NoError(t, err)
		require.Len(t, pairs, 1)
		assert.Equal(t, models.LabelDirectory, pairs[0].Node.Label)
	})

	t.Run("remove requires a file", func(t *testing.T) {
		pairs, err := svc.RemoveOwner(ctx, dir.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, pairs)

		owners, err := svc.ListOwners(ctx, dir.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{user.ID}, ids(owners))
	})

	t.Run("remove without edge is empty", func(t *testing.T) {
		pairs, err := svc.RemoveOwner(ctx, file.ID, user.ID)
		require.NoError(t, err)
		assert.Empty(t, pairs)
	})

	assert.Len(t, store.Edges(ctx), 2)
}

func TestGraphService_RemoveThenAddLeavesOneEdge(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	file, _ := svc.CreateFile(ctx, "f", "x", nil)
	user, _ := svc.CreateUser(ctx, "u")

	for i := 0; i < 3; i++ {
		_, err := svc.AddOwner(ctx, file.ID, user.ID)
		require.NoError(t, err)
	}
	assert.Len(t, store.Edges(ctx), 3)

	pairs, err := svc.RemoveOwner(ctx, file.ID, user.ID)
	require.NoError(t, err)
	require.Len(t, pairs, 1)
	assert.Empty(t, store.Edges(ctx))

	_, err = svc.AddOwner(ctx, file.ID, user.ID)
	require.NoError(t, err)

	edges := store.Edges(ctx)
	require.Len(t, edges, 1)
	assert.Equal(t, models.EdgeOwnedBy, edges[0].Kind)
	assert.Equal(t, file.ID, edges[0].SrcID)
	assert.Equal(t, user.ID, edges[0].DstID)
}

func TestGraphService_TraversalTerminatesOnCycle(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	a, _ := svc.CreateDirectory(ctx, "a", nil)
	b, _ := svc.CreateDirectory(ctx, "b", ptr(a.ID))
	c, _ := svc.CreateDirectory(ctx, "c", ptr(b.ID))

	// a has no parent yet, so the store accepts a -> c and closes the loop.
	edges := memory.NewEdgeRepository(store)
	require.NoError(t, edges.Create(ctx, models.EdgeHasParent, a.ID, c.ID))

	all, err := svc.ListDirectoryRecursive(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{a.ID, b.ID, c.ID}, ids(all))

	res, err := svc.DeleteNode(ctx, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{a.ID, b.ID, c.ID}, res.DeletedNodeIDs)
	assert.Empty(t, store.NodeIDs(ctx))
}

func TestGraphService_MoveNode(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	root, _ := svc.CreateDirectory(ctx, "root", nil)
	a, _ := svc.CreateDirectory(ctx, "a", ptr(root.ID))
	b, _ := svc.CreateDirectory(ctx, "b", ptr(a.ID))
	file, _ := svc.CreateFile(ctx, "f", "x", ptr(b.ID))
	user, _ := svc.CreateUser(ctx, "u")

	t.Run("into own subtree", func(t *testing.T) {
		_, err := svc.MoveNode(ctx, a.ID, ptr(b.ID))
		requireCode(t, err, apperrors.Validation)

		_, err = svc.MoveNode(ctx, a.ID, ptr(a.ID))
		requireCode(t, err, apperrors.Validation)
	})

	t.Run("under a non directory", func(t *testing.T) {
		_, err := svc.MoveNode(ctx, a.ID, ptr(file.ID))
		requireCode(t, err, apperrors.NotFound)

		_, err = svc.MoveNode(ctx, user.ID, ptr(root.ID))
		requireCode(t, err, apperrors.NotFound)
	})

	t.Run("file to root directory", func(t *testing.T) {
		moved, err := svc.MoveNode(ctx, file.ID, ptr(root.ID))
		require.NoError(t, err)
		assert.Equal(t, file.ID, moved.ID)

		children, err := svc.ListDirectory(ctx, root.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{a.ID, file.ID}, ids(children))

		children, err = svc.ListDirectory(ctx, b.ID)
		require.NoError(t, err)
		assert.Empty(t, children)
	})

	t.Run("detach to forest root", func(t *testing.T) {
		_, err := svc.MoveNode(ctx, b.ID, nil)
		require.NoError(t, err)

		all, err := svc.ListDirectoryRecursive(ctx, root.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{root.ID, a.ID, file.ID}, ids(all))
	})

	parents := 0
	for _, e := range store.Edges(ctx) {
		if e.Kind == models.EdgeHasParent && e.SrcID == file.ID {
			parents++
		}
	}
	assert.Equal(t, 1, parents)
}

func TestGraphService_GetNode(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	user, _ := svc.CreateUser(ctx, "u")
	got, err := svc.GetNode(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "u", got.Name)
	assert.Equal(t, models.LabelUser, got.Label)

	_, err = svc.GetNode(ctx, 77)
	requireCode(t, err, apperrors.NotFound)
}

func TestGraphService_ConcurrentCreatesUnderOneParent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	root, err := svc.CreateDirectory(ctx, "root", nil)
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateFile(ctx, fmt.Sprintf("f%d", i), "x", ptr(root.ID))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	children, err := svc.ListDirectory(ctx, root.ID)
	require.NoError(t, err)
	assert.Len(t, children, workers)
}

type failingTransactor struct {
	err error
}

func (f failingTransactor) WithinTx(context.Context, repository.TxMode, func(context.Context) error) error {
	return f.err
}

func TestGraphService_StoreFailuresAreClassified(t *testing.T) {
	store := memory.NewStore()
	tests := []struct {
		name string
		err  error
		code int64
	}{
		{
			name: "serialization conflict",
			err:  fmt.Errorf("%w: could not serialize access", repository.ErrTxConflict),
			code: apperrors.TransactionAborted,
		},
		{
			name: "connection lost",
			err:  repository.Classify(errors.New("connection refused")),
			code: apperrors.StoreUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewGraphService(
				failingTransactor{err: tt.err},
				memory.NewNodeRepository(store),
				memory.NewEdgeRepository(store),
				nil,
			)

			_, err := svc.CreateDirectory(context.Background(), "d", nil)
			requireCode(t, err, tt.code)
			assert.ErrorIs(t, err, tt.err)

			_, err = svc.ListDirectory(context.Background(), 1)
			requireCode(t, err, tt.code)
		})
	}
}
