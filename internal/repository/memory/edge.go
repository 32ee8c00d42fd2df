package memory

import (
	"context"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/internal/repository"
)

type edgeRepository struct {
	store *Store
}

func NewEdgeRepository(store *Store) repository.EdgeRepository {
	return &edgeRepository{store: store}
}

func (r *edgeRepository) Create(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) error {
	const op = "memory.edgeRepository.Create"

	return r.store.write(ctx, func(g *graph) error {
		if _, ok := g.nodes[srcID]; !ok {
			return constraintErr(op, "edge source %d does not exist", srcID)
		}
		if _, ok := g.nodes[dstID]; !ok {
			return constraintErr(op, "edge target %d does not exist", dstID)
		}

		if kind == models.EdgeHasParent {
			for _, e := range g.edges {
				if e.Kind == models.EdgeHasParent && e.SrcID == srcID {
					return constraintErr(op, "node %d already has a parent", srcID)
				}
			}
		}

		g.edges[g.nextEdgeID] = models.Edge{ID: g.nextEdgeID, Kind: kind, SrcID: srcID, DstID: dstID}
		g.nextEdgeID++
		return nil
	})
}

func (r *edgeRepository) Delete(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) (int64, error) {
	return r.deleteWhere(ctx, func(e models.Edge) bool {
		return e.Kind == kind && e.SrcID == srcID && e.DstID == dstID
	})
}

func (r *edgeRepository) DeleteFrom(ctx context.Context, kind models.EdgeKind, srcID int64) (int64, error) {
	return r.deleteWhere(ctx, func(e models.Edge) bool {
		return e.Kind == kind && e.SrcID == srcID
	})
}

func (r *edgeRepository) DeleteTouching(ctx context.Context, ids []int64) (int64, error) {
	set := toSet(ids)
	return r.deleteWhere(ctx, func(e models.Edge) bool {
		_, src := set[e.SrcID]
		_, dst := set[e.DstID]
		return src || dst
	})
}

func (r *edgeRepository) Sources(ctx context.Context, kind models.EdgeKind, dstIDs []int64) ([]models.Node, error) {
	dst := toSet(dstIDs)

	var out []models.Node
	err := r.store.read(ctx, func(g *graph) error {
		found := make(map[int64]struct{})
		for _, e := range g.edges {
			if _, ok := dst[e.DstID]; ok && e.Kind == kind {
				found[e.SrcID] = struct{}{}
			}
		}
		out = g.nodesByID(found)
		return nil
	})
	return out, err
}

func (r *edgeRepository) Targets(ctx context.Context, kind models.EdgeKind, srcID int64) ([]models.Node, error) {
	var out []models.Node
	err := r.store.read(ctx, func(g *graph) error {
		found := make(map[int64]struct{})
		for _, e := range g.edges {
			if e.Kind == kind && e.SrcID == srcID {
				found[e.DstID] = struct{}{}
			}
		}
		out = g.nodesByID(found)
		return nil
	})
	return out, err
}

func (r *edgeRepository) deleteWhere(ctx context.Context, match func(models.Edge) bool) (int64, error) {
	var removed int64
	err := r.store.write(ctx, func(g *graph) error {
		for id, e := range g.edges {
			if match(e) {
				delete(g.edges, id)
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func toSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
