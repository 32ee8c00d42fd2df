package memory

import (
	"context"
	"slices"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/internal/repository"
)

type nodeRepository struct {
	store *Store
}

func NewNodeRepository(store *Store) repository.NodeRepository {
	return &nodeRepository{store: store}
}

func (r *nodeRepository) Create(ctx context.Context, node *models.Node) error {
	const op = "memory.nodeRepository.Create"

	if !node.Label.Valid() {
		return constraintErr(op, "invalid label %q", node.Label)
	}
	if (node.Label == models.LabelFile) != (node.Content != nil) {
		return constraintErr(op, "content is required for files and only for files")
	}

	return r.store.write(ctx, func(g *graph) error {
		node.ID = g.nextNodeID
		node.CreatedAt = r.store.now()
		g.nextNodeID++

		stored := *node
		if node.Content != nil {
			content := *node.Content
			stored.Content = &content
		}
		g.nodes[node.ID] = stored
		return nil
	})
}

func (r *nodeRepository) Get(ctx context.Context, id int64) (*models.Node, error) {
	var out *models.Node
	err := r.store.read(ctx, func(g *graph) error {
		if n, ok := g.nodes[id]; ok {
			if n.Content != nil {
				content := *n.Content
				n.Content = &content
			}
			out = &n
		}
		return nil
	})
	return out, err
}

func (r *nodeRepository) GetByLabel(ctx context.Context, id int64, labels ...models.Label) (*models.Node, error) {
	node, err := r.Get(ctx, id)
	if err != nil || node == nil {
		return nil, err
	}
	if !slices.Contains(labels, node.Label) {
		return nil, nil
	}
	return node, nil
}

func (r *nodeRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	var removed int64
	err := r.store.write(ctx, func(g *graph) error {
		for _, id := range ids {
			if _, ok := g.nodes[id]; !ok {
				continue
			}
			delete(g.nodes, id)
			removed++

			for eid, e := range g.edges {
				if e.SrcID == id || e.DstID == id {
					delete(g.edges, eid)
				}
			}
		}
		return nil
	})
	return removed, err
}
