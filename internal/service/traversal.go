package service

import (
	"context"

	"github.com/S1riyS/graphfs/internal/models"
)

// descendants returns root followed by every File and Directory whose
// HAS_PARENT chain leads to it, level by level. One query per level; the
// visited set keeps each node once and stops on cyclic data.
func (s *graphService) descendants(ctx context.Context, root models.Node) ([]models.Node, error) {
	visited := map[int64]struct{}{root.ID: {}}
	out := []models.Node{root}
	frontier := []int64{root.ID}

	for len(frontier) > 0 {
		children, err := s.edgeRepo.Sources(ctx, models.EdgeHasParent, frontier)
		if err != nil {
			return nil, err
		}

		var next []int64
		for _, child := range children {
			if _, seen := visited[child.ID]; seen {
				continue
			}
			if !child.Label.Structural() {
				continue
			}
			visited[child.ID] = struct{}{}
			out = append(out, child)
			next = append(next, child.ID)
		}
		frontier = next
	}

	s.metrics.TraversalVisited(len(out))
	return out, nil
}

func containsID(nodes []models.Node, id int64) bool {
	for _, n := range nodes {
		if n.ID == id {
			return true
		}
	}
	return false
}
