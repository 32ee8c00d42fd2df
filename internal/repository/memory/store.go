// Package memory is an in-process graph backend with the same transaction
// semantics as the postgres one: a write transaction works on a private
// copy of the graph and publishes it on commit, so readers never see a
// half-applied change. Writers are serialized.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/internal/repository"
)

var errReadOnly = errors.New("write inside a read-only transaction")

type graph struct {
	nextNodeID int64
	nextEdgeID int64
	nodes      map[int64]models.Node
	edges      map[int64]models.Edge
}

func newGraph() *graph {
	return &graph{
		nextNodeID: 1,
		nextEdgeID: 1,
		nodes:      make(map[int64]models.Node),
		edges:      make(map[int64]models.Edge),
	}
}

func (g *graph) clone() *graph {
	c := &graph{
		nextNodeID: g.nextNodeID,
		nextEdgeID: g.nextEdgeID,
		nodes:      make(map[int64]models.Node, len(g.nodes)),
		edges:      make(map[int64]models.Edge, len(g.edges)),
	}
	for id, n := range g.nodes {
		c.nodes[id] = n
	}
	for id, e := range g.edges {
		c.edges[id] = e
	}
	return c
}

func (g *graph) nodesByID(ids map[int64]struct{}) []models.Node {
	out := make([]models.Node, 0, len(ids))
	for id := range ids {
		if n, ok := g.nodes[id]; ok {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type txState struct {
	g        *graph
	readOnly bool
}

type txKey struct{}

type Store struct {
	mu    sync.Mutex
	state *graph
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{state: newGraph(), now: time.Now}
}

var _ repository.Transactor = (*Store)(nil)

func (s *Store) WithinTx(ctx context.Context, mode repository.TxMode, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &txState{g: s.state, readOnly: mode == repository.TxReadOnly}
	if !tx.readOnly {
		tx.g = s.state.clone()
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if !tx.readOnly {
		s.state = tx.g
	}
	return nil
}

func (s *Store) read(ctx context.Context, fn func(g *graph) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(tx.g)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// write outside a transaction applies directly, like an autocommit statement
func (s *Store) write(ctx context.Context, fn func(g *graph) error) error {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok {
		if tx.readOnly {
			return errReadOnly
		}
		return fn(tx.g)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.state.clone()
	if err := fn(work); err != nil {
		return err
	}
	s.state = work
	return nil
}

func constraintErr(op, format string, args ...any) error {
	return fmt.Errorf("%s: %w", op, repository.Classify(fmt.Errorf(format, args...)))
}

// Edges returns every stored edge ordered by id.
func (s *Store) Edges(ctx context.Context) []models.Edge {
	var out []models.Edge
	_ = s.read(ctx, func(g *graph) error {
		out = make([]models.Edge, 0, len(g.edges))
		for _, e := range g.edges {
			out = append(out, e)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// NodeIDs returns the ids of every stored node in ascending order.
func (s *Store) NodeIDs(ctx context.Context) []int64 {
	var out []int64
	_ = s.read(ctx, func(g *graph) error {
		out = make([]int64, 0, len(g.nodes))
		for id := range g.nodes {
			out = append(out, id)
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
