package repository

import (
	"context"

	"github.com/S1riyS/graphfs/internal/models"
)

type NodeRepository interface {
	// Create inserts the node and fills in its store-assigned ID.
	Create(ctx context.Context, node *models.Node) error
	// Get returns nil when no node has that id.
	Get(ctx context.Context, id int64) (*models.Node, error)
	// GetByLabel returns nil when the node is absent or has another label.
	GetByLabel(ctx context.Context, id int64, labels ...models.Label) (*models.Node, error)
	// DeleteMany removes the nodes and every edge touching them.
	DeleteMany(ctx context.Context, ids []int64) (int64, error)
}

type EdgeRepository interface {
	Create(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) error
	// Delete removes every edge of kind between src and dst.
	Delete(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) (int64, error)
	DeleteFrom(ctx context.Context, kind models.EdgeKind, srcID int64) (int64, error)
	DeleteTouching(ctx context.Context, ids []int64) (int64, error)
	// Sources returns the distinct nodes with an edge of kind pointing at
	// any of dstIDs, ordered by id.
	Sources(ctx context.Context, kind models.EdgeKind, dstIDs []int64) ([]models.Node, error)
	// Targets returns the distinct nodes srcID points at with edges of kind.
	Targets(ctx context.Context, kind models.EdgeKind, srcID int64) ([]models.Node, error)
}

type TxMode int

const (
	// TxReadWrite runs serializable so overlapping writers conflict
	TxReadWrite TxMode = iota
	// TxReadOnly gives multi-query reads a single snapshot
	TxReadOnly
)

func (m TxMode) String() string {
	if m == TxReadOnly {
		return "read_only"
	}
	return "read_write"
}

type Transactor interface {
	// WithinTx runs fn in one transaction carried by the ctx passed to fn.
	// Calls made with a ctx that already carries a transaction join it.
	WithinTx(ctx context.Context, mode TxMode, fn func(ctx context.Context) error) error
}
