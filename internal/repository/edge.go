package repository

import (
	"context"
	"fmt"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/pkg/database/postgresql"
)

type edgeRepository struct {
	db postgresql.Client
}

func NewEdgeRepository(db postgresql.Client) EdgeRepository {
	return &edgeRepository{db: db}
}

func (r *edgeRepository) Create(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) error {
	const op = "repository.edgeRepository.Create"

	query := `
		INSERT INTO edges (kind, src_id, dst_id)
		VALUES ($1, $2, $3)
	`

	db := postgresql.GetDBClient(ctx, r.db)
	_, err := db.Exec(ctx, query, string(kind), srcID, dstID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, Classify(err))
	}

	return nil
}

func (r *edgeRepository) Delete(ctx context.Context, kind models.EdgeKind, srcID, dstID int64) (int64, error) {
	const op = "repository.edgeRepository.Delete"

	query := `
		DELETE FROM edges
		WHERE kind = $1 AND src_id = $2 AND dst_id = $3
	`

	db := postgresql.GetDBClient(ctx, r.db)
	tag, err := db.Exec(ctx, query, string(kind), srcID, dstID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return tag.RowsAffected(), nil
}

func (r *edgeRepository) DeleteFrom(ctx context.Context, kind models.EdgeKind, srcID int64) (int64, error) {
	const op = "repository.edgeRepository.DeleteFrom"

	query := `
		DELETE FROM edges
		WHERE kind = $1 AND src_id = $2
	`

	db := postgresql.GetDBClient(ctx, r.db)
	tag, err := db.Exec(ctx, query, string(kind), srcID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return tag.RowsAffected(), nil
}

func (r *edgeRepository) DeleteTouching(ctx context.Context, ids []int64) (int64, error) {
	const op = "repository.edgeRepository.DeleteTouching"

	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		DELETE FROM edges
		WHERE src_id = ANY($1) OR dst_id = ANY($1)
	`

	db := postgresql.GetDBClient(ctx, r.db)
	tag, err := db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return tag.RowsAffected(), nil
}

func (r *edgeRepository) Sources(ctx context.Context, kind models.EdgeKind, dstIDs []int64) ([]models.Node, error) {
	const op = "repository.edgeRepository.Sources"

	if len(dstIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT DISTINCT n.id, n.label, n.name, n.content, n.created_at
		FROM edges e
		JOIN nodes n ON n.id = e.src_id
		WHERE e.kind = $1 AND e.dst_id = ANY($2)
		ORDER BY n.id
	`

	db := postgresql.GetDBClient(ctx, r.db)
	rows, err := db.Query(ctx, query, string(kind), dstIDs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return nodes, nil
}

func (r *edgeRepository) Targets(ctx context.Context, kind models.EdgeKind, srcID int64) ([]models.Node, error) {
	const op = "repository.edgeRepository.Targets"

	query := `
		SELECT DISTINCT n.id, n.label, n.name, n.content, n.created_at
		FROM edges e
		JOIN nodes n ON n.id = e.dst_id
		WHERE e.kind = $1 AND e.src_id = $2
		ORDER BY n.id
	`

	db := postgresql.GetDBClient(ctx, r.db)
	rows, err := db.Query(ctx, query, string(kind), srcID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	nodes, err := scanNodes(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return nodes, nil
}
