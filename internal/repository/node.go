package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/pkg/database/postgresql"
	"github.com/jackc/pgx/v5"
)

type nodeRepository struct {
	db postgresql.Client
}

func NewNodeRepository(db postgresql.Client) NodeRepository {
	return &nodeRepository{db: db}
}

const nodeColumns = `id, label, name, content, created_at`

func (r *nodeRepository) Create(ctx context.Context, node *models.Node) error {
	const op = "repository.nodeRepository.Create"

	query := `
		INSERT INTO nodes (label, name, content)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	db := postgresql.GetDBClient(ctx, r.db)
	err := db.QueryRow(ctx, query, string(node.Label), node.Name, node.Content).Scan(&node.ID, &node.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, Classify(err))
	}

	return nil
}

func (r *nodeRepository) Get(ctx context.Context, id int64) (*models.Node, error) {
	const op = "repository.nodeRepository.Get"

	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE id = $1
	`

	db := postgresql.GetDBClient(ctx, r.db)
	node, err := scanNode(db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return node, nil
}

func (r *nodeRepository) GetByLabel(ctx context.Context, id int64, labels ...models.Label) (*models.Node, error) {
	const op = "repository.nodeRepository.GetByLabel"

	query := `
		SELECT ` + nodeColumns + `
		FROM nodes
		WHERE id = $1 AND label = ANY($2)
	`

	db := postgresql.GetDBClient(ctx, r.db)
	node, err := scanNode(db.QueryRow(ctx, query, id, labelStrings(labels)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return node, nil
}

func (r *nodeRepository) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	const op = "repository.nodeRepository.DeleteMany"

	if len(ids) == 0 {
		return 0, nil
	}

	// edges go with their endpoints through ON DELETE CASCADE
	query := `
		DELETE FROM nodes
		WHERE id = ANY($1)
	`

	db := postgresql.GetDBClient(ctx, r.db)
	tag, err := db.Exec(ctx, query, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, Classify(err))
	}

	return tag.RowsAffected(), nil
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	var label string
	if err := row.Scan(&node.ID, &label, &node.Name, &node.Content, &node.CreatedAt); err != nil {
		return nil, err
	}
	node.Label = models.Label(label)
	return &node, nil
}

func scanNodes(rows pgx.Rows) ([]models.Node, error) {
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return nodes, nil
}

func labelStrings(labels []models.Label) []string {
	out := make([]string, len(labels))
	for i, l := range labels {
		out[i] = string(l)
	}
	return out
}
