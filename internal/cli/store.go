package cli

import (
	"context"
	"fmt"

	"github.com/S1riyS/graphfs/internal/config"
	"github.com/S1riyS/graphfs/internal/repository"
	"github.com/S1riyS/graphfs/internal/repository/memory"
	"github.com/S1riyS/graphfs/pkg/database/postgresql"
	"github.com/S1riyS/graphfs/pkg/logging"
)

type backend struct {
	tx    repository.Transactor
	nodes repository.NodeRepository
	edges repository.EdgeRepository
	close func()
}

func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	const op = "cli.openBackend"
	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory storage, data is lost on restart")
		store := memory.NewStore()
		return &backend{
			tx:    store,
			nodes: memory.NewNodeRepository(store),
			edges: memory.NewEdgeRepository(store),
			close: func() {},
		}, nil

	case config.StorageDriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgresql.Migrate(ctx, cfg.Database.DSN()); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}

		pool, err := postgresql.NewClient(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		return &backend{
			tx:    repository.NewTransactor(pool),
			nodes: repository.NewNodeRepository(pool),
			edges: repository.NewEdgeRepository(pool),
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("%s: unknown storage driver %q", op, cfg.Storage.Driver)
	}
}
