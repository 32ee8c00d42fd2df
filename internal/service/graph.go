package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/S1riyS/graphfs/internal/metrics"
	"github.com/S1riyS/graphfs/internal/models"
	"github.com/S1riyS/graphfs/internal/pkg/apperrors"
	"github.com/S1riyS/graphfs/internal/repository"
	"github.com/S1riyS/graphfs/pkg/logging"
	"github.com/S1riyS/graphfs/pkg/logging/slogext"
)

type GraphService interface {
	CreateDirectory(ctx context.Context, name string, parentID *int64) (*models.Node, error)
	CreateFile(ctx context.Context, name, content string, parentID *int64) (*models.Node, error)
	CreateUser(ctx context.Context, name string) (*models.Node, error)
	GetNode(ctx context.Context, id int64) (*models.Node, error)
	ReadFile(ctx context.Context, fileID int64) (string, error)
	AddOwner(ctx context.Context, nodeID, userID int64) ([]models.OwnershipPair, error)
	RemoveOwner(ctx context.Context, fileID, userID int64) ([]models.OwnershipPair, error)
	ListOwners(ctx context.Context, nodeID int64) ([]models.Node, error)
	ListDirectory(ctx context.Context, dirID int64) ([]models.Node, error)
	ListDirectoryRecursive(ctx context.Context, dirID int64) ([]models.Node, error)
	MoveNode(ctx context.Context, nodeID int64, parentID *int64) (*models.Node, error)
	DeleteNode(ctx context.Context, nodeID int64) (*models.DeleteResult, error)
}

type graphService struct {
	tx       repository.Transactor
	nodeRepo repository.NodeRepository
	edgeRepo repository.EdgeRepository
	metrics  *metrics.GraphMetrics
}

// NewGraphService wires the service. m may be nil.
func NewGraphService(
	tx repository.Transactor,
	nodeRepo repository.NodeRepository,
	edgeRepo repository.EdgeRepository,
	m *metrics.GraphMetrics,
) GraphService {
	return &graphService{
		tx:       tx,
		nodeRepo: nodeRepo,
		edgeRepo: edgeRepo,
		metrics:  m,
	}
}

func (s *graphService) CreateDirectory(ctx context.Context, name string, parentID *int64) (*models.Node, error) {
	const op = "service.graphService.CreateDirectory"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("CreateDirectory", slog.String("name", name), idAttr("parent_id", parentID))

	if name == "" {
		return nil, NewValidation("name is required")
	}

	node := &models.Node{Label: models.LabelDirectory, Name: name}
	if err := s.createLinked(ctx, node, parentID); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("Directory created", slog.Int64("id", node.ID))
	return node, nil
}

func (s *graphService) CreateFile(ctx context.Context, name, content string, parentID *int64) (*models.Node, error) {
	const op = "service.graphService.CreateFile"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("CreateFile",
		slog.String("name", name),
		slog.Int("content_len", len(content)),
		idAttr("parent_id", parentID),
	)

	if name == "" {
		return nil, NewValidation("name is required")
	}

	node := &models.Node{Label: models.LabelFile, Name: name, Content: &content}
	if err := s.createLinked(ctx, node, parentID); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("File created", slog.Int64("id", node.ID))
	return node, nil
}

func (s *graphService) CreateUser(ctx context.Context, name string) (*models.Node, error) {
	const op = "service.graphService.CreateUser"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("CreateUser", slog.String("name", name))

	if name == "" {
		return nil, NewValidation("name is required")
	}

	node := &models.Node{Label: models.LabelUser, Name: name}
	if err := s.createLinked(ctx, node, nil); err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("User created", slog.Int64("id", node.ID))
	return node, nil
}

// createLinked inserts node and, when parentID is set, its HAS_PARENT edge
// in one transaction. A parent that is not a Directory aborts the whole
// thing, so no orphan node is left behind.
func (s *graphService) createLinked(ctx context.Context, node *models.Node, parentID *int64) error {
	err := s.tx.WithinTx(ctx, repository.TxReadWrite, func(ctx context.Context) error {
		if parentID != nil {
			parent, err := s.nodeRepo.GetByLabel(ctx, *parentID, models.LabelDirectory)
			if err != nil {
				return err
			}
			if parent == nil {
				return NewNotFound(fmt.Sprintf("parent directory %d not found", *parentID))
			}
		}

		if err := s.nodeRepo.Create(ctx, node); err != nil {
			return err
		}

		if parentID != nil {
			return s.edgeRepo.Create(ctx, models.EdgeHasParent, node.ID, *parentID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.metrics.NodeCreated(node.Label)
	return nil
}

func (s *graphService) GetNode(ctx context.Context, id int64) (*models.Node, error) {
	const op = "service.graphService.GetNode"

	node, err := s.nodeRepo.Get(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	if node == nil {
		return nil, NewNotFound(fmt.Sprintf("node %d not found", id))
	}

	return node, nil
}

func (s *graphService) ReadFile(ctx context.Context, fileID int64) (string, error) {
	const op = "service.graphService.ReadFile"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ReadFile", slog.Int64("file_id", fileID))

	file, err := s.nodeRepo.GetByLabel(ctx, fileID, models.LabelFile)
	if err != nil {
		return "", s.fail(ctx, op, err)
	}
	if file == nil {
		logger.Debug("File not found", slog.Int64("file_id", fileID))
		return "", NewNotFound(fmt.Sprintf("file %d not found", fileID))
	}

	if file.Content == nil {
		return "", nil
	}
	return *file.Content, nil
}

// AddOwner links a File or Directory to a User. A missing endpoint yields an
// empty result rather than an error. Repeated calls add repeated edges.
func (s *graphService) AddOwner(ctx context.Context, nodeID, userID int64) ([]models.OwnershipPair, error) {
	const op = "service.graphService.AddOwner"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("AddOwner", slog.Int64("node_id", nodeID), slog.Int64("user_id", userID))

	pairs := []models.OwnershipPair{}
	err := s.tx.WithinTx(ctx, repository.TxReadWrite, func(ctx context.Context) error {
		node, user, err := s.ownershipEndpoints(ctx, nodeID, userID, models.LabelFile, models.LabelDirectory)
		if err != nil || node == nil || user == nil {
			return err
		}

		if err := s.edgeRepo.Create(ctx, models.EdgeOwnedBy, node.ID, user.ID); err != nil {
			return err
		}

		pairs = append(pairs, models.OwnershipPair{Node: *node, User: *user})
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	if len(pairs) == 0 {
		logger.Debug("Owner not added, endpoint missing", slog.Int64("node_id", nodeID), slog.Int64("user_id", userID))
	}
	return pairs, nil
}

// RemoveOwner drops every OWNED_BY edge from the file to the user.
func (s *graphService) RemoveOwner(ctx context.Context, fileID, userID int64) ([]models.OwnershipPair, error) {
	const op = "service.graphService.RemoveOwner"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("RemoveOwner", slog.Int64("file_id", fileID), slog.Int64("user_id", userID))

	pairs := []models.OwnershipPair{}
	var removed int64
	err := s.tx.WithinTx(ctx, repository.TxReadWrite, func(ctx context.Context) error {
		file, user, err := s.ownershipEndpoints(ctx, fileID, userID, models.LabelFile)
		if err != nil || file == nil || user == nil {
			return err
		}

		removed, err = s.edgeRepo.Delete(ctx, models.EdgeOwnedBy, file.ID, user.ID)
		if err != nil {
			return err
		}

		if removed > 0 {
			pairs = append(pairs, models.OwnershipPair{Node: *file, User: *user})
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.metrics.Deleted(0, removed)
	logger.Debug("Ownership edges removed", slog.Int64("removed", removed))
	return pairs, nil
}

func (s *graphService) ownershipEndpoints(ctx context.Context, nodeID, userID int64, nodeLabels ...models.Label) (*models.Node, *models.Node, error) {
	node, err := s.nodeRepo.GetByLabel(ctx, nodeID, nodeLabels...)
	if err != nil || node == nil {
		return nil, nil, err
	}

	user, err := s.nodeRepo.GetByLabel(ctx, userID, models.LabelUser)
	if err != nil || user == nil {
		return nil, nil, err
	}

	return node, user, nil
}

func (s *graphService) ListOwners(ctx context.Context, nodeID int64) ([]models.Node, error) {
	const op = "service.graphService.ListOwners"

	owners := []models.Node{}
	err := s.tx.WithinTx(ctx, repository.TxReadOnly, func(ctx context.Context) error {
		node, err := s.nodeRepo.GetByLabel(ctx, nodeID, models.LabelFile, models.LabelDirectory)
		if err != nil || node == nil {
			return err
		}

		users, err := s.edgeRepo.Targets(ctx, models.EdgeOwnedBy, node.ID)
		if err != nil {
			return err
		}

		owners = append(owners, users...)
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	return owners, nil
}

// ListDirectory returns the direct children of a directory. An unknown
// directory lists as empty.
func (s *graphService) ListDirectory(ctx context.Context, dirID int64) ([]models.Node, error) {
	const op = "service.graphService.ListDirectory"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ListDirectory", slog.Int64("dir_id", dirID))

	children := []models.Node{}
	err := s.tx.WithinTx(ctx, repository.TxReadOnly, func(ctx context.Context) error {
		dir, err := s.nodeRepo.GetByLabel(ctx, dirID, models.LabelDirectory)
		if err != nil || dir == nil {
			return err
		}

		sources, err := s.edgeRepo.Sources(ctx, models.EdgeHasParent, []int64{dir.ID})
		if err != nil {
			return err
		}

		for _, n := range sources {
			if n.Label.Structural() {
				children = append(children, n)
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("ListDirectory done", slog.Int("children", len(children)))
	return children, nil
}

// ListDirectoryRecursive returns the directory itself followed by all of its
// transitive children. An unknown directory lists as empty.
func (s *graphService) ListDirectoryRecursive(ctx context.Context, dirID int64) ([]models.Node, error) {
	const op = "service.graphService.ListDirectoryRecursive"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ListDirectoryRecursive", slog.Int64("dir_id", dirID))

	nodes := []models.Node{}
	err := s.tx.WithinTx(ctx, repository.TxReadOnly, func(ctx context.Context) error {
		dir, err := s.nodeRepo.GetByLabel(ctx, dirID, models.LabelDirectory)
		if err != nil || dir == nil {
			return err
		}

		found, err := s.descendants(ctx, *dir)
		if err != nil {
			return err
		}

		nodes = found
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("ListDirectoryRecursive done", slog.Int("nodes", len(nodes)))
	return nodes, nil
}

// MoveNode reparents a File or Directory. A nil parentID makes it a root.
func (s *graphService) MoveNode(ctx context.Context, nodeID int64, parentID *int64) (*models.Node, error) {
	const op = "service.graphService.MoveNode"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("MoveNode", slog.Int64("node_id", nodeID), idAttr("parent_id", parentID))

	var moved *models.Node
	err := s.tx.WithinTx(ctx, repository.TxReadWrite, func(ctx context.Context) error {
		node, err := s.nodeRepo.GetByLabel(ctx, nodeID, models.LabelFile, models.LabelDirectory)
		if err != nil {
			return err
		}
		if node == nil {
			return NewNotFound(fmt.Sprintf("node %d not found", nodeID))
		}

		if parentID != nil {
			parent, err := s.nodeRepo.GetByLabel(ctx, *parentID, models.LabelDirectory)
			if err != nil {
				return err
			}
			if parent == nil {
				return NewNotFound(fmt.Sprintf("parent directory %d not found", *parentID))
			}

			subtree, err := s.descendants(ctx, *node)
			if err != nil {
				return err
			}
			if containsID(subtree, parent.ID) {
				return NewValidation(fmt.Sprintf("moving node %d under %d would create a cycle", nodeID, *parentID))
			}
		}

		if _, err := s.edgeRepo.DeleteFrom(ctx, models.EdgeHasParent, node.ID); err != nil {
			return err
		}
		if parentID != nil {
			if err := s.edgeRepo.Create(ctx, models.EdgeHasParent, node.ID, *parentID); err != nil {
				return err
			}
		}

		moved = node
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	logger.Debug("Node moved", slog.Int64("node_id", nodeID), idAttr("parent_id", parentID))
	return moved, nil
}

// DeleteNode removes the node, everything below it in the parent forest and
// every edge touching a removed node, in one transaction. Users a removed
// node was owned by stay; a User is only removed when it is the target.
// An unknown id is a no-op.
func (s *graphService) DeleteNode(ctx context.Context, nodeID int64) (*models.DeleteResult, error) {
	const op = "service.graphService.DeleteNode"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("DeleteNode", slog.Int64("node_id", nodeID))

	result := &models.DeleteResult{DeletedNodeIDs: []int64{}}
	err := s.tx.WithinTx(ctx, repository.TxReadWrite, func(ctx context.Context) error {
		target, err := s.nodeRepo.GetByLabel(ctx, nodeID, models.LabelDirectory, models.LabelFile, models.LabelUser)
		if err != nil || target == nil {
			return err
		}

		doomed := []models.Node{*target}
		if target.Label.Structural() {
			doomed, err = s.descendants(ctx, *target)
			if err != nil {
				return err
			}
		}

		ids := make([]int64, len(doomed))
		for i, n := range doomed {
			ids[i] = n.ID
		}

		edges, err := s.edgeRepo.DeleteTouching(ctx, ids)
		if err != nil {
			return err
		}
		if _, err := s.nodeRepo.DeleteMany(ctx, ids); err != nil {
			return err
		}

		result.DeletedNodeIDs = ids
		result.DeletedEdges = edges
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}

	s.metrics.Deleted(len(result.DeletedNodeIDs), result.DeletedEdges)
	logger.Debug("DeleteNode done",
		slog.Int("deleted_nodes", len(result.DeletedNodeIDs)),
		slog.Int64("deleted_edges", result.DeletedEdges),
	)
	return result, nil
}

// fail turns err into a *ServiceError. Domain errors pass through, store
// errors become StoreUnavailable or TransactionAborted.
func (s *graphService) fail(ctx context.Context, op string, err error) error {
	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		logger.Debug("Request rejected", slog.Int64("code", serviceErr.Code), slog.String("reason", serviceErr.Message))
		return serviceErr
	}

	if errors.Is(err, repository.ErrTxConflict) {
		s.metrics.TxFailure("conflict")
		logger.Warn("Transaction aborted by concurrent write", slogext.Err(err))
		return &ServiceError{
			Code:    apperrors.TransactionAborted,
			Message: "transaction aborted by a concurrent write, retry",
			Err:     fmt.Errorf("%s: %w", op, err),
		}
	}

	s.metrics.TxFailure("unavailable")
	logger.Error("Store operation failed", slogext.Err(err))
	return &ServiceError{
		Code:    apperrors.StoreUnavailable,
		Message: "store unavailable",
		Err:     fmt.Errorf("%s: %w", op, err),
	}
}

func idAttr(key string, id *int64) slog.Attr {
	if id == nil {
		return slog.String(key, "none")
	}
	return slog.Int64(key, *id)
}
