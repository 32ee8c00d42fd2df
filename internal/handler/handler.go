package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/S1riyS/graphfs/internal/pkg/apperrors"
	"github.com/S1riyS/graphfs/internal/service"
	"github.com/S1riyS/graphfs/pkg/logging"
	"github.com/S1riyS/graphfs/pkg/logging/slogext"
	"github.com/S1riyS/graphfs/pkg/response"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  service.GraphService
	validate *validator.Validate
}

func NewHandler(service service.GraphService) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) HandleAddDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleAddDirectory"

	parentID, err := queryID(r, "parent_directory_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	req := createDirectoryRequest{
		Name:              r.URL.Query().Get("name"),
		ParentDirectoryID: parentID,
	}
	if err := h.validateRequest(&req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	node, err := h.service.CreateDirectory(ctx, req.Name, req.ParentDirectoryID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, node)
}

func (h *Handler) HandleAddFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleAddFile"

	parentID, err := queryID(r, "parent_directory_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	req := createFileRequest{
		Name:              r.URL.Query().Get("name"),
		Content:           queryString(r, "content"),
		ParentDirectoryID: parentID,
	}
	if err := h.validateRequest(&req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	node, err := h.service.CreateFile(ctx, req.Name, *req.Content, req.ParentDirectoryID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, node)
}

func (h *Handler) HandleAddUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleAddUser"

	req := createUserRequest{Name: r.URL.Query().Get("name")}
	if err := h.validateRequest(&req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	node, err := h.service.CreateUser(ctx, req.Name)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, node)
}

func (h *Handler) HandleGetNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleGetNode"

	nodeID, err := pathID(r, "node_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	node, err := h.service.GetNode(ctx, nodeID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, node)
}

func (h *Handler) HandleReadFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleReadFile"

	fileID, err := pathID(r, "file_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	content, err := h.service.ReadFile(ctx, fileID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, readFileResponse{Content: content})
}

func (h *Handler) HandleAddOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleAddOwner"

	req, err := h.ownerRequest(r, "node_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	pairs, err := h.service.AddOwner(ctx, req.NodeID, *req.UserID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, pairs)
}

func (h *Handler) HandleRemoveFileOwner(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRemoveFileOwner"

	req, err := h.ownerRequest(r, "file_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	pairs, err := h.service.RemoveOwner(ctx, req.NodeID, *req.UserID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, pairs)
}

func (h *Handler) ownerRequest(r *http.Request, pathKey string) (*ownerRequest, error) {
	nodeID, err := pathID(r, pathKey)
	if err != nil {
		return nil, err
	}
	userID, err := queryID(r, "user_id")
	if err != nil {
		return nil, err
	}

	req := &ownerRequest{NodeID: nodeID, UserID: userID}
	if err := h.validateRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (h *Handler) HandleListOwners(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleListOwners"

	nodeID, err := pathID(r, "node_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	owners, err := h.service.ListOwners(ctx, nodeID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, owners)
}

func (h *Handler) HandleListDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleListDirectory"

	dirID, err := pathID(r, "directory_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	children, err := h.service.ListDirectory(ctx, dirID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, children)
}

func (h *Handler) HandleListDirectoryRecursive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleListDirectoryRecursive"

	dirID, err := pathID(r, "directory_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	nodes, err := h.service.ListDirectoryRecursive(ctx, dirID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, nodes)
}

func (h *Handler) HandleMoveNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleMoveNode"

	nodeID, err := pathID(r, "node_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	parentID, err := queryID(r, "parent_directory_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	req := moveNodeRequest{NodeID: nodeID, ParentDirectoryID: parentID}
	if err := h.validateRequest(&req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	node, err := h.service.MoveNode(ctx, req.NodeID, req.ParentDirectoryID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, node)
}

func (h *Handler) HandleDeleteNode(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleDeleteNode"

	nodeID, err := pathID(r, "node_id")
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	result, err := h.service.DeleteNode(ctx, nodeID)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	h.writeJSON(w, r, op, result)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, "handler.HandleHealthCheck", map[string]string{
		"status":  "ok",
		"service": "graphfs",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, op string, data any) {
	if err := response.WriteJSON(w, http.StatusOK, data); err != nil {
		logging.GetLoggerFromContextWithOp(r.Context(), op).Error("Failed to write response", slogext.Err(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger := logging.GetLoggerFromContextWithOp(r.Context(), op)
	status := mapErrorToStatus(err)

	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal error"
	}

	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", status), slogext.Err(err))
	} else {
		logger.Debug("Request rejected", slog.Int("status", status), slog.String("detail", detail))
	}

	if err := response.WriteProblem(w, status, detail, r.URL.Path); err != nil {
		logger.Error("Failed to write problem response", slogext.Err(err))
	}
}

func mapErrorToStatus(err error) int {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		return http.StatusUnprocessableEntity
	}

	switch service.CodeOf(err) {
	case apperrors.NotFound:
		return http.StatusNotFound
	case apperrors.Validation:
		return http.StatusUnprocessableEntity
	case apperrors.TransactionAborted:
		return http.StatusConflict
	case apperrors.StoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
