package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/S1riyS/graphfs/internal/metrics"
	"github.com/S1riyS/graphfs/internal/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterOptions struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// Metrics is nil when metrics are disabled; /metrics is not mounted then.
	Metrics *metrics.Registry
}

func NewRouter(h *Handler, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.LoggerMiddleware(opts.Logger))
	r.Use(chimw.Recoverer)
	if opts.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(opts.Metrics.HTTP))
	}
	if opts.Timeout > 0 {
		r.Use(chimw.Timeout(opts.Timeout))
	}

	// System endpoints
	r.Get("/health", h.HandleHealthCheck)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	// Graph endpoints
	r.Post("/add_directory/", h.HandleAddDirectory)
	r.Post("/add_file/", h.HandleAddFile)
	r.Post("/add_user/", h.HandleAddUser)
	r.Get("/node/{node_id}", h.HandleGetNode)
	r.Get("/read_file/{file_id}", h.HandleReadFile)
	r.Post("/add_owner/{node_id}", h.HandleAddOwner)
	r.Delete("/remove_file_owner/{file_id}", h.HandleRemoveFileOwner)
	r.Get("/list_owners/{node_id}", h.HandleListOwners)
	r.Get("/list_directory/{directory_id}", h.HandleListDirectory)
	r.Get("/list_directory_recursive/{directory_id}", h.HandleListDirectoryRecursive)
	r.Put("/move_node/{node_id}", h.HandleMoveNode)
	r.Delete("/delete_node/{node_id}", h.HandleDeleteNode)

	return r
}
