package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type createDirectoryRequest struct {
	Name              string `validate:"required,max=255"`
	ParentDirectoryID *int64 `validate:"omitempty"`
}

type createFileRequest struct {
	Name              string  `validate:"required,max=255"`
	Content           *string `validate:"required"`
	ParentDirectoryID *int64  `validate:"omitempty"`
}

type createUserRequest struct {
	Name string `validate:"required,max=255"`
}

type ownerRequest struct {
	NodeID int64
	UserID *int64 `validate:"required"`
}

type moveNodeRequest struct {
	NodeID            int64
	ParentDirectoryID *int64 `validate:"omitempty"`
}

type readFileResponse struct {
	Content string `json:"content"`
}

// fieldNames maps struct fields to the query parameter names clients send
var fieldNames = map[string]string{
	"Name":              "name",
	"Content":           "content",
	"ParentDirectoryID": "parent_directory_id",
	"UserID":            "user_id",
}

// requestError is a malformed or missing input. It never reaches the service.
type requestError struct {
	msg string
}

func (e *requestError) Error() string {
	return e.msg
}

func pathID(r *http.Request, key string) (int64, error) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &requestError{msg: fmt.Sprintf("%s: must be an integer, got %q", key, raw)}
	}
	return id, nil
}

// queryID returns nil when the parameter is absent.
func queryID(r *http.Request, key string) (*int64, error) {
	if !r.URL.Query().Has(key) {
		return nil, nil
	}

	raw := r.URL.Query().Get(key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, &requestError{msg: fmt.Sprintf("%s: must be an integer, got %q", key, raw)}
	}
	return &id, nil
}

func queryString(r *http.Request, key string) *string {
	if !r.URL.Query().Has(key) {
		return nil
	}
	v := r.URL.Query().Get(key)
	return &v
}

func (h *Handler) validateRequest(req any) error {
	err := h.validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &requestError{msg: err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		name := fieldNames[fe.Field()]
		if name == "" {
			name = fe.Field()
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, name+": is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s: must be at most %s characters", name, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed %q check", name, fe.Tag()))
		}
	}
	return &requestError{msg: strings.Join(msgs, "; ")}
}
