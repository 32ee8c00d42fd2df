package response

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
)

const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// WriteJSON encodes data before touching w, so an encoding failure can still
// be reported as a 500.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	return write(w, "application/json", status, data)
}

func WriteProblem(w http.ResponseWriter, status int, detail, instance string) error {
	problem := &Problem{
		Type:     "about:blank",
		Title:    http.StatusText(status),
		Status:   status,
		Detail:   detail,
		Instance: instance,
	}
	return write(w, ContentTypeProblemJSON, status, problem)
}

func write(w http.ResponseWriter, contentType string, status int, data any) error {
	body := new(bytes.Buffer)
	if err := json.NewEncoder(body).Encode(data); err != nil {
		http.Error(w, `{"title":"Internal Server Error","status":500}`, http.StatusInternalServerError)
		return fmt.Errorf("failed to encode response: %w", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", fmt.Sprintf("%d", body.Len()))
	w.WriteHeader(status)

	_, err := w.Write(body.Bytes())
	return err
}
