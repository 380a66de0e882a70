package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// storeError maps a store failure to a response. action completes the
// phrase "failed to ..." for server-side failures.
func storeError(w http.ResponseWriter, r *http.Request, err error, action string) {
	switch {
	case errors.Is(err, store.ErrValidation):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrAssetMissing):
		slog.Error("photo asset missing for referenced item", "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "photo file missing")
	default:
		slog.Error("failed to "+action, "path", r.URL.Path, "request_id", RequestID(r.Context()), "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

// itemResponse is the client-facing shape of an item. Photo carries the
// URL of the photo, or null.
type itemResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Photo       *string `json:"photo"`
}

func newItemResponse(item *model.Item) itemResponse {
	resp := itemResponse{ID: item.ID, Name: item.Name, Description: item.Description}
	if item.HasPhoto() {
		url := item.PhotoURL()
		resp.Photo = &url
	}
	return resp
}

func newItemsResponse(items []model.Item) []itemResponse {
	out := make([]itemResponse, 0, len(items))
	for i := range items {
		out = append(out, newItemResponse(&items[i]))
	}
	return out
}
