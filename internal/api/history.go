package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/inventar/internal/history"
	"github.com/erazemk/inventar/internal/model"
)

// HistoryHandler serves the item audit journal.
type HistoryHandler struct {
	DB *sql.DB
}

// ItemHistory handles GET /inventory/{id}/history. Events remain available
// after the item is deleted.
func (h *HistoryHandler) ItemHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	events, err := history.ListItemEvents(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, r, err, "get item history")
		return
	}
	if len(events) == 0 {
		jsonError(w, http.StatusNotFound, "no history for item")
		return
	}
	jsonResponse(w, http.StatusOK, events)
}

// Recent handles GET /history?limit=N.
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 1000 {
			jsonError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = n
	}

	events, err := history.ListRecentEvents(r.Context(), h.DB, limit)
	if err != nil {
		storeError(w, r, err, "list history")
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	jsonResponse(w, http.StatusOK, events)
}
