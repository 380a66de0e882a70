package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/inventar/internal/model"
	"github.com/erazemk/inventar/internal/store"
)

// InventoryHandler handles item endpoints.
type InventoryHandler struct {
	Store          *store.Store
	UploadDir      string
	MaxUploadBytes int64
}

func parseID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

// Register handles POST /register.
func (h *InventoryHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		multipartError(w, err)
		return
	}

	name := r.FormValue("inventory_name")
	if strings.TrimSpace(name) == "" {
		jsonError(w, http.StatusBadRequest, "inventory_name required")
		return
	}

	upload, cleanup, err := saveUpload(r, "photo", h.UploadDir)
	defer cleanup()
	if err != nil {
		slog.Error("failed to receive upload", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to receive photo")
		return
	}

	item, err := h.Store.Create(r.Context(), name, r.FormValue("description"), upload)
	if err != nil {
		storeError(w, r, err, "register item")
		return
	}

	slog.Info("item registered", "item", item.ID, "name", item.Name, "photo", item.HasPhoto(), "by", actor(r))
	jsonResponse(w, http.StatusCreated, newItemResponse(item))
}

// List handles GET /inventory.
func (h *InventoryHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Store.List(r.Context())
	if err != nil {
		storeError(w, r, err, "list items")
		return
	}
	jsonResponse(w, http.StatusOK, newItemsResponse(items))
}

// Get handles GET /inventory/{id}.
func (h *InventoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Store.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "get item")
		return
	}
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Update handles PUT /inventory/{id}. Fields absent from the body are left
// unchanged; an empty body is a no-op update.
func (h *InventoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var patch model.ItemPatch
	if err := decodeJSON(r, &patch); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Store.Update(r.Context(), id, patch)
	if err != nil {
		storeError(w, r, err, "update item")
		return
	}

	slog.Info("item updated", "item", item.ID, "name", item.Name, "by", actor(r))
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Delete handles DELETE /inventory/{id}.
func (h *InventoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	deleted, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "delete item")
		return
	}

	slog.Info("item deleted", "item", deleted, "by", actor(r))
	jsonResponse(w, http.StatusOK, map[string]int64{"deleted_id": deleted})
}

// GetPhoto handles GET /inventory/{id}/photo.
func (h *InventoryHandler) GetPhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	photo, err := h.Store.GetPhoto(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "get photo")
		return
	}
	defer photo.Content.Close()

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Content-Disposition", "inline")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, photo.Name, photo.ModTime, photo.Content)
}

// ReplacePhoto handles PUT /inventory/{id}/photo.
func (h *InventoryHandler) ReplacePhoto(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := parseMultipart(w, r, h.MaxUploadBytes); err != nil {
		multipartError(w, err)
		return
	}

	upload, cleanup, err := saveUpload(r, "photo", h.UploadDir)
	defer cleanup()
	if err != nil {
		slog.Error("failed to receive upload", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to receive photo")
		return
	}

	item, err := h.Store.ReplacePhoto(r.Context(), id, upload)
	if err != nil {
		storeError(w, r, err, "replace photo")
		return
	}

	slog.Info("item photo replaced", "item", item.ID, "name", item.Name, "by", actor(r))
	jsonResponse(w, http.StatusOK, newItemResponse(item))
}

// Search handles POST /search from the search form. With has_photo set the
// photo link is appended to the returned description.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid form")
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(r.FormValue("id")), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Store.Get(r.Context(), id)
	if err != nil {
		storeError(w, r, err, "search item")
		return
	}

	resp := newItemResponse(item)
	if formBool(r.FormValue("has_photo")) && resp.Photo != nil {
		resp.Description = strings.TrimSpace(fmt.Sprintf("%s Photo: %s", resp.Description, *resp.Photo))
	}
	jsonResponse(w, http.StatusOK, resp)
}

// formBool interprets an HTML checkbox or boolean form value.
func formBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}
