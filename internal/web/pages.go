package web

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/erazemk/inventar/internal/model"
	webembed "github.com/erazemk/inventar/web"
)

// Route describes one API endpoint on the docs page.
type Route struct {
	Method  string
	Path    string
	Summary string
}

// Routes is the API surface listed on GET /docs.
var Routes = []Route{
	{"POST", "/register", "Register an item (multipart: inventory_name, description, photo)"},
	{"GET", "/inventory", "List all items in creation order"},
	{"GET", "/inventory/{id}", "Get one item"},
	{"PUT", "/inventory/{id}", "Partially update name and/or description (JSON)"},
	{"DELETE", "/inventory/{id}", "Delete an item and its photo"},
	{"GET", "/inventory/{id}/photo", "Download the item photo"},
	{"PUT", "/inventory/{id}/photo", "Replace the item photo (multipart: photo)"},
	{"GET", "/inventory/{id}/history", "Journal of changes to the item"},
	{"GET", "/history", "Most recent journal entries (?limit=)"},
	{"POST", "/search", "Look up an item by id (form: id, has_photo)"},
	{"POST", "/auth/token", "Exchange admin credentials for a bearer token"},
	{"GET", "/healthz", "Liveness check"},
}

// IndexPage handles GET /.
func (s *Server) IndexPage(w http.ResponseWriter, r *http.Request) {
	data := &struct {
		PageData
		Items []model.Item
	}{PageData: PageData{Title: "Inventory"}}

	items, err := s.Store.List(r.Context())
	if err != nil {
		slog.Error("failed to list items", "error", err)
		data.Error = "The inventory could not be read."
	}
	data.Items = items

	s.Templates.Render(w, "index.html", data)
}

// RegisterForm handles GET /RegisterForm.html.
func (s *Server) RegisterForm(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", &PageData{Title: "Register item"})
}

// SearchForm handles GET /SearchForm.html.
func (s *Server) SearchForm(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "search.html", &PageData{Title: "Search item"})
}

// DocsPage handles GET /docs.
func (s *Server) DocsPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "docs.html", &struct {
		PageData
		Routes []Route
	}{
		PageData: PageData{Title: "API documentation"},
		Routes:   Routes,
	})
}

// OpenAPI handles GET /docs/openapi.yaml.
func (s *Server) OpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(webembed.Static, "openapi.yaml")
	if err != nil {
		slog.Error("failed to read openapi document", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write openapi document", "error", err)
	}
}
