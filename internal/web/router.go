package web

import (
	"net/http"

	"github.com/erazemk/inventar/internal/store"
	webembed "github.com/erazemk/inventar/web"
)

// Server holds all dependencies for page handlers.
type Server struct {
	Store     *store.Store
	Templates *Templates
}

// NewServer loads the templates and returns a page server for s.
func NewServer(s *store.Store) (*Server, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}
	return &Server{Store: s, Templates: templates}, nil
}

// Register adds the page routes to mux. The API routes live on the same mux,
// so every pattern here is method-qualified and none of them is a catch-all.
func (s *Server) Register(mux *http.ServeMux) {
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.Static))))

	mux.HandleFunc("GET /{$}", s.IndexPage)
	mux.HandleFunc("GET /RegisterForm.html", s.RegisterForm)
	mux.HandleFunc("GET /SearchForm.html", s.SearchForm)
	mux.HandleFunc("GET /docs", s.DocsPage)
	mux.HandleFunc("GET /docs/openapi.yaml", s.OpenAPI)
}
