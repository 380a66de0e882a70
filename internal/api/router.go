package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/erazemk/inventar/internal/auth"
	"github.com/erazemk/inventar/internal/store"
)

// Deps are the collaborators the API routes are built from.
type Deps struct {
	Store *store.Store
	// History is the journal database; nil disables the history routes.
	History *sql.DB

	UploadDir      string
	MaxUploadBytes int64

	// JWTSecret enables bearer-token protection of mutating routes. The
	// Authenticator checks credentials for POST /auth/token.
	JWTSecret     string
	Authenticator *auth.Authenticator
	TokenTTL      time.Duration

	// UploadLimiter throttles photo uploads; nil disables throttling.
	UploadLimiter *rate.Limiter
}

// NewRouter creates the API router with all endpoints registered. Page
// routes can be added to the returned mux by the caller.
func NewRouter(deps Deps) *http.ServeMux {
	mux := http.NewServeMux()

	inventoryHandler := &InventoryHandler{
		Store:          deps.Store,
		UploadDir:      deps.UploadDir,
		MaxUploadBytes: deps.MaxUploadBytes,
	}

	write := func(h http.HandlerFunc) http.Handler { return h }
	if deps.JWTSecret != "" {
		authMW := RequireToken(deps.JWTSecret)
		write = func(h http.HandlerFunc) http.Handler { return authMW(h) }

		authHandler := &AuthHandler{
			Authenticator: deps.Authenticator,
			JWTSecret:     deps.JWTSecret,
			TokenTTL:      deps.TokenTTL,
		}
		mux.HandleFunc("POST /auth/token", authHandler.Token)
	}

	upload := write
	if deps.UploadLimiter != nil {
		limit := RateLimit(deps.UploadLimiter)
		upload = func(h http.HandlerFunc) http.Handler { return limit(write(h)) }
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Items: reads are public, writes are token-protected when auth is on.
	mux.Handle("POST /register", upload(inventoryHandler.Register))
	mux.HandleFunc("GET /inventory", inventoryHandler.List)
	mux.HandleFunc("GET /inventory/{id}", inventoryHandler.Get)
	mux.Handle("PUT /inventory/{id}", write(inventoryHandler.Update))
	mux.Handle("DELETE /inventory/{id}", write(inventoryHandler.Delete))
	mux.HandleFunc("GET /inventory/{id}/photo", inventoryHandler.GetPhoto)
	mux.Handle("PUT /inventory/{id}/photo", upload(inventoryHandler.ReplacePhoto))
	mux.HandleFunc("POST /search", inventoryHandler.Search)

	if deps.History != nil {
		historyHandler := &HistoryHandler{DB: deps.History}
		mux.HandleFunc("GET /inventory/{id}/history", historyHandler.ItemHistory)
		mux.HandleFunc("GET /history", historyHandler.Recent)
	}

	return mux
}
