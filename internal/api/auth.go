package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/inventar/internal/auth"
)

// AuthHandler issues bearer tokens for the configured admin account.
type AuthHandler struct {
	Authenticator *auth.Authenticator
	JWTSecret     string
	TokenTTL      time.Duration
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token handles POST /auth/token.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	if err := h.Authenticator.Check(req.Username, req.Password); err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = auth.DefaultTokenExpiry
	}
	token, err := auth.GenerateToken(h.JWTSecret, req.Username, ttl)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to generate token")
		return
	}

	slog.Info("token issued", "user", req.Username)
	jsonResponse(w, http.StatusOK, tokenResponse{Token: token, ExpiresAt: time.Now().Add(ttl).UTC()})
}
