package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
)

type TokenHandler struct {
	tokenRepo domain.TokenRepository
	log       *slog.Logger
}

func NewTokenHandler(tokenRepo domain.TokenRepository, log *slog.Logger) *TokenHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TokenHandler{
		tokenRepo: tokenRepo,
		log:       log,
	}
}

type RegisterTokenRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

type TokenResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// HandleRegisterToken handles POST /api/tokens/register
func (h *TokenHandler) HandleRegisterToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTokenRequest(w, r)
	if !ok {
		return
	}
	if req.Platform == "" {
		req.Platform = "android"
	}

	if err := h.tokenRepo.RegisterToken(r.Context(), req.Token, req.Platform); err != nil {
		h.log.ErrorContext(r.Context(), "failed to register token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to register token")
		return
	}

	h.respondCount(w, r, "Token registered successfully")
}

// HandleUnregisterToken handles POST /api/tokens/unregister
func (h *TokenHandler) HandleUnregisterToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeTokenRequest(w, r)
	if !ok {
		return
	}

	if err := h.tokenRepo.UnregisterToken(r.Context(), req.Token); err != nil {
		h.log.ErrorContext(r.Context(), "failed to unregister token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to unregister token")
		return
	}

	h.respondCount(w, r, "Token unregistered successfully")
}

// HandleGetTokenCount handles GET /api/tokens/count
func (h *TokenHandler) HandleGetTokenCount(w http.ResponseWriter, r *http.Request) {
	h.respondCount(w, r, "Token count retrieved")
}

func (h *TokenHandler) respondCount(w http.ResponseWriter, r *http.Request, msg string) {
	count, err := h.tokenRepo.TokenCount(r.Context())
	if err != nil {
		h.log.ErrorContext(r.Context(), "failed to count tokens", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to count tokens")
		return
	}
	respondJSON(w, http.StatusOK, TokenResponse{Success: true, Message: msg, Count: count})
}

func decodeTokenRequest(w http.ResponseWriter, r *http.Request) (RegisterTokenRequest, bool) {
	var req RegisterTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return req, false
	}
	if req.Token == "" {
		respondError(w, http.StatusBadRequest, "Token is required")
		return req, false
	}
	return req, true
}
