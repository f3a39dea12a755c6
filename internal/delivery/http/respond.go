package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/infrastructure/exchange"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	CoinID string `json:"coin_id,omitempty"`
	Symbol string `json:"symbol,omitempty"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, ErrorResponse{Error: msg})
}

// statusFor maps an error to its HTTP status:
// bad input 400, unusable candle data 422, exchange failure 502.
func statusFor(err error) int {
	var apiErr *exchange.APIError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSeries):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr), exchange.IsUpstream(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
