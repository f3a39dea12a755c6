package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// Handlers groups everything the router serves. WebSocket and Metrics may be nil.
type Handlers struct {
	Analysis  *AnalysisHandler
	Tokens    *TokenHandler
	Test      *TestHandler
	WebSocket http.HandlerFunc
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// SetupRoutes configures all API routes
func SetupRoutes(h Handlers) *mux.Router {
	log := h.Logger
	if log == nil {
		log = slog.Default()
	}

	r := mux.NewRouter()
	r.Use(RequestID, Recover(log), Logging(log, h.Metrics))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/health", h.Analysis.Health).Methods("GET")
	r.HandleFunc("/ping", h.Analysis.Ping).Methods("GET")

	r.HandleFunc("/ohlcv", h.Analysis.OHLCV).Methods("GET")
	r.HandleFunc("/analyze", h.Analysis.Analyze).Methods("GET")
	r.HandleFunc("/analyze_bulk", h.Analysis.AnalyzeBulk).Methods("POST")
	r.HandleFunc("/analysis/latest", h.Analysis.Latest).Methods("GET")
	r.HandleFunc("/analysis/history", h.Analysis.History).Methods("GET")

	if h.Tokens != nil {
		api := r.PathPrefix("/api").Subrouter()
		api.HandleFunc("/tokens/register", h.Tokens.HandleRegisterToken).Methods("POST")
		api.HandleFunc("/tokens/unregister", h.Tokens.HandleUnregisterToken).Methods("POST")
		api.HandleFunc("/tokens/count", h.Tokens.HandleGetTokenCount).Methods("GET")
		if h.Test != nil {
			api.HandleFunc("/test/notification", h.Test.SendTestNotification).Methods("POST")
		}
	}

	if h.WebSocket != nil {
		r.HandleFunc("/ws", h.WebSocket).Methods("GET")
	}
	if h.Metrics != nil {
		r.Handle("/metrics", h.Metrics.Handler()).Methods("GET")
	}

	return r
}
