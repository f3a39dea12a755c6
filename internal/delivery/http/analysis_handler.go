package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/logger"
	"github.com/arun-ammasai/crypto-trading-setup/internal/usecase"
)

const (
	defaultOHLCVPair    = "BTC/USDT"
	defaultHistoryLimit = 50
	maxBulkBodyBytes    = 1 << 20
)

type AnalysisHandler struct {
	service *usecase.AnalysisService
	log     *slog.Logger
}

func NewAnalysisHandler(service *usecase.AnalysisService, log *slog.Logger) *AnalysisHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AnalysisHandler{service: service, log: log}
}

// Health handles GET /health
func (h *AnalysisHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ping handles GET /ping
func (h *AnalysisHandler) Ping(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// OHLCV handles GET /ohlcv?symbol=BTC/USDT&timeframe=1h&limit=100
func (h *AnalysisHandler) OHLCV(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pair := queryDefault(q.Get("symbol"), defaultOHLCVPair)
	timeframe := queryDefault(q.Get("timeframe"), usecase.DefaultTimeframe)

	limit, err := queryInt(q.Get("limit"), usecase.DefaultLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	series, err := h.service.FetchOHLCV(r.Context(), pair, timeframe, limit)
	if err != nil {
		h.logFailure(r, "ohlcv failed", err, "pair", pair)
		respondError(w, statusFor(err), err.Error())
		return
	}
	if series == nil {
		series = domain.CandleSeries{}
	}
	respondJSON(w, http.StatusOK, series)
}

// Analyze handles GET /analyze?coin_id=bitcoin&symbol=BTC&timeframe=1h&limit=100
func (h *AnalysisHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coin := domain.CoinRequest{CoinID: q.Get("coin_id"), Symbol: q.Get("symbol")}
	timeframe := queryDefault(q.Get("timeframe"), usecase.DefaultTimeframe)

	limit, err := queryInt(q.Get("limit"), usecase.DefaultLimit)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer", CoinID: coin.CoinID, Symbol: coin.Symbol})
		return
	}

	a, err := h.service.AnalyzeCoin(r.Context(), coin, timeframe, limit)
	if err != nil {
		h.logFailure(r, "analyze failed", err, "coin_id", coin.CoinID, "symbol", coin.Symbol)
		respondJSON(w, statusFor(err), ErrorResponse{Error: err.Error(), CoinID: coin.CoinID, Symbol: coin.Symbol})
		return
	}
	respondJSON(w, http.StatusOK, a)
}

// BulkResponse is the body of POST /analyze_bulk.
type BulkResponse struct {
	Results []domain.BulkItem `json:"results"`
}

// AnalyzeBulk handles POST /analyze_bulk
func (h *AnalysisHandler) AnalyzeBulk(w http.ResponseWriter, r *http.Request) {
	var req domain.BulkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBulkBodyBytes))
	if err := dec.Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	items, err := h.service.AnalyzeBulk(r.Context(), req)
	if err != nil {
		h.logFailure(r, "bulk analyze failed", err)
		respondError(w, statusFor(err), err.Error())
		return
	}
	if items == nil {
		items = []domain.BulkItem{}
	}
	respondJSON(w, http.StatusOK, BulkResponse{Results: items})
}

// Latest handles GET /analysis/latest
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.Latest(r.Context())
	if err != nil {
		h.logFailure(r, "latest failed", err)
		respondError(w, statusFor(err), err.Error())
		return
	}
	if list == nil {
		list = []domain.CoinAnalysis{}
	}
	respondJSON(w, http.StatusOK, list)
}

// History handles GET /analysis/history?symbol=BTC&limit=50
func (h *AnalysisHandler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(q.Get("limit"), defaultHistoryLimit)
	if err != nil {
		respondError(w, http.StatusBadRequest, "limit must be an integer")
		return
	}

	list, err := h.service.History(r.Context(), q.Get("symbol"), limit)
	if err != nil {
		h.logFailure(r, "history failed", err)
		respondError(w, statusFor(err), err.Error())
		return
	}
	if list == nil {
		list = []domain.CoinAnalysis{}
	}
	respondJSON(w, http.StatusOK, list)
}

func (h *AnalysisHandler) logFailure(r *http.Request, msg string, err error, attrs ...any) {
	args := append(logger.Attrs(r.Context()), attrs...)
	args = append(args, "status", statusFor(err), "error", err)
	if statusFor(err) >= http.StatusInternalServerError {
		h.log.ErrorContext(r.Context(), msg, args...)
		return
	}
	h.log.WarnContext(r.Context(), msg, args...)
}

func queryDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func queryInt(v string, def int) (int, error) {
	if v = strings.TrimSpace(v); v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
