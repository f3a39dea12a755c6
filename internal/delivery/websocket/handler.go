package websocket

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/arun-ammasai/crypto-trading-setup/internal/domain"
	"github.com/arun-ammasai/crypto-trading-setup/internal/metrics"
)

// DefaultPushInterval is how often the latest analyses are re-sent.
const DefaultPushInterval = 5 * time.Second

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for now
	},
}

// LatestSource is the read side of the analysis store.
type LatestSource interface {
	Latest(ctx context.Context) ([]domain.CoinAnalysis, error)
}

// Handler streams the latest analysis per symbol: a snapshot on connect,
// then one every interval.
type Handler struct {
	repo     LatestSource
	interval time.Duration
	log      *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(repo LatestSource, interval time.Duration, log *slog.Logger, m *metrics.Metrics) *Handler {
	if interval <= 0 {
		interval = DefaultPushInterval
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		repo:     repo,
		interval: interval,
		log:      log,
		metrics:  m,
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSClients.Inc()
		defer h.metrics.WSClients.Dec()
	}
	h.log.Info("websocket client connected", "remote", r.RemoteAddr)

	// The read loop only notices the client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	// Send initial data immediately
	if err := h.push(r.Context(), conn); err != nil {
		h.log.Info("websocket write failed", "error", err)
		return
	}

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			h.log.Info("websocket client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := h.push(r.Context(), conn); err != nil {
				h.log.Info("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (h *Handler) push(ctx context.Context, conn *websocket.Conn) error {
	latest, err := h.repo.Latest(ctx)
	if err != nil {
		// keep the connection, try again next tick
		h.log.Warn("failed to load latest analyses", "error", err)
		return nil
	}
	if latest == nil {
		latest = []domain.CoinAnalysis{}
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(latest)
}
