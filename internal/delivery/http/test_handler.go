package http

import (
	"net/http"

	"github.com/arun-ammasai/crypto-trading-setup/internal/usecase"
)

type TestHandler struct {
	notifier *usecase.Notifier
}

func NewTestHandler(notifier *usecase.Notifier) *TestHandler {
	return &TestHandler{notifier: notifier}
}

// SendTestNotification handles POST /api/test/notification
func (h *TestHandler) SendTestNotification(w http.ResponseWriter, r *http.Request) {
	if h.notifier == nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": "notifications not configured",
		})
		return
	}

	count, err := h.notifier.SendTest(r.Context(),
		"Test Notification",
		"Test notification from the TA service. If you see this, alerts are working.",
	)
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"success": false,
			"message": "Failed to send notification: " + err.Error(),
		})
		return
	}
	if count == 0 {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"success": false,
			"message": "No registered devices",
			"count":   0,
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Test notification sent successfully",
		"count":   count,
	})
}
