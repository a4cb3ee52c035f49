package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/coffeeco/order-engine/internal/events"
	kafkax "github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/metrics"
	"github.com/coffeeco/order-engine/internal/payments"
)

type PaymentsHandler struct {
	Reconciler     *payments.Reconciler
	Hub            *events.Hub
	StatusProducer *kafkax.Producer
	Redis          *redis.Client
	Service        string
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Post("/payments/webhook", h.webhook)
}

// webhook answers 200 for duplicates too; a non-2xx would only make the
// gateway redeliver what we already processed.
func (h *PaymentsHandler) webhook(w http.ResponseWriter, r *http.Request) {
	var cb payments.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, applied, err := h.Reconciler.HandleCallback(ctx, cb)
	if err != nil {
		writeError(w, err)
		return
	}
	if !applied {
		metrics.WebhookDuplicates.Inc()
		writeJSON(w, http.StatusOK, map[string]any{"applied": false})
		return
	}
	metrics.StatusTransitions.WithLabelValues(string(order.Status)).Inc()

	trace := r.Header.Get("X-Request-Id")
	notifyStatusChanged(h.Hub, h.StatusProducer, h.Service, trace, order)
	cacheStatus(ctx, h.Redis, order)

	writeJSON(w, http.StatusOK, map[string]any{"applied": true, "status": order.Status})
}
