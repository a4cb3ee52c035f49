package httpx

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/coffeeco/order-engine/internal/events"
	"github.com/coffeeco/order-engine/internal/metrics"
)

const pingInterval = 10 * time.Second

// EventsHandler serves the live order stream over SSE. Clients that drop
// reconnect and see only what is published after that; there is no replay.
type EventsHandler struct {
	Hub *events.Hub
}

func (h *EventsHandler) Register(r *chi.Mux) {
	r.Get("/events", h.stream)
}

func (h *EventsHandler) stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(sub)
	metrics.SSEClients.Inc()
	defer metrics.SSEClients.Dec()

	writeSSE(w, events.EventConnected, "connected to order stream")
	flusher.Flush()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.C():
			if !ok {
				return
			}
			writeSSE(w, ev.Name, ev.Payload)
			flusher.Flush()
		case <-ticker.C:
			writeSSE(w, events.EventPing, "ping")
			flusher.Flush()
		}
	}
}

func writeSSE(w io.Writer, event string, payload any) {
	var data []byte
	switch v := payload.(type) {
	case string:
		data = []byte(v)
	default:
		data, _ = json.Marshal(v)
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
}
