package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OrdersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully committed by the checkout coordinator.",
	})

	CheckoutsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkouts_rejected_total",
		Help: "Checkouts aborted before commit, by reason.",
	}, []string{"reason"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Applied lifecycle transitions, by target status.",
	}, []string{"to"})

	WebhookDuplicates = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_webhook_duplicates_total",
		Help: "Gateway callbacks ignored by the dedup guard.",
	})

	SSEClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sse_clients",
		Help: "Currently connected event-stream subscribers.",
	})
)

func Handler() http.Handler { return promhttp.Handler() }
