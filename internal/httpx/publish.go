package httpx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/coffeeco/order-engine/internal/events"
	kafkax "github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/orders"
	"github.com/coffeeco/order-engine/internal/redisx"
)

// Post-commit fan-out shared by checkout, staff transitions and the payment
// webhook: notify connected SSE clients, mirror to kafka, refresh the redis
// status cache. All best-effort; the order is already durable.

func publishEnvelope(p *kafkax.Producer, service, eventType, trace, orderID string, payload any) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      service,
		TraceID:       trace,
		CorrelationID: orderID,
		Payload:       kafkax.MustMarshal(payload),
	}
	p.Publish(orders.PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func notifyOrderCreated(hub *events.Hub, p *kafkax.Producer, service, trace string, o orders.Order) {
	hub.Publish(events.EventNewOrder, o)
	publishEnvelope(p, service, orders.EventOrderCreated, trace, o.ID.String(),
		orders.OrderCreatedPayload{Order: o})
}

func notifyStatusChanged(hub *events.Hub, p *kafkax.Producer, service, trace string, o orders.Order) {
	hub.Publish(events.EventOrderStatus, o)
	publishEnvelope(p, service, orders.EventOrderStatusChanged, trace, o.ID.String(),
		orders.OrderStatusChangedPayload{OrderID: o.ID.String(), Status: o.Status})
}

func cacheStatus(ctx context.Context, rdb *redis.Client, o orders.Order) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, o.ID)
	val := fmt.Sprintf(`{"status":%q}`, o.Status)
	_ = rdb.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}
