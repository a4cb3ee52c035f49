// Package kds follows the order topics for kitchen display screens running
// against other processes: it keeps the redis status cache warm and prints a
// ticket line per event.
package kds

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/orders"
	"github.com/coffeeco/order-engine/internal/redisx"
)

type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleMessage is the consumer handler for both order topics. Events can be
// redelivered, so each one is deduplicated by event id before acting.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderCreated:
		p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cache(ctx, p.Order.ID.String(), p.Order.Status)
		log.Printf("kds: new order %s, %d item(s), total %s",
			p.Order.ID, len(p.Order.Items), p.Order.Total)
	case orders.EventOrderStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.OrderStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		s.cache(ctx, p.OrderID, p.Status)
		log.Printf("kds: order %s -> %s", p.OrderID, p.Status)
	}
	return nil
}

func (s *Service) cache(ctx context.Context, orderID string, status orders.Status) {
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	val := fmt.Sprintf(`{"status":%q}`, status)
	_ = s.Redis.Set(ctx, key, val, redisx.TTLStatusCache).Err()
}
