package kafka_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeco/order-engine/internal/kafka"
	"github.com/coffeeco/order-engine/internal/orders"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	orderID := uuid.New()
	env := orders.Envelope{
		EventID:      uuid.NewString(),
		EventType:    orders.EventOrderStatusChanged,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "order-engine",
		Payload: kafka.MustMarshal(orders.OrderStatusChangedPayload{
			OrderID: orderID.String(),
			Status:  orders.StatusReady,
		}),
	}

	raw := kafka.MustMarshal(env)

	var decoded orders.Envelope
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
	assert.Equal(t, orders.EventOrderStatusChanged, decoded.EventType)

	payload, err := kafka.UnwrapPayload[orders.OrderStatusChangedPayload](decoded.Payload)
	require.NoError(t, err)
	assert.Equal(t, orderID.String(), payload.OrderID)
	assert.Equal(t, orders.StatusReady, payload.Status)
}

func TestUnwrapPayload_Malformed(t *testing.T) {
	_, err := kafka.UnwrapPayload[orders.OrderCreatedPayload](json.RawMessage(`{"order":`))
	assert.Error(t, err)
}
