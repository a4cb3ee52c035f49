package orders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeco/order-engine/internal/orders"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from orders.Status
		to   orders.Status
		want bool
	}{
		{"pending to preparing", orders.StatusPending, orders.StatusPreparing, true},
		{"pending to cancelled", orders.StatusPending, orders.StatusCancelled, true},
		{"preparing to ready", orders.StatusPreparing, orders.StatusReady, true},
		{"preparing to cancelled", orders.StatusPreparing, orders.StatusCancelled, true},
		{"ready to delivered", orders.StatusReady, orders.StatusDelivered, true},

		// no skipping steps
		{"pending to ready", orders.StatusPending, orders.StatusReady, false},
		{"pending to delivered", orders.StatusPending, orders.StatusDelivered, false},
		{"preparing to delivered", orders.StatusPreparing, orders.StatusDelivered, false},

		// no cancelling once the kitchen is done
		{"ready to cancelled", orders.StatusReady, orders.StatusCancelled, false},

		// terminal states accept nothing
		{"delivered to pending", orders.StatusDelivered, orders.StatusPending, false},
		{"delivered to ready", orders.StatusDelivered, orders.StatusReady, false},
		{"cancelled to pending", orders.StatusCancelled, orders.StatusPending, false},
		{"cancelled to preparing", orders.StatusCancelled, orders.StatusPreparing, false},

		// no backwards moves, no self loops
		{"ready to preparing", orders.StatusReady, orders.StatusPreparing, false},
		{"preparing to preparing", orders.StatusPreparing, orders.StatusPreparing, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orders.CanTransition(tt.from, tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.True(t, orders.StatusDelivered.Terminal())
	assert.True(t, orders.StatusCancelled.Terminal())
	assert.False(t, orders.StatusPending.Terminal())
	assert.False(t, orders.StatusPreparing.Terminal())
	assert.False(t, orders.StatusReady.Terminal())
}

func TestToStatus(t *testing.T) {
	s, err := orders.ToStatus("READY")
	require.NoError(t, err)
	assert.Equal(t, orders.StatusReady, s)

	_, err = orders.ToStatus("SHIPPED")
	assert.Error(t, err)

	_, err = orders.ToStatus("ready")
	assert.Error(t, err, "statuses are case sensitive")
}
