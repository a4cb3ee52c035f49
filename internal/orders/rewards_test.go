package orders_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/coffeeco/order-engine/internal/orders"
)

func TestPointsEarned(t *testing.T) {
	tests := []struct {
		total string
		want  int
	}{
		{"0", 0},
		{"8.5", 0},  // below 10, floor(0.85) = 0
		{"9.99", 0},
		{"10", 1},
		{"20", 2},
		{"25.50", 2}, // floor(2.55)
		{"199.90", 19},
	}

	for _, tt := range tests {
		t.Run(tt.total, func(t *testing.T) {
			total := decimal.RequireFromString(tt.total)
			assert.Equal(t, tt.want, orders.PointsEarned(total))
		})
	}
}
