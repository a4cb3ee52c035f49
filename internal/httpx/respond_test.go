package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coffeeco/order-engine/internal/orders"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{
			"insufficient stock",
			&orders.InsufficientStockError{VariantID: uuid.New(), Requested: 3, Available: 1},
			409,
		},
		{
			"invalid transition",
			&orders.InvalidTransitionError{From: orders.StatusDelivered, To: orders.StatusPending},
			409,
		},
		{"insufficient points", orders.ErrInsufficientPoints, 400},
		{"empty order", orders.ErrEmptyOrder, 400},
		{"invalid quantity wrapped", fmt.Errorf("variant x: %w", orders.ErrInvalidQuantity), 400},
		{"order not found wrapped", fmt.Errorf("order y: %w", orders.ErrOrderNotFound), 404},
		{"variant not found", orders.ErrVariantNotFound, 404},
		{"user not found", orders.ErrUserNotFound, 404},
		{"anything else", errors.New("pool exhausted"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			writeError(rec, tt.err)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body, "error")
		})
	}
}

func TestWriteError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, errors.New("pq: password authentication failed"))

	assert.Equal(t, 500, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestWriteError_StockDetail(t *testing.T) {
	variantID := uuid.New()
	rec := httptest.NewRecorder()
	writeError(rec, &orders.InsufficientStockError{VariantID: variantID, Requested: 5, Available: 2})

	var body struct {
		VariantID uuid.UUID `json:"variant_id"`
		Requested int       `json:"requested"`
		Available int       `json:"available"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, variantID, body.VariantID)
	assert.Equal(t, 5, body.Requested)
	assert.Equal(t, 2, body.Available)
}

func TestWriteSSE(t *testing.T) {
	t.Run("string payload passes through", func(t *testing.T) {
		var b strings.Builder
		writeSSE(&b, "ping", "ping")
		assert.Equal(t, "event: ping\ndata: ping\n\n", b.String())
	})

	t.Run("struct payload is json", func(t *testing.T) {
		var b strings.Builder
		writeSSE(&b, "new_order", map[string]string{"id": "o-1"})
		assert.Equal(t, "event: new_order\ndata: {\"id\":\"o-1\"}\n\n", b.String())
	})
}
