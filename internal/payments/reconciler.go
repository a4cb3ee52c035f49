// Package payments translates payment-gateway callbacks into order lifecycle
// transitions. Gateways deliver webhooks at least once, so every callback is
// deduplicated durably before it is allowed to act.
package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/coffeeco/order-engine/internal/orders"
)

type GatewayStatus string

const (
	GatewayPaid    GatewayStatus = "PAID"
	GatewayFailed  GatewayStatus = "FAILED"
	GatewayExpired GatewayStatus = "EXPIRED"
)

var ErrUnknownGatewayStatus = errors.New("unknown gateway status")

type Callback struct {
	OrderID       uuid.UUID     `json:"order_id"`
	Status        GatewayStatus `json:"status"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Signature     string        `json:"signature,omitempty"`
	PaymentMethod string        `json:"payment_method,omitempty"`
}

// DedupKey identifies one gateway delivery: the gateway transaction id when
// the gateway sent one, otherwise order id + outcome.
func (c Callback) DedupKey() string {
	if c.TransactionID != "" {
		return c.TransactionID
	}
	return c.OrderID.String() + ":" + string(c.Status)
}

type Reconciler struct{ DB *pgxpool.Pool }

// HandleCallback records the payment and applies the matching transition in
// one transaction. applied=false means this exact delivery was seen before
// and nothing changed; re-delivering the same callback can never
// double-transition the order or double-record the transaction.
func (r *Reconciler) HandleCallback(ctx context.Context, cb Callback) (orders.Order, bool, error) {
	var o orders.Order

	target, err := targetStatus(cb.Status)
	if err != nil {
		return o, false, err
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return o, false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total decimal.Decimal
	err = tx.QueryRow(ctx, `SELECT total FROM orders WHERE id = $1`, cb.OrderID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, false, fmt.Errorf("order %s: %w", cb.OrderID, orders.ErrOrderNotFound)
	}
	if err != nil {
		return o, false, fmt.Errorf("read order: %w", err)
	}

	// The dedup insert gates everything: a duplicate delivery hits the
	// unique index, affects zero rows and the callback becomes a no-op.
	ct, err := tx.Exec(ctx, `
		INSERT INTO transactions (order_id, dedup_key, gateway_status, payment_method, amount)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (dedup_key) DO NOTHING`,
		cb.OrderID, cb.DedupKey(), string(cb.Status), cb.PaymentMethod, total)
	if err != nil {
		return o, false, fmt.Errorf("record transaction: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return o, false, nil
	}

	o, err = orders.SetStatusTx(ctx, tx, cb.OrderID, target)
	if err != nil {
		return o, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return o, false, err
	}
	return o, true, nil
}

func targetStatus(s GatewayStatus) (orders.Status, error) {
	switch s {
	case GatewayPaid:
		return orders.StatusPreparing, nil
	case GatewayFailed, GatewayExpired:
		return orders.StatusCancelled, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGatewayStatus, s)
	}
}
