package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, so ledger
// operations can run standalone or inside a coordinator transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StockLedger owns variant stock. Nothing else writes the stock column.
type StockLedger struct{ DB *pgxpool.Pool }

// TryReserve decrements stock by qty only if enough remains, in a single
// guarded UPDATE. Concurrent callers race on the row; whoever commits first
// wins and the loser sees InsufficientStockError. Never read-then-write.
func (l *StockLedger) TryReserve(ctx context.Context, variantID uuid.UUID, qty int) (int, error) {
	return tryReserve(ctx, l.DB, variantID, qty)
}

func tryReserve(ctx context.Context, q querier, variantID uuid.UUID, qty int) (int, error) {
	if qty < 1 {
		return 0, fmt.Errorf("reserve %d of variant %s: %w", qty, variantID, ErrInvalidQuantity)
	}

	var remaining int
	err := q.QueryRow(ctx, `
		UPDATE product_variants SET stock = stock - $2
		WHERE id = $1 AND stock >= $2
		RETURNING stock`, variantID, qty).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("reserve stock: %w", err)
	}

	// Zero rows: either the variant does not exist or stock ran short.
	var available int
	err = q.QueryRow(ctx, `SELECT stock FROM product_variants WHERE id = $1`, variantID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("variant %s: %w", variantID, ErrVariantNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read stock: %w", err)
	}
	return 0, &InsufficientStockError{VariantID: variantID, Requested: qty, Available: available}
}

// Restock adds stock unconditionally. Staff-triggered, no upper bound.
func (l *StockLedger) Restock(ctx context.Context, variantID uuid.UUID, amount int) (int, error) {
	if amount < 1 {
		return 0, fmt.Errorf("restock %d of variant %s: %w", amount, variantID, ErrInvalidQuantity)
	}

	var stock int
	err := l.DB.QueryRow(ctx, `
		UPDATE product_variants SET stock = stock + $2
		WHERE id = $1
		RETURNING stock`, variantID, amount).Scan(&stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("variant %s: %w", variantID, ErrVariantNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("restock: %w", err)
	}
	return stock, nil
}

func releaseStock(ctx context.Context, q querier, orderID uuid.UUID) error {
	rows, err := q.Query(ctx, `
		SELECT variant_id, quantity FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("read order items: %w", err)
	}
	defer rows.Close()

	type rec struct {
		variantID uuid.UUID
		qty       int
	}
	var recs []rec
	for rows.Next() {
		var x rec
		if err := rows.Scan(&x.variantID, &x.qty); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		recs = append(recs, x)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, x := range recs {
		if _, err := q.Exec(ctx, `
			UPDATE product_variants SET stock = stock + $2 WHERE id = $1`,
			x.variantID, x.qty); err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
	}
	return nil
}

// LowStock lists variants at or under threshold, for the restock screen.
func (l *StockLedger) LowStock(ctx context.Context, threshold int) ([]LowStockVariant, error) {
	rows, err := l.DB.Query(ctx, `
		SELECT v.id, v.product_id, v.name, v.sku, v.price, v.cost_price, v.stock, p.name, p.image
		FROM product_variants v
		JOIN products p ON p.id = v.product_id
		WHERE v.stock <= $1
		ORDER BY v.stock, v.sku`, threshold)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LowStockVariant
	for rows.Next() {
		var v LowStockVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Price, &v.CostPrice,
			&v.Stock, &v.ProductName, &v.ProductImage); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
