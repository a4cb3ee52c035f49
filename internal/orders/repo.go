package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const fkViolation = "23503"

// Repo is the order transaction coordinator: it owns checkout and the
// lifecycle transitions, and drives the two ledgers inside its transactions.
type Repo struct{ DB *pgxpool.Pool }

// CreateOrder turns a checkout request into a persisted order, all-or-nothing:
// reserve stock per item in request order, snapshot price/name/image into the
// items, persist order + items as PENDING, credit reward points. The first
// failed reservation aborts the whole transaction; earlier decrements in the
// same request roll back with it. Event publishing is the caller's job, after
// this returns.
func (r *Repo) CreateOrder(ctx context.Context, userID uuid.UUID, items []ItemInput) (Order, error) {
	var o Order

	if len(items) == 0 {
		return o, ErrEmptyOrder
	}
	for _, it := range items {
		if it.Quantity < 1 {
			return o, fmt.Errorf("variant %s: %w", it.VariantID, ErrInvalidQuantity)
		}
	}

	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return o, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o.ID = uuid.New()
	o.UserID = userID
	o.Status = StatusPending
	total := decimal.Zero

	for _, it := range items {
		// Duplicate variant ids are two sequential reservations against the
		// same counter; the second one sees the first's decrement.
		if _, err := tryReserve(ctx, tx, it.VariantID, it.Quantity); err != nil {
			return o, err
		}

		var (
			price                     decimal.Decimal
			productName, productImage string
		)
		err := tx.QueryRow(ctx, `
			SELECT v.price, p.name, p.image
			FROM product_variants v
			JOIN products p ON p.id = v.product_id
			WHERE v.id = $1`, it.VariantID).Scan(&price, &productName, &productImage)
		if err != nil {
			return o, fmt.Errorf("snapshot variant %s: %w", it.VariantID, err)
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		o.Items = append(o.Items, OrderItem{
			OrderID:      o.ID,
			VariantID:    it.VariantID,
			ProductName:  productName,
			ProductImage: productImage,
			Quantity:     it.Quantity,
			Price:        price,
		})
	}
	o.Total = total

	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, user_id, status, total)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`,
		o.ID, o.UserID, o.Status, o.Total).Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == fkViolation {
			return o, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
		}
		return o, fmt.Errorf("insert order: %w", err)
	}

	for i := range o.Items {
		it := &o.Items[i]
		err = tx.QueryRow(ctx, `
			INSERT INTO order_items (order_id, variant_id, product_name, product_image, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			it.OrderID, it.VariantID, it.ProductName, it.ProductImage, it.Quantity, it.Price).Scan(&it.ID)
		if err != nil {
			return o, fmt.Errorf("insert order item: %w", err)
		}
	}

	if pts := PointsEarned(total); pts > 0 {
		if _, err := creditPoints(ctx, tx, userID, pts); err != nil {
			return o, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return o, err
	}
	return o, nil
}

// SetStatus applies one lifecycle transition, validated against the
// transition table. Cancelling returns the order's reserved stock to the
// ledger in the same transaction.
func (r *Repo) SetStatus(ctx context.Context, orderID uuid.UUID, to Status) (Order, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o, err := SetStatusTx(ctx, tx, orderID, to)
	if err != nil {
		return Order{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	return o, nil
}

// SetStatusTx is SetStatus inside a caller-owned transaction; the payment
// reconciler uses it to keep its dedup insert and the transition atomic.
func SetStatusTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, to Status) (Order, error) {
	var o Order

	var from Status
	err := tx.QueryRow(ctx, `
		SELECT status FROM orders WHERE id = $1 FOR UPDATE`, orderID).Scan(&from)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	if err != nil {
		return o, fmt.Errorf("lock order: %w", err)
	}

	if !CanTransition(from, to) {
		return o, &InvalidTransitionError{From: from, To: to}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, orderID, to); err != nil {
		return o, fmt.Errorf("update status: %w", err)
	}

	if to == StatusCancelled {
		if err := releaseStock(ctx, tx, orderID); err != nil {
			return o, err
		}
	}

	return getOrder(ctx, tx, orderID)
}

func (r *Repo) GetOrder(ctx context.Context, orderID uuid.UUID) (Order, error) {
	return getOrder(ctx, r.DB, orderID)
}

func getOrder(ctx context.Context, q querier, orderID uuid.UUID) (Order, error) {
	var o Order

	err := q.QueryRow(ctx, `
		SELECT id, user_id, status, total, created_at, updated_at
		FROM orders WHERE id = $1`, orderID).
		Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return o, fmt.Errorf("order %s: %w", orderID, ErrOrderNotFound)
	}
	if err != nil {
		return o, err
	}

	rows, err := q.Query(ctx, `
		SELECT id, order_id, variant_id, product_name, product_image, quantity, price
		FROM order_items WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return o, err
	}
	defer rows.Close()

	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.VariantID, &it.ProductName,
			&it.ProductImage, &it.Quantity, &it.Price); err != nil {
			return o, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// ListOrders returns all orders newest first with items attached, feeding the
// staff/KDS view.
func (r *Repo) ListOrders(ctx context.Context) ([]Order, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT o.id, o.user_id, o.status, o.total, o.created_at, o.updated_at,
		       i.id, i.variant_id, i.product_name, i.product_image, i.quantity, i.price
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		ORDER BY o.created_at DESC, o.id, i.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []Order
		index = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			o  Order
			it OrderItem
		)
		if err := rows.Scan(&o.ID, &o.UserID, &o.Status, &o.Total, &o.CreatedAt, &o.UpdatedAt,
			&it.ID, &it.VariantID, &it.ProductName, &it.ProductImage, &it.Quantity, &it.Price); err != nil {
			return nil, err
		}
		it.OrderID = o.ID

		pos, ok := index[o.ID]
		if !ok {
			pos = len(out)
			index[o.ID] = pos
			out = append(out, o)
		}
		out[pos].Items = append(out[pos].Items, it)
	}
	return out, rows.Err()
}

// ListProducts is the catalog read: products with their variants, for the
// ordering clients.
func (r *Repo) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.name, p.image, p.category, p.created_at,
		       v.id, v.name, v.sku, v.price, v.cost_price, v.stock
		FROM products p
		JOIN product_variants v ON v.product_id = p.id
		ORDER BY p.name, v.sku`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []Product
		index = map[uuid.UUID]int{}
	)
	for rows.Next() {
		var (
			p Product
			v Variant
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Image, &p.Category, &p.CreatedAt,
			&v.ID, &v.Name, &v.SKU, &v.Price, &v.CostPrice, &v.Stock); err != nil {
			return nil, err
		}
		v.ProductID = p.ID

		pos, ok := index[p.ID]
		if !ok {
			pos = len(out)
			index[p.ID] = pos
			out = append(out, p)
		}
		out[pos].Variants = append(out[pos].Variants, v)
	}
	return out, rows.Err()
}
