package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// 10% of the order total, floored to whole points.
var rewardRate = decimal.RequireFromString("0.10")

func PointsEarned(total decimal.Decimal) int {
	return int(total.Mul(rewardRate).Floor().IntPart())
}

// RewardLedger owns the user points balance. Same guarded-update discipline
// as the StockLedger: the balance can never go negative.
type RewardLedger struct{ DB *pgxpool.Pool }

// Credit adds points unconditionally and returns the new balance.
func (l *RewardLedger) Credit(ctx context.Context, userID uuid.UUID, points int) (int, error) {
	return creditPoints(ctx, l.DB, userID, points)
}

func creditPoints(ctx context.Context, q querier, userID uuid.UUID, points int) (int, error) {
	if points < 0 {
		return 0, fmt.Errorf("credit %d points: %w", points, ErrInvalidQuantity)
	}

	var balance int
	err := q.QueryRow(ctx, `
		UPDATE users SET points = points + $2
		WHERE id = $1
		RETURNING points`, userID, points).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("credit points: %w", err)
	}
	return balance, nil
}

// Debit spends points only if the balance covers the cost. Zero rows from
// the guarded UPDATE means either a missing user or a short balance; the
// follow-up read tells them apart.
func (l *RewardLedger) Debit(ctx context.Context, userID uuid.UUID, cost int) (int, error) {
	if cost < 1 {
		return 0, fmt.Errorf("debit %d points: %w", cost, ErrInvalidQuantity)
	}

	var remaining int
	err := l.DB.QueryRow(ctx, `
		UPDATE users SET points = points - $2
		WHERE id = $1 AND points >= $2
		RETURNING points`, userID, cost).Scan(&remaining)
	if err == nil {
		return remaining, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("debit points: %w", err)
	}

	var balance int
	err = l.DB.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("read points: %w", err)
	}
	return balance, ErrInsufficientPoints
}

func (l *RewardLedger) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	var balance int
	err := l.DB.QueryRow(ctx, `SELECT points FROM users WHERE id = $1`, userID).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}
