package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vietddude/callguard/internal/core/domain"
)

type orderRow struct {
	OrderID     string         `db:"order_id"`
	TokenNumber sql.NullInt64  `db:"token_number"`
	Status      sql.NullString `db:"status"`
	CreatedAt   time.Time      `db:"created_at"`
}

// RecentOrders returns the latest orders, newest first. Used as a read check
// against the order database.
func (db *DB) RecentOrders(ctx context.Context, limit int) ([]*domain.Order, error) {
	var rows []orderRow
	query := `SELECT order_id, token_number, status, created_at FROM orders ORDER BY created_at DESC LIMIT $1`
	if err := db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("failed to read orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, &domain.Order{
			OrderID:     r.OrderID,
			TokenNumber: r.TokenNumber.Int64,
			Status:      r.Status.String,
			CreatedAt:   r.CreatedAt,
		})
	}
	return orders, nil
}
