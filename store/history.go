// Package store implements the agent's persistence interfaces over a pgx
// connection pool. See schema.sql for the tables and the partial unique index
// that backs suggestion idempotency.
package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"app/models"
)

// OrderHistory reads historical order lines joined with their parent order.
type OrderHistory struct {
	DB *pgxpool.Pool
}

func (h *OrderHistory) OrderLinesSince(ctx context.Context, userID string, since time.Time) ([]models.OrderLine, error) {
	query := `
		SELECT oi.order_id, oi.product_id, oi.quantity, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1 AND o.created_at >= $2
	`
	return h.queryLines(ctx, query, userID, since)
}

func (h *OrderHistory) OrderLines(ctx context.Context, userID string) ([]models.OrderLine, error) {
	query := `
		SELECT oi.order_id, oi.product_id, oi.quantity, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1
	`
	return h.queryLines(ctx, query, userID)
}

func (h *OrderHistory) queryLines(ctx context.Context, query string, args ...interface{}) ([]models.OrderLine, error) {
	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	lines := make([]models.OrderLine, 0)
	for rows.Next() {
		var line models.OrderLine
		if err := rows.Scan(&line.OrderID, &line.ProductID, &line.Quantity, &line.OrderedAt); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UserIDsWithOrders lists every user with at least one order, the scope of an
// all-users run.
func (h *OrderHistory) UserIDsWithOrders(ctx context.Context) ([]string, error) {
	rows, err := h.DB.Query(ctx, `SELECT DISTINCT user_id FROM orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
