package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Inventory reads current stock per product for one user.
type Inventory struct {
	DB *pgxpool.Pool
}

func (i *Inventory) StockLevels(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := i.DB.Query(ctx,
		`SELECT product_id, on_hand_quantity FROM inventory_levels WHERE user_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	levels := make(map[string]int)
	for rows.Next() {
		var productID string
		var qty int
		if err := rows.Scan(&productID, &qty); err != nil {
			return nil, err
		}
		levels[productID] = qty
	}
	return levels, rows.Err()
}
