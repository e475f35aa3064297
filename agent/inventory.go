package agent

import (
	"context"

	"app/apperr"
)

// Snapshot reads the current on-hand quantity per product for one user.
// Products with no inventory row are on hand 0, not unknown; the returned map
// simply has no entry and lookups default to zero.
func Snapshot(ctx context.Context, inv InventoryReader, userID string) (map[string]int, error) {
	if userID == "" {
		return nil, apperr.ValidationError("userId is required")
	}

	levels, err := inv.StockLevels(ctx, userID)
	if err != nil {
		return nil, apperr.Unavailable("failed to read inventory levels", err)
	}
	if levels == nil {
		levels = make(map[string]int)
	}
	return levels, nil
}
