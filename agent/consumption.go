package agent

import (
	"context"
	"errors"
	"time"

	"app/apperr"
	"app/logger"
	"app/models"
)

// Aggregator reduces a user's order-line history into per-product consumption
// statistics.
type Aggregator struct {
	History OrderHistoryReader
	Log     logger.Logger
}

// Aggregate builds the consumption mapping for one user over the lookback
// window. A backend that cannot window by order date degrades to the full
// history; no history at all yields an empty map.
func (a *Aggregator) Aggregate(ctx context.Context, userID string, lookbackDays int) (map[string]models.ConsumptionRecord, error) {
	if userID == "" {
		return nil, apperr.ValidationError("userId is required")
	}

	since := time.Now().AddDate(0, 0, -lookbackDays)
	lines, err := a.History.OrderLinesSince(ctx, userID, since)
	if errors.Is(err, ErrWindowUnsupported) {
		a.Log.Warnf(ctx, "order history backend cannot window by date, using full history for user %s", userID)
		lines, err = a.History.OrderLines(ctx, userID)
	}
	if err != nil {
		return nil, apperr.Unavailable("failed to read order history", err)
	}

	totals := make(map[string]int)
	orders := make(map[string]map[string]struct{})
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		totals[line.ProductID] += line.Quantity
		if orders[line.ProductID] == nil {
			orders[line.ProductID] = make(map[string]struct{})
		}
		orders[line.ProductID][line.OrderID] = struct{}{}
	}

	records := make(map[string]models.ConsumptionRecord, len(totals))
	for productID, total := range totals {
		count := len(orders[productID])
		// Divisor guard; unreachable for products that entered via real
		// order lines, kept anyway.
		denom := count
		if denom < 1 {
			denom = 1
		}
		records[productID] = models.ConsumptionRecord{
			ProductID:     productID,
			TotalQuantity: total,
			OrderCount:    count,
			AvgDailyUsage: float64(total) / float64(denom),
		}
	}

	return records, nil
}
