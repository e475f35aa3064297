package agent

import (
	"fmt"
	"math"
	"sort"

	"app/models"
)

// Decide computes reorder proposals from a consumption mapping and a stock
// snapshot. Pure computation: empty input means empty output, never an error.
//
// Per product: projectedNeed = avgDailyUsage * leadTimeDays * safetyFactor.
// A proposal is emitted only when current stock falls below projected need,
// with the shortfall rounded up so the suggestion never under-shoots, plus
// the configured buffer.
func Decide(consumption map[string]models.ConsumptionRecord, stock map[string]int, params models.ReorderParameters) []models.Proposal {
	params = params.Normalize()

	productIDs := make([]string, 0, len(consumption))
	for id := range consumption {
		productIDs = append(productIDs, id)
	}
	sort.Strings(productIDs)

	proposals := make([]models.Proposal, 0)
	for _, productID := range productIDs {
		rec := consumption[productID]
		projectedNeed := rec.AvgDailyUsage * float64(params.LeadTimeDays) * params.SafetyFactor
		currentStock := stock[productID]

		if float64(currentStock) >= projectedNeed {
			continue
		}

		shortfall := int(math.Ceil(projectedNeed - float64(currentStock)))
		if shortfall <= 0 {
			// Rounding can land on zero when stock sits fractionally under
			// projected need; never emit a non-positive quantity.
			continue
		}

		proposals = append(proposals, models.Proposal{
			ProductID:    productID,
			SuggestedQty: shortfall + params.ReorderBuffer,
			Reason:       fmt.Sprintf("Based on %.1f usage per order", rec.AvgDailyUsage),
		})
	}

	return proposals
}
