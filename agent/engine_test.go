package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"app/models"
)

func params(lead int, safety float64, buffer int) models.ReorderParameters {
	return models.ReorderParameters{
		LookbackDays:  30,
		LeadTimeDays:  lead,
		SafetyFactor:  safety,
		ReorderBuffer: buffer,
	}
}

func TestDecideShortfallScenario(t *testing.T) {
	// 4.3 usage/order * 7 days * 1.5 = 45.15 projected need; 20 on hand
	// leaves a 25.15 shortfall, rounded up to 26.
	consumption := map[string]models.ConsumptionRecord{
		"prod-1": {ProductID: "prod-1", TotalQuantity: 43, OrderCount: 10, AvgDailyUsage: 4.3},
	}
	stock := map[string]int{"prod-1": 20}

	proposals := Decide(consumption, stock, params(7, 1.5, 0))

	require.Len(t, proposals, 1)
	assert.Equal(t, "prod-1", proposals[0].ProductID)
	assert.Equal(t, 26, proposals[0].SuggestedQty)
	assert.Contains(t, proposals[0].Reason, "4.3")
	assert.Equal(t, "Based on 4.3 usage per order", proposals[0].Reason)
}

func TestDecideBufferAddedAfterCeiling(t *testing.T) {
	consumption := map[string]models.ConsumptionRecord{
		"prod-1": {ProductID: "prod-1", AvgDailyUsage: 4.3, OrderCount: 10},
	}
	stock := map[string]int{"prod-1": 20}

	proposals := Decide(consumption, stock, params(7, 1.5, 2))

	require.Len(t, proposals, 1)
	assert.Equal(t, 28, proposals[0].SuggestedQty)
}

func TestDecideFullyStockedIsSilent(t *testing.T) {
	consumption := map[string]models.ConsumptionRecord{
		"prod-1": {ProductID: "prod-1", AvgDailyUsage: 2.0, OrderCount: 5},
		"prod-2": {ProductID: "prod-2", AvgDailyUsage: 1.0, OrderCount: 3},
	}
	// projected needs are 16.8 and 8.4 at the defaults; stock covers both.
	stock := map[string]int{"prod-1": 100, "prod-2": 9}

	proposals := Decide(consumption, stock, params(7, 1.2, 0))

	assert.Empty(t, proposals)
}

func TestDecideEmptyInputsYieldEmptyOutput(t *testing.T) {
	assert.Empty(t, Decide(nil, nil, params(7, 1.2, 0)))
	assert.Empty(t, Decide(map[string]models.ConsumptionRecord{}, map[string]int{"p": 5}, params(7, 1.2, 0)))
}

func TestDecideMissingInventoryRowMeansZeroStock(t *testing.T) {
	consumption := map[string]models.ConsumptionRecord{
		"prod-1": {ProductID: "prod-1", AvgDailyUsage: 1.0, OrderCount: 1},
	}

	proposals := Decide(consumption, map[string]int{}, params(7, 1.0, 0))

	require.Len(t, proposals, 1)
	assert.Equal(t, 7, proposals[0].SuggestedQty)
}

func TestDecideNeverEmitsNonPositiveQuantities(t *testing.T) {
	cases := []struct {
		name    string
		usage   float64
		lead    int
		safety  float64
		onHand  int
	}{
		{"zero usage", 0, 7, 1.5, 0},
		{"stock exactly at need", 2.0, 5, 1.0, 10},
		{"stock just above need", 2.0, 5, 1.0, 11},
		{"tiny fractional shortfall", 0.1, 1, 1.0, 0},
		{"high stock", 4.3, 7, 1.5, 1000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			consumption := map[string]models.ConsumptionRecord{
				"p": {ProductID: "p", AvgDailyUsage: tc.usage, OrderCount: 1},
			}
			proposals := Decide(consumption, map[string]int{"p": tc.onHand}, params(tc.lead, tc.safety, 0))
			for _, p := range proposals {
				assert.Greater(t, p.SuggestedQty, 0)
			}
		})
	}
}

func TestDecideOutputOrderIsDeterministic(t *testing.T) {
	consumption := map[string]models.ConsumptionRecord{
		"b": {ProductID: "b", AvgDailyUsage: 3.0, OrderCount: 2},
		"a": {ProductID: "a", AvgDailyUsage: 3.0, OrderCount: 2},
		"c": {ProductID: "c", AvgDailyUsage: 3.0, OrderCount: 2},
	}

	proposals := Decide(consumption, map[string]int{}, params(7, 1.2, 0))

	require.Len(t, proposals, 3)
	assert.Equal(t, "a", proposals[0].ProductID)
	assert.Equal(t, "b", proposals[1].ProductID)
	assert.Equal(t, "c", proposals[2].ProductID)
}

func TestDecideNormalizesOutOfRangeParameters(t *testing.T) {
	consumption := map[string]models.ConsumptionRecord{
		"p": {ProductID: "p", AvgDailyUsage: 1.0, OrderCount: 1},
	}
	// Invalid lead time and safety factor fall back to 7 and 1.2.
	bad := models.ReorderParameters{LookbackDays: 30, LeadTimeDays: 0, SafetyFactor: 0.5}

	proposals := Decide(consumption, map[string]int{}, bad)

	require.Len(t, proposals, 1)
	assert.Equal(t, 9, proposals[0].SuggestedQty) // ceil(1.0 * 7 * 1.2)
}
