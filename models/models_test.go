package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUrgencyFor(t *testing.T) {
	assert.Equal(t, "high", UrgencyFor(5, 0))
	assert.Equal(t, "high", UrgencyFor(20, 10))
	assert.Equal(t, "medium", UrgencyFor(15, 10))
	assert.Equal(t, "medium", UrgencyFor(10, 10))
	assert.Equal(t, "low", UrgencyFor(5, 10))
}

func TestReorderParametersNormalizeKeepsValidValues(t *testing.T) {
	p := ReorderParameters{LookbackDays: 14, LeadTimeDays: 3, SafetyFactor: 1.5, ReorderBuffer: 1}
	assert.Equal(t, p, p.Normalize())
}

func TestReorderParametersNormalizeClampsInvalidValues(t *testing.T) {
	p := ReorderParameters{LookbackDays: 365, LeadTimeDays: 0, SafetyFactor: 5.0, ReorderBuffer: -1}
	n := p.Normalize()
	assert.Equal(t, 30, n.LookbackDays)
	assert.Equal(t, 7, n.LeadTimeDays)
	assert.Equal(t, 1.2, n.SafetyFactor)
	assert.Equal(t, 0, n.ReorderBuffer)
}

func TestReorderParametersZeroValueGetsDefaults(t *testing.T) {
	n := ReorderParameters{}.Normalize()
	assert.Equal(t, DefaultReorderParameters(), n)
}
