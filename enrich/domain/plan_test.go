package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimitsForPlan(t *testing.T) {
	cases := []struct {
		plan     string
		maxChars int
		want     PlanLimits
	}{
		{"", 8000, PlanLimits{TopK: 12, MaxChars: 8000}},
		{"pro", 8000, PlanLimits{TopK: 12, MaxChars: 8000}},
		{"ULTRA", 20000, PlanLimits{TopK: 12, MaxChars: 20000}},
		{"free", 8000, PlanLimits{TopK: 8, MaxChars: 3000}},
		{"BASIC-FREE", 8000, PlanLimits{TopK: 8, MaxChars: 3000}},
		{"Freemium", 8000, PlanLimits{TopK: 8, MaxChars: 3000}},
		{"free", 1000, PlanLimits{TopK: 8, MaxChars: 1000}},
		{"pro", 0, PlanLimits{TopK: 12, MaxChars: DefaultMaxChars}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, LimitsForPlan(tc.plan, tc.maxChars), "plan=%q maxChars=%d", tc.plan, tc.maxChars)
	}
}

func TestPlanLimits_Normalize(t *testing.T) {
	assert.Equal(t, PlanLimits{TopK: DefaultTopK, MaxChars: DefaultMaxChars}, PlanLimits{}.Normalize())
	assert.Equal(t, PlanLimits{TopK: 3, MaxChars: 10}, PlanLimits{TopK: 3, MaxChars: 10}.Normalize())
}
