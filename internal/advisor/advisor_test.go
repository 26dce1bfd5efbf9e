package advisor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rsuchain/rsuchain/types"
)

func detail(rep, falseReports int64) types.CorroboratingDetail {
	return types.CorroboratingDetail{VehicleReputation: rep, VehicleFalseReports: falseReports}
}

func TestRecommend(t *testing.T) {
	testCases := []struct {
		name    string
		vehicle types.Vehicle
		details []types.CorroboratingDetail
		score   int
		label   string
		reasons []string
	}{
		{
			name:    "trusted vehicle with two trustworthy corroborators",
			vehicle: types.Vehicle{Reputation: 80},
			details: []types.CorroboratingDetail{detail(50, 2), detail(90, 0)},
			score:   5,
			label:   types.LikelyValid,
			reasons: []string{"High vehicle reputation (≥70)", "2 trustworthy vehicles corroborate"},
		},
		{
			name:    "fresh vehicle, isolated",
			vehicle: types.NewVehicle("V1"),
			score:   -1,
			label:   types.Neutral,
			reasons: []string{"No corroborating reports - isolated incident"},
		},
		{
			name:    "fresh vehicle, one corroborator",
			vehicle: types.NewVehicle("V1"),
			details: []types.CorroboratingDetail{detail(10, 9)},
			score:   1,
			label:   types.Neutral,
			reasons: []string{"1 corroborating report"},
		},
		{
			name:    "mixed corroborators",
			vehicle: types.Vehicle{Reputation: 70},
			details: []types.CorroboratingDetail{detail(50, 0), detail(49, 0), detail(60, 3)},
			score:   3,
			label:   types.LikelyValid,
			reasons: []string{"High vehicle reputation (≥70)", "3 corroborating reports (mixed reputation)"},
		},
		{
			name:    "serial false reporter",
			vehicle: types.Vehicle{Reputation: 29, FalseReports: 4},
			score:   -6,
			label:   types.LikelyFalse,
			reasons: []string{
				"Low vehicle reputation (<30)",
				"Vehicle has history of false reports (>3)",
				"No corroborating reports - isolated incident",
			},
		},
		{
			name:    "low reputation barely corroborated",
			vehicle: types.Vehicle{Reputation: 20, FalseReports: 3},
			details: []types.CorroboratingDetail{detail(80, 0)},
			score:   -1,
			label:   types.Neutral,
			reasons: []string{"Low vehicle reputation (<30)", "1 corroborating report"},
		},
		{
			name:    "exactly at the false threshold",
			vehicle: types.Vehicle{Reputation: 50, FalseReports: 4},
			details: []types.CorroboratingDetail{detail(80, 0)},
			score:   -2,
			label:   types.LikelyFalse,
			reasons: []string{"Vehicle has history of false reports (>3)", "1 corroborating report"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			rec := Recommend(tc.vehicle, tc.details)
			assert.Equal(t, tc.score, rec.Score)
			assert.Equal(t, tc.label, rec.Recommendation)
			assert.Equal(t, tc.label, rec.Confidence)
			assert.Equal(t, tc.reasons, rec.Reasons)
			assert.Equal(t, types.RecommendationNote, rec.Note)
		})
	}
}
