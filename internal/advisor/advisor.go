// Package advisor scores pending reports to help an authority decide. Its
// output is advisory and never changes state.
package advisor

import (
	"fmt"

	"github.com/rsuchain/rsuchain/types"
)

const (
	highReputation = 70
	lowReputation  = 30
	maxFalseOK     = 3

	// a corroborating vehicle is trustworthy at or above this reputation and
	// at or below trustedMaxFalse false reports
	trustedReputation = 50
	trustedMaxFalse   = 2

	validThreshold = 3
	falseThreshold = -2
)

// Recommend scores report from the standing of its vehicle and of the
// vehicles behind the corroborating reports. Reasons are listed in the order
// the factors are evaluated.
func Recommend(vehicle types.Vehicle, details []types.CorroboratingDetail) types.Recommendation {
	score := 0
	reasons := []string{}

	switch {
	case vehicle.Reputation >= highReputation:
		score += 2
		reasons = append(reasons, "High vehicle reputation (≥70)")
	case vehicle.Reputation < lowReputation:
		score -= 2
		reasons = append(reasons, "Low vehicle reputation (<30)")
	}

	if vehicle.FalseReports > maxFalseOK {
		score -= 3
		reasons = append(reasons, "Vehicle has history of false reports (>3)")
	}

	switch n := len(details); {
	case n >= 2:
		if trusted := countTrusted(details); trusted >= 2 {
			score += 3
			reasons = append(reasons, fmt.Sprintf("%d trustworthy vehicles corroborate", trusted))
		} else {
			score++
			reasons = append(reasons, fmt.Sprintf("%d corroborating reports (mixed reputation)", n))
		}
	case n == 1:
		score++
		reasons = append(reasons, "1 corroborating report")
	default:
		score--
		reasons = append(reasons, "No corroborating reports - isolated incident")
	}

	label := types.Neutral
	switch {
	case score >= validThreshold:
		label = types.LikelyValid
	case score <= falseThreshold:
		label = types.LikelyFalse
	}

	return types.Recommendation{
		Recommendation: label,
		Confidence:     label,
		Score:          score,
		Reasons:        reasons,
		Note:           types.RecommendationNote,
	}
}

func countTrusted(details []types.CorroboratingDetail) int {
	n := 0
	for _, d := range details {
		if d.VehicleReputation >= trustedReputation && d.VehicleFalseReports <= trustedMaxFalse {
			n++
		}
	}
	return n
}
