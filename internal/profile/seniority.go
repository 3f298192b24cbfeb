package profile

import "github.com/jonathan/gigfeed/internal/types"

// seniorityThresholds is the contiguous, non-overlapping month-threshold
// table. Each tier applies from MinMonths up to the next tier's MinMonths.
var seniorityThresholds = []struct {
	MinMonths int
	Tier      string
}{
	{0, types.SeniorityEntry},
	{24, types.SeniorityJunior},
	{48, types.SeniorityMid},
	{72, types.SenioritySenior},
	{120, types.SeniorityLead},
	{180, types.SeniorityPrincipal},
}

// SeniorityForMonths maps total experience months to a tier. Negative input
// clamps to 0.
func SeniorityForMonths(months int) string {
	if months < 0 {
		months = 0
	}

	tier := seniorityThresholds[0].Tier
	for _, threshold := range seniorityThresholds {
		if months >= threshold.MinMonths {
			tier = threshold.Tier
		}
	}
	return tier
}
