package domain

// ConditionType is the kind of eligibility gate a winning rule applies.
type ConditionType string

const (
	MinContracts        ConditionType = "MIN_CONTRACTS"
	MinRevenue          ConditionType = "MIN_REVENUE"
	MinAvgPerCommercial ConditionType = "MIN_AVG_PER_COMMERCIAL" // flat average over the agency
	MinAvgPerPV         ConditionType = "MIN_AVG_PER_PV"         // flat average over the region's sales points
	WeightedAvgAgency   ConditionType = "WEIGHTED_AVG_AGENCY"    // weighted average of agency score
	WeightedAvgRegion   ConditionType = "WEIGHTED_AVG_REGION"    // weighted average of region score
)

// Weighted reports whether the condition compares against a weighted average.
func (c ConditionType) Weighted() bool {
	return c == WeightedAvgAgency || c == WeightedAvgRegion
}

// FlatAverage reports whether the condition compares against a flat average.
func (c ConditionType) FlatAverage() bool {
	return c == MinAvgPerCommercial || c == MinAvgPerPV
}

// WinningRule is one eligibility gate for a role. Multiple rules for the
// same role are conjunctive: a candidate failing any of them is excluded.
// A condition type the engine does not recognize rejects the candidate.
type WinningRule struct {
	ID            int64         `json:"id,omitempty"`
	RoleCategory  Role          `json:"roleCategory"`
	ConditionType ConditionType `json:"conditionType"`
	ThresholdMin  float64       `json:"thresholdMin"`

	// WeightFormula optionally overrides the built-in step weighting for
	// WEIGHTED_AVG_* gates. It is a CEL expression over the team size `n`
	// (int) returning the weight as a double, e.g.
	//   n >= 3 ? 2.0 : (n == 2 ? 1.5 : 1.0)
	// Empty means the built-in step function applies.
	WeightFormula string `json:"weightFormula,omitempty"`
}

// PayoutType selects how a reward tier maps a metric to money.
type PayoutType string

const (
	// FixedTiers pays a flat amount when the metric falls in
	// [tierMin*unitCount, tierMax*unitCount].
	FixedTiers PayoutType = "FIXED_TIERS"

	// PercentTiers pays baseAmount (a fraction) times the metric when the
	// metric falls in the scaled bracket.
	PercentTiers PayoutType = "PERCENT_TIERS"

	// RankTiers pays a flat amount (or awards a gift) based on the
	// candidate's final rank; unitCount is ignored.
	RankTiers PayoutType = "RANK_TIERS"
)

// RewardRule is one payout tier for a role. Bracket bounds are pre-scaling;
// the calculator multiplies them by the unit count before comparing.
type RewardRule struct {
	ID           int64      `json:"id,omitempty"`
	RoleCategory Role       `json:"roleCategory"`
	PayoutType   PayoutType `json:"payoutType"`
	TierMin      float64    `json:"tierMin"`
	TierMax      float64    `json:"tierMax"`
	BaseAmount   float64    `json:"baseAmount"`
	Gift         string     `json:"gift,omitempty"`
}
