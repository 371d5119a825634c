// Package reward maps a candidate's final metric (or rank) onto the
// challenge's payout tiers.
package reward

import (
	"math"

	"github.com/starboost/starboost/internal/domain"
)

// Payout is the resolved reward of one winner. A gift payout carries no
// amount; callers check GiftAwarded instead of sniffing sentinel values.
type Payout struct {
	Amount      float64
	Gift        string
	GiftAwarded bool
}

// ResolvePayout walks the role's reward rules in stored order, in a fixed
// scheme priority: RANK_TIERS brackets are checked first against the raw
// metric, then PERCENT_TIERS, then FIXED_TIERS, the latter two scaled by
// unitCount. Within a scheme the first matching bracket pays.
//
// REGIONAL_MANAGER and ANIMATOR are the exception: their FIXED_TIERS rules
// bracket on the scaled lower bound only, and the last rule whose floor the
// metric clears sets the payout.
func ResolvePayout(rules []domain.RewardRule, role domain.Role,
	metric float64, unitCount int64) Payout {

	// RANK_TIERS brackets are absolute rank positions, never unit-scaled.
	for _, r := range rules {
		if r.PayoutType != domain.RankTiers {
			continue
		}
		if metric >= r.TierMin && metric <= r.TierMax {
			if r.Gift != "" {
				return Payout{Gift: r.Gift, GiftAwarded: true}
			}
			return Payout{Amount: r.BaseAmount}
		}
	}

	scale := float64(unitCount)
	if unitCount == 0 {
		scale = 1
	}

	if role == domain.RoleRegionalManager || role == domain.RoleAnimator {
		var out Payout
		for _, r := range rules {
			if r.PayoutType != domain.FixedTiers {
				continue
			}
			// No upper bound for regional roles.
			if metric >= r.TierMin*scale {
				out = Payout{Amount: r.BaseAmount}
			}
		}
		return out
	}

	for _, r := range rules {
		if r.PayoutType != domain.PercentTiers {
			continue
		}
		if metric >= r.TierMin*scale && metric <= r.TierMax*scale {
			return Payout{Amount: r.BaseAmount * metric}
		}
	}

	for _, r := range rules {
		if r.PayoutType != domain.FixedTiers {
			continue
		}
		if metric >= r.TierMin*scale && metric <= r.TierMax*scale {
			return Payout{Amount: r.BaseAmount}
		}
	}

	return Payout{}
}

// ResolveGift returns the gift attached to the first rule of the given
// payout type whose unscaled bracket contains the metric. Gift brackets are
// authored against the raw metric, so no unit scaling applies here.
func ResolveGift(rules []domain.RewardRule, payoutType domain.PayoutType, metric float64) string {
	for _, r := range rules {
		if r.PayoutType != payoutType || r.Gift == "" {
			continue
		}
		if metric >= r.TierMin && metric <= r.TierMax {
			return r.Gift
		}
	}
	return ""
}

// ComputeReward is the numeric calculator behind the reward-preview API.
// A gift payout is reported as the amount 1.0, a convention the admin UI
// renders as "gift"; real evaluation output uses Payout and never relies on
// the sentinel.
func ComputeReward(rules []domain.RewardRule, role domain.Role,
	metric float64, unitCount int64) float64 {

	p := ResolvePayout(rules, role, metric, unitCount)
	if p.GiftAwarded {
		return 1.0
	}
	return p.Amount
}

// Round2 rounds a money amount half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
