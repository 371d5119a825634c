package reward

import (
	"testing"

	"github.com/starboost/starboost/internal/domain"
)

func TestResolvePayout(t *testing.T) {
	t.Run("FixedTiers", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 99, BaseAmount: 50},
			{PayoutType: domain.FixedTiers, TierMin: 100, TierMax: 1000, BaseAmount: 200},
		}
		p := ResolvePayout(rules, domain.RoleAgent, 150, 1)
		if p.Amount != 200 {
			t.Errorf("expected 200, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleAgent, 50, 1)
		if p.Amount != 50 {
			t.Errorf("expected 50, got %v", p.Amount)
		}
	})

	t.Run("FirstMatchingRuleWins", func(t *testing.T) {
		// A catch-all bracket before a more specific one shadows it wherever
		// they overlap.
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 1000, BaseAmount: 10},
			{PayoutType: domain.FixedTiers, TierMin: 500, TierMax: 1000, BaseAmount: 100},
		}
		p := ResolvePayout(rules, domain.RoleCommercial, 600, 1)
		if p.Amount != 10 {
			t.Errorf("expected the catch-all's 10 in the overlap, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleCommercial, 100, 1)
		if p.Amount != 10 {
			t.Errorf("expected the catch-all's 10, got %v", p.Amount)
		}
	})

	t.Run("RegionalManagerLowerBoundOnly", func(t *testing.T) {
		// Regional roles ignore the upper bound; the last floor the metric
		// clears pays, however far past it the metric lands.
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 100, TierMax: 200, BaseAmount: 250},
			{PayoutType: domain.FixedTiers, TierMin: 300, TierMax: 400, BaseAmount: 500},
		}
		p := ResolvePayout(rules, domain.RoleRegionalManager, 50000, 10)
		if p.Amount != 500 {
			t.Errorf("expected the highest cleared floor's 500, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleRegionalManager, 1500, 10)
		if p.Amount != 250 {
			t.Errorf("expected 250 past the first floor only, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleRegionalManager, 900, 10)
		if p.Amount != 0 {
			t.Errorf("expected no payout below every floor, got %v", p.Amount)
		}
	})

	t.Run("AnimatorSharesRegionalDispatch", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 100, TierMax: 200, BaseAmount: 250},
		}
		p := ResolvePayout(rules, domain.RoleAnimator, 5000, 1)
		if p.Amount != 250 {
			t.Errorf("expected the animator to bracket on the floor only, got %v", p.Amount)
		}
	})

	t.Run("UnitCountScalesBrackets", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 10, TierMax: 100, BaseAmount: 300},
		}
		// Bracket becomes [50, 500] for a five-commercial agency.
		p := ResolvePayout(rules, domain.RoleAgencyManager, 40, 5)
		if p.Amount != 0 {
			t.Errorf("expected 40 below the scaled bracket, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleAgencyManager, 250, 5)
		if p.Amount != 300 {
			t.Errorf("expected 250 inside the scaled bracket, got %v", p.Amount)
		}
	})

	t.Run("ZeroUnitCountLeavesBracketUnscaled", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 10, TierMax: 100, BaseAmount: 300},
		}
		p := ResolvePayout(rules, domain.RoleAgent, 50, 0)
		if p.Amount != 300 {
			t.Errorf("expected the unscaled bracket to apply, got %v", p.Amount)
		}
	})

	t.Run("PercentTiers", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.PercentTiers, TierMin: 0, TierMax: 100000, BaseAmount: 0.02},
		}
		p := ResolvePayout(rules, domain.RoleCommercial, 5000, 1)
		if p.Amount != 100 {
			t.Errorf("expected 2%% of 5000 = 100, got %v", p.Amount)
		}
	})

	t.Run("RankTiers", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.RankTiers, TierMin: 1, TierMax: 3, BaseAmount: 500},
			{PayoutType: domain.RankTiers, TierMin: 4, TierMax: 10, BaseAmount: 100},
		}
		// Rank brackets never scale by unit count.
		p := ResolvePayout(rules, domain.RoleAgent, 2, 50)
		if p.Amount != 500 {
			t.Errorf("rank 2: expected 500, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleAgent, 7, 50)
		if p.Amount != 100 {
			t.Errorf("rank 7: expected 100, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleAgent, 11, 50)
		if p.Amount != 0 || p.GiftAwarded {
			t.Errorf("rank 11: expected no payout, got %+v", p)
		}
	})

	t.Run("RankTierGift", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.RankTiers, TierMin: 1, TierMax: 1, Gift: "trip to Rome"},
		}
		p := ResolvePayout(rules, domain.RoleAgent, 1, 1)
		if !p.GiftAwarded || p.Gift != "trip to Rome" {
			t.Errorf("expected the gift, got %+v", p)
		}
		if p.Amount != 0 {
			t.Errorf("a gift payout carries no amount, got %v", p.Amount)
		}
	})

	t.Run("RankRulesResolveBeforeFixed", func(t *testing.T) {
		// Rank brackets are consulted across the whole rule list even when
		// they come after other schemes in stored order.
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 1000, BaseAmount: 75},
			{PayoutType: domain.RankTiers, TierMin: 1, TierMax: 3, BaseAmount: 500},
		}
		p := ResolvePayout(rules, domain.RoleAgent, 2, 1)
		if p.Amount != 500 {
			t.Errorf("expected the rank rule's 500, got %v", p.Amount)
		}
		p = ResolvePayout(rules, domain.RoleAgent, 800, 1)
		if p.Amount != 75 {
			t.Errorf("expected the fixed fallback's 75, got %v", p.Amount)
		}
	})

	t.Run("PercentRulesResolveBeforeFixed", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 1000, BaseAmount: 75},
			{PayoutType: domain.PercentTiers, TierMin: 0, TierMax: 1000, BaseAmount: 0.5},
		}
		p := ResolvePayout(rules, domain.RoleAgent, 100, 1)
		if p.Amount != 50 {
			t.Errorf("expected the percent rule's 50, got %v", p.Amount)
		}
	})

	t.Run("NoRules", func(t *testing.T) {
		p := ResolvePayout(nil, domain.RoleAgent, 100, 1)
		if p.Amount != 0 || p.GiftAwarded {
			t.Errorf("expected the zero payout, got %+v", p)
		}
	})
}

func TestResolveGift(t *testing.T) {
	rules := []domain.RewardRule{
		{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 99, BaseAmount: 50},
		{PayoutType: domain.FixedTiers, TierMin: 100, TierMax: 1000, BaseAmount: 200, Gift: "tablet"},
		{PayoutType: domain.FixedTiers, TierMin: 100, TierMax: 1000, Gift: "watch"},
	}

	t.Run("FirstMatchingGiftWins", func(t *testing.T) {
		if g := ResolveGift(rules, domain.FixedTiers, 150); g != "tablet" {
			t.Errorf("expected tablet, got %q", g)
		}
	})

	t.Run("BlankGiftsAreSkipped", func(t *testing.T) {
		if g := ResolveGift(rules, domain.FixedTiers, 50); g != "" {
			t.Errorf("expected no gift below 100, got %q", g)
		}
	})

	t.Run("BracketIsUnscaled", func(t *testing.T) {
		// Gift lookup never scales by unit count, so the raw metric decides.
		if g := ResolveGift(rules, domain.FixedTiers, 1001); g != "" {
			t.Errorf("expected no gift above the bracket, got %q", g)
		}
	})

	t.Run("PayoutTypeMustMatch", func(t *testing.T) {
		if g := ResolveGift(rules, domain.RankTiers, 150); g != "" {
			t.Errorf("expected no gift for another payout type, got %q", g)
		}
	})
}

func TestComputeReward(t *testing.T) {
	t.Run("GiftSentinel", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.RankTiers, TierMin: 1, TierMax: 1, Gift: "trip"},
		}
		if got := ComputeReward(rules, domain.RoleAgent, 1, 1); got != 1.0 {
			t.Errorf("expected the 1.0 gift sentinel, got %v", got)
		}
	})

	t.Run("Amount", func(t *testing.T) {
		rules := []domain.RewardRule{
			{PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 100, BaseAmount: 42},
		}
		if got := ComputeReward(rules, domain.RoleAgent, 50, 1); got != 42 {
			t.Errorf("expected 42, got %v", got)
		}
	})
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{1.2345, 1.23},
		{1.236, 1.24},
		{-1.236, -1.24},
		{99.999, 100},
		{0, 0},
	}
	for _, c := range cases {
		if got := Round2(c.in); got != c.want {
			t.Errorf("Round2(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}
