// Package evaluation orchestrates a full challenge evaluation: load one
// consistent snapshot, gate candidates per role, rank them, and resolve the
// payouts.
package evaluation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/eligibility"
	"github.com/starboost/starboost/internal/performance"
	"github.com/starboost/starboost/internal/reward"
	"github.com/starboost/starboost/internal/scoring"
)

var tracer = otel.Tracer("starboost-evaluation")

// Service runs evaluations against the store and announces results on the
// event bus.
type Service struct {
	store domain.Store
	bus   domain.EventBus
}

// NewService creates the evaluation service.
func NewService(store domain.Store, bus domain.EventBus) *Service {
	return &Service{store: store, bus: bus}
}

// LoadSnapshot bulk-loads everything an evaluation needs in one pass. All
// later stages compute over the returned snapshot, so concurrent rule edits
// cannot mix into a running evaluation.
func (s *Service) LoadSnapshot(ctx context.Context, challengeID string) (*domain.Snapshot, error) {
	challenge, err := s.store.GetChallenge(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load challenge %s: %w", challengeID, err)
	}
	participants, err := s.store.ListParticipants(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load participants: %w", err)
	}
	transactions, err := s.store.ListTransactions(ctx, challengeID)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	agencies, err := s.store.ListAgencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("load agencies: %w", err)
	}
	regions, err := s.store.ListRegions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}

	snap := &domain.Snapshot{
		Challenge:    challenge,
		Participants: participants,
		Transactions: transactions,
		Agencies:     make(map[int64]domain.Agency, len(agencies)),
		Regions:      make(map[int64]domain.Region, len(regions)),
	}
	for _, a := range agencies {
		snap.Agencies[a.ID] = a
	}
	for _, r := range regions {
		snap.Regions[r.ID] = r
	}
	return snap, nil
}

// EvaluateChallenge evaluates every role of a challenge over one snapshot
// and returns the combined winners list.
func (s *Service) EvaluateChallenge(ctx context.Context, challengeID string) ([]domain.Winner, error) {
	ctx, span := tracer.Start(ctx, "evaluation.challenge",
		trace.WithAttributes(attribute.String("challenge.id", challengeID)),
	)
	defer span.End()

	snap, err := s.LoadSnapshot(ctx, challengeID)
	if err != nil {
		return nil, err
	}

	agg := performance.NewAggregator(snap)
	var winners []domain.Winner
	for _, role := range domain.AllRoles() {
		w, err := s.evaluateRole(snap, agg, role)
		if err != nil {
			return nil, err
		}
		winners = append(winners, w...)
	}
	span.SetAttributes(attribute.Int("winners.count", len(winners)))
	return winners, nil
}

// EvaluateRole evaluates a single role of a challenge.
func (s *Service) EvaluateRole(ctx context.Context, challengeID string, role domain.Role) ([]domain.Winner, error) {
	ctx, span := tracer.Start(ctx, "evaluation.role",
		trace.WithAttributes(
			attribute.String("challenge.id", challengeID),
			attribute.String("role", string(role)),
		),
	)
	defer span.End()

	snap, err := s.LoadSnapshot(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return s.evaluateRole(snap, performance.NewAggregator(snap), role)
}

// evaluateRole is the per-role pipeline: gate, rank, pay.
func (s *Service) evaluateRole(snap *domain.Snapshot, agg *performance.Aggregator, role domain.Role) ([]domain.Winner, error) {
	rewardRules := snap.RewardRulesFor(role)
	if len(rewardRules) == 0 {
		// Nothing to pay out: the role has no winners by definition.
		return nil, nil
	}

	ev, err := eligibility.NewEvaluator(snap, agg)
	if err != nil {
		return nil, err
	}
	candidates, err := ev.Eligible(role, snap.WinningRulesFor(role))
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	// Rank on the strongest metric the gates produced: weighted average
	// first, flat average next, raw score last. Ties break toward the lower
	// user ID so reruns are stable.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := rankValue(&candidates[i]), rankValue(&candidates[j])
		if a != b {
			return a > b
		}
		return candidates[i].UserID < candidates[j].UserID
	})

	// The first rule fixes the payout scheme the metric is chosen for; the
	// calculator itself still scans every rule of the role.
	payoutType := rewardRules[0].PayoutType

	var winners []domain.Winner
	for i := range candidates {
		c := &candidates[i]
		rank := i + 1

		unitCount, metric := payoutBasis(snap, agg, role, payoutType, c, rank)

		p := reward.ResolvePayout(rewardRules, role, metric, unitCount)
		// A zero payout excludes the candidate even when a gift bracket
		// matches; gifts only decorate paid winners.
		if p.Amount <= 0 && !p.GiftAwarded {
			continue
		}
		if !p.GiftAwarded {
			if g := reward.ResolveGift(rewardRules, payoutType, metric); g != "" {
				p.Gift = g
				p.GiftAwarded = true
			}
		}

		w := domain.Winner{
			UserID:       c.UserID,
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			RoleCategory: role,
			Rank:         rank,
			RegionID:     c.RegionID,
			RegionName:   snap.RegionName(c.RegionID),
			UnitCount:    unitCount,
			RewardAmount: reward.Round2(p.Amount),
			Gift:         p.Gift,
			GiftAwarded:  p.GiftAwarded,
		}

		// Team roles report their aggregate totals whether or not a gate
		// substituted them on the candidate.
		switch role {
		case domain.RoleAgencyManager:
			t := agg.AgencyTotals(c.AgencyID)
			w.ContractCount, w.Revenue, w.Score = t.Contracts, t.Revenue, t.Score
		case domain.RoleRegionalManager, domain.RoleAnimator:
			t := agg.RegionTotals(c.RegionID)
			w.ContractCount, w.Revenue, w.Score = t.Contracts, t.Revenue, t.Score
		default:
			w.ContractCount, w.Revenue, w.Score = c.ContractCount, c.Revenue, c.Score
		}

		if c.Average != nil {
			w.Average = *c.Average
		}
		if c.WeightedAverage != nil {
			w.WeightedAverage = *c.WeightedAverage
		}
		if c.AgencyID != 0 && (role == domain.RoleCommercial || role == domain.RoleAgencyManager) {
			w.AgencyID = c.AgencyID
			w.AgencyName = snap.AgencyName(c.AgencyID)
		}
		winners = append(winners, w)
	}
	return winners, nil
}

// payoutBasis picks the bracket metric and unit scale for one candidate.
// Rank tiers bracket the rank, percent tiers the candidate's revenue. Fixed
// tiers bracket revenue too, but team roles use their aggregate revenue and
// scale brackets by the team size (commercial headcount for agencies, sales
// points for regions); individual sellers count as one unit.
func payoutBasis(snap *domain.Snapshot, agg *performance.Aggregator,
	role domain.Role, payoutType domain.PayoutType, c *eligibility.Candidate, rank int) (int64, float64) {

	switch payoutType {
	case domain.RankTiers:
		return 1, float64(rank)
	case domain.PercentTiers:
		return 1, c.Revenue
	default:
		switch role {
		case domain.RoleAgencyManager:
			return snap.CommercialCount(c.AgencyID), agg.AgencyTotals(c.AgencyID).Revenue
		case domain.RoleRegionalManager, domain.RoleAnimator:
			return snap.SalesPointCount(c.RegionID), agg.RegionTotals(c.RegionID).Revenue
		default:
			return 1, c.Revenue
		}
	}
}

// rankValue is the ordering key of a gated candidate.
func rankValue(c *eligibility.Candidate) float64 {
	if c.WeightedAverage != nil {
		return *c.WeightedAverage
	}
	if c.Average != nil {
		return *c.Average
	}
	return float64(c.Score)
}

// Run evaluates a challenge (or one role), persists the result as an
// EvaluationRun, and announces it on the bus. runID may be empty, in which
// case a fresh one is generated.
func (s *Service) Run(ctx context.Context, runID, challengeID string, role domain.Role) (*domain.EvaluationRun, error) {
	if runID == "" {
		runID = uuid.New().String()
	}
	start := time.Now()

	var winners []domain.Winner
	var err error
	if role == "" {
		winners, err = s.EvaluateChallenge(ctx, challengeID)
	} else {
		winners, err = s.EvaluateRole(ctx, challengeID, role)
	}
	if err != nil {
		return nil, err
	}

	run := &domain.EvaluationRun{
		ID:          runID,
		ChallengeID: challengeID,
		Role:        role,
		Winners:     winners,
		StartedAt:   start.UTC(),
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if err := s.store.SaveEvaluationRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save evaluation run: %w", err)
	}

	if s.bus != nil {
		payload, _ := marshalRunEvent(run)
		if err := s.bus.Publish(ctx, challengeID, domain.TopicChallengeEvaluated, payload); err != nil {
			slog.Warn("failed to publish evaluation event",
				"challenge_id", challengeID,
				"run_id", runID,
				"error", err,
			)
		}
	}

	slog.Info("challenge evaluated",
		"challenge_id", challengeID,
		"run_id", runID,
		"role", string(role),
		"winners", len(winners),
		"duration_ms", run.DurationMs,
	)
	return run, nil
}

// Scores computes the sellerId -> score map of a challenge.
func (s *Service) Scores(ctx context.Context, challengeID string) (map[int64]int, error) {
	snap, err := s.LoadSnapshot(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	return scoring.ChallengeScores(snap), nil
}

// ComputeReward previews a payout for explicit inputs without touching
// participant data. For a RANK_TIERS scheme the caller passes the rank as
// the metric.
func (s *Service) ComputeReward(ctx context.Context, challengeID string, role domain.Role,
	metric float64, unitCount int64) (float64, error) {

	rules, err := s.store.ListRewardRulesByRole(ctx, challengeID, role)
	if err != nil {
		return 0, err
	}
	return reward.Round2(reward.ComputeReward(rules, role, metric, unitCount)), nil
}
