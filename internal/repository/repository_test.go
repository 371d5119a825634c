package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starboost/starboost/internal/domain"
)

func newTestStore(t *testing.T) *SQLStore {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "repository-test-*.db")
	if err != nil {
		t.Fatalf("failed to create temp file: %v", err)
	}
	tmpPath := tmpFile.Name()
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpPath) })

	store, err := New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: tmpPath,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleChallenge() *domain.Challenge {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-03-31")
	return &domain.Challenge{
		Name:        "spring sprint",
		StartDate:   start,
		EndDate:     end,
		TargetRoles: []domain.Role{domain.RoleAgent, domain.RoleCommercial},
		Status:      domain.StatusOngoing,
		FilterRules: []domain.FilterRule{
			{TransactionNature: "NEW_BUSINESS"},
			{ContractType: "AUTO"},
		},
		ScoreRules: []domain.ScoreRule{
			{Type: domain.ScoreContract, ContractType: "AUTO", Points: 10},
			{Type: domain.ScoreRevenue, Points: 1, RevenueUnit: 100},
		},
		WinningRules: []domain.WinningRule{
			{RoleCategory: domain.RoleAgent, ConditionType: domain.MinContracts, ThresholdMin: 2},
			{RoleCategory: domain.RoleAgencyManager, ConditionType: domain.WeightedAvgAgency, ThresholdMin: 10, WeightFormula: "n >= 3 ? 2.0 : 1.0"},
		},
		RewardRules: []domain.RewardRule{
			{RoleCategory: domain.RoleAgent, PayoutType: domain.FixedTiers, TierMin: 0, TierMax: 100, BaseAmount: 50},
			{RoleCategory: domain.RoleAgent, PayoutType: domain.FixedTiers, TierMin: 50, TierMax: 100, BaseAmount: 150},
			{RoleCategory: domain.RoleCommercial, PayoutType: domain.PercentTiers, TierMin: 0, TierMax: 100000, BaseAmount: 0.01},
		},
	}
}

func TestChallengeLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateAndGet", func(t *testing.T) {
		c := sampleChallenge()
		if err := store.CreateChallenge(ctx, c); err != nil {
			t.Fatalf("failed to create challenge: %v", err)
		}
		if c.ID == "" {
			t.Fatal("expected a generated challenge ID")
		}

		got, err := store.GetChallenge(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to get challenge: %v", err)
		}
		if got.Name != "spring sprint" || got.Status != domain.StatusOngoing {
			t.Errorf("unexpected challenge: %+v", got)
		}
		if len(got.TargetRoles) != 2 {
			t.Errorf("expected 2 target roles, got %v", got.TargetRoles)
		}
		if len(got.FilterRules) != 2 || len(got.ScoreRules) != 2 ||
			len(got.WinningRules) != 2 || len(got.RewardRules) != 3 {
			t.Errorf("rule lists incomplete: %d/%d/%d/%d",
				len(got.FilterRules), len(got.ScoreRules), len(got.WinningRules), len(got.RewardRules))
		}
	})

	t.Run("RuleOrderIsPreserved", func(t *testing.T) {
		c := sampleChallenge()
		if err := store.CreateChallenge(ctx, c); err != nil {
			t.Fatalf("failed to create challenge: %v", err)
		}
		got, err := store.GetChallenge(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to get challenge: %v", err)
		}
		// Overlapping agent brackets resolve last-match, so stored order is
		// load-bearing.
		if got.RewardRules[0].BaseAmount != 50 || got.RewardRules[1].BaseAmount != 150 {
			t.Errorf("reward rule order lost: %+v", got.RewardRules)
		}
		if got.WinningRules[1].WeightFormula != "n >= 3 ? 2.0 : 1.0" {
			t.Errorf("weight formula lost: %+v", got.WinningRules[1])
		}
	})

	t.Run("MissingNameIsRejected", func(t *testing.T) {
		err := store.CreateChallenge(ctx, &domain.Challenge{})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("InvalidScoreRuleIsRejected", func(t *testing.T) {
		c := sampleChallenge()
		c.ScoreRules = append(c.ScoreRules, domain.ScoreRule{Type: domain.ScoreRevenue, Points: 1})
		err := store.CreateChallenge(ctx, c)
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for revenueUnit 0, got %v", err)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := store.GetChallenge(ctx, "missing")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SoftDelete", func(t *testing.T) {
		c := sampleChallenge()
		if err := store.CreateChallenge(ctx, c); err != nil {
			t.Fatalf("failed to create challenge: %v", err)
		}
		if err := store.DeleteChallenge(ctx, c.ID); err != nil {
			t.Fatalf("failed to delete challenge: %v", err)
		}
		if _, err := store.GetChallenge(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected the deleted challenge to be absent, got %v", err)
		}
		if err := store.DeleteChallenge(ctx, c.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected a second delete to report not found, got %v", err)
		}
	})

	t.Run("RewardRulesByRole", func(t *testing.T) {
		c := sampleChallenge()
		if err := store.CreateChallenge(ctx, c); err != nil {
			t.Fatalf("failed to create challenge: %v", err)
		}
		rules, err := store.ListRewardRulesByRole(ctx, c.ID, domain.RoleAgent)
		if err != nil {
			t.Fatalf("failed to list reward rules: %v", err)
		}
		if len(rules) != 2 {
			t.Fatalf("expected 2 agent rules, got %d", len(rules))
		}
		for _, r := range rules {
			if r.RoleCategory != domain.RoleAgent {
				t.Errorf("unexpected role in filtered list: %+v", r)
			}
		}
	})
}

func TestEnrollment(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := sampleChallenge()
	if err := store.CreateChallenge(ctx, c); err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}

	first := []domain.Participant{
		{UserID: 1, FirstName: "Ada", Role: domain.RoleAgent, RegionID: 1},
		{UserID: 2, FirstName: "Carl", Role: domain.RoleCommercial, AgencyID: 1, RegionID: 1},
	}
	if err := store.EnrollParticipants(ctx, c.ID, first); err != nil {
		t.Fatalf("failed to enroll: %v", err)
	}

	t.Run("ListsEnrollment", func(t *testing.T) {
		got, err := store.ListParticipants(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 participants, got %d", len(got))
		}
		if got[0].UserID != 1 || got[0].Status != domain.ParticipantActive {
			t.Errorf("unexpected first participant: %+v", got[0])
		}
	})

	t.Run("ReEnrollmentReplaces", func(t *testing.T) {
		second := []domain.Participant{
			{UserID: 3, FirstName: "Ann", Role: domain.RoleAgent, RegionID: 2},
		}
		if err := store.EnrollParticipants(ctx, c.ID, second); err != nil {
			t.Fatalf("failed to re-enroll: %v", err)
		}
		got, err := store.ListParticipants(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(got) != 1 || got[0].UserID != 3 {
			t.Errorf("expected the enrollment to be replaced, got %+v", got)
		}
	})

	t.Run("UnknownRoleIsRejected", func(t *testing.T) {
		bad := []domain.Participant{{UserID: 9, Role: "JANITOR"}}
		if err := store.EnrollParticipants(ctx, c.ID, bad); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("MissingUserIDIsRejected", func(t *testing.T) {
		bad := []domain.Participant{{Role: domain.RoleAgent}}
		if err := store.EnrollParticipants(ctx, c.ID, bad); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestSalesLedger(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := sampleChallenge()
	if err := store.CreateChallenge(ctx, c); err != nil {
		t.Fatalf("failed to create challenge: %v", err)
	}

	saleDate, _ := time.Parse("2006-01-02", "2026-01-15")
	tx := &domain.SalesTransaction{
		ChallengeID:       c.ID,
		Premium:           249.90,
		ContractType:      "AUTO",
		TransactionNature: "NEW_BUSINESS",
		SellerID:          42,
		SellerRole:        domain.RoleAgent,
		SaleDate:          saleDate,
	}
	if err := store.SaveTransaction(ctx, tx); err != nil {
		t.Fatalf("failed to save transaction: %v", err)
	}
	if tx.ID == "" {
		t.Fatal("expected a generated transaction ID")
	}

	t.Run("GetTransaction", func(t *testing.T) {
		got, err := store.GetTransaction(ctx, c.ID, tx.ID)
		if err != nil {
			t.Fatalf("failed to get transaction: %v", err)
		}
		if got.Premium != 249.90 || got.SellerID != 42 || got.SellerRole != domain.RoleAgent {
			t.Errorf("unexpected transaction: %+v", got)
		}
	})

	t.Run("TransactionNotFound", func(t *testing.T) {
		if _, err := store.GetTransaction(ctx, c.ID, "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ListInSaleOrder", func(t *testing.T) {
		earlier := &domain.SalesTransaction{
			ChallengeID: c.ID,
			Premium:     10,
			SellerID:    42,
			SellerRole:  domain.RoleAgent,
			SaleDate:    saleDate.AddDate(0, 0, -3),
		}
		if err := store.SaveTransaction(ctx, earlier); err != nil {
			t.Fatalf("failed to save transaction: %v", err)
		}
		got, err := store.ListTransactions(ctx, c.ID)
		if err != nil {
			t.Fatalf("failed to list transactions: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("expected 2 transactions, got %d", len(got))
		}
		if got[0].ID != earlier.ID {
			t.Errorf("expected the earlier sale first, got %+v", got[0])
		}
	})

	t.Run("MissingChallengeIDIsRejected", func(t *testing.T) {
		err := store.SaveTransaction(ctx, &domain.SalesTransaction{SellerID: 1})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestNameDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertRegions(ctx, []domain.Region{{ID: 1, Name: "North"}}); err != nil {
		t.Fatalf("failed to upsert regions: %v", err)
	}
	if err := store.UpsertAgencies(ctx, []domain.Agency{{ID: 1, Name: "Agency One", RegionID: 1}}); err != nil {
		t.Fatalf("failed to upsert agencies: %v", err)
	}

	t.Run("UpsertRefreshes", func(t *testing.T) {
		if err := store.UpsertAgencies(ctx, []domain.Agency{{ID: 1, Name: "Agency One Renamed", RegionID: 1}}); err != nil {
			t.Fatalf("failed to upsert again: %v", err)
		}
		agencies, err := store.ListAgencies(ctx)
		if err != nil {
			t.Fatalf("failed to list agencies: %v", err)
		}
		if len(agencies) != 1 || agencies[0].Name != "Agency One Renamed" {
			t.Errorf("expected the upsert to refresh in place, got %+v", agencies)
		}
	})

	t.Run("ListRegions", func(t *testing.T) {
		regions, err := store.ListRegions(ctx)
		if err != nil {
			t.Fatalf("failed to list regions: %v", err)
		}
		if len(regions) != 1 || regions[0].Name != "North" {
			t.Errorf("unexpected regions: %+v", regions)
		}
	})

	t.Run("ZeroIDIsRejected", func(t *testing.T) {
		if err := store.UpsertRegions(ctx, []domain.Region{{Name: "nowhere"}}); !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestEvaluationRuns(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &domain.EvaluationRun{
		ID:          "run-1",
		ChallengeID: "ch-1",
		Role:        domain.RoleAgent,
		Winners: []domain.Winner{
			{UserID: 1, RoleCategory: domain.RoleAgent, Rank: 1, Score: 30, RewardAmount: 100},
		},
		StartedAt:  time.Now().UTC(),
		DurationMs: 12,
	}
	if err := store.SaveEvaluationRun(ctx, run); err != nil {
		t.Fatalf("failed to save run: %v", err)
	}

	t.Run("RoundTrip", func(t *testing.T) {
		got, err := store.GetEvaluationRun(ctx, "ch-1", "run-1")
		if err != nil {
			t.Fatalf("failed to get run: %v", err)
		}
		if got.Role != domain.RoleAgent || got.DurationMs != 12 {
			t.Errorf("unexpected run: %+v", got)
		}
		if len(got.Winners) != 1 || got.Winners[0].RewardAmount != 100 {
			t.Errorf("winners lost in round trip: %+v", got.Winners)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		if _, err := store.GetEvaluationRun(ctx, "ch-1", "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("ScopedToChallenge", func(t *testing.T) {
		if _, err := store.GetEvaluationRun(ctx, "other", "run-1"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected a run to be invisible under another challenge, got %v", err)
		}
	})
}
