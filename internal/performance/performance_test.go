package performance

import (
	"testing"
	"time"

	"github.com/starboost/starboost/internal/domain"
)

// leaderboardSnapshot has two agencies in two regions:
//
//	region 1 "North": agency 1 (commercials 101, 102), agent 11
//	region 2 "South": agency 2 (commercial 103), agent 12
func leaderboardSnapshot() *domain.Snapshot {
	start, _ := time.Parse("2006-01-02", "2026-01-01")
	end, _ := time.Parse("2006-01-02", "2026-01-31")

	snap := &domain.Snapshot{
		Challenge: &domain.Challenge{
			ID:          "ch-perf",
			StartDate:   start,
			EndDate:     end,
			FilterRules: []domain.FilterRule{{}},
			ScoreRules: []domain.ScoreRule{
				{Type: domain.ScoreContract, ContractType: "AUTO", Points: 10},
			},
		},
		Participants: []domain.Participant{
			{UserID: 11, Role: domain.RoleAgent, RegionID: 1, FirstName: "Ada"},
			{UserID: 12, Role: domain.RoleAgent, RegionID: 2, FirstName: "Abe"},
			{UserID: 101, Role: domain.RoleCommercial, AgencyID: 1, RegionID: 1, FirstName: "Carl", LastName: "North"},
			{UserID: 102, Role: domain.RoleCommercial, AgencyID: 1, RegionID: 1, FirstName: "Cora"},
			{UserID: 103, Role: domain.RoleCommercial, AgencyID: 2, RegionID: 2, FirstName: "Cleo"},
		},
		Agencies: map[int64]domain.Agency{
			1: {ID: 1, Name: "Agency One", RegionID: 1},
			2: {ID: 2, Name: "Agency Two", RegionID: 2},
		},
		Regions: map[int64]domain.Region{
			1: {ID: 1, Name: "North"},
			2: {ID: 2, Name: "South"},
		},
	}

	sales := map[int64]int{11: 1, 12: 4, 101: 3, 102: 1, 103: 2}
	for seller, n := range sales {
		for i := 0; i < n; i++ {
			snap.Transactions = append(snap.Transactions, domain.SalesTransaction{
				SellerID:     seller,
				Premium:      100,
				ContractType: "AUTO",
				SaleDate:     start.AddDate(0, 0, 3),
			})
		}
	}
	return snap
}

func TestAggregatorTotals(t *testing.T) {
	agg := NewAggregator(leaderboardSnapshot())

	t.Run("PersonalMetrics", func(t *testing.T) {
		if got := agg.Score(101); got != 30 {
			t.Errorf("score(101) = %d, want 30", got)
		}
		if got := agg.ContractCount(101); got != 3 {
			t.Errorf("contracts(101) = %d, want 3", got)
		}
		if got := agg.Revenue(101); got != 300 {
			t.Errorf("revenue(101) = %v, want 300", got)
		}
	})

	t.Run("AgencyTotalsCoverCommercialsOnly", func(t *testing.T) {
		got := agg.AgencyTotals(1)
		// Agent 11 shares the region but not the agency roll-up.
		if got.Contracts != 4 || got.Revenue != 400 || got.Score != 40 {
			t.Errorf("agency 1 totals: got %+v", got)
		}
	})

	t.Run("RegionTotalsCoverAgentsAndCommercials", func(t *testing.T) {
		got := agg.RegionTotals(1)
		if got.Contracts != 5 || got.Revenue != 500 || got.Score != 50 {
			t.Errorf("region 1 totals: got %+v", got)
		}
		got = agg.RegionTotals(2)
		if got.Contracts != 6 || got.Revenue != 600 || got.Score != 60 {
			t.Errorf("region 2 totals: got %+v", got)
		}
	})
}

func TestLeaderboards(t *testing.T) {
	agg := NewAggregator(leaderboardSnapshot())

	t.Run("AgentsRankedByScore", func(t *testing.T) {
		rows := agg.Agents(0, "")
		if len(rows) != 2 {
			t.Fatalf("expected 2 agents, got %d", len(rows))
		}
		if rows[0].UserID != 12 || rows[0].Rank != 1 {
			t.Errorf("expected agent 12 first, got %+v", rows[0])
		}
		if rows[1].UserID != 11 || rows[1].Rank != 2 {
			t.Errorf("expected agent 11 second, got %+v", rows[1])
		}
	})

	t.Run("TiesBreakTowardLowerID", func(t *testing.T) {
		rows := agg.Commercials(0, "")
		if len(rows) != 3 {
			t.Fatalf("expected 3 commercials, got %d", len(rows))
		}
		// 101 (30) > 103 (20) > 102 (10); with equal scores the lower user ID
		// would come first, checked below with a tied pair.
		if rows[0].UserID != 101 || rows[1].UserID != 103 || rows[2].UserID != 102 {
			t.Errorf("unexpected order: %d, %d, %d", rows[0].UserID, rows[1].UserID, rows[2].UserID)
		}

		snap := leaderboardSnapshot()
		// Give 102 one more sale so 102 and 103 tie at 20.
		snap.Transactions = append(snap.Transactions, domain.SalesTransaction{
			SellerID: 102, Premium: 100, ContractType: "AUTO",
			SaleDate: snap.Challenge.StartDate.AddDate(0, 0, 3),
		})
		tied := NewAggregator(snap).Commercials(0, "")
		if tied[1].UserID != 102 || tied[2].UserID != 103 {
			t.Errorf("expected the tie to break toward user 102, got %d then %d",
				tied[1].UserID, tied[2].UserID)
		}
	})

	t.Run("RanksAssignedBeforeFiltering", func(t *testing.T) {
		rows := agg.Commercials(102, "")
		if len(rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(rows))
		}
		// 102 is last overall; the filtered view keeps that position.
		if rows[0].Rank != 3 {
			t.Errorf("expected rank 3 to survive the filter, got %d", rows[0].Rank)
		}
	})

	t.Run("NameFilterIsCaseInsensitive", func(t *testing.T) {
		rows := agg.Commercials(0, "carl")
		if len(rows) != 1 || rows[0].UserID != 101 {
			t.Errorf("expected the name filter to match Carl North, got %+v", rows)
		}
		if rows[0].Name != "Carl North" {
			t.Errorf("expected the display name, got %q", rows[0].Name)
		}
	})

	t.Run("AgencyLeaderboard", func(t *testing.T) {
		rows := agg.Agencies(0, "")
		if len(rows) != 2 {
			t.Fatalf("expected 2 agencies, got %d", len(rows))
		}
		if rows[0].AgencyID != 1 || rows[0].TotalScore != 40 || rows[0].Rank != 1 {
			t.Errorf("expected agency 1 first with 40 points, got %+v", rows[0])
		}
		if rows[0].Name != "Agency One" || rows[0].RegionName != "North" {
			t.Errorf("expected directory names resolved, got %+v", rows[0])
		}
	})

	t.Run("RegionLeaderboard", func(t *testing.T) {
		rows := agg.Regions(0, "")
		if len(rows) != 2 {
			t.Fatalf("expected 2 regions, got %d", len(rows))
		}
		if rows[0].RegionID != 2 || rows[0].TotalScore != 60 {
			t.Errorf("expected region 2 first with 60 points, got %+v", rows[0])
		}
	})

	t.Run("CommercialRowsCarryAgency", func(t *testing.T) {
		rows := agg.Commercials(101, "")
		if len(rows) != 1 {
			t.Fatalf("expected 1 row, got %d", len(rows))
		}
		if rows[0].AgencyID != 1 || rows[0].AgencyName != "Agency One" {
			t.Errorf("expected the agency on the row, got %+v", rows[0])
		}
	})
}
