// Package performance aggregates raw metrics (contract count, revenue,
// score) per user and rolls them up to agency and region totals, and builds
// the ranked leaderboard views.
package performance

import (
	"sort"
	"strings"

	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/scoring"
)

// EntityTotals is the rolled-up metric set of an agency or region.
type EntityTotals struct {
	Contracts int64
	Revenue   float64
	Score     int
}

// Aggregator computes every metric of one snapshot exactly once and answers
// lookups from memory. Contract counts and revenue use the full ledger
// (open window, no filters); scores use the challenge's scoring rules.
type Aggregator struct {
	snap   *domain.Snapshot
	scores map[int64]int
	totals map[int64]scoring.Totals
}

// NewAggregator builds the aggregator for a snapshot.
func NewAggregator(snap *domain.Snapshot) *Aggregator {
	return &Aggregator{
		snap:   snap,
		scores: scoring.ChallengeScores(snap),
		totals: scoring.SellerTotals(snap.Transactions, domain.OpenWindow, nil),
	}
}

// ContractCount returns a user's own contract count.
func (a *Aggregator) ContractCount(userID int64) int64 {
	return a.totals[userID].Contracts
}

// Revenue returns a user's own summed premium.
func (a *Aggregator) Revenue(userID int64) float64 {
	return a.totals[userID].Revenue
}

// Score returns a user's challenge score.
func (a *Aggregator) Score(userID int64) int {
	return a.scores[userID]
}

// AgencyTotals sums metrics over the COMMERCIAL participants of an agency.
func (a *Aggregator) AgencyTotals(agencyID int64) EntityTotals {
	var t EntityTotals
	for _, p := range a.snap.Participants {
		if p.Role != domain.RoleCommercial || p.AgencyID != agencyID {
			continue
		}
		t.Contracts += a.totals[p.UserID].Contracts
		t.Revenue += a.totals[p.UserID].Revenue
		t.Score += a.scores[p.UserID]
	}
	return t
}

// RegionTotals sums metrics over the AGENT and COMMERCIAL participants of a
// region.
func (a *Aggregator) RegionTotals(regionID int64) EntityTotals {
	var t EntityTotals
	for _, p := range a.snap.Participants {
		if p.Role != domain.RoleAgent && p.Role != domain.RoleCommercial {
			continue
		}
		if p.RegionID != regionID {
			continue
		}
		t.Contracts += a.totals[p.UserID].Contracts
		t.Revenue += a.totals[p.UserID].Revenue
		t.Score += a.scores[p.UserID]
	}
	return t
}

// Agents returns the ranked leaderboard of AGENT participants.
func (a *Aggregator) Agents(filterID int64, filterName string) []domain.PerformanceRow {
	return a.participantRows(domain.RoleAgent, filterID, filterName)
}

// Commercials returns the ranked leaderboard of COMMERCIAL participants.
func (a *Aggregator) Commercials(filterID int64, filterName string) []domain.PerformanceRow {
	return a.participantRows(domain.RoleCommercial, filterID, filterName)
}

// Agencies returns the ranked leaderboard of agencies that have at least one
// enrolled commercial.
func (a *Aggregator) Agencies(filterID int64, filterName string) []domain.PerformanceRow {
	seen := make(map[int64]bool)
	var rows []domain.PerformanceRow
	for _, p := range a.snap.Participants {
		if p.Role != domain.RoleCommercial || p.AgencyID == 0 || seen[p.AgencyID] {
			continue
		}
		seen[p.AgencyID] = true

		agency := a.snap.Agencies[p.AgencyID]
		t := a.AgencyTotals(p.AgencyID)
		rows = append(rows, domain.PerformanceRow{
			ChallengeID:    a.snap.Challenge.ID,
			Name:           agency.Name,
			AgencyID:       p.AgencyID,
			RegionID:       agency.RegionID,
			RegionName:     a.snap.RegionName(agency.RegionID),
			TotalContracts: t.Contracts,
			TotalRevenue:   t.Revenue,
			TotalScore:     t.Score,
		})
	}
	return finalize(rows, func(r domain.PerformanceRow) int64 { return r.AgencyID }, filterID, filterName)
}

// Regions returns the ranked leaderboard of regions that have at least one
// enrolled agent or commercial.
func (a *Aggregator) Regions(filterID int64, filterName string) []domain.PerformanceRow {
	seen := make(map[int64]bool)
	var rows []domain.PerformanceRow
	for _, p := range a.snap.Participants {
		if p.Role != domain.RoleAgent && p.Role != domain.RoleCommercial {
			continue
		}
		if p.RegionID == 0 || seen[p.RegionID] {
			continue
		}
		seen[p.RegionID] = true

		t := a.RegionTotals(p.RegionID)
		rows = append(rows, domain.PerformanceRow{
			ChallengeID:    a.snap.Challenge.ID,
			Name:           a.snap.RegionName(p.RegionID),
			RegionID:       p.RegionID,
			RegionName:     a.snap.RegionName(p.RegionID),
			TotalContracts: t.Contracts,
			TotalRevenue:   t.Revenue,
			TotalScore:     t.Score,
		})
	}
	return finalize(rows, func(r domain.PerformanceRow) int64 { return r.RegionID }, filterID, filterName)
}

func (a *Aggregator) participantRows(role domain.Role, filterID int64, filterName string) []domain.PerformanceRow {
	var rows []domain.PerformanceRow
	for _, p := range a.snap.ParticipantsByRole(role) {
		row := domain.PerformanceRow{
			ChallengeID:    a.snap.Challenge.ID,
			UserID:         p.UserID,
			Name:           p.Name(),
			Role:           p.Role,
			RegionID:       p.RegionID,
			RegionName:     a.snap.RegionName(p.RegionID),
			TotalContracts: a.ContractCount(p.UserID),
			TotalRevenue:   a.Revenue(p.UserID),
			TotalScore:     a.Score(p.UserID),
		}
		if p.Role == domain.RoleCommercial && p.AgencyID != 0 {
			row.AgencyID = p.AgencyID
			row.AgencyName = a.snap.AgencyName(p.AgencyID)
		}
		rows = append(rows, row)
	}
	return finalize(rows, func(r domain.PerformanceRow) int64 { return r.UserID }, filterID, filterName)
}

// finalize ranks rows by descending total score (ties broken by ascending
// entity id so ranking is reproducible), then applies the optional id and
// case-insensitive substring name filters. Ranks are assigned before
// filtering so a filtered view keeps each row's overall position.
func finalize(rows []domain.PerformanceRow, id func(domain.PerformanceRow) int64,
	filterID int64, filterName string) []domain.PerformanceRow {

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalScore != rows[j].TotalScore {
			return rows[i].TotalScore > rows[j].TotalScore
		}
		return id(rows[i]) < id(rows[j])
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}

	if filterID != 0 {
		filtered := rows[:0:0]
		for _, r := range rows {
			if id(r) == filterID {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	if filterName != "" {
		low := strings.ToLower(filterName)
		filtered := rows[:0:0]
		for _, r := range rows {
			if strings.Contains(strings.ToLower(r.Name), low) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}
	return rows
}
