// Package scoring turns raw sales transactions into per-seller scores and
// totals. Everything here is a pure function over loaded data: callers pass
// the transactions, the date window, and the filter rules explicitly, so the
// scoring view (challenge window + filter rules) and the totals view (open
// window, no filters) go through the same code path.
package scoring

import (
	"math"

	"github.com/starboost/starboost/internal/domain"
)

// Totals holds the unscored per-seller aggregates.
type Totals struct {
	Contracts int64
	Revenue   float64
}

// ChallengeScores computes the sellerId -> score map for a snapshot using
// the challenge's date window and filter rules.
//
// A transaction contributes only when it matches at least one filter rule;
// a challenge with no filter rules therefore scores nothing.
func ChallengeScores(snap *domain.Snapshot) map[int64]int {
	return Scores(snap.Transactions, snap.Challenge.ScoreRules,
		snap.Challenge.Window(), snap.Challenge.FilterRules)
}

// Scores computes per-seller scores for the given transactions under an
// explicit window and filter-rule set.
func Scores(txs []domain.SalesTransaction, rules []domain.ScoreRule,
	window domain.DateWindow, filters []domain.FilterRule) map[int64]int {

	scores := make(map[int64]int)
	for i := range txs {
		tx := &txs[i]
		if !window.Contains(tx.SaleDate) {
			continue
		}
		if !matchesAny(filters, tx) {
			continue
		}
		scores[tx.SellerID] += scoreTransaction(tx, rules)
	}
	return scores
}

// SellerTotals aggregates contract count and revenue per seller. A nil
// filter set admits every transaction, which is how the performance totals
// view reads the ledger.
func SellerTotals(txs []domain.SalesTransaction,
	window domain.DateWindow, filters []domain.FilterRule) map[int64]Totals {

	totals := make(map[int64]Totals)
	for i := range txs {
		tx := &txs[i]
		if !window.Contains(tx.SaleDate) {
			continue
		}
		if filters != nil && !matchesAny(filters, tx) {
			continue
		}
		t := totals[tx.SellerID]
		t.Contracts++
		t.Revenue += tx.Premium
		totals[tx.SellerID] = t
	}
	return totals
}

// scoreTransaction sums the contributions of every score rule for one
// transaction.
func scoreTransaction(tx *domain.SalesTransaction, rules []domain.ScoreRule) int {
	score := 0
	for _, r := range rules {
		switch r.Type {
		case domain.ScoreContract:
			if r.ContractType == tx.ContractType {
				score += r.Points
			}
		case domain.ScorePack:
			// Pack-type mapping onto transactions is not specified yet.
			// PACK rules are stored and listed but contribute nothing.
		case domain.ScoreRevenue:
			if r.RevenueUnit > 0 {
				score += int(math.Floor(tx.Premium/float64(r.RevenueUnit))) * r.Points
			}
		}
	}
	return score
}

// matchesAny is the OR over filter rules; an empty set matches nothing.
func matchesAny(filters []domain.FilterRule, tx *domain.SalesTransaction) bool {
	for _, f := range filters {
		if f.Matches(tx) {
			return true
		}
	}
	return false
}
