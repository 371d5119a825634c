package domain

import (
	"time"
)

// Winner is one ranked, paid entry in a role's evaluation output.
type Winner struct {
	UserID       int64  `json:"userId"`
	FirstName    string `json:"firstName,omitempty"`
	LastName     string `json:"lastName,omitempty"`
	RoleCategory Role   `json:"roleCategory"`
	Rank         int    `json:"rank"`

	AgencyID   int64  `json:"agencyId,omitempty"`
	AgencyName string `json:"agencyName,omitempty"`
	RegionID   int64  `json:"regionId,omitempty"`
	RegionName string `json:"regionName,omitempty"`

	// Raw metrics. For AGENCY_MANAGER, REGIONAL_MANAGER, and ANIMATOR these
	// are the role's aggregate totals, not personal ones.
	ContractCount int64   `json:"contractCount"`
	Revenue       float64 `json:"revenue"`
	Score         int     `json:"score"`

	// Averages used for gating/ranking; zero when not computed.
	Average         float64 `json:"average"`
	WeightedAverage float64 `json:"weightedAverage"`

	UnitCount    int64   `json:"unitCount"`
	RewardAmount float64 `json:"rewardAmount"`
	GiftAwarded  bool    `json:"giftAwarded,omitempty"`
	Gift         string  `json:"gift,omitempty"`
}

// EvaluationRun is the persisted record of one evaluation request.
type EvaluationRun struct {
	ID          string    `json:"id"`
	ChallengeID string    `json:"challengeId"`
	Role        Role      `json:"role,omitempty"` // empty = all roles
	Winners     []Winner  `json:"winners"`
	StartedAt   time.Time `json:"startedAt"`
	DurationMs  int64     `json:"durationMs"`
}

// PerformanceRow is one entry of a ranked leaderboard view. Depending on the
// view it describes a participant, an agency, or a region.
type PerformanceRow struct {
	ChallengeID string `json:"challengeId"`
	UserID      int64  `json:"userId,omitempty"`
	Name        string `json:"name,omitempty"`
	Role        Role   `json:"role,omitempty"`
	AgencyID    int64  `json:"agencyId,omitempty"`
	AgencyName  string `json:"agencyName,omitempty"`
	RegionID    int64  `json:"regionId,omitempty"`
	RegionName  string `json:"regionName,omitempty"`

	TotalContracts int64   `json:"totalContracts"`
	TotalRevenue   float64 `json:"totalRevenue"`
	TotalScore     int     `json:"totalScore"`
	Rank           int     `json:"rank"`
}
