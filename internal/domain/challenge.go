package domain

import (
	"time"
)

// Role is a participant category scored and rewarded independently.
type Role string

const (
	RoleAgent           Role = "AGENT"
	RoleCommercial      Role = "COMMERCIAL"
	RoleAgencyManager   Role = "AGENCY_MANAGER"
	RoleRegionalManager Role = "REGIONAL_MANAGER"
	RoleAnimator        Role = "ANIMATOR"
)

// AllRoles returns every role in evaluation order.
func AllRoles() []Role {
	return []Role{RoleAgent, RoleCommercial, RoleAgencyManager, RoleRegionalManager, RoleAnimator}
}

// ParseRole validates a role string received over the API.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAgent, RoleCommercial, RoleAgencyManager, RoleRegionalManager, RoleAnimator:
		return Role(s), true
	}
	return "", false
}

// TeamRole reports whether candidates of this role are measured on
// aggregated agency/region metrics instead of their personal ones.
func (r Role) TeamRole() bool {
	return r == RoleAgencyManager || r == RoleRegionalManager || r == RoleAnimator
}

// ChallengeStatus is the lifecycle state of a challenge.
type ChallengeStatus string

const (
	StatusDraft   ChallengeStatus = "DRAFT"
	StatusOngoing ChallengeStatus = "ONGOING"
	StatusClosed  ChallengeStatus = "CLOSED"
)

// Challenge is a time-boxed sales competition. It owns its rule lists:
// deleting a challenge deletes the rules with it.
type Challenge struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"startDate"` // civil date, window start (inclusive)
	EndDate   time.Time `json:"endDate"`   // civil date, window end (inclusive)

	TargetRoles    []Role   `json:"targetRoles"`
	TargetProducts []string `json:"targetProducts"`

	FilterRules  []FilterRule  `json:"filterRules"`
	ScoreRules   []ScoreRule   `json:"scoreRules"`
	WinningRules []WinningRule `json:"winningRules"`
	RewardRules  []RewardRule  `json:"rewardRules"`

	Status  ChallengeStatus `json:"status"`
	Deleted bool            `json:"deleted"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Window returns the scoring window [start of StartDate, day after EndDate).
func (c *Challenge) Window() DateWindow {
	start := c.StartDate.Truncate(24 * time.Hour)
	end := c.EndDate.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	return DateWindow{Start: start, End: end}
}

// DateWindow is a half-open time interval [Start, End).
// The zero value is the open window that contains every instant.
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// OpenWindow matches every transaction regardless of sale date.
var OpenWindow = DateWindow{}

// Contains reports whether t lies inside the window.
func (w DateWindow) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !t.Before(w.End) {
		return false
	}
	return true
}

// FilterRule is a challenge-level transaction filter. An empty field is a
// wildcard. A transaction is scorable if it matches at least one of the
// challenge's filter rules (all non-empty fields of that rule must match).
type FilterRule struct {
	ID                int64  `json:"id,omitempty"`
	ContractType      string `json:"contractType,omitempty"`
	TransactionNature string `json:"transactionNature,omitempty"`
	PackType          string `json:"packType,omitempty"`
}

// Matches reports whether tx satisfies this filter rule.
func (f FilterRule) Matches(tx *SalesTransaction) bool {
	if f.ContractType != "" && f.ContractType != tx.ContractType {
		return false
	}
	if f.TransactionNature != "" && f.TransactionNature != tx.TransactionNature {
		return false
	}
	// Pack-type mapping onto transactions is not defined yet; a rule that
	// pins a pack type can therefore never match on that field.
	return f.PackType == ""
}

// ScoreType selects the dimension a ScoreRule awards points on.
type ScoreType string

const (
	ScoreContract ScoreType = "CONTRACT"
	ScorePack     ScoreType = "PACK"
	ScoreRevenue  ScoreType = "REVENUE"
)

// ScoreRule awards points for matching transactions.
//
// PACK is accepted but deliberately inert: the pack-type mapping onto
// transactions is unresolved, so PACK rules validate and persist but always
// contribute zero until that mapping lands.
type ScoreRule struct {
	ID           int64     `json:"id,omitempty"`
	Type         ScoreType `json:"scoreType"`
	ContractType string    `json:"contractType,omitempty"` // CONTRACT rules
	PackType     string    `json:"packType,omitempty"`     // PACK rules
	Points       int       `json:"points"`
	RevenueUnit  int       `json:"revenueUnit,omitempty"` // REVENUE divisor, must be > 0
}

// Validate rejects rules the engine cannot score.
func (r ScoreRule) Validate() error {
	switch r.Type {
	case ScoreContract:
		if r.ContractType == "" {
			return fmtInvalid("CONTRACT score rule requires contractType")
		}
	case ScorePack:
		if r.PackType == "" {
			return fmtInvalid("PACK score rule requires packType")
		}
	case ScoreRevenue:
		if r.RevenueUnit <= 0 {
			return fmtInvalid("REVENUE score rule requires revenueUnit > 0")
		}
	default:
		return fmtInvalid("unknown score type %q", string(r.Type))
	}
	return nil
}
