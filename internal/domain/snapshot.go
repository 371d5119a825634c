package domain

// Snapshot is the immutable, fully-loaded view of one challenge that an
// evaluation runs against. It is built with a small number of bulk reads at
// the start of a request; every engine stage computes over it in memory, so
// a rule edit mid-evaluation can never mix old and new state.
type Snapshot struct {
	Challenge    *Challenge
	Participants []Participant
	Transactions []SalesTransaction
	Agencies     map[int64]Agency
	Regions      map[int64]Region
}

// WinningRulesFor returns the winning rules gating the given role.
func (s *Snapshot) WinningRulesFor(role Role) []WinningRule {
	var rules []WinningRule
	for _, r := range s.Challenge.WinningRules {
		if r.RoleCategory == role {
			rules = append(rules, r)
		}
	}
	return rules
}

// RewardRulesFor returns the reward tiers for the given role, in rule order.
func (s *Snapshot) RewardRulesFor(role Role) []RewardRule {
	var rules []RewardRule
	for _, r := range s.Challenge.RewardRules {
		if r.RoleCategory == role {
			rules = append(rules, r)
		}
	}
	return rules
}

// ParticipantsByRole returns the participants enrolled under a role.
func (s *Snapshot) ParticipantsByRole(role Role) []Participant {
	var out []Participant
	for _, p := range s.Participants {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out
}

// Participant returns the enrollment record for a user, if any.
func (s *Snapshot) Participant(userID int64) (Participant, bool) {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p, true
		}
	}
	return Participant{}, false
}

// CommercialCount counts COMMERCIAL participants enrolled under an agency.
func (s *Snapshot) CommercialCount(agencyID int64) int64 {
	var n int64
	for _, p := range s.Participants {
		if p.Role == RoleCommercial && p.AgencyID == agencyID {
			n++
		}
	}
	return n
}

// SalesPointCount counts the sales points of a region: AGENT participants
// in the region plus the agencies located there.
func (s *Snapshot) SalesPointCount(regionID int64) int64 {
	var n int64
	for _, p := range s.Participants {
		if p.Role == RoleAgent && p.RegionID == regionID {
			n++
		}
	}
	for _, a := range s.Agencies {
		if a.RegionID == regionID {
			n++
		}
	}
	return n
}

// AgencyName resolves an agency display name, empty when unknown.
func (s *Snapshot) AgencyName(agencyID int64) string {
	return s.Agencies[agencyID].Name
}

// RegionName resolves a region display name, empty when unknown.
func (s *Snapshot) RegionName(regionID int64) string {
	return s.Regions[regionID].Name
}
