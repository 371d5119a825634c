package domain

// ParticipantStatus is the enrollment state of a participant.
type ParticipantStatus string

const (
	ParticipantActive   ParticipantStatus = "ACTIVE"
	ParticipantInactive ParticipantStatus = "INACTIVE"
)

// Participant is one user's membership in a challenge under a role.
// Enrollment happens outside the engine; the engine reads these records.
type Participant struct {
	ID          int64             `json:"id,omitempty"`
	ChallengeID string            `json:"challengeId"`
	UserID      int64             `json:"userId"`
	FirstName   string            `json:"firstName,omitempty"`
	LastName    string            `json:"lastName,omitempty"`
	Role        Role              `json:"role"`
	AgencyID    int64             `json:"agencyId,omitempty"`
	RegionID    int64             `json:"regionId,omitempty"`
	Status      ParticipantStatus `json:"status"`
}

// Name returns the participant's display name.
func (p *Participant) Name() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Agency is a sales point grouping commercials inside a region.
type Agency struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RegionID int64  `json:"regionId"`
}

// Region is the top-level sales territory.
type Region struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EnrollmentRequest is the API payload for (re-)enrolling participants.
// Agency and region entries piggyback on the enrollment so display names
// reach the directory without a separate CRUD surface.
type EnrollmentRequest struct {
	Participants []Participant `json:"participants"`
	Agencies     []Agency      `json:"agencies,omitempty"`
	Regions      []Region      `json:"regions,omitempty"`
}
