package domain

import (
	"time"
)

// SalesTransaction is an immutable recorded sale. Transactions are created
// by the sales-recording endpoint and never mutated; the engine only reads
// them.
type SalesTransaction struct {
	ID          string `json:"id"`
	ChallengeID string `json:"challengeId"`

	Premium           float64 `json:"premium"`
	Product           string  `json:"product"`
	ContractType      string  `json:"contractType"`
	TransactionNature string  `json:"transactionNature"`

	SellerID   int64  `json:"sellerId"`
	SellerRole Role   `json:"sellerRole"`
	SellerName string `json:"sellerName,omitempty"`
	AgencyID   int64  `json:"agencyId,omitempty"`
	RegionID   int64  `json:"regionId,omitempty"`

	SaleDate  time.Time `json:"saleDate"`
	CreatedAt time.Time `json:"createdAt"`
}

// TransactionRequest is the API payload for recording a sale.
type TransactionRequest struct {
	Premium           float64   `json:"premium"`
	Product           string    `json:"product"`
	ContractType      string    `json:"contractType"`
	TransactionNature string    `json:"transactionNature"`
	SellerID          int64     `json:"sellerId"`
	SellerRole        string    `json:"sellerRole"`
	SellerName        string    `json:"sellerName,omitempty"`
	AgencyID          int64     `json:"agencyId,omitempty"`
	RegionID          int64     `json:"regionId,omitempty"`
	SaleDate          time.Time `json:"saleDate,omitempty"`
}

// Validate checks the fields the engine depends on.
func (r *TransactionRequest) Validate() error {
	if r.Premium < 0 {
		return fmtInvalid("premium must be non-negative")
	}
	if r.SellerID == 0 {
		return fmtInvalid("sellerId is required")
	}
	if _, ok := ParseRole(r.SellerRole); !ok {
		return fmtInvalid("unknown sellerRole %q", r.SellerRole)
	}
	return nil
}

// ToTransaction converts the request to a SalesTransaction for a challenge.
func (r *TransactionRequest) ToTransaction(challengeID string) *SalesTransaction {
	now := time.Now().UTC()
	saleDate := r.SaleDate
	if saleDate.IsZero() {
		saleDate = now
	}
	role, _ := ParseRole(r.SellerRole)
	return &SalesTransaction{
		ChallengeID:       challengeID,
		Premium:           r.Premium,
		Product:           r.Product,
		ContractType:      r.ContractType,
		TransactionNature: r.TransactionNature,
		SellerID:          r.SellerID,
		SellerRole:        role,
		SellerName:        r.SellerName,
		AgencyID:          r.AgencyID,
		RegionID:          r.RegionID,
		SaleDate:          saleDate,
		CreatedAt:         now,
	}
}
