// Package domain defines the core types, ports, and configuration for
// Starboost.
package domain

import (
	"context"
	"time"
)

// RuleStore loads a challenge and its rule sets.
type RuleStore interface {
	CreateChallenge(ctx context.Context, challenge *Challenge) error

	// GetChallenge loads a challenge with all four rule lists attached.
	// Soft-deleted challenges are treated as absent.
	GetChallenge(ctx context.Context, challengeID string) (*Challenge, error)

	// DeleteChallenge soft-deletes a challenge and, with it, its rules.
	DeleteChallenge(ctx context.Context, challengeID string) error

	ListWinningRules(ctx context.Context, challengeID string) ([]WinningRule, error)
	ListRewardRules(ctx context.Context, challengeID string) ([]RewardRule, error)
	ListRewardRulesByRole(ctx context.Context, challengeID string, role Role) ([]RewardRule, error)
}

// SalesLedger records and lists the immutable sales transactions.
type SalesLedger interface {
	SaveTransaction(ctx context.Context, tx *SalesTransaction) error
	GetTransaction(ctx context.Context, challengeID, txID string) (*SalesTransaction, error)
	ListTransactions(ctx context.Context, challengeID string) ([]SalesTransaction, error)
}

// ParticipantDirectory manages challenge enrollments. The write side is
// outside the evaluation engine; the engine only lists.
type ParticipantDirectory interface {
	// EnrollParticipants replaces the enrollment set of a challenge.
	EnrollParticipants(ctx context.Context, challengeID string, participants []Participant) error
	ListParticipants(ctx context.Context, challengeID string) ([]Participant, error)
}

// NameDirectory resolves display names for agencies and regions. User names
// travel on participant and transaction records.
type NameDirectory interface {
	UpsertAgencies(ctx context.Context, agencies []Agency) error
	UpsertRegions(ctx context.Context, regions []Region) error
	ListAgencies(ctx context.Context) ([]Agency, error)
	ListRegions(ctx context.Context) ([]Region, error)
}

// Store is the full persistence surface backing the service.
type Store interface {
	RuleStore
	SalesLedger
	ParticipantDirectory
	NameDirectory

	SaveEvaluationRun(ctx context.Context, run *EvaluationRun) error
	GetEvaluationRun(ctx context.Context, challengeID, runID string) (*EvaluationRun, error)

	Ping(ctx context.Context) error
	Close() error
}

// RepositoryConfig holds configuration for store initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite" or "postgres"
	Driver string

	// SQLite specific
	SQLitePath string

	// PostgreSQL specific
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Connection pool settings
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}
