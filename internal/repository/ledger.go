package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starboost/starboost/internal/domain"
)

// SaveTransaction stores one immutable sales transaction.
func (s *SQLStore) SaveTransaction(ctx context.Context, tx *domain.SalesTransaction) error {
	if tx.ChallengeID == "" {
		return fmt.Errorf("%w: challengeId is required", domain.ErrInvalidInput)
	}
	if tx.ID == "" {
		tx.ID = uuid.New().String()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sales_transactions (
			id, challenge_id, premium, product, contract_type, transaction_nature,
			seller_id, seller_role, seller_name, agency_id, region_id,
			sale_date, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, s.rebind(query),
		tx.ID, tx.ChallengeID, tx.Premium, tx.Product,
		tx.ContractType, tx.TransactionNature,
		tx.SellerID, string(tx.SellerRole), tx.SellerName,
		tx.AgencyID, tx.RegionID,
		tx.SaleDate, tx.CreatedAt,
	)
	return err
}

// GetTransaction retrieves one transaction of a challenge.
func (s *SQLStore) GetTransaction(ctx context.Context, challengeID, txID string) (*domain.SalesTransaction, error) {
	query := `
		SELECT id, challenge_id, premium, product, contract_type, transaction_nature,
			   seller_id, seller_role, seller_name, agency_id, region_id,
			   sale_date, created_at
		FROM sales_transactions
		WHERE challenge_id = ? AND id = ?
	`

	var tx domain.SalesTransaction
	var role string
	err := s.db.QueryRowContext(ctx, s.rebind(query), challengeID, txID).Scan(
		&tx.ID, &tx.ChallengeID, &tx.Premium, &tx.Product,
		&tx.ContractType, &tx.TransactionNature,
		&tx.SellerID, &role, &tx.SellerName, &tx.AgencyID, &tx.RegionID,
		&tx.SaleDate, &tx.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %s: %w", txID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	tx.SellerRole = domain.Role(role)
	return &tx, nil
}

// ListTransactions returns all transactions of a challenge in sale order.
func (s *SQLStore) ListTransactions(ctx context.Context, challengeID string) ([]domain.SalesTransaction, error) {
	query := `
		SELECT id, challenge_id, premium, product, contract_type, transaction_nature,
			   seller_id, seller_role, seller_name, agency_id, region_id,
			   sale_date, created_at
		FROM sales_transactions
		WHERE challenge_id = ?
		ORDER BY sale_date, id
	`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []domain.SalesTransaction
	for rows.Next() {
		var tx domain.SalesTransaction
		var role string
		if err := rows.Scan(
			&tx.ID, &tx.ChallengeID, &tx.Premium, &tx.Product,
			&tx.ContractType, &tx.TransactionNature,
			&tx.SellerID, &role, &tx.SellerName, &tx.AgencyID, &tx.RegionID,
			&tx.SaleDate, &tx.CreatedAt,
		); err != nil {
			return nil, err
		}
		tx.SellerRole = domain.Role(role)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// EnrollParticipants replaces the enrollment set of a challenge.
func (s *SQLStore) EnrollParticipants(ctx context.Context, challengeID string, participants []domain.Participant) error {
	if challengeID == "" {
		return fmt.Errorf("%w: challengeId is required", domain.ErrInvalidInput)
	}
	for i := range participants {
		if participants[i].UserID == 0 {
			return fmt.Errorf("%w: participant userId is required", domain.ErrInvalidInput)
		}
		if _, ok := domain.ParseRole(string(participants[i].Role)); !ok {
			return fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, participants[i].Role)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(
		`DELETE FROM participants WHERE challenge_id = ?`), challengeID,
	); err != nil {
		return err
	}

	for i := range participants {
		p := &participants[i]
		p.ID = int64(i + 1)
		p.ChallengeID = challengeID
		if p.Status == "" {
			p.Status = domain.ParticipantActive
		}
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO participants (challenge_id, id, user_id, first_name, last_name, role, agency_id, region_id, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			challengeID, p.ID, p.UserID, p.FirstName, p.LastName,
			string(p.Role), p.AgencyID, p.RegionID, string(p.Status),
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ListParticipants returns a challenge's enrollment in stored order.
func (s *SQLStore) ListParticipants(ctx context.Context, challengeID string) ([]domain.Participant, error) {
	query := `
		SELECT id, user_id, first_name, last_name, role, agency_id, region_id, status
		FROM participants
		WHERE challenge_id = ?
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var role, status string
		if err := rows.Scan(&p.ID, &p.UserID, &p.FirstName, &p.LastName, &role, &p.AgencyID, &p.RegionID, &status); err != nil {
			return nil, err
		}
		p.ChallengeID = challengeID
		p.Role = domain.Role(role)
		p.Status = domain.ParticipantStatus(status)
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// UpsertAgencies inserts or refreshes agency display records.
func (s *SQLStore) UpsertAgencies(ctx context.Context, agencies []domain.Agency) error {
	query := `
		INSERT INTO agencies (id, name, region_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			region_id = excluded.region_id
	`
	for _, a := range agencies {
		if a.ID == 0 {
			return fmt.Errorf("%w: agency id is required", domain.ErrInvalidInput)
		}
		if _, err := s.db.ExecContext(ctx, s.rebind(query), a.ID, a.Name, a.RegionID); err != nil {
			return err
		}
	}
	return nil
}

// UpsertRegions inserts or refreshes region display records.
func (s *SQLStore) UpsertRegions(ctx context.Context, regions []domain.Region) error {
	query := `
		INSERT INTO regions (id, name) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`
	for _, r := range regions {
		if r.ID == 0 {
			return fmt.Errorf("%w: region id is required", domain.ErrInvalidInput)
		}
		if _, err := s.db.ExecContext(ctx, s.rebind(query), r.ID, r.Name); err != nil {
			return err
		}
	}
	return nil
}

// ListAgencies returns every known agency.
func (s *SQLStore) ListAgencies(ctx context.Context) ([]domain.Agency, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, region_id FROM agencies ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agencies []domain.Agency
	for rows.Next() {
		var a domain.Agency
		if err := rows.Scan(&a.ID, &a.Name, &a.RegionID); err != nil {
			return nil, err
		}
		agencies = append(agencies, a)
	}
	return agencies, rows.Err()
}

// ListRegions returns every known region.
func (s *SQLStore) ListRegions(ctx context.Context) ([]domain.Region, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM regions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var regions []domain.Region
	for rows.Next() {
		var r domain.Region
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, err
		}
		regions = append(regions, r)
	}
	return regions, rows.Err()
}

// SaveEvaluationRun stores one evaluation run with its winners as JSON.
func (s *SQLStore) SaveEvaluationRun(ctx context.Context, run *domain.EvaluationRun) error {
	winners, err := json.Marshal(run.Winners)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO evaluation_runs (id, challenge_id, role, winners, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = s.db.ExecContext(ctx, s.rebind(query),
		run.ID, run.ChallengeID, string(run.Role), string(winners),
		run.StartedAt, run.DurationMs,
	)
	return err
}

// GetEvaluationRun retrieves one evaluation run of a challenge.
func (s *SQLStore) GetEvaluationRun(ctx context.Context, challengeID, runID string) (*domain.EvaluationRun, error) {
	query := `
		SELECT id, challenge_id, role, winners, started_at, duration_ms
		FROM evaluation_runs
		WHERE challenge_id = ? AND id = ?
	`

	var run domain.EvaluationRun
	var role, winners string
	err := s.db.QueryRowContext(ctx, s.rebind(query), challengeID, runID).Scan(
		&run.ID, &run.ChallengeID, &role, &winners, &run.StartedAt, &run.DurationMs,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("evaluation run %s: %w", runID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	run.Role = domain.Role(role)
	if err := json.Unmarshal([]byte(winners), &run.Winners); err != nil {
		return nil, fmt.Errorf("failed to parse winners for run %s: %w", runID, err)
	}
	return &run, nil
}
