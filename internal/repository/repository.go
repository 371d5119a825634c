// Package repository provides data persistence implementations.
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

// SQLStore implements domain.Store using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// New creates a new store based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLStore, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	store := &SQLStore{
		db:     db,
		driver: cfg.Driver,
	}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *SQLStore) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := s.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

// CreateChallenge stores a challenge and its four rule lists atomically.
// A missing ID is generated; rule IDs are ordinals in stored order.
func (s *SQLStore) CreateChallenge(ctx context.Context, c *domain.Challenge) error {
	if c.Name == "" {
		return fmt.Errorf("%w: challenge name is required", domain.ErrInvalidInput)
	}
	for _, r := range c.ScoreRules {
		if err := r.Validate(); err != nil {
			return err
		}
	}

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	if c.Status == "" {
		c.Status = domain.StatusDraft
	}

	targetRoles, _ := json.Marshal(c.TargetRoles)
	targetProducts, _ := json.Marshal(c.TargetProducts)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO challenges (
			id, name, start_date, end_date, target_roles, target_products,
			status, deleted, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, s.rebind(query),
		c.ID, c.Name, c.StartDate, c.EndDate,
		string(targetRoles), string(targetProducts),
		string(c.Status), c.CreatedAt, c.UpdatedAt,
	); err != nil {
		return err
	}

	for i := range c.FilterRules {
		r := &c.FilterRules[i]
		r.ID = int64(i + 1)
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO filter_rules (challenge_id, id, contract_type, transaction_nature, pack_type)
			 VALUES (?, ?, ?, ?, ?)`),
			c.ID, r.ID, r.ContractType, r.TransactionNature, r.PackType,
		); err != nil {
			return err
		}
	}
	for i := range c.ScoreRules {
		r := &c.ScoreRules[i]
		r.ID = int64(i + 1)
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO score_rules (challenge_id, id, score_type, contract_type, pack_type, points, revenue_unit)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`),
			c.ID, r.ID, string(r.Type), r.ContractType, r.PackType, r.Points, r.RevenueUnit,
		); err != nil {
			return err
		}
	}
	for i := range c.WinningRules {
		r := &c.WinningRules[i]
		r.ID = int64(i + 1)
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO winning_rules (challenge_id, id, role_category, condition_type, threshold_min, weight_formula)
			 VALUES (?, ?, ?, ?, ?, ?)`),
			c.ID, r.ID, string(r.RoleCategory), string(r.ConditionType), r.ThresholdMin, r.WeightFormula,
		); err != nil {
			return err
		}
	}
	for i := range c.RewardRules {
		r := &c.RewardRules[i]
		r.ID = int64(i + 1)
		if _, err := tx.ExecContext(ctx, s.rebind(
			`INSERT INTO reward_rules (challenge_id, id, role_category, payout_type, tier_min, tier_max, base_amount, gift)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			c.ID, r.ID, string(r.RoleCategory), string(r.PayoutType), r.TierMin, r.TierMax, r.BaseAmount, r.Gift,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetChallenge loads a challenge with all four rule lists attached.
// Soft-deleted challenges are treated as absent.
func (s *SQLStore) GetChallenge(ctx context.Context, challengeID string) (*domain.Challenge, error) {
	query := `
		SELECT id, name, start_date, end_date, target_roles, target_products,
			   status, created_at, updated_at
		FROM challenges
		WHERE id = ? AND deleted = 0
	`

	var c domain.Challenge
	var targetRoles, targetProducts, status string

	err := s.db.QueryRowContext(ctx, s.rebind(query), challengeID).Scan(
		&c.ID, &c.Name, &c.StartDate, &c.EndDate,
		&targetRoles, &targetProducts,
		&status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("challenge %s: %w", challengeID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	c.Status = domain.ChallengeStatus(status)
	json.Unmarshal([]byte(targetRoles), &c.TargetRoles)
	if targetProducts != "" {
		json.Unmarshal([]byte(targetProducts), &c.TargetProducts)
	}

	if c.FilterRules, err = s.listFilterRules(ctx, challengeID); err != nil {
		return nil, err
	}
	if c.ScoreRules, err = s.listScoreRules(ctx, challengeID); err != nil {
		return nil, err
	}
	if c.WinningRules, err = s.ListWinningRules(ctx, challengeID); err != nil {
		return nil, err
	}
	if c.RewardRules, err = s.ListRewardRules(ctx, challengeID); err != nil {
		return nil, err
	}

	return &c, nil
}

// DeleteChallenge soft-deletes a challenge; its rules stay in place but the
// challenge no longer loads.
func (s *SQLStore) DeleteChallenge(ctx context.Context, challengeID string) error {
	query := `UPDATE challenges SET deleted = 1, updated_at = ? WHERE id = ? AND deleted = 0`

	result, err := s.db.ExecContext(ctx, s.rebind(query), time.Now().UTC(), challengeID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("challenge %s: %w", challengeID, domain.ErrNotFound)
	}
	return nil
}

func (s *SQLStore) listFilterRules(ctx context.Context, challengeID string) ([]domain.FilterRule, error) {
	query := `
		SELECT id, contract_type, transaction_nature, pack_type
		FROM filter_rules
		WHERE challenge_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.FilterRule
	for rows.Next() {
		var r domain.FilterRule
		if err := rows.Scan(&r.ID, &r.ContractType, &r.TransactionNature, &r.PackType); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

func (s *SQLStore) listScoreRules(ctx context.Context, challengeID string) ([]domain.ScoreRule, error) {
	query := `
		SELECT id, score_type, contract_type, pack_type, points, revenue_unit
		FROM score_rules
		WHERE challenge_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.ScoreRule
	for rows.Next() {
		var r domain.ScoreRule
		var scoreType string
		if err := rows.Scan(&r.ID, &scoreType, &r.ContractType, &r.PackType, &r.Points, &r.RevenueUnit); err != nil {
			return nil, err
		}
		r.Type = domain.ScoreType(scoreType)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ListWinningRules returns a challenge's winning rules in stored order.
func (s *SQLStore) ListWinningRules(ctx context.Context, challengeID string) ([]domain.WinningRule, error) {
	query := `
		SELECT id, role_category, condition_type, threshold_min, weight_formula
		FROM winning_rules
		WHERE challenge_id = ?
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, s.rebind(query), challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.WinningRule
	for rows.Next() {
		var r domain.WinningRule
		var role, cond string
		if err := rows.Scan(&r.ID, &role, &cond, &r.ThresholdMin, &r.WeightFormula); err != nil {
			return nil, err
		}
		r.RoleCategory = domain.Role(role)
		r.ConditionType = domain.ConditionType(cond)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// ListRewardRules returns a challenge's reward rules in stored order.
func (s *SQLStore) ListRewardRules(ctx context.Context, challengeID string) ([]domain.RewardRule, error) {
	return s.listRewardRules(ctx, challengeID, "")
}

// ListRewardRulesByRole returns the reward rules of one role in stored order.
func (s *SQLStore) ListRewardRulesByRole(ctx context.Context, challengeID string, role domain.Role) ([]domain.RewardRule, error) {
	return s.listRewardRules(ctx, challengeID, role)
}

func (s *SQLStore) listRewardRules(ctx context.Context, challengeID string, role domain.Role) ([]domain.RewardRule, error) {
	query := `
		SELECT id, role_category, payout_type, tier_min, tier_max, base_amount, gift
		FROM reward_rules
		WHERE challenge_id = ?
	`
	args := []any{challengeID}
	if role != "" {
		query += ` AND role_category = ?`
		args = append(args, string(role))
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RewardRule
	for rows.Next() {
		var r domain.RewardRule
		var roleCat, payout string
		if err := rows.Scan(&r.ID, &roleCat, &payout, &r.TierMin, &r.TierMax, &r.BaseAmount, &r.Gift); err != nil {
			return nil, err
		}
		r.RoleCategory = domain.Role(roleCat)
		r.PayoutType = domain.PayoutType(payout)
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// Ping checks database connectivity.
func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}

	// Convert ? to $1, $2, etc.
	var result []byte
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			result = append(result, '$')
			result = append(result, fmt.Sprintf("%d", n)...)
			n++
		} else {
			result = append(result, query[i])
		}
	}
	return string(result)
}
