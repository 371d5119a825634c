package repository

// Schema definitions for the Starboost database.
// Compatible with both SQLite and PostgreSQL, so rule and participant IDs
// are ordinals assigned in Go and scoped to their challenge instead of
// relying on driver-specific auto-increment.

const schemaChallenges = `
CREATE TABLE IF NOT EXISTS challenges (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    target_roles TEXT NOT NULL,
    target_products TEXT,
    status TEXT NOT NULL,
    deleted INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_challenges_status ON challenges(status);
`

const schemaFilterRules = `
CREATE TABLE IF NOT EXISTS filter_rules (
    challenge_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    contract_type TEXT,
    transaction_nature TEXT,
    pack_type TEXT,
    PRIMARY KEY (challenge_id, id)
);
`

const schemaScoreRules = `
CREATE TABLE IF NOT EXISTS score_rules (
    challenge_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    score_type TEXT NOT NULL,
    contract_type TEXT,
    pack_type TEXT,
    points INTEGER NOT NULL,
    revenue_unit INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (challenge_id, id)
);
`

const schemaWinningRules = `
CREATE TABLE IF NOT EXISTS winning_rules (
    challenge_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    role_category TEXT NOT NULL,
    condition_type TEXT NOT NULL,
    threshold_min REAL NOT NULL,
    weight_formula TEXT,
    PRIMARY KEY (challenge_id, id)
);

CREATE INDEX IF NOT EXISTS idx_winning_rules_role ON winning_rules(challenge_id, role_category);
`

const schemaRewardRules = `
CREATE TABLE IF NOT EXISTS reward_rules (
    challenge_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    role_category TEXT NOT NULL,
    payout_type TEXT NOT NULL,
    tier_min REAL NOT NULL,
    tier_max REAL NOT NULL,
    base_amount REAL NOT NULL,
    gift TEXT,
    PRIMARY KEY (challenge_id, id)
);

CREATE INDEX IF NOT EXISTS idx_reward_rules_role ON reward_rules(challenge_id, role_category);
`

const schemaTransactions = `
CREATE TABLE IF NOT EXISTS sales_transactions (
    id TEXT PRIMARY KEY,
    challenge_id TEXT NOT NULL,
    premium REAL NOT NULL,
    product TEXT,
    contract_type TEXT,
    transaction_nature TEXT,
    seller_id INTEGER NOT NULL,
    seller_role TEXT NOT NULL,
    seller_name TEXT,
    agency_id INTEGER NOT NULL DEFAULT 0,
    region_id INTEGER NOT NULL DEFAULT 0,
    sale_date TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_challenge ON sales_transactions(challenge_id);
CREATE INDEX IF NOT EXISTS idx_transactions_seller ON sales_transactions(challenge_id, seller_id);
CREATE INDEX IF NOT EXISTS idx_transactions_sale_date ON sales_transactions(challenge_id, sale_date);
`

const schemaParticipants = `
CREATE TABLE IF NOT EXISTS participants (
    challenge_id TEXT NOT NULL,
    id INTEGER NOT NULL,
    user_id INTEGER NOT NULL,
    first_name TEXT,
    last_name TEXT,
    role TEXT NOT NULL,
    agency_id INTEGER NOT NULL DEFAULT 0,
    region_id INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL,
    PRIMARY KEY (challenge_id, id)
);

CREATE INDEX IF NOT EXISTS idx_participants_role ON participants(challenge_id, role);
CREATE INDEX IF NOT EXISTS idx_participants_user ON participants(challenge_id, user_id);
`

const schemaAgencies = `
CREATE TABLE IF NOT EXISTS agencies (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    region_id INTEGER NOT NULL DEFAULT 0
);
`

const schemaRegions = `
CREATE TABLE IF NOT EXISTS regions (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL
);
`

const schemaEvaluationRuns = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
    id TEXT PRIMARY KEY,
    challenge_id TEXT NOT NULL,
    role TEXT,
    winners TEXT NOT NULL,
    started_at TIMESTAMP NOT NULL,
    duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_evaluation_runs_challenge ON evaluation_runs(challenge_id);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaChallenges,
		schemaFilterRules,
		schemaScoreRules,
		schemaWinningRules,
		schemaRewardRules,
		schemaTransactions,
		schemaParticipants,
		schemaAgencies,
		schemaRegions,
		schemaEvaluationRuns,
	}
}
