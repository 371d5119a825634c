// Package eligibility applies winning rules to role candidates. A winning
// rule is one gate (minimum contracts, minimum revenue, or a flat/weighted
// average threshold); multiple rules for a role are conjunctive, and gates
// whose inputs cannot be computed fail closed.
package eligibility

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"

	"github.com/starboost/starboost/internal/domain"
	"github.com/starboost/starboost/internal/performance"
)

// Candidate is one participant measured against a role's winning rules.
// For team roles the metrics are the aggregate of the managed agency or
// region, not the participant's own sales.
type Candidate struct {
	UserID    int64
	FirstName string
	LastName  string
	AgencyID  int64
	RegionID  int64

	ContractCount int64
	Revenue       float64
	Score         int

	// Filled while gating; nil when no rule needed the value.
	Average         *float64
	WeightedAverage *float64
}

// Evaluator gates candidates for one snapshot. Weight formulas are compiled
// once per distinct expression and reused across candidates.
type Evaluator struct {
	snap     *domain.Snapshot
	agg      *performance.Aggregator
	env      *cel.Env
	programs map[string]cel.Program
}

// NewEvaluator builds the evaluator for a snapshot.
func NewEvaluator(snap *domain.Snapshot, agg *performance.Aggregator) (*Evaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("n", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Evaluator{
		snap:     snap,
		agg:      agg,
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Candidates assembles the measurable candidates for a role. Team metrics
// substitute for personal ones only when the role is actually gated; with no
// winning rules every candidate keeps their own totals. Gated team-role
// participants with no agency (or region) to manage have no metrics and are
// dropped here rather than scored as zero.
func (e *Evaluator) Candidates(role domain.Role, rules []domain.WinningRule) []Candidate {
	var out []Candidate
	for _, p := range e.snap.ParticipantsByRole(role) {
		c := Candidate{
			UserID:    p.UserID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			AgencyID:  p.AgencyID,
			RegionID:  p.RegionID,
		}
		if len(rules) == 0 {
			c.ContractCount = e.agg.ContractCount(p.UserID)
			c.Revenue = e.agg.Revenue(p.UserID)
			c.Score = e.agg.Score(p.UserID)
			out = append(out, c)
			continue
		}
		switch role {
		case domain.RoleAgencyManager:
			if p.AgencyID == 0 {
				continue
			}
			t := e.agg.AgencyTotals(p.AgencyID)
			c.ContractCount, c.Revenue, c.Score = t.Contracts, t.Revenue, t.Score
		case domain.RoleRegionalManager, domain.RoleAnimator:
			if p.RegionID == 0 {
				continue
			}
			t := e.agg.RegionTotals(p.RegionID)
			c.ContractCount, c.Revenue, c.Score = t.Contracts, t.Revenue, t.Score
		default:
			c.ContractCount = e.agg.ContractCount(p.UserID)
			c.Revenue = e.agg.Revenue(p.UserID)
			c.Score = e.agg.Score(p.UserID)
		}
		out = append(out, c)
	}
	return out
}

// Eligible returns the candidates that pass every winning rule, with the
// averages computed along the way filled in. Rules are applied in stored
// order, so when two rules derive the same field the later one's value is
// what the output carries.
func (e *Evaluator) Eligible(role domain.Role, rules []domain.WinningRule) ([]Candidate, error) {
	candidates := e.Candidates(role, rules)
	var eligible []Candidate
	for i := range candidates {
		c := &candidates[i]
		pass := true
		for _, r := range rules {
			ok, err := e.applyGate(c, r)
			if err != nil {
				return nil, err
			}
			if !ok {
				pass = false
				break
			}
		}
		if pass {
			eligible = append(eligible, *c)
		}
	}
	return eligible, nil
}

// applyGate checks one winning rule against a candidate, filling the
// candidate's derived average when the rule computes one. Flat averages
// divide the team's total revenue by its size; weighted averages divide the
// team's total score. Both read the candidate's agency or region directly,
// whatever the candidate's own role. A gate whose divisor is zero fails, as
// does a condition type the engine does not know.
func (e *Evaluator) applyGate(c *Candidate, r domain.WinningRule) (bool, error) {
	switch r.ConditionType {
	case domain.MinContracts:
		return float64(c.ContractCount) >= r.ThresholdMin, nil

	case domain.MinRevenue:
		return c.Revenue >= r.ThresholdMin, nil

	case domain.MinAvgPerCommercial:
		n := e.snap.CommercialCount(c.AgencyID)
		if n == 0 {
			return false, nil
		}
		avg := e.agg.AgencyTotals(c.AgencyID).Revenue / float64(n)
		c.Average = &avg
		return avg >= r.ThresholdMin, nil

	case domain.MinAvgPerPV:
		n := e.snap.SalesPointCount(c.RegionID)
		if n == 0 {
			return false, nil
		}
		avg := e.agg.RegionTotals(c.RegionID).Revenue / float64(n)
		c.Average = &avg
		return avg >= r.ThresholdMin, nil

	case domain.WeightedAvgAgency:
		n := e.snap.CommercialCount(c.AgencyID)
		if n == 0 {
			return false, nil
		}
		w, err := e.weight(r, n, agencyStepWeight)
		if err != nil {
			return false, err
		}
		wavg := float64(e.agg.AgencyTotals(c.AgencyID).Score) / float64(n) * w
		c.WeightedAverage = &wavg
		return wavg >= r.ThresholdMin, nil

	case domain.WeightedAvgRegion:
		n := e.snap.SalesPointCount(c.RegionID)
		if n == 0 {
			return false, nil
		}
		w, err := e.weight(r, n, regionStepWeight)
		if err != nil {
			return false, err
		}
		wavg := float64(e.agg.RegionTotals(c.RegionID).Score) / float64(n) * w
		c.WeightedAverage = &wavg
		return wavg >= r.ThresholdMin, nil
	}

	// Unknown condition types reject rather than silently pass.
	return false, nil
}

// weight resolves the team-size weight for a weighted-average gate: the
// rule's formula when it has one, the built-in step function otherwise.
func (e *Evaluator) weight(r domain.WinningRule, n int64, step func(int64) float64) (float64, error) {
	if r.WeightFormula == "" {
		return step(n), nil
	}
	prog, err := e.compileFormula(r.WeightFormula)
	if err != nil {
		return 0, err
	}
	out, _, err := prog.Eval(map[string]any{"n": n})
	if err != nil {
		return 0, fmt.Errorf("%w: weight formula %q: %v", domain.ErrInvalidRule, r.WeightFormula, err)
	}
	return toWeight(out), nil
}

func (e *Evaluator) compileFormula(expr string) (cel.Program, error) {
	if prog, ok := e.programs[expr]; ok {
		return prog, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: weight formula %q: %v", domain.ErrInvalidRule, expr, issues.Err())
	}
	if t := ast.OutputType(); t != cel.DoubleType && t != cel.IntType {
		return nil, fmt.Errorf("%w: weight formula %q must return int or double, got %s", domain.ErrInvalidRule, expr, t)
	}
	prog, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: weight formula %q: %v", domain.ErrInvalidRule, expr, err)
	}

	e.programs[expr] = prog
	return prog, nil
}

// toWeight converts a CEL value to a numeric weight.
func toWeight(val ref.Val) float64 {
	switch v := val.(type) {
	case types.Double:
		return float64(v)
	case types.Int:
		return float64(v)
	default:
		return 0.0
	}
}

// agencyStepWeight is the built-in weight for agency teams by commercial
// count.
func agencyStepWeight(n int64) float64 {
	switch {
	case n >= 3:
		return 2.0
	case n == 2:
		return 1.5
	default:
		return 1.0
	}
}

// regionStepWeight is the built-in weight for regions by sales-point count.
func regionStepWeight(n int64) float64 {
	switch {
	case n >= 26:
		return 2.0
	case n >= 16:
		return 1.5
	default:
		return 1.0
	}
}
