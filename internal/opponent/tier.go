package opponent

import (
	"fmt"
	"strings"

	"github.com/kapu/chessdesk/internal/uci"
)

// Tier is a named difficulty level. The set is closed; each tier binds to
// a move-selection policy through the Table, not through branch logic.
type Tier int

const (
	TierEasy Tier = iota
	TierMedium
	TierHard
)

func (t Tier) String() string {
	switch t {
	case TierEasy:
		return "easy"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return TierEasy, nil
	case "medium":
		return TierMedium, nil
	case "hard":
		return TierHard, nil
	default:
		return TierEasy, fmt.Errorf("unknown difficulty tier %q", s)
	}
}

// BudgetKind discriminates the search constraint passed to the engine.
type BudgetKind int

const (
	BudgetDepth BudgetKind = iota
	BudgetMoveTime
)

func (k BudgetKind) String() string {
	if k == BudgetMoveTime {
		return "movetime"
	}
	return "depth"
}

func ParseBudgetKind(s string) (BudgetKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "depth":
		return BudgetDepth, nil
	case "movetime", "time":
		return BudgetMoveTime, nil
	default:
		return BudgetDepth, fmt.Errorf("unknown budget kind %q", s)
	}
}

// Budget is a tagged search constraint: a ply depth or a wall-clock move
// time in milliseconds.
type Budget struct {
	Kind  BudgetKind
	Value int
}

func (b Budget) Limits() uci.Limits {
	if b.Kind == BudgetMoveTime {
		return uci.Limits{MoveTimeMillis: b.Value}
	}
	return uci.Limits{Depth: b.Value}
}

func (b Budget) String() string {
	return fmt.Sprintf("%s=%d", b.Kind, b.Value)
}

// Policy is what a tier resolves to: either a uniform-random pick over the
// legal-move set, or an engine query at the given budget.
type Policy struct {
	Random bool
	Budget Budget
}

// Table maps every tier to its policy. Tier-to-budget bindings are
// configuration; DefaultTable carries the stock mapping:
//
//	easy   random legal move
//	medium engine, depth 10
//	hard   engine, depth 20
type Table struct {
	policies map[Tier]Policy
}

func DefaultTable() *Table {
	return &Table{policies: map[Tier]Policy{
		TierEasy:   {Random: true},
		TierMedium: {Budget: Budget{Kind: BudgetDepth, Value: 10}},
		TierHard:   {Budget: Budget{Kind: BudgetDepth, Value: 20}},
	}}
}

// Set overrides the policy for one tier.
func (t *Table) Set(tier Tier, p Policy) error {
	if _, ok := t.policies[tier]; !ok {
		return fmt.Errorf("unknown tier %s", tier)
	}
	if !p.Random && p.Budget.Value <= 0 {
		return fmt.Errorf("tier %s: engine policy requires a positive budget", tier)
	}
	t.policies[tier] = p
	return nil
}

func (t *Table) Policy(tier Tier) (Policy, error) {
	p, ok := t.policies[tier]
	if !ok {
		return Policy{}, fmt.Errorf("unknown tier %s", tier)
	}
	return p, nil
}

// Validate enforces that engine budgets of the same kind never shrink as
// the tier rises.
func (t *Table) Validate() error {
	order := []Tier{TierEasy, TierMedium, TierHard}
	var prev *Policy
	for _, tier := range order {
		p, ok := t.policies[tier]
		if !ok {
			return fmt.Errorf("tier %s has no policy", tier)
		}
		if prev != nil && !prev.Random && !p.Random &&
			prev.Budget.Kind == p.Budget.Kind && p.Budget.Value < prev.Budget.Value {
			return fmt.Errorf("tier %s budget %s is weaker than the tier below", tier, p.Budget)
		}
		cur := p
		prev = &cur
	}
	return nil
}
