package promotion

import (
	"errors"
	"fmt"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
)

// ErrUnknownMode is returned when a calculation mode name is not recognised.
var ErrUnknownMode = errors.New("unknown calculation mode")

// Mode names a rule-interaction policy.
type Mode string

const (
	// ModeIndependent evaluates every rule against the untouched cart.
	ModeIndependent Mode = "independent"
	// ModeSequential stacks rules, each one seeing prices lowered by the previous.
	ModeSequential Mode = "sequential"
	// ModeLock lets the first discount-bearing rule claim its items exclusively.
	ModeLock Mode = "lock"
)

// Modes lists every supported mode in presentation order.
func Modes() []Mode {
	return []Mode{ModeIndependent, ModeSequential, ModeLock}
}

// ParseMode converts a mode name into a Mode. Names must match exactly.
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeIndependent:
		return ModeIndependent, nil
	case ModeSequential:
		return ModeSequential, nil
	case ModeLock:
		return ModeLock, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, name)
	}
}

// Outcome classifies what happened to a rule during a calculation.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeNotMet  Outcome = "not_met"
	// OutcomeSkipped is used in lock mode when no unclaimed eligible item is left.
	OutcomeSkipped Outcome = "skipped"
)

// RuleOutcome is the audit record of one rule in one calculation.
type RuleOutcome struct {
	Rule        string        `json:"rule"`
	Priority    int           `json:"priority"`
	Outcome     Outcome       `json:"outcome"`
	Discount    pricing.Money `json:"discount"`
	Description string        `json:"description,omitempty"`
	Indexes     []int         `json:"indexes,omitempty"`
}

// Summary is the result of one calculation pass.
type Summary struct {
	Mode        Mode              `json:"mode"`
	Original    pricing.Money     `json:"original"`
	Discount    pricing.Money     `json:"discount"`
	Final       pricing.Money     `json:"final"`
	Details     []string          `json:"details"`
	Items       []cart.Item       `json:"items,omitempty"`
	Allocations []cart.Allocation `json:"allocations,omitempty"`
	Outcomes    []RuleOutcome     `json:"outcomes"`
}

// Calculator applies a rule set to a cart under one mode.
type Calculator interface {
	Mode() Mode
	Calculate(c *cart.Cart, u User, rules []Rule) Summary
}

// NewCalculator returns the calculator implementing mode.
func NewCalculator(mode Mode) (Calculator, error) {
	switch mode {
	case ModeIndependent:
		return IndependentCalculator{}, nil
	case ModeSequential:
		return SequentialCalculator{}, nil
	case ModeLock:
		return LockCalculator{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, string(mode))
	}
}

// tally accumulates fired rules into a summary.
type tally struct {
	summary Summary
}

func newTally(mode Mode, rules int) *tally {
	return &tally{summary: Summary{
		Mode:     mode,
		Details:  []string{},
		Outcomes: make([]RuleOutcome, 0, rules),
	}}
}

func (t *tally) applied(rule Rule, res Result, indexes []int) {
	t.summary.Discount = pricing.RoundCents(t.summary.Discount + res.Discount)
	t.summary.Details = append(t.summary.Details, detailLine(res))
	t.summary.Outcomes = append(t.summary.Outcomes, RuleOutcome{
		Rule:        rule.Name(),
		Priority:    rule.Priority(),
		Outcome:     OutcomeApplied,
		Discount:    res.Discount,
		Description: res.Description,
		Indexes:     indexes,
	})
}

func (t *tally) notMet(rule Rule, res Result) {
	t.summary.Outcomes = append(t.summary.Outcomes, RuleOutcome{
		Rule:        rule.Name(),
		Priority:    rule.Priority(),
		Outcome:     OutcomeNotMet,
		Description: res.Description,
	})
}

func (t *tally) skipped(rule Rule, claimed bool) {
	description := "no eligible items"
	if claimed {
		description = "all eligible items already claimed"
	}
	t.summary.Outcomes = append(t.summary.Outcomes, RuleOutcome{
		Rule:        rule.Name(),
		Priority:    rule.Priority(),
		Outcome:     OutcomeSkipped,
		Description: description,
	})
}

func (t *tally) allocated(allocs []cart.Allocation) {
	t.summary.Allocations = append(t.summary.Allocations, allocs...)
}

func (t *tally) finish(original pricing.Money) Summary {
	t.summary.Original = pricing.RoundCents(original)
	t.summary.Final = pricing.NonNegative(pricing.RoundCents(t.summary.Original - t.summary.Discount))
	return t.summary
}

func detailLine(res Result) string {
	return fmt.Sprintf("%s (-%s)", res.Description, pricing.Format(res.Discount))
}
