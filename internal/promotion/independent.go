package promotion

import (
	"github.com/noah-isme/promo-engine/internal/cart"
)

// IndependentCalculator evaluates each rule as if it were the only one.
//
// The cart is never mutated, so discounts from unrelated rules may overlap on
// the same items and simply add up.
type IndependentCalculator struct{}

// Mode implements Calculator.
func (IndependentCalculator) Mode() Mode { return ModeIndependent }

// Calculate implements Calculator.
func (IndependentCalculator) Calculate(c *cart.Cart, u User, rules []Rule) Summary {
	t := newTally(ModeIndependent, len(rules))
	for _, rule := range SortByPriority(rules) {
		res := rule.Apply(c, u, nil)
		if !res.HasDiscount() {
			t.notMet(rule, res)
			continue
		}
		t.applied(rule, res, nil)
	}
	return t.finish(c.Total())
}
