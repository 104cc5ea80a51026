package promotion

import (
	"github.com/noah-isme/promo-engine/internal/cart"
)

// SequentialCalculator stacks rules in priority order.
//
// Every fired discount is pushed down onto the prices of the rule's eligible
// items before the next rule runs, so later rules compute against already
// discounted prices.
type SequentialCalculator struct{}

// Mode implements Calculator.
func (SequentialCalculator) Mode() Mode { return ModeSequential }

// Calculate implements Calculator. It mutates c.
func (SequentialCalculator) Calculate(c *cart.Cart, u User, rules []Rule) Summary {
	t := newTally(ModeSequential, len(rules))
	for _, rule := range SortByPriority(rules) {
		res := rule.Apply(c, u, nil)
		if !res.HasDiscount() {
			t.notMet(rule, res)
			continue
		}
		indexes := rule.EligibleIndexes(c)
		t.applied(rule, res, indexes)
		t.allocated(c.ApplyDiscountToItems(indexes, res.Discount))
	}
	return t.finish(c.OriginalTotal())
}
