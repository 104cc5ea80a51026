package promotion

import (
	"github.com/noah-isme/promo-engine/internal/cart"
)

// LockCalculator gives each item to at most one discount-bearing rule.
//
// Rules run in priority order against the items nobody has claimed yet. A
// rule that fires allocates its discount over those items and locks them.
type LockCalculator struct{}

// Mode implements Calculator.
func (LockCalculator) Mode() Mode { return ModeLock }

// Calculate implements Calculator. It mutates c.
func (LockCalculator) Calculate(c *cart.Cart, u User, rules []Rule) Summary {
	t := newTally(ModeLock, len(rules))
	for _, rule := range SortByPriority(rules) {
		eligible := rule.EligibleIndexes(c)
		available := unlocked(c, eligible)
		if len(available) == 0 {
			t.skipped(rule, len(eligible) > 0)
			continue
		}
		res := rule.Apply(c, u, available)
		if !res.HasDiscount() {
			t.notMet(rule, res)
			continue
		}
		t.applied(rule, res, available)
		t.allocated(c.ApplyDiscountToItems(available, res.Discount))
		c.LockItems(available)
	}
	summary := t.finish(c.OriginalTotal())
	summary.Items = c.Items()
	return summary
}

func unlocked(c *cart.Cart, indexes []int) []int {
	out := make([]int, 0, len(indexes))
	for _, i := range indexes {
		if !c.IsLocked(i) {
			out = append(out, i)
		}
	}
	return out
}
