package promotion

import (
	"cmp"
	"slices"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
)

// User is the shopper profile consulted by rules.
type User struct {
	VIP bool `json:"vip"`
}

// IsVIP reports whether the user holds VIP status.
func (u User) IsVIP() bool { return u.VIP }

// Result is the outcome of applying one rule to a cart.
type Result struct {
	Discount    pricing.Money `json:"discount"`
	Description string        `json:"description"`
}

// HasDiscount reports whether the rule produced a positive discount.
func (r Result) HasDiscount() bool { return r.Discount > 0 }

// Discount builds a result for a met condition. The amount is rounded to
// cents; non-positive amounts yield a result without discount.
func Discount(amount pricing.Money, description string) Result {
	return Result{Discount: pricing.NonNegative(pricing.RoundCents(amount)), Description: description}
}

// Reduction builds a result for a fixed amount off, capped at the subtotal
// of the items it covers.
func Reduction(amount, covered pricing.Money, description string) Result {
	return Discount(min(amount, covered), description)
}

// NotMet builds a zero-discount result explaining why the rule did not fire.
func NotMet(description string) Result {
	return Result{Description: description}
}

// Rule is a promotion evaluated against a cart snapshot.
//
// Apply must not mutate the cart. A nil restrict evaluates every
// tag-eligible item; a non-nil restrict narrows evaluation to the listed
// indexes. Unmet conditions are reported as zero-discount results.
type Rule interface {
	Name() string
	ApplicableTags() []string
	EligibleIndexes(c *cart.Cart) []int
	Priority() int
	Apply(c *cart.Cart, u User, restrict []int) Result
}

// SortByPriority returns rules ordered by ascending priority. Rules with
// equal priority keep their registration order.
func SortByPriority(rules []Rule) []Rule {
	sorted := slices.Clone(rules)
	slices.SortStableFunc(sorted, func(a, b Rule) int {
		return cmp.Compare(a.Priority(), b.Priority())
	})
	return sorted
}
