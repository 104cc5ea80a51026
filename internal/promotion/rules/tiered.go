package rules

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
	"github.com/noah-isme/promo-engine/internal/promotion"
)

// Tier pairs a spend threshold with a rate (tiered discount) or a fixed
// amount (tiered reduction).
type Tier struct {
	Threshold pricing.Money `json:"threshold" validate:"gte=0"`
	Value     float64       `json:"value"`
}

func sortTiers(tiers []Tier) []Tier {
	sorted := slices.Clone(tiers)
	slices.SortStableFunc(sorted, func(a, b Tier) int {
		return cmp.Compare(a.Threshold, b.Threshold)
	})
	return sorted
}

// bestTier walks tiers in ascending order and keeps the last one met, so the
// highest threshold reached wins regardless of its value.
func bestTier(tiers []Tier, subtotal pricing.Money) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, tier := range tiers {
		if subtotal >= tier.Threshold {
			best = tier
			found = true
		}
	}
	return best, found
}

// TieredDiscount picks the rate of the highest tier reached
// (100: pay 95%, 300: pay 90%, 500: pay 85%).
type TieredDiscount struct {
	scope
	tiers []Tier
}

// NewTieredDiscount builds a TieredDiscount.
func NewTieredDiscount(tiers []Tier, opts ...Option) *TieredDiscount {
	return &TieredDiscount{scope: newScope(KindTieredDiscount, opts), tiers: sortTiers(tiers)}
}

// Tiers returns the tiers in ascending threshold order.
func (r *TieredDiscount) Tiers() []Tier { return slices.Clone(r.tiers) }

// Apply implements promotion.Rule.
func (r *TieredDiscount) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	indexes := r.eligible(c, restrict)
	subtotal := c.CalculateItemsTotal(indexes)
	tier, ok := bestTier(r.tiers, subtotal)
	if len(indexes) == 0 || !ok || tier.Value >= 1 {
		return promotion.NotMet("tiered discount: no tier reached")
	}
	return promotion.Discount(subtotal*(1-tier.Value),
		fmt.Sprintf("tier %s reached, get %s%% off", pricing.Trim(tier.Threshold), pricing.PercentOff(tier.Value)))
}

// TieredReduction picks the amount of the highest tier reached
// (100: save 10, 200: save 30, 500: save 80).
type TieredReduction struct {
	scope
	tiers []Tier
}

// NewTieredReduction builds a TieredReduction.
func NewTieredReduction(tiers []Tier, opts ...Option) *TieredReduction {
	return &TieredReduction{scope: newScope(KindTieredReduction, opts), tiers: sortTiers(tiers)}
}

// Tiers returns the tiers in ascending threshold order.
func (r *TieredReduction) Tiers() []Tier { return slices.Clone(r.tiers) }

// Apply implements promotion.Rule.
func (r *TieredReduction) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	indexes := r.eligible(c, restrict)
	subtotal := c.CalculateItemsTotal(indexes)
	tier, ok := bestTier(r.tiers, subtotal)
	if len(indexes) == 0 || !ok || tier.Value <= 0 {
		return promotion.NotMet("tiered reduction: no tier reached")
	}
	return promotion.Reduction(tier.Value, subtotal,
		fmt.Sprintf("tier %s reached, save %s", pricing.Trim(tier.Threshold), pricing.Trim(tier.Value)))
}
