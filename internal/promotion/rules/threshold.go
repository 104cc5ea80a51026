package rules

import (
	"fmt"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
	"github.com/noah-isme/promo-engine/internal/promotion"
)

// ThresholdDiscount takes a percentage off when the eligible subtotal reaches
// a threshold (spend 200, pay 90%).
type ThresholdDiscount struct {
	scope
	threshold pricing.Money
	rate      float64
}

// NewThresholdDiscount builds a ThresholdDiscount. rate is the share paid.
func NewThresholdDiscount(threshold pricing.Money, rate float64, opts ...Option) *ThresholdDiscount {
	return &ThresholdDiscount{scope: newScope(KindThresholdDiscount, opts), threshold: threshold, rate: rate}
}

// Apply implements promotion.Rule.
func (r *ThresholdDiscount) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	subtotal := c.CalculateItemsTotal(r.eligible(c, restrict))
	if subtotal < r.threshold || subtotal <= 0 {
		return promotion.NotMet(fmt.Sprintf("spend %s for %s%% off: not met", pricing.Trim(r.threshold), pricing.PercentOff(r.rate)))
	}
	return promotion.Discount(subtotal*(1-r.rate),
		fmt.Sprintf("spend %s, get %s%% off", pricing.Trim(r.threshold), pricing.PercentOff(r.rate)))
}

// ThresholdReduction takes a fixed amount off when the eligible subtotal
// reaches a threshold (spend 100, save 20).
type ThresholdReduction struct {
	scope
	threshold pricing.Money
	reduction pricing.Money
}

// NewThresholdReduction builds a ThresholdReduction.
func NewThresholdReduction(threshold, reduction pricing.Money, opts ...Option) *ThresholdReduction {
	return &ThresholdReduction{scope: newScope(KindThresholdReduction, opts), threshold: threshold, reduction: reduction}
}

// Apply implements promotion.Rule.
func (r *ThresholdReduction) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	indexes := r.eligible(c, restrict)
	subtotal := c.CalculateItemsTotal(indexes)
	if len(indexes) == 0 || subtotal < r.threshold {
		return promotion.NotMet(fmt.Sprintf("spend %s to save %s: not met", pricing.Trim(r.threshold), pricing.Trim(r.reduction)))
	}
	return promotion.Reduction(r.reduction, subtotal,
		fmt.Sprintf("spend %s, save %s", pricing.Trim(r.threshold), pricing.Trim(r.reduction)))
}

// QuantityDiscount takes a percentage off the eligible subtotal once enough
// eligible units are in the cart (buy 5, pay 90%).
type QuantityDiscount struct {
	scope
	minItems int
	rate     float64
}

// NewQuantityDiscount builds a QuantityDiscount.
func NewQuantityDiscount(minItems int, rate float64, opts ...Option) *QuantityDiscount {
	return &QuantityDiscount{scope: newScope(KindQuantityDiscount, opts), minItems: minItems, rate: rate}
}

// Apply implements promotion.Rule.
func (r *QuantityDiscount) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	indexes := r.eligible(c, restrict)
	if len(indexes) == 0 || c.CountItems(indexes) < r.minItems {
		return promotion.NotMet(fmt.Sprintf("buy %d for %s%% off: not met", r.minItems, pricing.PercentOff(r.rate)))
	}
	return promotion.Discount(c.CalculateItemsTotal(indexes)*(1-r.rate),
		fmt.Sprintf("buy %d, get %s%% off", r.minItems, pricing.PercentOff(r.rate)))
}

// QuantityReduction takes a fixed amount off once enough eligible units are
// in the cart (buy 3, save 20).
type QuantityReduction struct {
	scope
	minItems  int
	reduction pricing.Money
}

// NewQuantityReduction builds a QuantityReduction.
func NewQuantityReduction(minItems int, reduction pricing.Money, opts ...Option) *QuantityReduction {
	return &QuantityReduction{scope: newScope(KindQuantityReduction, opts), minItems: minItems, reduction: reduction}
}

// Apply implements promotion.Rule.
func (r *QuantityReduction) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	indexes := r.eligible(c, restrict)
	if len(indexes) == 0 || c.CountItems(indexes) < r.minItems {
		return promotion.NotMet(fmt.Sprintf("buy %d to save %s: not met", r.minItems, pricing.Trim(r.reduction)))
	}
	return promotion.Reduction(r.reduction, c.CalculateItemsTotal(indexes),
		fmt.Sprintf("buy %d, save %s", r.minItems, pricing.Trim(r.reduction)))
}
