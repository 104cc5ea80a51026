package rules

import (
	"fmt"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
	"github.com/noah-isme/promo-engine/internal/promotion"
)

const notVIP = "not a VIP user"

// VIPDiscount gives VIP users a flat rate on eligible items.
type VIPDiscount struct {
	scope
	rate float64
}

// NewVIPDiscount builds a VIPDiscount.
func NewVIPDiscount(rate float64, opts ...Option) *VIPDiscount {
	return &VIPDiscount{scope: newScope(KindVIPDiscount, opts), rate: rate}
}

// Apply implements promotion.Rule.
func (r *VIPDiscount) Apply(c *cart.Cart, u promotion.User, restrict []int) promotion.Result {
	if !u.IsVIP() {
		return promotion.NotMet(notVIP)
	}
	subtotal := c.CalculateItemsTotal(r.eligible(c, restrict))
	if subtotal <= 0 {
		return promotion.NotMet("VIP discount: no eligible items")
	}
	return promotion.Discount(subtotal*(1-r.rate), fmt.Sprintf("VIP %s%% off", pricing.PercentOff(r.rate)))
}

// VIPReduction gives VIP users a fixed amount off.
type VIPReduction struct {
	scope
	reduction pricing.Money
}

// NewVIPReduction builds a VIPReduction.
func NewVIPReduction(reduction pricing.Money, opts ...Option) *VIPReduction {
	return &VIPReduction{scope: newScope(KindVIPReduction, opts), reduction: reduction}
}

// Apply implements promotion.Rule.
func (r *VIPReduction) Apply(c *cart.Cart, u promotion.User, restrict []int) promotion.Result {
	if !u.IsVIP() {
		return promotion.NotMet(notVIP)
	}
	indexes := r.eligible(c, restrict)
	if len(indexes) == 0 {
		return promotion.NotMet("VIP reduction: no eligible items")
	}
	return promotion.Reduction(r.reduction, c.CalculateItemsTotal(indexes), fmt.Sprintf("VIP saves %s", pricing.Trim(r.reduction)))
}
