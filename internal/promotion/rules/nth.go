package rules

import (
	"fmt"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/pricing"
	"github.com/noah-isme/promo-engine/internal/promotion"
)

// NthItemDiscount discounts the unit price of the Nth eligible line, counted
// in cart order (third item half price).
type NthItemDiscount struct {
	scope
	nth  int
	rate float64
}

// NewNthItemDiscount builds a NthItemDiscount. nth is one-based.
func NewNthItemDiscount(nth int, rate float64, opts ...Option) *NthItemDiscount {
	return &NthItemDiscount{scope: newScope(KindNthItemDiscount, opts), nth: nth, rate: rate}
}

// Apply implements promotion.Rule.
func (r *NthItemDiscount) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	item, ok := nthItem(c, r.eligible(c, restrict), r.nth)
	if !ok {
		return promotion.NotMet(fmt.Sprintf("item #%d at %s%% off: not met", r.nth, pricing.PercentOff(r.rate)))
	}
	return promotion.Discount(item.Price*(1-r.rate),
		fmt.Sprintf("item #%d at %s%% off", r.nth, pricing.PercentOff(r.rate)))
}

// NthItemReduction sells the Nth eligible line at a special unit price
// (third item for 9.9).
type NthItemReduction struct {
	scope
	nth          int
	specialPrice pricing.Money
}

// NewNthItemReduction builds a NthItemReduction. nth is one-based.
func NewNthItemReduction(nth int, specialPrice pricing.Money, opts ...Option) *NthItemReduction {
	return &NthItemReduction{scope: newScope(KindNthItemReduction, opts), nth: nth, specialPrice: specialPrice}
}

// Apply implements promotion.Rule.
func (r *NthItemReduction) Apply(c *cart.Cart, _ promotion.User, restrict []int) promotion.Result {
	item, ok := nthItem(c, r.eligible(c, restrict), r.nth)
	if !ok {
		return promotion.NotMet(fmt.Sprintf("item #%d for %s: not met", r.nth, pricing.Trim(r.specialPrice)))
	}
	if item.Price <= r.specialPrice {
		return promotion.NotMet(fmt.Sprintf("item #%d for %s: already at or below special price", r.nth, pricing.Trim(r.specialPrice)))
	}
	return promotion.Discount(item.Price-r.specialPrice,
		fmt.Sprintf("item #%d for %s", r.nth, pricing.Trim(r.specialPrice)))
}

func nthItem(c *cart.Cart, indexes []int, nth int) (cart.Item, bool) {
	if nth < 1 || len(indexes) < nth {
		return cart.Item{}, false
	}
	return c.Item(indexes[nth-1])
}
