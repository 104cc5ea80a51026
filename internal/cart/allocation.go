package cart

import (
	"github.com/noah-isme/promo-engine/internal/pricing"
)

// Allocation records how much of a cart-level discount landed on one line.
type Allocation struct {
	Index         int           `json:"index"`
	Name          string        `json:"name"`
	Qty           int           `json:"qty"`
	Share         float64       `json:"share"`
	PreviousPrice pricing.Money `json:"previous_price"`
	Price         pricing.Money `json:"price"`
	UnitReduction pricing.Money `json:"unit_reduction"`
	Amount        pricing.Money `json:"amount"`
}

// ApplyDiscountToItems spreads discount over the given lines in proportion
// to their current subtotal and lowers their unit prices accordingly.
//
// Shares are rounded to four places and per-unit reductions to two, so the
// applied total may differ from discount by a few cents. A unit price never
// drops below zero. Returns nothing when the lines have no value to divide.
func (c *Cart) ApplyDiscountToItems(indexes []int, discount pricing.Money) []Allocation {
	if discount <= 0 {
		return nil
	}
	targets := make([]int, 0, len(indexes))
	seen := make(map[int]struct{}, len(indexes))
	var total pricing.Money
	for _, i := range indexes {
		if i < 0 || i >= len(c.items) {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		targets = append(targets, i)
		total += c.items[i].Subtotal()
	}
	if total <= 0 {
		return nil
	}

	allocations := make([]Allocation, 0, len(targets))
	for _, i := range targets {
		item := &c.items[i]
		share := pricing.Round(item.Subtotal()/total, pricing.SharePlaces)
		reduction := pricing.RoundCents(discount * share / float64(item.Qty))
		if reduction > item.Price {
			reduction = item.Price
		}
		previous := item.Price
		item.Price = pricing.RoundCents(previous - reduction)
		allocations = append(allocations, Allocation{
			Index:         i,
			Name:          item.Name,
			Qty:           item.Qty,
			Share:         share,
			PreviousPrice: previous,
			Price:         item.Price,
			UnitReduction: reduction,
			Amount:        pricing.RoundCents(reduction * float64(item.Qty)),
		})
	}
	return allocations
}
