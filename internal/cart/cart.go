package cart

import (
	"errors"
	"fmt"
	"slices"

	"github.com/noah-isme/promo-engine/internal/pricing"
)

// ErrItemNotFound indicates an index outside of the cart.
var ErrItemNotFound = errors.New("cart item not found")

// Item describes a cart line. Its position in the cart is its identity.
type Item struct {
	Name          string        `json:"name"`
	Price         pricing.Money `json:"price"`
	OriginalPrice pricing.Money `json:"original_price"`
	Qty           int           `json:"qty"`
	Tags          []string      `json:"tags"`
	Locked        bool          `json:"locked"`
}

// Subtotal is the current line total (price × qty).
func (it Item) Subtotal() pricing.Money {
	return it.Price * float64(it.Qty)
}

// OriginalSubtotal is the line total before any allocation.
func (it Item) OriginalSubtotal() pricing.Money {
	return it.OriginalPrice * float64(it.Qty)
}

// HasAnyTag reports whether the item carries at least one of tags.
// An empty tag list matches every item.
func (it Item) HasAnyTag(tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if slices.Contains(it.Tags, tag) {
			return true
		}
	}
	return false
}

func (it Item) clone() Item {
	it.Tags = slices.Clone(it.Tags)
	return it
}

// Cart is an ordered, mutable collection of line items.
//
// A cart is owned by a single calculation at a time; callers comparing
// several modes must Clone it per calculation.
type Cart struct {
	items []Item
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// AddItem appends a line and returns the cart for chaining. Quantities below
// one are stored as one.
func (c *Cart) AddItem(name string, price pricing.Money, qty int, tags ...string) *Cart {
	if qty < 1 {
		qty = 1
	}
	c.items = append(c.items, Item{
		Name:          name,
		Price:         price,
		OriginalPrice: price,
		Qty:           qty,
		Tags:          slices.Clone(tags),
	})
	return c
}

// Len returns the number of lines.
func (c *Cart) Len() int {
	return len(c.items)
}

// Item returns a copy of the line at index i.
func (c *Cart) Item(i int) (Item, bool) {
	if i < 0 || i >= len(c.items) {
		return Item{}, false
	}
	return c.items[i].clone(), true
}

// Items returns a snapshot of every line in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	for i, it := range c.items {
		out[i] = it.clone()
	}
	return out
}

// Total sums the current price of every line.
func (c *Cart) Total() pricing.Money {
	var total pricing.Money
	for _, it := range c.items {
		total += it.Subtotal()
	}
	return total
}

// OriginalTotal sums the pre-discount price of every line.
func (c *Cart) OriginalTotal() pricing.Money {
	var total pricing.Money
	for _, it := range c.items {
		total += it.OriginalSubtotal()
	}
	return total
}

// ItemCount sums quantities across every line.
func (c *Cart) ItemCount() int {
	count := 0
	for _, it := range c.items {
		count += it.Qty
	}
	return count
}

// FilterItemsByTags returns the indexes of lines matching any of tags, in
// insertion order. An empty tag list selects every line.
func (c *Cart) FilterItemsByTags(tags []string) []int {
	indexes := make([]int, 0, len(c.items))
	for i, it := range c.items {
		if it.HasAnyTag(tags) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}

// CalculateItemsTotal sums the current subtotal of the given lines. Unknown
// indexes are ignored.
func (c *Cart) CalculateItemsTotal(indexes []int) pricing.Money {
	var total pricing.Money
	for _, i := range indexes {
		if i < 0 || i >= len(c.items) {
			continue
		}
		total += c.items[i].Subtotal()
	}
	return total
}

// CountItems sums quantities of the given lines.
func (c *Cart) CountItems(indexes []int) int {
	count := 0
	for _, i := range indexes {
		if i < 0 || i >= len(c.items) {
			continue
		}
		count += c.items[i].Qty
	}
	return count
}

// IsLocked reports whether a rule already claimed the line in this pass.
func (c *Cart) IsLocked(i int) bool {
	if i < 0 || i >= len(c.items) {
		return false
	}
	return c.items[i].Locked
}

// LockItems marks lines as claimed so no later rule may discount them.
func (c *Cart) LockItems(indexes []int) {
	for _, i := range indexes {
		if i < 0 || i >= len(c.items) {
			continue
		}
		c.items[i].Locked = true
	}
}

// UpdateItemPrice sets the unit price of a line. Negative prices are stored as zero.
func (c *Cart) UpdateItemPrice(i int, price pricing.Money) error {
	if i < 0 || i >= len(c.items) {
		return fmt.Errorf("update price at %d: %w", i, ErrItemNotFound)
	}
	c.items[i].Price = pricing.NonNegative(price)
	return nil
}

// Clone returns a deep copy that shares no state with c.
func (c *Cart) Clone() *Cart {
	return &Cart{items: c.Items()}
}
