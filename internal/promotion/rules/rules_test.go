package rules_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/promotion/rules"
)

var (
	vip    = promotion.User{VIP: true}
	guest  = promotion.User{}
	tiers3 = []rules.Tier{{Threshold: 500, Value: 0.85}, {Threshold: 100, Value: 0.95}, {Threshold: 300, Value: 0.90}}
)

func TestThresholdDiscount(t *testing.T) {
	c := cart.New().AddItem("promo item", 250, 1, "promo")
	rule := rules.NewThresholdDiscount(200, 0.9, rules.WithTags("promo"))

	res := rule.Apply(c, guest, nil)
	require.True(t, res.HasDiscount())
	require.Equal(t, 25.0, res.Discount)
	require.Equal(t, "spend 200, get 10% off", res.Description)

	small := cart.New().AddItem("promo item", 150, 1, "promo").AddItem("other", 500, 1)
	res = rule.Apply(small, guest, nil)
	require.False(t, res.HasDiscount())
	require.Contains(t, res.Description, "not met")
}

func TestThresholdDiscountHonoursRestriction(t *testing.T) {
	c := cart.New().AddItem("a", 150, 1).AddItem("b", 100, 1)
	rule := rules.NewThresholdDiscount(200, 0.5)

	require.Equal(t, 125.0, rule.Apply(c, guest, nil).Discount)
	require.False(t, rule.Apply(c, guest, []int{0}).HasDiscount())
}

func TestThresholdReduction(t *testing.T) {
	c := cart.New().AddItem("a", 60, 1, "x").AddItem("b", 60, 1, "y")
	rule := rules.NewThresholdReduction(100, 20)

	require.Equal(t, 20.0, rule.Apply(c, guest, nil).Discount)
	require.False(t, rule.Apply(c, guest, []int{1}).HasDiscount())

	scoped := rules.NewThresholdReduction(100, 20, rules.WithTags("x"))
	require.False(t, scoped.Apply(c, guest, nil).HasDiscount())
}

func TestQuantityRulesCountUnitsOfEligibleItems(t *testing.T) {
	c := cart.New().AddItem("snack", 30, 3, "snacks").AddItem("tv", 200, 1, "electronics")

	discount := rules.NewQuantityDiscount(3, 0.9, rules.WithTags("snacks"))
	res := discount.Apply(c, guest, nil)
	require.Equal(t, 9.0, res.Discount)

	reduction := rules.NewQuantityReduction(4, 20)
	require.Equal(t, 20.0, reduction.Apply(c, guest, nil).Discount)
	require.False(t, reduction.Apply(c, guest, []int{0}).HasDiscount())
}

func TestNthItemDiscount(t *testing.T) {
	c := cart.New().
		AddItem("a1", 30, 1, "a").
		AddItem("a2", 30, 1, "a").
		AddItem("a3", 30, 1, "a")
	rule := rules.NewNthItemDiscount(3, 0.5, rules.WithTags("a"))

	res := rule.Apply(c, guest, nil)
	require.Equal(t, 15.0, res.Discount)
	require.Equal(t, "item #3 at 50% off", res.Description)

	require.False(t, rule.Apply(c, guest, []int{0, 1}).HasDiscount())
}

func TestNthItemCountsEligibleLinesInCartOrder(t *testing.T) {
	c := cart.New().
		AddItem("a1", 10, 1, "a").
		AddItem("b1", 99, 1, "b").
		AddItem("a2", 20, 1, "a").
		AddItem("a3", 40, 1, "a")
	rule := rules.NewNthItemDiscount(2, 0.5, rules.WithTags("a"))

	require.Equal(t, 10.0, rule.Apply(c, guest, nil).Discount, "second eligible line is a2")
	require.Equal(t, 20.0, rule.Apply(c, guest, []int{1, 2, 3}).Discount, "a3 after restricting to a2, a3")
}

func TestNthItemReduction(t *testing.T) {
	c := cart.New().AddItem("a", 50, 1).AddItem("b", 60, 1).AddItem("c", 30, 1)
	rule := rules.NewNthItemReduction(3, 9.9)

	require.Equal(t, 20.1, rule.Apply(c, guest, nil).Discount)

	cheap := cart.New().AddItem("a", 5, 1).AddItem("b", 5, 1).AddItem("c", 5, 1)
	res := rule.Apply(cheap, guest, nil)
	require.False(t, res.HasDiscount())
	require.Zero(t, res.Discount)
}

func TestTieredDiscountSelectsHighestThresholdMet(t *testing.T) {
	c := cart.New().AddItem("a", 350, 1)
	rule := rules.NewTieredDiscount(tiers3)

	res := rule.Apply(c, guest, nil)
	require.Equal(t, 35.0, res.Discount, "rate 0.90 applies to 350")
	require.Equal(t, "tier 300 reached, get 10% off", res.Description)

	require.Equal(t, []rules.Tier{{Threshold: 100, Value: 0.95}, {Threshold: 300, Value: 0.90}, {Threshold: 500, Value: 0.85}}, rule.Tiers())

	below := cart.New().AddItem("a", 99, 1)
	require.False(t, rule.Apply(below, guest, nil).HasDiscount())
}

func TestTieredDiscountWinsOnThresholdNotValue(t *testing.T) {
	c := cart.New().AddItem("a", 400, 1)
	rule := rules.NewTieredDiscount([]rules.Tier{{Threshold: 100, Value: 0.5}, {Threshold: 300, Value: 0.9}})

	require.Equal(t, 40.0, rule.Apply(c, guest, nil).Discount)
}

func TestTieredReduction(t *testing.T) {
	rule := rules.NewTieredReduction([]rules.Tier{{Threshold: 100, Value: 10}, {Threshold: 200, Value: 30}, {Threshold: 500, Value: 80}})

	require.Equal(t, 30.0, rule.Apply(cart.New().AddItem("a", 250, 1), guest, nil).Discount)
	require.Equal(t, 80.0, rule.Apply(cart.New().AddItem("a", 500, 1), guest, nil).Discount)
	require.False(t, rule.Apply(cart.New().AddItem("a", 50, 1), guest, nil).HasDiscount())
}

func TestVIPRules(t *testing.T) {
	c := cart.New().AddItem("a", 100, 1, "vip").AddItem("b", 100, 1)

	discount := rules.NewVIPDiscount(0.95, rules.WithTags("vip"))
	res := discount.Apply(c, guest, nil)
	require.False(t, res.HasDiscount())
	require.Equal(t, "not a VIP user", res.Description)
	require.Equal(t, 5.0, discount.Apply(c, vip, nil).Discount)

	reduction := rules.NewVIPReduction(5)
	require.False(t, reduction.Apply(c, guest, nil).HasDiscount())
	require.Equal(t, 5.0, reduction.Apply(c, vip, nil).Discount)

	scoped := rules.NewVIPReduction(5, rules.WithTags("missing"))
	require.False(t, scoped.Apply(c, vip, nil).HasDiscount())
}

func TestReductionsNeverExceedCoveredSubtotal(t *testing.T) {
	c := cart.New().AddItem("a", 15, 2, "x").AddItem("b", 400, 1)

	require.Equal(t, 30.0, rules.NewThresholdReduction(10, 50, rules.WithTags("x")).Apply(c, guest, nil).Discount)
	require.Equal(t, 30.0, rules.NewQuantityReduction(2, 50, rules.WithTags("x")).Apply(c, guest, nil).Discount)
	require.Equal(t, 30.0, rules.NewVIPReduction(50, rules.WithTags("x")).Apply(c, vip, nil).Discount)
	tiered := rules.NewTieredReduction([]rules.Tier{{Threshold: 20, Value: 80}}, rules.WithTags("x"))
	require.Equal(t, 30.0, tiered.Apply(c, guest, nil).Discount)

	require.Equal(t, 50.0, rules.NewThresholdReduction(10, 50).Apply(c, guest, []int{1}).Discount)
}

func TestScopeAccessors(t *testing.T) {
	c := cart.New().AddItem("a", 1, 1, "x").AddItem("b", 1, 1, "y").AddItem("c", 1, 1, "x", "y")
	rule := rules.NewVIPReduction(5, rules.WithTags("x"), rules.WithPriority(7), rules.WithName("vip-x"))

	require.Equal(t, "vip-x", rule.Name())
	require.Equal(t, 7, rule.Priority())
	require.Equal(t, []string{"x"}, rule.ApplicableTags())
	require.Equal(t, []int{0, 2}, rule.EligibleIndexes(c))

	plain := rules.NewThresholdDiscount(1, 0.5)
	require.Equal(t, rules.KindThresholdDiscount, plain.Name())
	require.Equal(t, rules.DefaultPriority, plain.Priority())
	require.Empty(t, plain.ApplicableTags())
	require.Equal(t, []int{0, 1, 2}, plain.EligibleIndexes(c))
}

func TestApplyDoesNotMutateCart(t *testing.T) {
	c := cart.New().AddItem("a", 50, 1, "snacks").AddItem("b", 60, 2).AddItem("c", 30, 3, "snacks")
	before := c.Items()

	for _, rule := range []promotion.Rule{
		rules.NewThresholdDiscount(10, 0.9),
		rules.NewThresholdReduction(10, 5),
		rules.NewQuantityDiscount(1, 0.9),
		rules.NewQuantityReduction(1, 5),
		rules.NewNthItemDiscount(2, 0.5),
		rules.NewNthItemReduction(2, 1),
		rules.NewTieredDiscount(tiers3),
		rules.NewTieredReduction([]rules.Tier{{Threshold: 10, Value: 3}}),
		rules.NewVIPDiscount(0.9),
		rules.NewVIPReduction(2),
	} {
		res := rule.Apply(c, vip, nil)
		require.True(t, res.HasDiscount(), rule.Name())
		require.Equal(t, before, c.Items(), rule.Name())
	}
}
