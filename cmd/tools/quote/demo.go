package main

import (
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/promotion/rules"
	"github.com/noah-isme/promo-engine/internal/quote"
)

// demoRequest is a VIP cart of six lines large enough to trigger every rule kind.
func demoRequest() quote.Request {
	return quote.Request{
		User: promotion.User{VIP: true},
		Items: []quote.ItemInput{
			{Name: "item A", Price: 50, Qty: 1, Tags: []string{"snacks"}},
			{Name: "item B", Price: 60, Qty: 1, Tags: []string{"clothes"}},
			{Name: "item C", Price: 40, Qty: 1, Tags: []string{"clothes"}},
			{Name: "item D", Price: 100, Qty: 1, Tags: []string{"promo"}},
			{Name: "item E", Price: 30, Qty: 3, Tags: []string{"snacks"}},
			{Name: "item F", Price: 200, Qty: 1, Tags: []string{"electronics"}},
		},
		Rules: demoRules(),
	}
}

func demoRules() []rules.Definition {
	return []rules.Definition{
		{Type: rules.KindThresholdDiscount, Threshold: 200, Rate: 0.9},
		{Type: rules.KindQuantityReduction, MinItems: 3, Reduction: 20},
		{Type: rules.KindNthItemDiscount, Nth: 3, Rate: 0.5},
		{Type: rules.KindTieredDiscount, Tiers: []rules.Tier{{Threshold: 100, Value: 0.95}, {Threshold: 300, Value: 0.9}, {Threshold: 500, Value: 0.85}}},
		{Type: rules.KindVIPDiscount, Rate: 0.95},
		{Type: rules.KindQuantityDiscount, MinItems: 5, Rate: 0.9},
		{Type: rules.KindThresholdReduction, Threshold: 100, Reduction: 20},
		{Type: rules.KindNthItemReduction, Nth: 3, SpecialPrice: 9.9},
		{Type: rules.KindTieredReduction, Tiers: []rules.Tier{{Threshold: 100, Value: 10}, {Threshold: 200, Value: 30}, {Threshold: 500, Value: 80}}},
		{Type: rules.KindVIPReduction, Reduction: 5},
	}
}
