package rules

import (
	"errors"
	"fmt"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/noah-isme/promo-engine/internal/promotion"
)

// ErrInvalidDefinition is returned when a rule definition cannot be built.
var ErrInvalidDefinition = errors.New("invalid rule definition")

// Rule kinds accepted in definitions.
const (
	KindThresholdDiscount  = "threshold_discount"
	KindThresholdReduction = "threshold_reduction"
	KindQuantityDiscount   = "quantity_discount"
	KindQuantityReduction  = "quantity_reduction"
	KindNthItemDiscount    = "nth_item_discount"
	KindNthItemReduction   = "nth_item_reduction"
	KindTieredDiscount     = "tiered_discount"
	KindTieredReduction    = "tiered_reduction"
	KindVIPDiscount        = "vip_discount"
	KindVIPReduction       = "vip_reduction"
)

// Kinds lists every supported rule kind.
func Kinds() []string {
	return []string{
		KindThresholdDiscount, KindThresholdReduction,
		KindQuantityDiscount, KindQuantityReduction,
		KindNthItemDiscount, KindNthItemReduction,
		KindTieredDiscount, KindTieredReduction,
		KindVIPDiscount, KindVIPReduction,
	}
}

// Definition is the declarative form of a rule, as found in rulebooks and
// quote requests. Only the fields relevant to Type are read.
type Definition struct {
	Type         string   `json:"type" validate:"required"`
	Name         string   `json:"name,omitempty" validate:"omitempty,max=64"`
	Threshold    float64  `json:"threshold,omitempty" validate:"gte=0"`
	Rate         float64  `json:"rate,omitempty" validate:"gte=0,lte=1"`
	Reduction    float64  `json:"reduction,omitempty" validate:"gte=0"`
	MinItems     int      `json:"min_items,omitempty" validate:"gte=0"`
	Nth          int      `json:"nth,omitempty" validate:"gte=0"`
	SpecialPrice float64  `json:"special_price,omitempty" validate:"gte=0"`
	Tiers        []Tier   `json:"tiers,omitempty" validate:"dive"`
	Tags         []string `json:"tags,omitempty" validate:"dive,required"`
	Priority     *int     `json:"priority,omitempty"`
}

var validate = validator.New()

// Validate checks field ranges and the parameters required by Type.
func (d Definition) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidDefinition, describeValidation(err))
	}
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s: %s", ErrInvalidDefinition, d.Type, fmt.Sprintf(format, args...))
	}
	switch d.Type {
	case KindThresholdDiscount, KindQuantityDiscount, KindNthItemDiscount, KindVIPDiscount:
		if d.Rate <= 0 || d.Rate >= 1 {
			return invalid("rate must be between 0 and 1 exclusive")
		}
	}
	switch d.Type {
	case KindThresholdDiscount, KindVIPDiscount:
	case KindThresholdReduction, KindVIPReduction:
		if d.Reduction <= 0 {
			return invalid("reduction must be positive")
		}
	case KindQuantityDiscount:
		if d.MinItems < 1 {
			return invalid("min_items must be at least 1")
		}
	case KindQuantityReduction:
		if d.MinItems < 1 {
			return invalid("min_items must be at least 1")
		}
		if d.Reduction <= 0 {
			return invalid("reduction must be positive")
		}
	case KindNthItemDiscount, KindNthItemReduction:
		if d.Nth < 1 {
			return invalid("nth must be at least 1")
		}
	case KindTieredDiscount, KindTieredReduction:
		if len(d.Tiers) == 0 {
			return invalid("at least one tier is required")
		}
		seen := make(map[float64]struct{}, len(d.Tiers))
		for _, tier := range d.Tiers {
			if _, dup := seen[tier.Threshold]; dup {
				return invalid("duplicate tier threshold %v", tier.Threshold)
			}
			seen[tier.Threshold] = struct{}{}
			if d.Type == KindTieredDiscount && (tier.Value <= 0 || tier.Value > 1) {
				return invalid("tier rate must be above 0 and at most 1")
			}
			if d.Type == KindTieredReduction && tier.Value < 0 {
				return invalid("tier amount must not be negative")
			}
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDefinition, d.Type)
	}
	return nil
}

// Build validates d and constructs the rule it describes.
func Build(d Definition) (promotion.Rule, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	opts := []Option{WithTags(d.Tags...), WithName(d.Name)}
	if d.Priority != nil {
		opts = append(opts, WithPriority(*d.Priority))
	}
	switch d.Type {
	case KindThresholdDiscount:
		return NewThresholdDiscount(d.Threshold, d.Rate, opts...), nil
	case KindThresholdReduction:
		return NewThresholdReduction(d.Threshold, d.Reduction, opts...), nil
	case KindQuantityDiscount:
		return NewQuantityDiscount(d.MinItems, d.Rate, opts...), nil
	case KindQuantityReduction:
		return NewQuantityReduction(d.MinItems, d.Reduction, opts...), nil
	case KindNthItemDiscount:
		return NewNthItemDiscount(d.Nth, d.Rate, opts...), nil
	case KindNthItemReduction:
		return NewNthItemReduction(d.Nth, d.SpecialPrice, opts...), nil
	case KindTieredDiscount:
		return NewTieredDiscount(d.Tiers, opts...), nil
	case KindTieredReduction:
		return NewTieredReduction(d.Tiers, opts...), nil
	case KindVIPDiscount:
		return NewVIPDiscount(d.Rate, opts...), nil
	default:
		return NewVIPReduction(d.Reduction, opts...), nil
	}
}

// BuildAll builds every definition, reporting the position of the first failure.
func BuildAll(defs []Definition) ([]promotion.Rule, error) {
	out := make([]promotion.Rule, 0, len(defs))
	for i, d := range defs {
		rule, err := Build(d)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, rule)
	}
	return out, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}
