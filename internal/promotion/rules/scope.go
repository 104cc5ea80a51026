// Package rules holds the concrete promotion rules and their declarative
// definitions.
package rules

import (
	"slices"

	"github.com/noah-isme/promo-engine/internal/cart"
)

// DefaultPriority is used when a rule is built without WithPriority.
const DefaultPriority = 1

// Option customises the scope shared by every rule.
type Option func(*scope)

// WithTags restricts the rule to items carrying any of tags.
func WithTags(tags ...string) Option {
	return func(s *scope) { s.tags = slices.Clone(tags) }
}

// WithPriority sets the evaluation order; lower runs first.
func WithPriority(priority int) Option {
	return func(s *scope) { s.priority = priority }
}

// WithName overrides the rule name used in audit records and metrics.
func WithName(name string) Option {
	return func(s *scope) {
		if name != "" {
			s.name = name
		}
	}
}

// scope carries the tag filter, priority and name common to all rules.
type scope struct {
	name     string
	tags     []string
	priority int
}

func newScope(kind string, opts []Option) scope {
	s := scope{name: kind, priority: DefaultPriority}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s scope) Name() string { return s.name }

func (s scope) ApplicableTags() []string { return slices.Clone(s.tags) }

func (s scope) Priority() int { return s.priority }

// EligibleIndexes lists items matching the tag filter against the current cart.
func (s scope) EligibleIndexes(c *cart.Cart) []int {
	return c.FilterItemsByTags(s.tags)
}

// eligible narrows the tag-eligible items to restrict when it is non-nil.
func (s scope) eligible(c *cart.Cart, restrict []int) []int {
	indexes := s.EligibleIndexes(c)
	if restrict == nil {
		return indexes
	}
	return slices.DeleteFunc(indexes, func(i int) bool {
		return !slices.Contains(restrict, i)
	})
}
