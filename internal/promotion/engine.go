package promotion

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/promo-engine/internal/cart"
)

// Observer receives calculation outcomes, typically to record metrics.
type Observer interface {
	ObserveCalculation(summary Summary)
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger attaches a structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithObserver attaches an observer notified after every calculation.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithRules registers rules at construction time.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) {
		for _, r := range rules {
			e.addRule(r)
		}
	}
}

// Engine holds registered rules and the selected calculator.
type Engine struct {
	mu         sync.RWMutex
	rules      []Rule
	calculator Calculator
	logger     zerolog.Logger
	observer   Observer
}

// NewEngine returns an engine in independent mode.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		calculator: IndependentCalculator{},
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetMode selects the calculator by name. Unknown names return an error
// wrapping ErrUnknownMode and leave the current mode unchanged.
func (e *Engine) SetMode(name string) error {
	mode, err := ParseMode(name)
	if err != nil {
		return err
	}
	calc, err := NewCalculator(mode)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.calculator = calc
	e.mu.Unlock()
	e.logger.Debug().Str("mode", string(mode)).Msg("promotion_mode_selected")
	return nil
}

// Mode returns the selected mode.
func (e *Engine) Mode() Mode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.calculator.Mode()
}

// AddRule registers a rule and returns the engine for chaining.
func (e *Engine) AddRule(r Rule) *Engine {
	e.mu.Lock()
	e.addRule(r)
	e.mu.Unlock()
	return e
}

func (e *Engine) addRule(r Rule) {
	if r == nil {
		return
	}
	e.rules = append(e.rules, r)
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// Calculate runs the selected calculator. Sequential and lock modes mutate c.
func (e *Engine) Calculate(c *cart.Cart, u User) Summary {
	e.mu.RLock()
	calc := e.calculator
	rules := make([]Rule, len(e.rules))
	copy(rules, e.rules)
	e.mu.RUnlock()
	return e.run(calc, c, u, rules)
}

// Compare runs every mode against its own copy of c, leaving c untouched.
func (e *Engine) Compare(c *cart.Cart, u User) []Summary {
	rules := e.Rules()
	out := make([]Summary, 0, len(Modes()))
	for _, mode := range Modes() {
		calc, _ := NewCalculator(mode)
		out = append(out, e.run(calc, c.Clone(), u, rules))
	}
	return out
}

func (e *Engine) run(calc Calculator, c *cart.Cart, u User, rules []Rule) Summary {
	summary := calc.Calculate(c, u, rules)
	e.logSummary(summary)
	if e.observer != nil {
		e.observer.ObserveCalculation(summary)
	}
	return summary
}

func (e *Engine) logSummary(s Summary) {
	if e.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	for _, o := range s.Outcomes {
		e.logger.Debug().
			Str("mode", string(s.Mode)).
			Str("rule", o.Rule).
			Int("priority", o.Priority).
			Str("outcome", string(o.Outcome)).
			Float64("discount", o.Discount).
			Str("description", o.Description).
			Msg("promotion_rule")
	}
	for _, a := range s.Allocations {
		e.logger.Debug().
			Str("mode", string(s.Mode)).
			Int("index", a.Index).
			Str("item", a.Name).
			Float64("share", a.Share).
			Float64("previous_price", a.PreviousPrice).
			Float64("price", a.Price).
			Float64("amount", a.Amount).
			Msg("promotion_allocation")
	}
	e.logger.Debug().
		Str("mode", string(s.Mode)).
		Float64("original", s.Original).
		Float64("discount", s.Discount).
		Float64("final", s.Final).
		Int("rules_applied", len(s.Details)).
		Msg("promotion_calculated")
}
