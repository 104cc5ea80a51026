package obs

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/noah-isme/promo-engine/internal/promotion"
)

// PromotionMetrics records calculation outcomes. It implements
// promotion.Observer.
type PromotionMetrics struct {
	Calculations   *prometheus.CounterVec
	RuleOutcomes   *prometheus.CounterVec
	DiscountAmount *prometheus.HistogramVec
}

var _ promotion.Observer = (*PromotionMetrics)(nil)

// NewPromotionMetrics registers the promotion collectors on reg.
func NewPromotionMetrics(namespace string, reg prometheus.Registerer) *PromotionMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PromotionMetrics{
		Calculations: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_calculations_total",
			Help:      "Number of promotion calculations by mode.",
		}, []string{"mode"})),
		RuleOutcomes: register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "promotion_rule_outcomes_total",
			Help:      "Rule evaluations by mode, rule and outcome.",
		}, []string{"mode", "rule", "outcome"})),
		DiscountAmount: register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "promotion_discount_amount",
			Help:      "Total discount granted per calculation.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}, []string{"mode"})),
	}
}

// ObserveCalculation implements promotion.Observer.
func (m *PromotionMetrics) ObserveCalculation(s promotion.Summary) {
	if m == nil {
		return
	}
	mode := string(s.Mode)
	m.Calculations.WithLabelValues(mode).Inc()
	m.DiscountAmount.WithLabelValues(mode).Observe(s.Discount)
	for _, o := range s.Outcomes {
		m.RuleOutcomes.WithLabelValues(mode, o.Rule, string(o.Outcome)).Inc()
	}
}
