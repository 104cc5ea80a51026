// Package quote prices carts against promotion rules on behalf of API
// callers.
package quote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/noah-isme/promo-engine/internal/cart"
	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/promotion/rules"
)

// RuleSource supplies the server-side rule set. *rulebook.Book implements it.
type RuleSource interface {
	Rules() []promotion.Rule
	Definitions() []rules.Definition
}

// ItemInput is one cart line in a quote request.
type ItemInput struct {
	Name  string   `json:"name" validate:"required,max=128"`
	Price float64  `json:"price" validate:"gte=0"`
	Qty   int      `json:"qty" validate:"min=1,lte=100000"`
	Tags  []string `json:"tags,omitempty" validate:"max=32,dive,required,max=64"`
}

// Request is the body of quote and compare calls. Rules, when present,
// replace the server rulebook for this request.
type Request struct {
	Mode  string             `json:"mode,omitempty"`
	User  promotion.User     `json:"user"`
	Items []ItemInput        `json:"items" validate:"required,min=1,max=500,dive"`
	Rules []rules.Definition `json:"rules,omitempty" validate:"max=100"`
}

// Quote is a priced cart.
type Quote struct {
	ID string `json:"id"`
	promotion.Summary
}

// Comparison holds one summary per mode for the same cart.
type Comparison struct {
	ID        string              `json:"id"`
	Summaries []promotion.Summary `json:"summaries"`
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	Rules       RuleSource
	DefaultMode promotion.Mode
	Logger      zerolog.Logger
	Observer    promotion.Observer
	Tracer      trace.Tracer
}

// Service builds an engine per request from the rulebook or inline rules.
type Service struct {
	rules       atomic.Pointer[ruleSet]
	defaultMode promotion.Mode
	logger      zerolog.Logger
	observer    promotion.Observer
	tracer      trace.Tracer
	validate    *validator.Validate
}

type ruleSet struct {
	source RuleSource
}

// NewService constructs a Service.
func NewService(cfg ServiceConfig) *Service {
	mode := cfg.DefaultMode
	if mode == "" {
		mode = promotion.ModeIndependent
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("quote")
	}
	s := &Service{
		defaultMode: mode,
		logger:      cfg.Logger,
		observer:    cfg.Observer,
		tracer:      tracer,
		validate:    validator.New(),
	}
	s.SetRules(cfg.Rules)
	return s
}

// SetRules swaps the server rule set. A nil source clears it.
func (s *Service) SetRules(src RuleSource) {
	s.rules.Store(&ruleSet{source: src})
}

// Definitions returns the server rulebook definitions.
func (s *Service) Definitions() []rules.Definition {
	if src := s.rules.Load().source; src != nil {
		return src.Definitions()
	}
	return []rules.Definition{}
}

// Quote prices the request cart in the requested or default mode.
func (s *Service) Quote(ctx context.Context, req Request) (Quote, error) {
	id := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "quote.calculate", trace.WithAttributes(attribute.String("quote.id", id)))
	defer span.End()

	engine, c, err := s.prepare(req)
	if err != nil {
		return Quote{}, failSpan(span, err)
	}
	mode := req.Mode
	if mode == "" {
		mode = string(s.defaultMode)
	}
	if err := engine.SetMode(mode); err != nil {
		return Quote{}, failSpan(span, common.NewAppError(common.CodeInvalidMode,
			fmt.Sprintf("unknown mode %q", req.Mode), http.StatusBadRequest, err).
			WithDetails(map[string]any{"allowed": promotion.Modes()}))
	}

	summary := engine.Calculate(c, req.User)
	annotate(span, summary)
	s.logger.Info().
		Ctx(ctx).
		Str("quote_id", id).
		Str("mode", string(summary.Mode)).
		Int("items", c.Len()).
		Float64("original", summary.Original).
		Float64("discount", summary.Discount).
		Float64("final", summary.Final).
		Msg("quote_calculated")
	return Quote{ID: id, Summary: summary}, nil
}

// Compare prices the request cart in every mode.
func (s *Service) Compare(ctx context.Context, req Request) (Comparison, error) {
	id := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "quote.compare", trace.WithAttributes(attribute.String("quote.id", id)))
	defer span.End()

	engine, c, err := s.prepare(req)
	if err != nil {
		return Comparison{}, failSpan(span, err)
	}
	summaries := engine.Compare(c, req.User)
	for _, summary := range summaries {
		s.logger.Info().
			Ctx(ctx).
			Str("quote_id", id).
			Str("mode", string(summary.Mode)).
			Float64("discount", summary.Discount).
			Float64("final", summary.Final).
			Msg("quote_compared")
	}
	return Comparison{ID: id, Summaries: summaries}, nil
}

func (s *Service) prepare(req Request) (*promotion.Engine, *cart.Cart, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, nil, validationError(err)
	}

	active := s.serverRules()
	if len(req.Rules) > 0 {
		built, err := rules.BuildAll(req.Rules)
		if err != nil {
			return nil, nil, common.NewAppError(common.CodeInvalidRule, err.Error(), http.StatusUnprocessableEntity, err)
		}
		active = built
	}

	opts := []promotion.Option{promotion.WithLogger(s.logger), promotion.WithRules(active...)}
	if s.observer != nil {
		opts = append(opts, promotion.WithObserver(s.observer))
	}

	c := cart.New()
	for _, item := range req.Items {
		c.AddItem(strings.TrimSpace(item.Name), item.Price, item.Qty, item.Tags...)
	}
	return promotion.NewEngine(opts...), c, nil
}

func (s *Service) serverRules() []promotion.Rule {
	if src := s.rules.Load().source; src != nil {
		return src.Rules()
	}
	return nil
}

func validationError(err error) *common.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return common.ValidationError("invalid request", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Namespace()] = fe.Tag()
	}
	return common.ValidationError("invalid request", err).WithDetails(fields)
}

func annotate(span trace.Span, s promotion.Summary) {
	span.SetAttributes(
		attribute.String("promotion.mode", string(s.Mode)),
		attribute.Float64("promotion.original", s.Original),
		attribute.Float64("promotion.discount", s.Discount),
		attribute.Float64("promotion.final", s.Final),
		attribute.Int("promotion.rules_applied", len(s.Details)),
	)
}

func failSpan(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
