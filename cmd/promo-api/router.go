package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promo-engine/internal/common"
	"github.com/noah-isme/promo-engine/internal/config"
	"github.com/noah-isme/promo-engine/internal/health"
	"github.com/noah-isme/promo-engine/internal/obs"
	"github.com/noah-isme/promo-engine/internal/quote"
	"github.com/noah-isme/promo-engine/internal/ratelimit"
	"github.com/noah-isme/promo-engine/internal/security"
)

type routerDeps struct {
	cfg      *config.Config
	logger   zerolog.Logger
	quotes   *quote.Handler
	health   *health.Handler
	limiter  ratelimit.Limiter
	registry prometheus.Registerer
	gatherer prometheus.Gatherer
}

func newRouter(d routerDeps) http.Handler {
	var httpMetrics *obs.HTTPMetrics
	if d.cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(d.cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(d.cfg.Obs.MetricsBuckets), d.registry)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.cfg.Obs.EnableTracing {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: d.logger}.Middleware)
	r.Use(security.Headers{EnableHSTS: d.cfg.IsProduction()}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(d.cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Quote-ID", "X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	if d.cfg.Obs.EnablePrometheus {
		gatherer := d.gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/health/live", d.health.Live)
	r.Get("/health/ready", d.health.Ready)

	limit := ratelimit.Handler{
		Limiter: d.limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("quotes:"),
			Window: d.cfg.RateLimitWindow,
			Max:    d.cfg.RateLimitMax,
		},
		OnError: func(err error) { d.logger.Warn().Err(err).Msg("rate limiter unavailable") },
	}
	r.Route("/api/v1", func(v chi.Router) {
		v.Use(limit.Middleware)
		v.Use(security.BodyLimit{Max: d.cfg.BodyLimitBytes}.Middleware)
		d.quotes.Mount(v)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "route not found", nil)
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
