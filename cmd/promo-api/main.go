package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/promo-engine/internal/config"
	"github.com/noah-isme/promo-engine/internal/health"
	"github.com/noah-isme/promo-engine/internal/obs"
	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/quote"
	"github.com/noah-isme/promo-engine/internal/ratelimit"
	"github.com/noah-isme/promo-engine/internal/rulebook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		Enabled:       cfg.Obs.EnableTracing,
		ServiceName:   "promo-api",
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.SamplingRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		cfg.Obs.EnableTracing = false
		shutdownTracer = func(context.Context) error { return nil }
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Error().Err(err).Msg("shutdown tracer")
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, cfg.RulebookFetchTimeout)
	defer cancel()
	book, err := rulebook.NewLoader(rulebook.HTTPClient(cfg.RulebookFetchTimeout), logger).Load(loadCtx, cfg.RulebookSource)
	if err != nil {
		return err
	}

	var promoMetrics *obs.PromotionMetrics
	if cfg.Obs.EnablePrometheus {
		promoMetrics = obs.NewPromotionMetrics(cfg.Obs.MetricsNamespace, nil)
	}
	service := quote.NewService(quote.ServiceConfig{
		Rules:       book,
		DefaultMode: cfg.DefaultMode,
		Logger:      logger,
		Observer:    observerOrNil(promoMetrics),
		Tracer:      obs.Tracer("quote"),
	})

	probes := map[string]health.Probe{}
	if book.Source() != "" {
		probes["rulebook"] = book.Check
	}
	var limiter ratelimit.Limiter = ratelimit.NewMemory("promo:ratelimit")
	if cfg.RedisURL != "" {
		client, err := newRedis(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
		limiter = ratelimit.SlidingWindow{Client: client, Prefix: "promo:ratelimit:"}
		probes["redis"] = health.RedisProbe(client)
	}
	healthHandler := health.NewHandler(300*time.Millisecond, probes)

	srv := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: newRouter(routerDeps{
			cfg:     cfg,
			logger:  logger,
			quotes:  quote.NewHandler(service),
			health:  healthHandler,
			limiter: limiter,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Int("rules", book.Len()).Str("mode", string(cfg.DefaultMode)).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	healthHandler.SetDraining(true)
	logger.Info().Msg("server shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

func newRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func observerOrNil(m *obs.PromotionMetrics) promotion.Observer {
	if m == nil {
		return nil
	}
	return m
}
