package health

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/promo-engine/internal/common"
)

// Probe checks one dependency.
type Probe func(ctx context.Context) error

// RedisProbe pings client.
func RedisProbe(client redis.UniversalClient) Probe {
	return func(ctx context.Context) error {
		if client == nil {
			return errors.New("redis not configured")
		}
		return client.Ping(ctx).Err()
	}
}

// Handler exposes liveness and readiness endpoints.
type Handler struct {
	probes   map[string]Probe
	timeout  time.Duration
	draining atomic.Bool
}

// NewHandler constructs a Handler. Each probe runs with timeout (300ms when
// zero).
func NewHandler(timeout time.Duration, probes map[string]Probe) *Handler {
	if timeout <= 0 {
		timeout = 300 * time.Millisecond
	}
	h := &Handler{probes: make(map[string]Probe, len(probes)), timeout: timeout}
	for name, p := range probes {
		if p != nil {
			h.probes[name] = p
		}
	}
	return h
}

// SetDraining marks the instance as shutting down; readiness fails from then on.
func (h *Handler) SetDraining(draining bool) { h.draining.Store(draining) }

// Live reports liveness status.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and reports per-dependency status.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}

	names := make([]string, 0, len(h.probes))
	for name := range h.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	healthy := true
	for _, name := range names {
		ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
		err := h.probes[name](ctx)
		cancel()
		if err != nil {
			status[name] = err.Error()
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	code := http.StatusOK
	if !healthy {
		code = http.StatusServiceUnavailable
	}
	common.JSON(w, code, status)
}
