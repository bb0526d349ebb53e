// Package health provides liveness and readiness endpoints for the serve
// mode. Checks are evaluated on demand when a probe arrives; a check must
// answer within its timeout or it counts as failed.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc probes one dependency. It returns nil when healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Health serves liveness and readiness probes. The service starts not ready;
// call SetReady(true) once initialization is complete.
type Health struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Health instance with no checks registered.
func New() *Health {
	return &Health{}
}

// AddLivenessCheck registers a liveness check: is the process itself alive
// and functioning.
func (h *Health) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.liveness = append(h.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a readiness check: can the service do useful
// work right now (dependencies reachable).
func (h *Health) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.readiness = append(h.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the readiness gate. While false, ReadyEndpoint answers 503
// without running any checks.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// LiveEndpoint is the /livez handler.
func (h *Health) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	checks := h.liveness
	h.mu.RUnlock()
	respond(w, r, run(r.Context(), checks))
}

// ReadyEndpoint is the /readyz handler.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		respondNotReady(w)
		return
	}
	h.mu.RLock()
	checks := h.readiness
	h.mu.RUnlock()
	respond(w, r, run(r.Context(), checks))
}

// run evaluates checks and returns per-check outcomes.
func run(ctx context.Context, checks []check) map[string]string {
	results := make(map[string]string, len(checks))
	for _, c := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, c.timeout)
		if err := c.fn(checkCtx); err != nil {
			results[c.name] = err.Error()
		} else {
			results[c.name] = "ok"
		}
		cancel()
	}
	return results
}

func respond(w http.ResponseWriter, _ *http.Request, results map[string]string) {
	healthy := true
	for _, v := range results {
		if v != "ok" {
			healthy = false
			break
		}
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status": status,
		"checks": results,
	})
}

func respondNotReady(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "not ready"})
}
