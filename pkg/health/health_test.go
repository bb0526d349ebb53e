package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, handler http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return rec.Code, body
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	h := New()

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "not ready", body["status"])
}

func TestReadyEndpoint_ChecksPass(t *testing.T) {
	h := New()
	h.AddReadinessCheck("pricing", time.Second, func(context.Context) error { return nil })
	h.SetReady(true)

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "ok", checks["pricing"])
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	h := New()
	h.AddReadinessCheck("pricing", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	h.AddReadinessCheck("catalog", time.Second, func(context.Context) error { return nil })
	h.SetReady(true)

	code, body := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "connection refused", checks["pricing"])
	assert.Equal(t, "ok", checks["catalog"])
}

func TestReadyEndpoint_CheckTimeout(t *testing.T) {
	h := New()
	h.AddReadinessCheck("slow", 10*time.Millisecond, func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	h.SetReady(true)

	code, _ := probe(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestLiveEndpoint(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))

	code, body := probe(t, h.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestGoroutineCountCheck(t *testing.T) {
	require.NoError(t, GoroutineCountCheck(1000000)(context.Background()))
	require.Error(t, GoroutineCountCheck(0)(context.Background()))
}
