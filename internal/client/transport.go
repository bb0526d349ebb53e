// Package client contains the HTTP clients for the two remote services: the
// product-catalog service and the session-authenticated pricing service.
package client

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout bounds every outbound call when the configuration does not
// override it.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient builds the shared outbound HTTP client: otel-instrumented
// transport and an overall per-request timeout. Both remote services go
// through a client built here.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}
