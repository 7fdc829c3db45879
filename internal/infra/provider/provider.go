// Package provider implements monitored clients for third-party HTTP endpoints.
//
// This package contains:
//   - HTTPProvider: JSON/REST over HTTP with status-error mapping
//   - StatusError: non-2xx responses, classifiable by the call wrapper
//   - ProviderMonitor: latency and throttle tracking per endpoint
package provider

import (
	"net/http"
	"net/url"
	"time"
)

// Request describes one HTTP call against a provider's base URL.
type Request struct {
	// Method defaults to GET.
	Method string

	// Path is joined onto the provider's base URL. An absolute URL is used as-is.
	Path string

	Query  url.Values
	Header http.Header

	// Body is JSON-encoded when non-nil.
	Body any
}

// Response is a buffered HTTP response with a 2xx status.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Latency    time.Duration
}

// HealthStatus summarises a provider for health endpoints.
type HealthStatus struct {
	Name          string        `json:"name"`
	Available     bool          `json:"available"`
	Latency       time.Duration `json:"latency"`
	ErrorRate     float64       `json:"error_rate"`
	LastSuccessAt time.Time     `json:"last_success_at"`
	LastFailureAt time.Time     `json:"last_failure_at"`
	MonitorStats  *MonitorStats `json:"monitor_stats,omitempty"`
}
