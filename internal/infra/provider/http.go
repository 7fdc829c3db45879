package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/vietddude/callguard/internal/infra/call"
)

const userAgent = "callguard/1.0"

// maxResponseBody bounds how much of a response is read into memory.
const maxResponseBody = 8 << 20

// HTTPProvider is a monitored HTTP client bound to one base URL.
type HTTPProvider struct {
	name       string
	baseURL    string
	httpClient *http.Client

	mu            sync.RWMutex
	lastSuccessAt time.Time
	lastFailureAt time.Time

	Monitor *ProviderMonitor
}

// NewHTTPProvider creates a new HTTP provider. A zero timeout leaves
// deadlines to the caller's context.
func NewHTTPProvider(name, baseURL string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		Monitor: NewProviderMonitor(),
	}
}

// Do performs the request. Non-2xx responses are returned as *StatusError,
// wrapped with call.RetryAfter when the server sent a Retry-After header.
func (p *HTTPProvider) Do(ctx context.Context, r Request) (*Response, error) {
	start := time.Now()

	req, err := p.newRequest(ctx, r)
	if err != nil {
		return nil, call.NoRetry(err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.recordFailure(0, 0)
		return nil, fmt.Errorf("%s request: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		p.recordFailure(0, 0)
		return nil, fmt.Errorf("%s read response: %w", p.name, err)
	}
	if len(body) > maxResponseBody {
		p.recordFailure(0, 0)
		return nil, call.NoRetry(fmt.Errorf("%s response exceeds %d bytes", p.name, maxResponseBody))
	}
	latency := time.Since(start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		statusErr := &StatusError{
			Provider:   p.name,
			StatusCode: resp.StatusCode,
			Body:       string(body),
			Throttled:  p.Monitor.DetectThrottlePattern(string(body)),
		}
		p.recordFailure(statusErr.HTTPStatus(), retryAfter)
		if retryAfter > 0 {
			return nil, call.RetryAfter(retryAfter, statusErr)
		}
		return nil, statusErr
	}

	p.recordSuccess(latency)
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
		Latency:    latency,
	}, nil
}

// DoJSON performs the request and decodes a JSON response into out.
func (p *HTTPProvider) DoJSON(ctx context.Context, r Request, out any) error {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	if r.Header.Get("Accept") == "" {
		r.Header.Set("Accept", "application/json")
	}

	resp, err := p.Do(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s parse response: %w", p.name, err)
	}
	return nil
}

func (p *HTTPProvider) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	target := r.Path
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = p.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	}
	if len(r.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("%s marshal request: %w", p.name, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("%s create request: %w", p.name, err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	return req, nil
}

// GetName returns the provider's name.
func (p *HTTPProvider) GetName() string {
	return p.name
}

// BaseURL returns the provider's base URL without a trailing slash.
func (p *HTTPProvider) BaseURL() string {
	return p.baseURL
}

// GetHealth returns the provider's health status.
func (p *HTTPProvider) GetHealth() HealthStatus {
	stats := p.Monitor.GetStats()

	p.mu.RLock()
	defer p.mu.RUnlock()

	h := HealthStatus{
		Name:          p.name,
		Available:     p.IsAvailable(),
		Latency:       stats.AverageLatency,
		LastSuccessAt: p.lastSuccessAt,
		LastFailureAt: p.lastFailureAt,
		MonitorStats:  &stats,
	}
	if stats.Requests > 0 {
		h.ErrorRate = float64(stats.Failures) / float64(stats.Requests)
	}
	return h
}

// IsAvailable checks if the provider is healthy enough to use.
func (p *HTTPProvider) IsAvailable() bool {
	status := p.Monitor.CheckProviderStatus()
	return status == StatusHealthy || status == StatusDegraded
}

// Close releases idle connections.
func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

func (p *HTTPProvider) recordSuccess(latency time.Duration) {
	p.Monitor.RecordRequest(latency)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastSuccessAt = time.Now()
}

func (p *HTTPProvider) recordFailure(statusCode int, retryAfter time.Duration) {
	p.Monitor.RecordFailure(statusCode, retryAfter)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastFailureAt = time.Now()
}
