package provider

import (
	"net/http"
	"strings"
	"sync"
	"time"
)

// ProviderStatus represents the health state of a provider.
type ProviderStatus int

const (
	StatusHealthy   ProviderStatus = iota // Provider is working normally
	StatusDegraded                        // Provider is slow or failing often
	StatusThrottled                       // Provider is rate limiting
	StatusBlocked                         // Provider rejected our credentials
)

func (s ProviderStatus) String() string {
	switch s {
	case StatusHealthy:
		return "healthy"
	case StatusDegraded:
		return "degraded"
	case StatusThrottled:
		return "throttled"
	case StatusBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MonitorStats holds monitoring statistics for a provider.
type MonitorStats struct {
	Status           ProviderStatus `json:"status"`
	AverageLatency   time.Duration  `json:"average_latency"`
	Requests         int            `json:"requests"`
	Failures         int            `json:"failures"`
	ThrottleCount429 int            `json:"throttle_count_429"`
	AuthFailures     int            `json:"auth_failures"`
	RetryAfter       time.Duration  `json:"retry_after"`
}

// ProviderMonitor tracks provider latency, failures and rate limiting.
type ProviderMonitor struct {
	mu sync.RWMutex

	recentLatencies  []time.Duration
	maxLatencyWindow int

	requests         int
	failures         int
	status429Count   int
	authFailures     int
	throttlePatterns []string
	lastThrottleTime time.Time
	retryAfter       time.Duration

	slowResponseThreshold time.Duration
	degradedThreshold     float64
}

// NewProviderMonitor creates a new monitor with default settings.
func NewProviderMonitor() *ProviderMonitor {
	return &ProviderMonitor{
		recentLatencies:  make([]time.Duration, 0, 100),
		maxLatencyWindow: 100,
		throttlePatterns: []string{
			"rate limit exceeded",
			"rate_limit_exceeded",
			"too many requests",
			"quota exceeded",
			"resource_exhausted",
		},
		slowResponseThreshold: 3 * time.Second,
		degradedThreshold:     0.3, // 30% error rate
	}
}

// RecordRequest records a successful request with its latency.
func (pm *ProviderMonitor) RecordRequest(latency time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	pm.recentLatencies = append(pm.recentLatencies, latency)
	if len(pm.recentLatencies) > pm.maxLatencyWindow {
		pm.recentLatencies = pm.recentLatencies[1:]
	}
}

// RecordFailure records a failed request and, for throttling or auth
// statuses, updates the throttle state.
func (pm *ProviderMonitor) RecordFailure(statusCode int, retryAfter time.Duration) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	pm.requests++
	pm.failures++

	switch statusCode {
	case http.StatusTooManyRequests:
		pm.status429Count++
		pm.lastThrottleTime = time.Now()
		pm.retryAfter = retryAfter
		if pm.retryAfter == 0 {
			pm.retryAfter = 60 * time.Second
		}
	case http.StatusUnauthorized, http.StatusForbidden:
		pm.authFailures++
		pm.lastThrottleTime = time.Now()
		pm.retryAfter = 10 * time.Minute
	}
}

// DetectThrottlePattern checks if a message contains throttle patterns.
func (pm *ProviderMonitor) DetectThrottlePattern(message string) bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	lowerMsg := strings.ToLower(message)
	for _, pattern := range pm.throttlePatterns {
		if strings.Contains(lowerMsg, pattern) {
			return true
		}
	}
	return false
}

// CheckProviderStatus returns the current status of the provider.
func (pm *ProviderMonitor) CheckProviderStatus() ProviderStatus {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.statusLocked()
}

func (pm *ProviderMonitor) statusLocked() ProviderStatus {
	inWindow := time.Since(pm.lastThrottleTime) < pm.retryAfter

	if pm.authFailures > 0 && inWindow {
		return StatusBlocked
	}
	if pm.status429Count > 0 && inWindow {
		return StatusThrottled
	}

	if pm.requests >= 5 && float64(pm.failures)/float64(pm.requests) > pm.degradedThreshold {
		return StatusDegraded
	}
	if len(pm.recentLatencies) > 10 && pm.averageLatencyLocked() > pm.slowResponseThreshold {
		return StatusDegraded
	}

	return StatusHealthy
}

// GetRetryAfter returns remaining time before retry is allowed.
func (pm *ProviderMonitor) GetRetryAfter() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.retryAfterLocked()
}

func (pm *ProviderMonitor) retryAfterLocked() time.Duration {
	if pm.retryAfter > 0 {
		if remaining := pm.retryAfter - time.Since(pm.lastThrottleTime); remaining > 0 {
			return remaining
		}
	}
	return 0
}

// GetAverageLatency returns the average latency of recent requests.
func (pm *ProviderMonitor) GetAverageLatency() time.Duration {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.averageLatencyLocked()
}

func (pm *ProviderMonitor) averageLatencyLocked() time.Duration {
	if len(pm.recentLatencies) == 0 {
		return 0
	}
	var total time.Duration
	for _, lat := range pm.recentLatencies {
		total += lat
	}
	return total / time.Duration(len(pm.recentLatencies))
}

// GetStats returns current monitoring statistics.
func (pm *ProviderMonitor) GetStats() MonitorStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	return MonitorStats{
		Status:           pm.statusLocked(),
		AverageLatency:   pm.averageLatencyLocked(),
		Requests:         pm.requests,
		Failures:         pm.failures,
		ThrottleCount429: pm.status429Count,
		AuthFailures:     pm.authFailures,
		RetryAfter:       pm.retryAfterLocked(),
	}
}
