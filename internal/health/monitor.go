package health

import (
	"sync"
	"time"

	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/metrics"
)

// criticalAfter is the number of consecutive failures that marks a component critical.
const criticalAfter = 3

// Monitor aggregates the outcomes of component probes.
type Monitor struct {
	components map[string]ComponentHealth
	mu         sync.RWMutex
}

// NewMonitor creates a monitor tracking the named components. Components
// start as unknown until their first probe is recorded.
func NewMonitor(names ...string) *Monitor {
	m := &Monitor{components: make(map[string]ComponentHealth, len(names))}
	for _, name := range names {
		m.components[name] = ComponentHealth{Name: name, Status: StatusUnknown}
	}
	return m
}

// Record updates a component from a probe outcome.
func (m *Monitor) Record(name string, kind call.Kind, reason call.Reason, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.components[name]
	h.Name = name
	h.LastKind = kind.String()
	h.LastReason = string(reason)
	h.LastMessage = message
	h.LastCheckedAt = time.Now()

	switch kind {
	case call.KindSuccess, call.KindEmpty:
		h.ConsecutiveFailures = 0
		h.Status = StatusHealthy
		metrics.ComponentUp.WithLabelValues(name).Set(1)
	default:
		h.ConsecutiveFailures++
		// Credentials and bad requests do not fix themselves.
		if h.ConsecutiveFailures >= criticalAfter || (kind == call.KindRemoteError && !reason.Retryable()) {
			h.Status = StatusCritical
		} else {
			h.Status = StatusDegraded
		}
		metrics.ComponentUp.WithLabelValues(name).Set(0)
	}

	m.components[name] = h
}

// CheckHealth returns a snapshot of every component.
func (m *Monitor) CheckHealth() HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()

	report := HealthReport{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth, len(m.components)),
	}

	// Aggregate status (worst case wins)
	for name, c := range m.components {
		report.Components[name] = c
		switch c.Status {
		case StatusCritical:
			report.SystemStatus = StatusCritical
		case StatusDegraded, StatusUnknown:
			if report.SystemStatus == StatusHealthy {
				report.SystemStatus = StatusDegraded
			}
		}
	}
	return report
}
