// Package health provides component health monitoring and status reporting.
package health

import "time"

// SystemStatus represents the overall health state of the system or a component.
type SystemStatus string

const (
	StatusHealthy  SystemStatus = "healthy"
	StatusDegraded SystemStatus = "degraded"
	StatusCritical SystemStatus = "critical"
	StatusUnknown  SystemStatus = "unknown"
)

// ComponentHealth is the last known state of one probed component.
type ComponentHealth struct {
	Name                string       `json:"name"`
	Status              SystemStatus `json:"status"`
	LastKind            string       `json:"last_kind,omitempty"`
	LastReason          string       `json:"last_reason,omitempty"`
	LastMessage         string       `json:"last_message,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	LastCheckedAt       time.Time    `json:"last_checked_at"`
}

// HealthReport contains the full system health report.
type HealthReport struct {
	SystemStatus SystemStatus               `json:"system_status"`
	Components   map[string]ComponentHealth `json:"components"`
}
