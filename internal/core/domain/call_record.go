package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallRecord is one journalled call outcome.
type CallRecord struct {
	ID        uuid.UUID     `json:"id"`
	Command   string        `json:"command"`
	Name      string        `json:"name"`
	Kind      string        `json:"kind"`
	Reason    string        `json:"reason,omitempty"`
	Message   string        `json:"message,omitempty"`
	Retryable bool          `json:"retryable"`
	Attempts  int           `json:"attempts"`
	Elapsed   time.Duration `json:"elapsed"`
	CreatedAt time.Time     `json:"created_at"`
}

// Failed reports whether the record is a remote or transport failure.
func (r *CallRecord) Failed() bool {
	return r.Kind == "remote_error" || r.Kind == "transport_error"
}
