// Package control wires the call wrapper to its callers: request defaults,
// outcome reporting, the outcome journal and the long-running agent session.
package control

import (
	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/infra/call"
)

// NewRequest builds a call request carrying the configured timeout, retry count and backoff.
func NewRequest[T any](name string, cfg config.CallConfig, op call.Operation[T]) call.Request[T] {
	return call.Request[T]{
		Name:       name,
		Operation:  op,
		Timeout:    cfg.Timeout,
		RetryCount: cfg.RetryCount,
		Backoff:    cfg.Backoff,
	}
}
