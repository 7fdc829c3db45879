package call

import (
	"fmt"
	"time"
)

// Kind identifies which case of an Outcome is populated.
type Kind int

const (
	KindSuccess        Kind = iota + 1 // Operation returned a usable payload
	KindEmpty                          // Operation completed without usable data
	KindRemoteError                    // Remote side reported a structured failure
	KindTransportError                 // No structured response was received
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindEmpty:
		return "empty"
	case KindRemoteError:
		return "remote_error"
	case KindTransportError:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Reason is the failure subtype carried by RemoteError and TransportError outcomes.
type Reason string

const (
	ReasonNone Reason = ""

	// Remote subtypes
	ReasonAuthentication   Reason = "authentication"
	ReasonNotFound         Reason = "not_found"
	ReasonRateLimited      Reason = "rate_limited"
	ReasonMalformedRequest Reason = "malformed_request"
	ReasonServer           Reason = "server"
	ReasonRemote           Reason = "remote"

	// Transport subtypes
	ReasonTimeout           Reason = "timeout"
	ReasonConnectionRefused Reason = "connection_refused"
	ReasonDNSFailure        Reason = "dns_failure"
	ReasonCancelled         Reason = "cancelled"
	ReasonTransport         Reason = "transport"
)

// Retryable reports whether a remote failure with this reason is expected to be transient.
func (r Reason) Retryable() bool {
	return r == ReasonRateLimited || r == ReasonServer
}

// Exit codes used by CLI callers.
const (
	ExitOK             = 0
	ExitRemoteError    = 1
	ExitTransportError = 2
)

// Outcome is the uniform result of Execute. Exactly one case is populated and
// the value is never modified after construction.
type Outcome[T any] struct {
	kind       Kind
	value      T
	message    string
	reason     Reason
	retryable  bool
	retryAfter time.Duration
	attempts   int
	elapsed    time.Duration
}

// Success wraps a non-empty payload.
func Success[T any](value T) Outcome[T] {
	return Outcome[T]{kind: KindSuccess, value: value, attempts: 1}
}

// Empty reports a completed call without usable data.
func Empty[T any]() Outcome[T] {
	return Outcome[T]{kind: KindEmpty, attempts: 1}
}

// RemoteFailure reports a failure the remote service understood and rejected.
func RemoteFailure[T any](reason Reason, message string, retryable bool) Outcome[T] {
	return Outcome[T]{
		kind:      KindRemoteError,
		reason:    reason,
		message:   message,
		retryable: retryable,
		attempts:  1,
	}
}

// TransportFailure reports a call that never got a structured response.
func TransportFailure[T any](reason Reason, message string) Outcome[T] {
	return Outcome[T]{
		kind:      KindTransportError,
		reason:    reason,
		message:   message,
		retryable: reason != ReasonCancelled,
		attempts:  1,
	}
}

func (o Outcome[T]) Kind() Kind { return o.kind }

// Value returns the payload and true for Success outcomes.
func (o Outcome[T]) Value() (T, bool) {
	return o.value, o.kind == KindSuccess
}

// Message is the human-readable failure message; empty for Success and Empty.
func (o Outcome[T]) Message() string { return o.message }

func (o Outcome[T]) Reason() Reason { return o.reason }

// Retryable reports whether another attempt could succeed. Transport failures
// are retryable unless the call was cancelled.
func (o Outcome[T]) Retryable() bool { return o.retryable }

// RetryAfter is the delay the remote side asked for, if any.
func (o Outcome[T]) RetryAfter() time.Duration { return o.retryAfter }

// Attempts is the number of times the operation was invoked.
func (o Outcome[T]) Attempts() int { return o.attempts }

// Elapsed is the wall time spent across all attempts, including backoff.
func (o Outcome[T]) Elapsed() time.Duration { return o.elapsed }

func (o Outcome[T]) IsSuccess() bool { return o.kind == KindSuccess }

func (o Outcome[T]) IsEmpty() bool { return o.kind == KindEmpty }

// IsFailure is true for RemoteError and TransportError outcomes.
func (o Outcome[T]) IsFailure() bool {
	return o.kind == KindRemoteError || o.kind == KindTransportError
}

// Err returns nil for Success and Empty, and an error describing the failure otherwise.
func (o Outcome[T]) Err() error {
	if !o.IsFailure() {
		return nil
	}
	return fmt.Errorf("%s (%s): %s", o.kind, o.reason, o.message)
}

// ExitCode maps the outcome to a process exit status.
func (o Outcome[T]) ExitCode() int {
	switch o.kind {
	case KindRemoteError:
		return ExitRemoteError
	case KindTransportError:
		return ExitTransportError
	default:
		return ExitOK
	}
}

func (o Outcome[T]) String() string {
	switch o.kind {
	case KindSuccess:
		return fmt.Sprintf("success after %d attempt(s)", o.attempts)
	case KindEmpty:
		return "empty result"
	case KindRemoteError:
		return fmt.Sprintf("remote error [%s, retryable=%t]: %s", o.reason, o.retryable, o.message)
	case KindTransportError:
		return fmt.Sprintf("transport error [%s]: %s", o.reason, o.message)
	default:
		return "unknown outcome"
	}
}

// Summary is an Outcome without its payload, for logs, metrics and journals.
type Summary struct {
	Kind      Kind
	Reason    Reason
	Message   string
	Retryable bool
	Attempts  int
	Elapsed   time.Duration
}

// Summary drops the payload.
func (o Outcome[T]) Summary() Summary {
	return Summary{
		Kind:      o.kind,
		Reason:    o.reason,
		Message:   o.message,
		Retryable: o.retryable,
		Attempts:  o.attempts,
		Elapsed:   o.elapsed,
	}
}

// Map converts the payload of a Success outcome, preserving every other field.
func Map[T, U any](o Outcome[T], fn func(T) U) Outcome[U] {
	out := Outcome[U]{
		kind:       o.kind,
		message:    o.message,
		reason:     o.reason,
		retryable:  o.retryable,
		retryAfter: o.retryAfter,
		attempts:   o.attempts,
		elapsed:    o.elapsed,
	}
	if o.kind == KindSuccess {
		out.value = fn(o.value)
	}
	return out
}

func (o Outcome[T]) withAttempts(n int, elapsed time.Duration) Outcome[T] {
	o.attempts = n
	o.elapsed = elapsed
	return o
}
