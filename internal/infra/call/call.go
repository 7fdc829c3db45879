// Package call provides the resilient call wrapper used by every remote call in callguard.
//
// A remote operation is any function of a context returning a payload or an error.
// Execute invokes it under an optional timeout, classifies the result into one of
// four outcomes and never lets an error or panic escape:
//
//	out := call.Execute(ctx, call.Request[[]Segment]{
//	    Name:       "youtube.transcript",
//	    Operation:  func(ctx context.Context) ([]Segment, error) { return client.Fetch(ctx, id) },
//	    Timeout:    10 * time.Second,
//	    RetryCount: 2,
//	    Backoff:    call.ExponentialBackoff(200*time.Millisecond, 5*time.Second),
//	})
//	if segs, ok := out.Value(); ok {
//	    ...
//	}
//
// The wrapper performs no logging; callers decide how to surface the outcome.
package call

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

// Operation is a zero-argument remote call. It should honour ctx, but the
// wrapper does not rely on it doing so.
type Operation[T any] func(ctx context.Context) (T, error)

// Request describes one remote call.
type Request[T any] struct {
	// Name identifies the call for callers' logs and metrics. Not used by Execute.
	Name string

	Operation Operation[T]

	// Timeout bounds each attempt. Zero leaves timing to the operation itself.
	Timeout time.Duration

	// RetryCount is the number of extra attempts allowed for retryable failures.
	RetryCount int

	Backoff Backoff
}

// Emptier lets payload types decide whether they carry usable data.
type Emptier interface {
	IsEmpty() bool
}

type result[T any] struct {
	value T
	err   error
}

// Execute runs the request and returns exactly one outcome. It never panics and
// never returns an error; every failure is represented in the Outcome.
func Execute[T any](ctx context.Context, req Request[T]) Outcome[T] {
	start := time.Now()

	if err := validate(req); err != nil {
		return RemoteFailure[T](ReasonMalformedRequest, err.Error(), false).withAttempts(0, 0)
	}

	retries := req.RetryCount
	if retries < 0 {
		retries = 0
	}
	backoff := req.Backoff.build()

	var out Outcome[T]
	attempt := 0
	for {
		attempt++
		out = invoke(ctx, req)

		if attempt > retries || !shouldRetry(out) {
			break
		}

		next, stop := backoff.Next()
		if stop {
			break
		}
		wait := req.Backoff.delay(next, out.retryAfter)
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fromError[T](ctx.Err()).withAttempts(attempt, time.Since(start))
		case <-timer.C:
		}
	}

	return out.withAttempts(attempt, time.Since(start))
}

func validate[T any](req Request[T]) error {
	if req.Operation == nil {
		return errors.New("operation must not be nil")
	}
	if req.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %v", req.Timeout)
	}
	return req.Backoff.Validate()
}

func shouldRetry[T any](o Outcome[T]) bool {
	switch o.kind {
	case KindRemoteError, KindTransportError:
		return o.retryable
	default:
		return false
	}
}

// invoke performs a single attempt. The operation runs in its own goroutine so
// an attempt can be abandoned when the timeout or the caller's context fires.
func invoke[T any](ctx context.Context, req Request[T]) Outcome[T] {
	if err := ctx.Err(); err != nil {
		return fromError[T](err)
	}

	attemptCtx, cancel := ctx, context.CancelFunc(func() {})
	if req.Timeout > 0 {
		attemptCtx, cancel = context.WithTimeout(ctx, req.Timeout)
	}
	defer cancel()

	// Buffered so an abandoned operation can still deliver and exit.
	done := make(chan result[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result[T]{err: fmt.Errorf("operation panicked: %v", r)}
			}
		}()
		v, err := req.Operation(attemptCtx)
		done <- result[T]{value: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return fromError[T](r.err)
		}
		if isEmpty(r.value) {
			return Empty[T]()
		}
		return Success(r.value)
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			return fromError[T](ctx.Err())
		}
		return TransportFailure[T](ReasonTimeout, fmt.Sprintf("timed out after %v", req.Timeout))
	}
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Func:
		if rv.IsNil() {
			return true
		}
	case reflect.Slice, reflect.Map, reflect.Chan:
		if rv.IsNil() || rv.Len() == 0 {
			return true
		}
	case reflect.String, reflect.Array:
		if rv.Len() == 0 {
			return true
		}
	}

	if e, ok := v.(Emptier); ok {
		return e.IsEmpty()
	}
	return false
}
