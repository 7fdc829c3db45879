package control

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/provider"
	"github.com/vietddude/callguard/internal/infra/storage"
	"github.com/vietddude/callguard/internal/metrics"
)

// Reporter surfaces call outcomes for one command: it logs them, records
// metrics, appends them to the journal and prints them.
type Reporter struct {
	command string
	journal storage.JournalRepository
	stdout  io.Writer
	stderr  io.Writer
	log     *slog.Logger
}

// NewReporter creates a reporter. A nil journal disables journalling.
func NewReporter(command string, journal storage.JournalRepository, stdout, stderr io.Writer) *Reporter {
	return &Reporter{
		command: command,
		journal: journal,
		stdout:  stdout,
		stderr:  stderr,
		log:     slog.Default().With("command", command),
	}
}

// Observe logs, measures and journals an outcome without printing it.
func (r *Reporter) Observe(ctx context.Context, name string, s call.Summary) {
	attrs := []any{
		"call", name,
		"kind", s.Kind.String(),
		"attempts", s.Attempts,
		"elapsed", s.Elapsed,
	}
	switch s.Kind {
	case call.KindSuccess:
		r.log.Debug("Call succeeded", attrs...)
	case call.KindEmpty:
		r.log.Info("Call returned no data", attrs...)
	default:
		attrs = append(attrs, "reason", string(s.Reason), "retryable", s.Retryable, "error", s.Message)
		r.log.Error("Call failed", attrs...)
	}

	metrics.CallsTotal.WithLabelValues(name, s.Kind.String(), string(s.Reason)).Inc()
	metrics.CallAttempts.WithLabelValues(name).Observe(float64(s.Attempts))
	metrics.CallLatency.WithLabelValues(name, s.Kind.String()).Observe(s.Elapsed.Seconds())

	if r.journal == nil {
		return
	}
	rec := &domain.CallRecord{
		ID:        uuid.New(),
		Command:   r.command,
		Name:      name,
		Kind:      s.Kind.String(),
		Reason:    string(s.Reason),
		Message:   s.Message,
		Retryable: s.Retryable,
		Attempts:  s.Attempts,
		Elapsed:   s.Elapsed,
		CreatedAt: time.Now().UTC(),
	}
	if err := r.journal.Record(ctx, rec); err != nil {
		r.log.Warn("Failed to journal call outcome", "call", name, "error", err)
	}
}

// ObserveProvider exports an HTTP provider's error rate and logs its status.
func (r *Reporter) ObserveProvider(p *provider.HTTPProvider) {
	h := p.GetHealth()
	metrics.ProviderErrorRate.WithLabelValues(h.Name).Set(h.ErrorRate)
	r.log.Debug("Provider status",
		"provider", h.Name,
		"available", h.Available,
		"status", p.Monitor.CheckProviderStatus().String(),
		"latency", h.Latency,
		"error_rate", h.ErrorRate,
	)
}

// Printf writes an informational line to stdout.
func (r *Reporter) Printf(format string, args ...any) {
	fmt.Fprintf(r.stdout, format, args...)
}

// Report observes the outcome, prints the rendered payload to stdout on
// success or the failure to stderr, and returns the process exit code.
func Report[T any](ctx context.Context, r *Reporter, name string, out call.Outcome[T], render func(T) string) int {
	r.Observe(ctx, name, out.Summary())

	switch out.Kind() {
	case call.KindSuccess:
		v, _ := out.Value()
		fmt.Fprintln(r.stdout, render(v))
	case call.KindEmpty:
		fmt.Fprintf(r.stderr, "%s: no data returned\n", name)
	default:
		fmt.Fprintf(r.stderr, "%s: %s\n", name, out)
	}
	return out.ExitCode()
}
