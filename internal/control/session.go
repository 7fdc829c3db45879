package control

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/health"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/openai"
	"github.com/vietddude/callguard/internal/infra/storage/postgres"
)

// SessionConfig holds the voice agent settings.
type SessionConfig struct {
	Name          string
	Instructions  string
	Call          config.CallConfig
	Port          int
	ProbeInterval time.Duration
}

// ProbeResult is the outcome of probing one plugin.
type ProbeResult struct {
	Plugin  *openai.Plugin
	Outcome call.Outcome[*openai.ModelInfo]
}

// Session is a voice agent pipeline built from hosted plugins. It probes the
// plugins, answers text turns through the LLM and, when started, serves
// health and metrics while re-probing in the background.
type Session struct {
	cfg      SessionConfig
	llm      *openai.Plugin
	plugins  []*openai.Plugin
	reporter *Reporter
	monitor  *health.Monitor
	server   *health.Server
	db       *postgres.DB
	log      *slog.Logger
}

// NewSession creates a session. db may be nil when the journal is in memory.
func NewSession(cfg SessionConfig, reporter *Reporter, db *postgres.DB, llm, stt, tts *openai.Plugin) *Session {
	if cfg.ProbeInterval <= 0 {
		cfg.ProbeInterval = 30 * time.Second
	}
	plugins := []*openai.Plugin{llm, stt, tts}

	names := make([]string, 0, len(plugins))
	for _, p := range plugins {
		names = append(names, p.Name())
	}
	monitor := health.NewMonitor(names...)

	return &Session{
		cfg:      cfg,
		llm:      llm,
		plugins:  plugins,
		reporter: reporter,
		monitor:  monitor,
		server:   health.NewServer(monitor, cfg.Port),
		db:       db,
		log:      slog.Default().With("agent", cfg.Name),
	}
}

// Reporter returns the reporter the session observes outcomes with.
func (s *Session) Reporter() *Reporter {
	return s.reporter
}

// Monitor exposes the session's health monitor.
func (s *Session) Monitor() *health.Monitor {
	return s.monitor
}

// Probe checks every plugin concurrently, one wrapped call per plugin.
// Results keep the pipeline order.
func (s *Session) Probe(ctx context.Context) []ProbeResult {
	results := make([]ProbeResult, len(s.plugins))

	var wg sync.WaitGroup
	for i, p := range s.plugins {
		wg.Add(1)
		go func(i int, p *openai.Plugin) {
			defer wg.Done()
			name := "agent." + p.Name() + ".probe"
			out := call.Execute(ctx, NewRequest(name, s.cfg.Call, p.Probe))

			s.reporter.Observe(ctx, name, out.Summary())
			s.monitor.Record(p.Name(), out.Kind(), out.Reason(), out.Message())
			results[i] = ProbeResult{Plugin: p, Outcome: out}
		}(i, p)
	}
	wg.Wait()

	return results
}

// Ask runs one text turn through the LLM with the session instructions.
func (s *Session) Ask(ctx context.Context, text string) call.Outcome[string] {
	out := call.Execute(ctx, NewRequest("agent.llm.ask", s.cfg.Call, func(ctx context.Context) (string, error) {
		return s.llm.Complete(ctx, s.cfg.Instructions, text)
	}))
	s.monitor.Record(s.llm.Name(), out.Kind(), out.Reason(), out.Message())
	return out
}

// Start serves health endpoints and re-probes plugins until ctx is done.
func (s *Session) Start(ctx context.Context) error {
	// Start Health Server
	go func() {
		if err := s.server.Start(); err != nil {
			s.log.Error("Health server failed", "error", err)
		}
	}()

	// Start DB Metrics Collector
	if s.db != nil {
		s.db.StartMetricsCollector(ctx)
	}

	go s.runProber(ctx)

	s.log.Info("Agent session started", "port", s.cfg.Port, "probe_interval", s.cfg.ProbeInterval)
	return nil
}

// Stop stops the session.
func (s *Session) Stop(ctx context.Context) error {
	s.log.Info("Stopping agent session...")
	return s.server.Stop(ctx)
}

func (s *Session) runProber(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.ProbeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, r := range s.Probe(ctx) {
				if r.Outcome.IsFailure() {
					s.log.Warn("Plugin unhealthy", "plugin", r.Plugin.Name(), "reason", r.Outcome.Reason())
				}
			}
		}
	}
}
