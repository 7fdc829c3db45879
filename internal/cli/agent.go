package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/callguard/internal/control"
	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/openai"
)

var (
	agentServe         bool
	agentProbeInterval time.Duration
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Probe the voice agent plugins",
	Long: `agent builds the voice pipeline (speech-to-text, LLM, text-to-speech) from the
configured OpenAI-compatible endpoints and probes each plugin. With --serve it keeps
running, re-probing in the background and serving /health, /health/detailed and /metrics.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		code := runAgent(ctx, appCfg, agentServe, os.Stdout, os.Stderr)
		cancel()
		os.Exit(code)
	},
}

var agentAskCmd = &cobra.Command{
	Use:   "ask <text>",
	Short: "Run one text turn through the agent's LLM",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		code := runAgentAsk(ctx, appCfg, strings.Join(args, " "), os.Stdout, os.Stderr)
		cancel()
		os.Exit(code)
	},
}

func init() {
	agentCmd.Flags().BoolVar(&agentServe, "serve", false, "keep running with health and metrics endpoints")
	agentCmd.Flags().DurationVar(&agentProbeInterval, "probe-interval", 30*time.Second, "re-probe interval in serve mode")
	agentCmd.AddCommand(agentAskCmd)
	rootCmd.AddCommand(agentCmd)
}

func newSession(ctx context.Context, cfg *config.AppConfig, command string, stdout, stderr io.Writer) (*control.Session, func()) {
	journal, db := control.OpenJournal(ctx, cfg.Database)
	reporter := control.NewReporter(command, journal, stdout, stderr)

	a := cfg.Agent
	s := control.NewSession(control.SessionConfig{
		Name:          a.Name,
		Instructions:  a.Instructions,
		Call:          cfg.Call,
		Port:          cfg.Server.Port,
		ProbeInterval: agentProbeInterval,
	}, reporter, db,
		newPlugin(openai.RoleLLM, a.LLM),
		newPlugin(openai.RoleSTT, a.STT),
		newPlugin(openai.RoleTTS, a.TTS),
	)

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}
	return s, cleanup
}

func newPlugin(role openai.Role, p config.PluginConfig) *openai.Plugin {
	return openai.NewPlugin(role, openai.Settings{
		BaseURL: p.BaseURL,
		APIKey:  p.APIKey,
		Model:   p.Model,
		Voice:   p.Voice,
	})
}

func runAgent(ctx context.Context, cfg *config.AppConfig, serve bool, stdout, stderr io.Writer) int {
	s, cleanup := newSession(ctx, cfg, "agent", stdout, stderr)
	defer cleanup()

	results := s.Probe(ctx)
	code := printProbes(results, stdout, stderr)
	if !serve {
		return code
	}

	if err := s.Start(ctx); err != nil {
		slog.Error("Failed to start agent session", "error", err)
		return ExitUsage
	}

	<-ctx.Done()
	slog.Info("Received signal, shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := s.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		return call.ExitTransportError
	}
	return call.ExitOK
}

func printProbes(results []control.ProbeResult, stdout, stderr io.Writer) int {
	code := call.ExitOK

	w := tabwriter.NewWriter(stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "PLUGIN\tMODEL\tENDPOINT\tRESULT\tATTEMPTS\tELAPSED")
	for _, r := range results {
		out := r.Outcome
		result := out.Kind().String()
		if out.IsFailure() {
			result += " (" + string(out.Reason()) + ")"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.Plugin.Name(),
			r.Plugin.Model(),
			r.Plugin.BaseURL(),
			result,
			out.Attempts(),
			out.Elapsed().Round(time.Millisecond),
		)
		code = max(code, out.ExitCode())
	}
	_ = w.Flush()

	for _, r := range results {
		if r.Outcome.IsFailure() {
			fmt.Fprintf(stderr, "agent.%s.probe: %s\n", r.Plugin.Name(), r.Outcome)
		}
	}
	return code
}

func runAgentAsk(ctx context.Context, cfg *config.AppConfig, text string, stdout, stderr io.Writer) int {
	s, cleanup := newSession(ctx, cfg, "agent", stdout, stderr)
	defer cleanup()

	return control.Report(ctx, s.Reporter(), "agent.llm.ask", s.Ask(ctx, text), func(reply string) string {
		return reply
	})
}
