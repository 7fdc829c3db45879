package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/vietddude/callguard/internal/core/config"
)

// ExitUsage is returned for configuration and usage errors.
const ExitUsage = 64

// clientTimeout is the HTTP client default used when call.timeout is unset.
const clientTimeout = 30 * time.Second

var (
	cfgPath     string
	isDebug     bool
	callTimeout time.Duration
	callRetries int

	appCfg *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "callguard",
	Short: "Resilient calls to hosted services",
	Long: `callguard fetches video transcripts, checks real-time media credentials and probes
voice agent plugins. Every remote call goes through one resilient call wrapper, and the
process exit code reflects the outcome: 0 success or empty, 1 remote error, 2 transport error.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitUsage)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&callTimeout, "timeout", 0, "per-attempt call timeout (overrides call.timeout)")
	rootCmd.PersistentFlags().IntVar(&callRetries, "retries", 0, "retries for retryable failures (overrides call.retry_count)")
}

func setup(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	// Load Configuration
	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		return err
	}

	if cmd.Flags().Changed("timeout") {
		cfg.Call.Timeout = callTimeout
	}
	if cmd.Flags().Changed("retries") {
		cfg.Call.RetryCount = callRetries
	}
	if err := cfg.Validate(); err != nil {
		stylelog.InitDefault()
		slog.Error("Invalid call options", "error", err)
		return err
	}

	// Setup logging
	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	appCfg = cfg
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM, which resolves in-flight
// calls as cancelled.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
