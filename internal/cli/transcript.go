package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vietddude/callguard/internal/control"
	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
	redisclient "github.com/vietddude/callguard/internal/infra/redis"
	"github.com/vietddude/callguard/internal/infra/youtube"
)

const defaultVideoID = "kH0nafGhbww"

var transcriptLang string

var transcriptCmd = &cobra.Command{
	Use:   "transcript [video-id...]",
	Short: "Print the caption transcript of one or more videos",
	Run: func(cmd *cobra.Command, args []string) {
		if transcriptLang != "" {
			appCfg.YouTube.Language = transcriptLang
		}
		ctx, cancel := signalContext()
		defer cancel()
		code := runTranscript(ctx, appCfg, args, os.Stdout, os.Stderr)
		cancel()
		os.Exit(code)
	},
}

func init() {
	transcriptCmd.Flags().StringVar(&transcriptLang, "lang", "", "caption language (overrides youtube.language)")
	rootCmd.AddCommand(transcriptCmd)
}

// runTranscript fetches every video concurrently and prints one joined line
// of text per video. The exit code is the worst outcome.
func runTranscript(ctx context.Context, cfg *config.AppConfig, videoIDs []string, stdout, stderr io.Writer) int {
	if len(videoIDs) == 0 {
		videoIDs = []string{defaultVideoID}
	}

	client := youtube.NewClient(cfg.YouTube.BaseURL, cfg.YouTube.Language, clientTimeout)
	var fetcher youtube.Fetcher = client

	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(ctx, cfg.Redis)
		if err != nil {
			slog.Warn("Transcript cache unavailable", "error", err)
		} else {
			defer func() {
				_ = rc.Close()
			}()
			fetcher = youtube.NewCachedFetcher(client, rc)
		}
	}

	journal, db := control.OpenJournal(ctx, cfg.Database)
	if db != nil {
		defer func() {
			_ = db.Close()
		}()
	}
	reporter := control.NewReporter("transcript", journal, stdout, stderr)

	outcomes := make([]call.Outcome[*domain.Transcript], len(videoIDs))
	var wg sync.WaitGroup
	for i, id := range videoIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			outcomes[i] = call.Execute(ctx, control.NewRequest("youtube.transcript", cfg.Call,
				func(ctx context.Context) (*domain.Transcript, error) {
					return fetcher.Fetch(ctx, id)
				}))
		}(i, id)
	}
	wg.Wait()

	code := call.ExitOK
	for i, out := range outcomes {
		id := videoIDs[i]
		render := func(t *domain.Transcript) string {
			if len(videoIDs) > 1 {
				return id + ": " + t.Text()
			}
			return t.Text()
		}
		code = max(code, control.Report(ctx, reporter, "youtube.transcript", out, render))
	}

	reporter.ObserveProvider(client.Provider())
	return code
}
