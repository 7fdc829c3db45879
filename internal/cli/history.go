package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/callguard/internal/control"
	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently recorded call outcomes",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		code := runHistory(ctx, appCfg, historyLimit, os.Stdout, os.Stderr)
		cancel()
		os.Exit(code)
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of outcomes to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, cfg *config.AppConfig, limit int, stdout, stderr io.Writer) int {
	journal, db := control.OpenJournal(ctx, cfg.Database)
	if db == nil {
		fmt.Fprintln(stderr, "history: no journal database; set database.url to keep outcomes between runs")
	} else {
		defer func() {
			_ = db.Close()
		}()
	}

	// Reading the journal is not itself journalled.
	reporter := control.NewReporter("history", nil, stdout, stderr)
	out := call.Execute(ctx, control.NewRequest("journal.list", cfg.Call,
		func(ctx context.Context) ([]*domain.CallRecord, error) {
			return journal.ListRecent(ctx, limit)
		}))
	return control.Report(ctx, reporter, "journal.list", out, formatHistory)
}

func formatHistory(records []*domain.CallRecord) string {
	var sb strings.Builder
	w := tabwriter.NewWriter(&sb, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, "TIME\tCOMMAND\tCALL\tKIND\tREASON\tATTEMPTS\tELAPSED\tMESSAGE")

	for _, r := range records {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format(time.DateTime),
			r.Command,
			r.Name,
			r.Kind,
			dash(r.Reason),
			r.Attempts,
			r.Elapsed.Round(time.Millisecond),
			dash(r.Message),
		)
	}
	_ = w.Flush()
	return strings.TrimRight(sb.String(), "\n")
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
