package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vietddude/callguard/internal/control"
	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/livekit"
	"github.com/vietddude/callguard/internal/infra/storage/postgres"
)

const recentOrderLimit = 5

var verifyDB bool

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the media API credentials by listing rooms",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		code := runVerify(ctx, appCfg, verifyDB, os.Stdout, os.Stderr)
		cancel()
		os.Exit(code)
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&verifyDB, "db", false, "also read the latest orders from the order database")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(ctx context.Context, cfg *config.AppConfig, withDB bool, stdout, stderr io.Writer) int {
	lk := cfg.LiveKit
	fmt.Fprintf(stdout, "Testing connection to: %s\n", lk.URL)
	fmt.Fprintf(stdout, "Key: %s\n", lk.APIKey)
	fmt.Fprintf(stdout, "Secret length: %d\n", len(lk.APISecret))

	journal, db := control.OpenJournal(ctx, cfg.Database)
	if db != nil {
		defer func() {
			_ = db.Close()
		}()
	}
	reporter := control.NewReporter("verify", journal, stdout, stderr)

	client := livekit.NewClient(lk.URL, lk.APIKey, lk.APISecret, clientTimeout)
	rooms := call.Execute(ctx, control.NewRequest("livekit.list_rooms", cfg.Call, client.ListRooms))
	code := control.Report(ctx, reporter, "livekit.list_rooms", rooms, formatRooms)
	if rooms.IsEmpty() {
		fmt.Fprintln(stdout, "Successfully connected! No active rooms.")
	}
	reporter.ObserveProvider(client.Provider())

	if withDB {
		orders := call.Execute(ctx, control.NewRequest("orders.recent", cfg.Call, recentOrders(cfg.Database)))
		code = max(code, control.Report(ctx, reporter, "orders.recent", orders, formatOrders))
	}
	return code
}

func formatRooms(rooms []livekit.Room) string {
	names := make([]string, 0, len(rooms))
	for _, r := range rooms {
		names = append(names, fmt.Sprintf("%s (%d participants)", r.Name, r.NumParticipants))
	}
	return "Successfully connected! Rooms: " + strings.Join(names, ", ")
}

func formatOrders(orders []*domain.Order) string {
	lines := make([]string, 0, len(orders)+1)
	lines = append(lines, fmt.Sprintf("Last %d orders:", len(orders)))
	for _, o := range orders {
		lines = append(lines, fmt.Sprintf("Order ID: %s, Token: %d, Status: %s", o.OrderID, o.TokenNumber, o.Status))
	}
	return strings.Join(lines, "\n")
}

func recentOrders(cfg postgres.Config) call.Operation[[]*domain.Order] {
	return func(ctx context.Context) ([]*domain.Order, error) {
		if cfg.URL == "" {
			return nil, call.NewServiceError(call.ReasonMalformedRequest, "database url is not configured")
		}
		db, err := postgres.NewDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = db.Close()
		}()
		return db.RecentOrders(ctx, recentOrderLimit)
	}
}
