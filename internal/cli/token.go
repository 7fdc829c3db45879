package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/livekit"
)

var (
	tokenRoom     string
	tokenIdentity string
	tokenRole     string
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a room join token for the media API",
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runToken(appCfg, tokenRoom, tokenIdentity, tokenRole, os.Stdout, os.Stderr))
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRoom, "room", "", "room name (default livekit.room)")
	tokenCmd.Flags().StringVar(&tokenIdentity, "identity", "", "participant identity (default guest-<random>)")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "customer", "participant role stored in token metadata")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cfg *config.AppConfig, room, identity, role string, stdout, stderr io.Writer) int {
	if room == "" {
		room = cfg.LiveKit.Room
	}

	token, err := livekit.JoinToken(cfg.LiveKit.APIKey, cfg.LiveKit.APISecret, livekit.JoinOptions{
		Room:     room,
		Identity: identity,
		Role:     role,
		TTL:      cfg.LiveKit.TokenTTL,
	})
	if err != nil {
		fmt.Fprintf(stderr, "token: %v\n", err)
		return ExitUsage
	}

	_ = json.NewEncoder(stdout).Encode(map[string]string{"token": token})
	return call.ExitOK
}
