package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/vietddude/callguard/internal/core/config"
	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/livekit"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Call: config.CallConfig{Timeout: 2 * time.Second},
		YouTube: config.YouTubeConfig{
			Language: "en",
		},
		LiveKit: config.LiveKitConfig{
			APIKey:    "APIkey123",
			APISecret: "secret-secret-secret-secret-secret",
			TokenTTL:  time.Hour,
			Room:      "rocky-da-adda-main",
		},
		Agent: config.AgentConfig{Name: "rocky", Instructions: "be brief"},
	}
}

func TestRunToken(t *testing.T) {
	cfg := testConfig()
	var stdout, stderr bytes.Buffer

	code := runToken(cfg, "", "alice", "staff", &stdout, &stderr)
	if code != call.ExitOK {
		t.Fatalf("expected exit 0, got %d (%s)", code, stderr.String())
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON output: %v", err)
	}
	claims, err := livekit.ParseToken(cfg.LiveKit.APISecret, body.Token)
	if err != nil {
		t.Fatalf("token does not verify: %v", err)
	}
	if claims.Subject != "alice" || claims.Video == nil || claims.Video.Room != "rocky-da-adda-main" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if !strings.Contains(claims.Metadata, "staff") {
		t.Errorf("expected role in metadata, got %q", claims.Metadata)
	}
}

func TestRunToken_MissingCredentials(t *testing.T) {
	cfg := testConfig()
	cfg.LiveKit.APISecret = ""
	var stdout, stderr bytes.Buffer

	if code := runToken(cfg, "room", "", "customer", &stdout, &stderr); code != ExitUsage {
		t.Errorf("expected exit %d, got %d", ExitUsage, code)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no token on stdout, got %q", stdout.String())
	}
}

func TestRunVerify(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantCode   int
		wantStdout string
		wantStderr string
	}{
		{
			name:       "rooms",
			status:     http.StatusOK,
			body:       `{"rooms":[{"sid":"RM_1","name":"main","num_participants":2}]}`,
			wantCode:   call.ExitOK,
			wantStdout: "Successfully connected! Rooms: main (2 participants)",
		},
		{
			name:       "no rooms",
			status:     http.StatusOK,
			body:       `{"rooms":[]}`,
			wantCode:   call.ExitOK,
			wantStdout: "No active rooms",
			wantStderr: "no data returned",
		},
		{
			name:       "unauthenticated",
			status:     http.StatusUnauthorized,
			body:       `{"code":"unauthenticated","msg":"invalid token"}`,
			wantCode:   call.ExitRemoteError,
			wantStderr: "authentication",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
					t.Error("expected bearer token")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			cfg := testConfig()
			cfg.LiveKit.URL = strings.Replace(server.URL, "http://", "ws://", 1)
			var stdout, stderr bytes.Buffer

			code := runVerify(context.Background(), cfg, false, &stdout, &stderr)
			if code != tt.wantCode {
				t.Errorf("expected exit %d, got %d (stderr %q)", tt.wantCode, code, stderr.String())
			}
			if !strings.Contains(stdout.String(), "Testing connection to: "+cfg.LiveKit.URL) {
				t.Errorf("expected connection banner, got %q", stdout.String())
			}
			if !strings.Contains(stdout.String(), "Secret length: 34") {
				t.Errorf("expected secret length, got %q", stdout.String())
			}
			if tt.wantStdout != "" && !strings.Contains(stdout.String(), tt.wantStdout) {
				t.Errorf("expected stdout to contain %q, got %q", tt.wantStdout, stdout.String())
			}
			if tt.wantStderr != "" && !strings.Contains(stderr.String(), tt.wantStderr) {
				t.Errorf("expected stderr to contain %q, got %q", tt.wantStderr, stderr.String())
			}
		})
	}
}

func TestRunVerify_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := testConfig()
	cfg.LiveKit.URL = url
	var stdout, stderr bytes.Buffer

	if code := runVerify(context.Background(), cfg, false, &stdout, &stderr); code != call.ExitTransportError {
		t.Errorf("expected transport exit code, got %d (stderr %q)", code, stderr.String())
	}
}

func TestRunVerify_DatabaseNotConfigured(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rooms":[{"sid":"RM_1","name":"main"}]}`)
	}))
	defer server.Close()

	cfg := testConfig()
	cfg.LiveKit.URL = server.URL
	var stdout, stderr bytes.Buffer

	code := runVerify(context.Background(), cfg, true, &stdout, &stderr)
	if code != call.ExitRemoteError {
		t.Errorf("expected remote exit code for missing database url, got %d", code)
	}
	if !strings.Contains(stderr.String(), "orders.recent") {
		t.Errorf("expected orders.recent failure on stderr, got %q", stderr.String())
	}
}

const captionsXML = `<transcript><text start="0" dur="1">Hello</text><text start="1" dur="1">world</text></transcript>`

func newYouTubeServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			id := r.URL.Query().Get("v")
			if id == "private" {
				fmt.Fprint(w, `<html>{}</html>`)
				return
			}
			fmt.Fprintf(w, `<html>{"captionTracks":[{"baseUrl":"%s/api/timedtext?v=%s","languageCode":"en"}]}</html>`, server.URL, id)
		case "/api/timedtext":
			fmt.Fprint(w, captionsXML)
		default:
			http.NotFound(w, r)
		}
	}))
	return server
}

func TestRunTranscript(t *testing.T) {
	server := newYouTubeServer(t)
	defer server.Close()

	cfg := testConfig()
	cfg.YouTube.BaseURL = server.URL
	var stdout, stderr bytes.Buffer

	code := runTranscript(context.Background(), cfg, nil, &stdout, &stderr)
	if code != call.ExitOK {
		t.Fatalf("expected exit 0, got %d (stderr %q)", code, stderr.String())
	}
	if got := strings.TrimSpace(stdout.String()); got != "Hello world" {
		t.Errorf("expected joined transcript, got %q", got)
	}
}

func TestRunTranscript_WorstOutcomeWins(t *testing.T) {
	server := newYouTubeServer(t)
	defer server.Close()

	cfg := testConfig()
	cfg.YouTube.BaseURL = server.URL
	cfg.Call.RetryCount = 2
	var stdout, stderr bytes.Buffer

	code := runTranscript(context.Background(), cfg, []string{"kH0nafGhbww", "private"}, &stdout, &stderr)
	if code != call.ExitRemoteError {
		t.Errorf("expected remote exit code, got %d", code)
	}
	if !strings.Contains(stdout.String(), "kH0nafGhbww: Hello world") {
		t.Errorf("expected prefixed transcript, got %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "not_found") {
		t.Errorf("expected not_found failure, got %q", stderr.String())
	}
}

func TestRunAgent_Probe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.URL.Path, "/v1/models/") {
			fmt.Fprint(w, `{"id":"model","object":"model","owned_by":"groq"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":{"message":"not found"}}`)
	}))
	defer server.Close()

	cfg := testConfig()
	plugin := config.PluginConfig{BaseURL: server.URL + "/v1", APIKey: "k", Model: "m"}
	cfg.Agent.LLM, cfg.Agent.STT, cfg.Agent.TTS = plugin, plugin, plugin
	cfg.Agent.TTS.APIKey = ""
	var stdout, stderr bytes.Buffer

	code := runAgent(context.Background(), cfg, false, &stdout, &stderr)
	if code != call.ExitRemoteError {
		t.Errorf("expected remote exit code for missing tts key, got %d", code)
	}
	for _, want := range []string{"PLUGIN", "llm", "stt", "tts", "success", "authentication"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("expected probe table to contain %q, got:\n%s", want, stdout.String())
		}
	}
	if !strings.Contains(stderr.String(), "agent.tts.probe") {
		t.Errorf("expected tts failure on stderr, got %q", stderr.String())
	}
}

func TestFormatHistory(t *testing.T) {
	records := []*domain.CallRecord{
		{Command: "verify", Name: "livekit.list_rooms", Kind: "remote_error", Reason: "authentication", Message: "livekit: invalid token", Attempts: 1, Elapsed: 12 * time.Millisecond, CreatedAt: time.Now()},
		{Command: "transcript", Name: "youtube.transcript", Kind: "success", Attempts: 2, Elapsed: time.Second, CreatedAt: time.Now()},
	}

	out := formatHistory(records)
	lines := strings.Split(out, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "TIME") {
		t.Errorf("expected header first, got %q", lines[0])
	}
	if !strings.Contains(lines[1], "authentication") || !strings.Contains(lines[2], " - ") {
		t.Errorf("unexpected rows:\n%s", out)
	}
}

func TestFormatOrders(t *testing.T) {
	out := formatOrders([]*domain.Order{
		{OrderID: "verify-1", TokenNumber: 999, Status: "pending"},
		{OrderID: "o-2", TokenNumber: 12, Status: "served"},
	})

	want := "Last 2 orders:\n" +
		"Order ID: verify-1, Token: 999, Status: pending\n" +
		"Order ID: o-2, Token: 12, Status: served"
	if out != want {
		t.Errorf("unexpected output:\n%s", out)
	}
}
