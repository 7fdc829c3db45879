package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/callguard/internal/infra/call"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error","code":"invalid_api_key"}}`))
			return
		}

		switch r.URL.Path {
		case "/openai/v1/models/llama3-8b-8192":
			_, _ = w.Write([]byte(`{"id":"llama3-8b-8192","object":"model","owned_by":"Meta"}`))
		case "/openai/v1/chat/completions":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Role    string `json:"role"`
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
				t.Errorf("expected system + user messages, got %+v", req.Messages)
			}
			if req.Messages[1].Content == "silence" {
				_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[` +
				`{"index":0,"message":{"role":"assistant","content":" Masala Chai is ready! "},"finish_reason":"stop"}]}`))
		case "/openai/v1/models/overloaded":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"over capacity","type":"server_error"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"message":"model not found","type":"invalid_request_error"}}`))
		}
	}))
}

func TestPlugin_Probe(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	p := NewPlugin(RoleLLM, Settings{BaseURL: server.URL + "/openai/v1", APIKey: "good-key", Model: "llama3-8b-8192"})
	info, err := p.Probe(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != "llama3-8b-8192" || info.OwnedBy != "Meta" || info.Role != RoleLLM {
		t.Errorf("unexpected model info %+v", info)
	}
}

func TestPlugin_ProbeFailures(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	tests := []struct {
		name      string
		settings  Settings
		reason    call.Reason
		retryable bool
	}{
		{"bad key", Settings{APIKey: "bad-key", Model: "llama3-8b-8192"}, call.ReasonAuthentication, false},
		{"missing key", Settings{Model: "llama3-8b-8192"}, call.ReasonAuthentication, false},
		{"unknown model", Settings{APIKey: "good-key", Model: "llama9"}, call.ReasonNotFound, false},
		{"overloaded", Settings{APIKey: "good-key", Model: "overloaded"}, call.ReasonServer, true},
		{"missing model", Settings{APIKey: "good-key"}, call.ReasonMalformedRequest, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.settings.BaseURL = server.URL + "/openai/v1"
			p := NewPlugin(RoleSTT, tt.settings)

			out := call.Execute(context.Background(), call.Request[*ModelInfo]{
				Operation: p.Probe,
				Timeout:   5 * time.Second,
			})
			if out.Kind() != call.KindRemoteError || out.Reason() != tt.reason || out.Retryable() != tt.retryable {
				t.Errorf("expected remote %s retryable=%t, got %s", tt.reason, tt.retryable, out)
			}
		})
	}
}

func TestPlugin_Complete(t *testing.T) {
	server := newServer(t)
	defer server.Close()

	p := NewPlugin(RoleLLM, Settings{BaseURL: server.URL + "/openai/v1", APIKey: "good-key", Model: "llama3-8b-8192"})
	reply, err := p.Complete(context.Background(), "You are Rocky.", "One chai please")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Masala Chai is ready!" {
		t.Errorf("unexpected reply %q", reply)
	}

	out := call.Execute(context.Background(), call.Request[string]{
		Operation: func(ctx context.Context) (string, error) {
			return p.Complete(ctx, "You are Rocky.", "silence")
		},
	})
	if !out.IsEmpty() {
		t.Errorf("expected empty outcome for a reply without choices, got %s", out)
	}
}

func TestPlugin_CompleteWrongRole(t *testing.T) {
	p := NewPlugin(RoleTTS, Settings{APIKey: "k", Model: "tts-1"})
	if _, err := p.Complete(context.Background(), "", "hi"); call.Classify(err).Reason != call.ReasonMalformedRequest {
		t.Errorf("expected malformed request, got %v", err)
	}
}
