package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
)

const captionsXML = `<?xml version="1.0" encoding="utf-8" ?><transcript>
<text start="0.5" dur="1.25">Hello &amp;#39;world&amp;#39;</text>
<text start="1.75" dur="2">  second
 line </text>
<text start="3.75" dur="1"></text>
</transcript>`

func newTestServer(t *testing.T, page func(base string) string, captions string) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/watch":
			if r.URL.Query().Get("v") != "kH0nafGhbww" {
				t.Errorf("unexpected video id %q", r.URL.Query().Get("v"))
			}
			fmt.Fprint(w, page(server.URL))
		case "/api/timedtext":
			fmt.Fprint(w, captions)
		default:
			http.NotFound(w, r)
		}
	}))
	return server
}

func watchPage(tracks string) func(string) string {
	return func(base string) string {
		return `<html><script>var ytInitialPlayerResponse = {"captions":{"playerCaptionsTracklistRenderer":{` +
			`"captionTracks":` + fmt.Sprintf(tracks, base) + `,"audioTracks":[]}}};</script></html>`
	}
}

func TestClient_Fetch(t *testing.T) {
	tracks := `[{"baseUrl":"%[1]s/api/timedtext?v=kH0nafGhbww&lang=en&kind=asr","languageCode":"en","kind":"asr"},` +
		`{"baseUrl":"%[1]s/api/timedtext?v=kH0nafGhbww&lang=en","languageCode":"en"}]`
	server := newTestServer(t, watchPage(tracks), captionsXML)
	defer server.Close()

	c := NewClient(server.URL, "en", 5*time.Second)
	tr, err := c.Fetch(context.Background(), "kH0nafGhbww")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tr.Segments) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(tr.Segments))
	}
	if tr.Segments[0].Text != "Hello 'world'" {
		t.Errorf("unexpected first segment %q", tr.Segments[0].Text)
	}
	if tr.Segments[0].Start != 500*time.Millisecond || tr.Segments[0].Duration != 1250*time.Millisecond {
		t.Errorf("unexpected timing %v/%v", tr.Segments[0].Start, tr.Segments[0].Duration)
	}
	if tr.Segments[1].Text != "second line" {
		t.Errorf("expected whitespace to be collapsed, got %q", tr.Segments[1].Text)
	}
	if tr.Text() != "Hello 'world' second line" {
		t.Errorf("unexpected joined text %q", tr.Text())
	}
}

func TestClient_NoCaptionTracks(t *testing.T) {
	page := func(string) string { return `<html><script>var ytInitialPlayerResponse = {};</script></html>` }
	server := newTestServer(t, page, "")
	defer server.Close()

	c := NewClient(server.URL, "en", 5*time.Second)
	out := call.Execute(context.Background(), call.Request[*domain.Transcript]{
		Operation: func(ctx context.Context) (*domain.Transcript, error) {
			return c.Fetch(ctx, "kH0nafGhbww")
		},
		RetryCount: 2,
	})

	if out.Kind() != call.KindRemoteError || out.Reason() != call.ReasonNotFound {
		t.Fatalf("expected not_found remote error, got %s", out)
	}
	if out.Retryable() || out.Attempts() != 1 {
		t.Errorf("expected single non-retryable attempt, got retryable=%v attempts=%d", out.Retryable(), out.Attempts())
	}
}

func TestClient_LanguageNotAvailable(t *testing.T) {
	tracks := `[{"baseUrl":"%[1]s/api/timedtext?lang=de","languageCode":"de"}]`
	server := newTestServer(t, watchPage(tracks), captionsXML)
	defer server.Close()

	c := NewClient(server.URL, "en", 5*time.Second)
	_, err := c.Fetch(context.Background(), "kH0nafGhbww")

	var se *call.ServiceError
	if !errors.As(err, &se) || se.Reason != call.ReasonNotFound {
		t.Fatalf("expected not_found service error, got %v", err)
	}
}

func TestClient_EmptyCaptionsIsEmptyOutcome(t *testing.T) {
	tracks := `[{"baseUrl":"%[1]s/api/timedtext?lang=en","languageCode":"en"}]`
	server := newTestServer(t, watchPage(tracks), `<transcript></transcript>`)
	defer server.Close()

	c := NewClient(server.URL, "en", 5*time.Second)
	out := call.Execute(context.Background(), call.Request[*domain.Transcript]{
		Operation: func(ctx context.Context) (*domain.Transcript, error) {
			return c.Fetch(ctx, "kH0nafGhbww")
		},
	})
	if !out.IsEmpty() {
		t.Fatalf("expected empty outcome, got %s", out)
	}
}

func TestClient_Captcha(t *testing.T) {
	page := func(string) string { return `<form><div class="g-recaptcha"></div></form>` }
	server := newTestServer(t, page, "")
	defer server.Close()

	c := NewClient(server.URL, "en", 5*time.Second)
	_, err := c.Fetch(context.Background(), "kH0nafGhbww")
	if c := call.Classify(err); c.Reason != call.ReasonRateLimited {
		t.Fatalf("expected rate_limited, got %s (%v)", c.Reason, err)
	}
}

func TestClient_EmptyVideoID(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "en", time.Second)
	_, err := c.Fetch(context.Background(), "  ")
	if c := call.Classify(err); c.Reason != call.ReasonMalformedRequest {
		t.Fatalf("expected malformed_request, got %s", c.Reason)
	}
}

func TestPickTrack_PrefersManual(t *testing.T) {
	tracks := []CaptionTrack{
		{LanguageCode: "en", Kind: "asr", BaseURL: "auto"},
		{LanguageCode: "EN", BaseURL: "manual"},
	}
	got, ok := pickTrack(tracks, "en")
	if !ok || got.BaseURL != "manual" {
		t.Errorf("expected manual track, got %+v", got)
	}

	got, ok = pickTrack(tracks[:1], "en")
	if !ok || got.BaseURL != "auto" {
		t.Errorf("expected generated track as fallback, got %+v", got)
	}

	if _, ok := pickTrack(tracks, "fr"); ok {
		t.Error("expected no track for fr")
	}
}

func TestParseCaptions_Invalid(t *testing.T) {
	if _, err := ParseCaptions([]byte("<transcript><text>")); err == nil {
		t.Error("expected parse error")
	}
}
