// Package youtube fetches video caption transcripts.
package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vietddude/callguard/internal/core/domain"
	"github.com/vietddude/callguard/internal/infra/call"
	"github.com/vietddude/callguard/internal/infra/provider"
)

const captionTracksKey = `"captionTracks":`

// CaptionTrack is one caption track advertised on the watch page.
type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" for auto-generated
}

// Client fetches transcripts through a monitored HTTP provider.
type Client struct {
	http     *provider.HTTPProvider
	language string
}

// NewClient creates a transcript client for the given site base URL.
func NewClient(baseURL, language string, timeout time.Duration) *Client {
	return &Client{
		http:     provider.NewHTTPProvider("youtube", baseURL, timeout),
		language: language,
	}
}

// Provider exposes the underlying HTTP provider for health reporting.
func (c *Client) Provider() *provider.HTTPProvider {
	return c.http
}

// Language returns the preferred caption language.
func (c *Client) Language() string {
	return c.language
}

// Fetch returns the transcript of a video in the preferred language. A video
// without captions in that language is a not_found remote error. A caption
// document without entries yields a transcript with no segments.
func (c *Client) Fetch(ctx context.Context, videoID string) (*domain.Transcript, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, call.NewServiceError(call.ReasonMalformedRequest, "video id must not be empty")
	}

	tracks, err := c.ListTracks(ctx, videoID)
	if err != nil {
		return nil, err
	}
	track, ok := pickTrack(tracks, c.language)
	if !ok {
		return nil, call.NewServiceError(call.ReasonNotFound,
			"no %s transcript for video %s (available: %s)", c.language, videoID, languages(tracks))
	}

	resp, err := c.http.Do(ctx, provider.Request{Path: track.BaseURL})
	if err != nil {
		return nil, err
	}
	segments, err := ParseCaptions(resp.Body)
	if err != nil {
		return nil, err
	}

	return &domain.Transcript{
		VideoID:  videoID,
		Language: track.LanguageCode,
		Segments: segments,
	}, nil
}

// ListTracks loads the watch page and extracts its caption tracks.
func (c *Client) ListTracks(ctx context.Context, videoID string) ([]CaptionTrack, error) {
	resp, err := c.http.Do(ctx, provider.Request{
		Path:   "/watch",
		Query:  url.Values{"v": {videoID}, "hl": {c.language}},
		Header: http.Header{"Accept-Language": {c.language}},
	})
	if err != nil {
		return nil, err
	}

	page := resp.Body
	if bytes.Contains(page, []byte(`class="g-recaptcha"`)) {
		return nil, call.NewServiceError(call.ReasonRateLimited, "too many requests from this address")
	}

	tracks, err := extractTracks(page)
	if err != nil {
		return nil, call.NoRetry(fmt.Errorf("video %s: %w", videoID, err))
	}
	if len(tracks) == 0 {
		return nil, call.NewServiceError(call.ReasonNotFound, "transcripts are disabled for video %s", videoID)
	}
	return tracks, nil
}

func extractTracks(page []byte) ([]CaptionTrack, error) {
	i := bytes.Index(page, []byte(captionTracksKey))
	if i < 0 {
		return nil, nil
	}

	var tracks []CaptionTrack
	dec := json.NewDecoder(bytes.NewReader(page[i+len(captionTracksKey):]))
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", err)
	}
	for i := range tracks {
		// Some page variants HTML-escape ampersands inside the JSON blob.
		tracks[i].BaseURL = strings.ReplaceAll(tracks[i].BaseURL, "&amp;", "&")
	}
	return tracks, nil
}

// pickTrack prefers a manually created track over an auto-generated one.
func pickTrack(tracks []CaptionTrack, language string) (CaptionTrack, bool) {
	var generated *CaptionTrack
	for i := range tracks {
		t := tracks[i]
		if !strings.EqualFold(t.LanguageCode, language) {
			continue
		}
		if t.Kind != "asr" {
			return t, true
		}
		if generated == nil {
			generated = &tracks[i]
		}
	}
	if generated != nil {
		return *generated, true
	}
	return CaptionTrack{}, false
}

func languages(tracks []CaptionTrack) string {
	codes := make([]string, 0, len(tracks))
	for _, t := range tracks {
		codes = append(codes, t.LanguageCode)
	}
	if len(codes) == 0 {
		return "none"
	}
	return strings.Join(codes, ", ")
}

type captionDoc struct {
	Texts []captionText `xml:"text"`
}

type captionText struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// ParseCaptions decodes a timed-text XML document. Entries without text are dropped.
func ParseCaptions(data []byte) ([]domain.Segment, error) {
	var doc captionDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, call.NoRetry(fmt.Errorf("parse captions: %w", err))
	}

	segments := make([]domain.Segment, 0, len(doc.Texts))
	for _, t := range doc.Texts {
		// Caption bodies are HTML-escaped a second time inside the XML.
		text := strings.Join(strings.Fields(html.UnescapeString(t.Body)), " ")
		if text == "" {
			continue
		}
		segments = append(segments, domain.Segment{
			Text:     text,
			Start:    seconds(t.Start),
			Duration: seconds(t.Dur),
		})
	}
	return segments, nil
}

func seconds(v string) time.Duration {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return time.Duration(f * float64(time.Second))
}
