package youtube

import (
	"context"
	"log/slog"

	"github.com/vietddude/callguard/internal/core/domain"
)

// Cache stores transcripts by video and language.
type Cache interface {
	GetTranscript(ctx context.Context, videoID, language string, out any) (bool, error)
	SetTranscript(ctx context.Context, videoID, language string, v any) error
}

// Fetcher is satisfied by *Client.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*domain.Transcript, error)
	Language() string
}

// CachedFetcher serves transcripts from a cache before falling back to the
// wrapped fetcher. Cache failures are logged and never fail a fetch.
type CachedFetcher struct {
	next  Fetcher
	cache Cache
}

// NewCachedFetcher wraps next with cache.
func NewCachedFetcher(next Fetcher, cache Cache) *CachedFetcher {
	return &CachedFetcher{next: next, cache: cache}
}

func (f *CachedFetcher) Language() string {
	return f.next.Language()
}

func (f *CachedFetcher) Fetch(ctx context.Context, videoID string) (*domain.Transcript, error) {
	lang := f.next.Language()

	var cached domain.Transcript
	found, err := f.cache.GetTranscript(ctx, videoID, lang, &cached)
	if err != nil {
		slog.Warn("Transcript cache read failed", "video", videoID, "error", err)
	} else if found {
		slog.Debug("Transcript cache hit", "video", videoID)
		return &cached, nil
	}

	t, err := f.next.Fetch(ctx, videoID)
	if err != nil {
		return nil, err
	}
	// Empty transcripts are not cached so a later upload of captions is seen.
	if !t.IsEmpty() {
		if err := f.cache.SetTranscript(ctx, videoID, lang, t); err != nil {
			slog.Warn("Transcript cache write failed", "video", videoID, "error", err)
		}
	}
	return t, nil
}
