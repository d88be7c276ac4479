package avatar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
)

// AudioFetcher resolves an opaque audio reference into bytes decodable
// to PCM. Every failure mode collapses into a FetchError; callers never
// distinguish transport status.
type AudioFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

// HTTPFetcher fetches audio references over HTTP(S).
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher creates a fetcher with the given request timeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPFetcher{client: &http.Client{Timeout: timeout}}
}

// Fetch downloads the reference. Any failure is a FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Ref: ref, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Ref: ref, Err: err}
	}
	return data, nil
}

// CachingFetcher consults an AudioCache before delegating. Fetched
// payloads are stored back under the content address of the ref text.
type CachingFetcher struct {
	next  AudioFetcher
	cache *AudioCache
	rate  int
	chans int
}

// NewCachingFetcher wraps next with the cache, recording the session
// format on stored entries.
func NewCachingFetcher(next AudioFetcher, cache *AudioCache, format PCMFormat) *CachingFetcher {
	return &CachingFetcher{
		next:  next,
		cache: cache,
		rate:  format.SampleRate,
		chans: format.Channels,
	}
}

// Fetch returns the cached payload when present and fresh.
func (f *CachingFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	key := CacheKey(ref)
	if entry, ok := f.cache.Get(key); ok && len(entry.Chunks) > 0 {
		log.Debug("audio cache hit", "ref", ref)
		var data []byte
		for _, c := range entry.Chunks {
			data = append(data, c...)
		}
		return data, nil
	}

	data, err := f.next.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}

	f.cache.Set(&CacheEntry{
		Key:        key,
		Chunks:     [][]byte{data},
		SampleRate: f.rate,
		Channels:   f.chans,
	})
	return data, nil
}
