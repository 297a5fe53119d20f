package crawler

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cron-shell/internal/models"
	"cron-shell/internal/store"
)

// CacheDir is the store prefix holding one entry per fetched URL.
const CacheDir = "artifacts/cache/"

// Tiered serves page bodies from the cache while they are younger than the
// TTL and falls back to a live fetch otherwise.
type Tiered struct {
	Store   store.Store
	Fetcher Fetcher
	Now     func() time.Time
}

func NewTiered(s store.Store, f Fetcher) *Tiered {
	return &Tiered{Store: s, Fetcher: f, Now: time.Now}
}

// CacheKey returns the store key of the cache entry for rawURL.
func CacheKey(rawURL string) string {
	sum := sha1.Sum([]byte(rawURL))
	return CacheDir + hex.EncodeToString(sum[:]) + ".json"
}

// storedEntry reads a cache entry back loosely: a body that is not a JSON
// string is a miss, and a fractional fetched_at is truncated.
type storedEntry struct {
	FetchedAt json.Number     `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

func (e storedEntry) fetchedAt() int64 {
	if n, err := e.FetchedAt.Int64(); err == nil {
		return n
	}
	if f, err := e.FetchedAt.Float64(); err == nil {
		return int64(f)
	}
	return 0
}

func (e storedEntry) body() (string, bool) {
	var s *string
	if len(e.Body) == 0 || json.Unmarshal(e.Body, &s) != nil || s == nil {
		return "", false
	}
	return *s, true
}

// Fetch returns the cached body with its original fetch time when the
// entry is fresh, otherwise fetches live and overwrites the entry.
func (t *Tiered) Fetch(ctx context.Context, rawURL string, ttl time.Duration) (models.FetchResult, error) {
	key := CacheKey(rawURL)
	ts := t.Now().Unix()

	var cached storedEntry
	ok, err := t.Store.Load(key, &cached)
	if err != nil {
		return models.FetchResult{}, fmt.Errorf("load cache entry for %s: %w", rawURL, err)
	}
	if ok {
		at := cached.fetchedAt()
		if body, valid := cached.body(); valid && ts-at <= int64(ttl/time.Second) {
			return models.FetchResult{URL: rawURL, FetchedAt: at, Source: models.SourceCache, Body: body}, nil
		}
	}

	body, err := t.Fetcher.Fetch(ctx, rawURL)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{URL: rawURL, Err: err}
		}
		return models.FetchResult{}, err
	}
	entry := models.CacheEntry{URL: rawURL, FetchedAt: ts, Body: &body}
	if err := t.Store.Save(key, entry); err != nil {
		return models.FetchResult{}, fmt.Errorf("save cache entry for %s: %w", rawURL, err)
	}
	return models.FetchResult{URL: rawURL, FetchedAt: ts, Source: models.SourceLive, Body: body}, nil
}
