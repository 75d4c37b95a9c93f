package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/zeebo/xxh3"

	"github.com/totegamma/concrnt-inscriber/internal/domain"
	"github.com/totegamma/concrnt-inscriber/internal/usecase"
)

// Memcache is the subset of *memcache.Client the lookup cache needs.
type Memcache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
}

// CachedSearcher remembers recording search results in memcached. Lookup
// errors are never cached, and a broken cache only costs the extra request.
type CachedSearcher struct {
	next usecase.RecordingSearcher
	mc   Memcache
	ttl  time.Duration
}

func NewCachedSearcher(next usecase.RecordingSearcher, mc Memcache, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		next: next,
		mc:   mc,
		ttl:  ttl,
	}
}

func searchCacheKey(query string) string {
	return fmt.Sprintf("mb:recording:%016x", xxh3.HashString(query))
}

func (s *CachedSearcher) SearchRecordings(ctx context.Context, query string) ([]domain.RecordingCandidate, error) {
	key := searchCacheKey(query)

	item, err := s.mc.Get(key)
	if err == nil {
		var cached []domain.RecordingCandidate
		if err := json.Unmarshal(item.Value, &cached); err == nil {
			return cached, nil
		}
	} else if !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(
			ctx, "lookup cache unavailable",
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}

	candidates, err := s.next.SearchRecordings(ctx, query)
	if err != nil {
		return nil, err
	}

	value, err := json.Marshal(candidates)
	if err != nil {
		return candidates, nil
	}

	err = s.mc.Set(&memcache.Item{
		Key:        key,
		Value:      value,
		Expiration: int32(s.ttl.Seconds()),
	})
	if err != nil {
		slog.WarnContext(
			ctx, "failed to store lookup result",
			slog.String("error", err.Error()),
			slog.String("module", "gateway"),
		)
	}

	return candidates, nil
}

var _ usecase.RecordingSearcher = (*CachedSearcher)(nil)
