package datasource

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// CachedStatsSource wraps a StatsSource with an in-memory TTL cache. Subject
// histories change at most once per event day, so repeated scoring passes
// within a cycle should not refetch them.
type CachedStatsSource struct {
	source StatsSource
	cache  *gocache.Cache
}

// NewCachedStatsSource creates a caching wrapper around the given source
func NewCachedStatsSource(source StatsSource, ttl time.Duration) *CachedStatsSource {
	return &CachedStatsSource{
		source: source,
		cache:  gocache.New(ttl, 2*ttl),
	}
}

// FetchObservations returns the cached history for a subject, fetching from
// the underlying source on a miss. Empty histories are cached too: a subject
// with no data stays absent for the TTL rather than hammering the source.
func (s *CachedStatsSource) FetchObservations(ctx context.Context, sport, subject, market string) ([]float64, error) {
	key := sport + "|" + subject + "|" + market

	if cached, found := s.cache.Get(key); found {
		return cached.([]float64), nil
	}

	values, err := s.source.FetchObservations(ctx, sport, subject, market)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, values, gocache.DefaultExpiration)
	return values, nil
}

// Flush drops all cached histories
func (s *CachedStatsSource) Flush() {
	s.cache.Flush()
}
