package opencti

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// CachedFetcher is a read-through TTL cache over the client's entity
// search. Mutations performed through the connector invalidate the
// affected entity so the next lookup sees fresh platform state.
type CachedFetcher struct {
	client *Client
	cache  *expirable.LRU[string, entity.SearchResults]
}

// NewCachedFetcher creates a cache of at most size entries expiring after ttl
func NewCachedFetcher(client *Client, size int, ttl time.Duration) *CachedFetcher {
	if size <= 0 {
		size = 512
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	return &CachedFetcher{
		client: client,
		cache:  expirable.NewLRU[string, entity.SearchResults](size, nil, ttl),
	}
}

// FetchEntity returns cached hits when fresh, otherwise asks the platform
func (f *CachedFetcher) FetchEntity(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error) {
	key := cacheKey(string(e.CanonicalType), e.Value)
	if res, ok := f.cache.Get(key); ok {
		return &res, nil
	}

	res, err := f.client.FetchEntity(ctx, e)
	if err != nil {
		return nil, err
	}

	f.cache.Add(key, *res)
	return res, nil
}

// Invalidate drops the cached results for one entity
func (f *CachedFetcher) Invalidate(entityType, value string) {
	f.cache.Remove(cacheKey(entityType, value))
}

// Purge drops every cached search result
func (f *CachedFetcher) Purge() {
	f.cache.Purge()
}

func cacheKey(entityType, value string) string {
	return entityType + "|" + value
}
