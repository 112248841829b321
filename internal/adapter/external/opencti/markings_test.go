package opencti

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

type stubMarkingsFetcher struct {
	mu    sync.Mutex
	defs  []entity.MarkingDefinition
	err   error
	calls int
}

func (s *stubMarkingsFetcher) MarkingDefinitions(_ context.Context) ([]entity.MarkingDefinition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.defs, nil
}

func (s *stubMarkingsFetcher) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *stubMarkingsFetcher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func tlpMarkings() []entity.MarkingDefinition {
	return []entity.MarkingDefinition{
		{ID: "marking-1", Definition: "TLP:CLEAR", DefinitionType: "TLP", Order: 1},
		{ID: "marking-2", Definition: "TLP:AMBER", DefinitionType: "TLP", Order: 3},
	}
}

// ============================================================================
// MARKINGS CACHE TESTS
// ============================================================================

func TestMarkingsCacheRefreshesOnStart(t *testing.T) {
	fetcher := &stubMarkingsFetcher{defs: tlpMarkings()}
	cache := NewMarkingsCache(fetcher, time.Hour)

	assert.Empty(t, cache.Get())

	cache.Start()
	defer cache.Stop()

	require.Eventually(t, func() bool {
		return len(cache.Get()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	defs := cache.Get()
	assert.Equal(t, "TLP:CLEAR", defs[0].Definition)
	assert.Equal(t, "TLP:AMBER", defs[1].Definition)
}

func TestMarkingsCacheKeepsSnapshotOnFailure(t *testing.T) {
	fetcher := &stubMarkingsFetcher{defs: tlpMarkings()}
	cache := NewMarkingsCache(fetcher, 20*time.Millisecond)

	cache.Start()
	defer cache.Stop()

	require.Eventually(t, func() bool {
		return len(cache.Get()) == 2
	}, 2*time.Second, 10*time.Millisecond)

	fetcher.setError(errors.New("platform unreachable"))

	calls := fetcher.callCount()
	require.Eventually(t, func() bool {
		return fetcher.callCount() > calls
	}, 2*time.Second, 10*time.Millisecond)

	assert.Len(t, cache.Get(), 2)
}

func TestMarkingsCacheStopHaltsRefresh(t *testing.T) {
	fetcher := &stubMarkingsFetcher{defs: tlpMarkings()}
	cache := NewMarkingsCache(fetcher, 20*time.Millisecond)

	cache.Start()

	require.Eventually(t, func() bool {
		return fetcher.callCount() >= 1
	}, 2*time.Second, 10*time.Millisecond)

	cache.Stop()

	calls := fetcher.callCount()
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, calls, fetcher.callCount())
}

func TestMarkingsCacheStartTwiceRunsOneLoop(t *testing.T) {
	fetcher := &stubMarkingsFetcher{defs: tlpMarkings()}
	cache := NewMarkingsCache(fetcher, time.Hour)

	cache.Start()
	cache.Start()
	defer cache.Stop()

	require.Eventually(t, func() bool {
		return fetcher.callCount() == 1
	}, 2*time.Second, 10*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, fetcher.callCount())
}
