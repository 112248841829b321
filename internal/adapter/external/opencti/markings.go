package opencti

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

const markingDefinitionsQuery = `
query ConnectorMarkingDefinitions($first: Int) {
  markingDefinitions(first: $first) {
    edges {
      node {
        id
        definition
        definition_type
        x_opencti_order
      }
    }
  }
}`

// MarkingDefinitions fetches the platform-wide marking definitions
func (c *Client) MarkingDefinitions(ctx context.Context) ([]entity.MarkingDefinition, error) {
	var data struct {
		MarkingDefinitions struct {
			Edges []struct {
				Node entity.MarkingDefinition `json:"node"`
			} `json:"edges"`
		} `json:"markingDefinitions"`
	}
	if err := c.execute(ctx, markingDefinitionsQuery, map[string]any{"first": 200}, &data); err != nil {
		return nil, err
	}

	defs := make([]entity.MarkingDefinition, 0, len(data.MarkingDefinitions.Edges))
	for _, edge := range data.MarkingDefinitions.Edges {
		defs = append(defs, edge.Node)
	}
	return defs, nil
}

// markingsFetcher is the slice of the client the cache needs
type markingsFetcher interface {
	MarkingDefinitions(ctx context.Context) ([]entity.MarkingDefinition, error)
}

// MarkingsCache keeps a periodically refreshed snapshot of the platform's
// marking definitions. Readers never block on a refresh; a failed refresh
// keeps the previous snapshot.
type MarkingsCache struct {
	client   markingsFetcher
	interval time.Duration

	mu      sync.RWMutex
	defs    []entity.MarkingDefinition
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// NewMarkingsCache creates a markings cache refreshing at the given interval
func NewMarkingsCache(client markingsFetcher, interval time.Duration) *MarkingsCache {
	if interval == 0 {
		interval = 10 * time.Minute
	}

	return &MarkingsCache{
		client:   client,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Get returns the current snapshot. It is empty until the first successful
// refresh completes.
func (m *MarkingsCache) Get() []entity.MarkingDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defs
}

// Start begins the refresh loop with one immediate refresh
func (m *MarkingsCache) Start() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run()

	slog.Info("Marking definitions cache started", "interval", m.interval)
}

// Stop halts the refresh loop and waits for it to exit
func (m *MarkingsCache) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()

	slog.Info("Marking definitions cache stopped")
}

func (m *MarkingsCache) run() {
	defer m.wg.Done()

	m.refresh()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *MarkingsCache) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	defs, err := m.client.MarkingDefinitions(ctx)
	if err != nil {
		slog.Warn("Marking definitions refresh failed", "error", err)
		return
	}

	m.mu.Lock()
	m.defs = defs
	m.mu.Unlock()

	slog.Debug("Marking definitions refreshed", "count", len(defs))
}
