package lookup

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/domain/classify"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/metrics"
)

// Fetcher returns the platform's raw search hits for one entity. It must
// return an error on any transport or platform failure, never partial data.
type Fetcher interface {
	FetchEntity(ctx context.Context, e entity.CanonicalEntity) (*entity.SearchResults, error)
}

// MarkingsProvider exposes the most recent snapshot of platform marking
// definitions. Lookups never block on it; an empty snapshot is acceptable.
type MarkingsProvider interface {
	Get() []entity.MarkingDefinition
}

// Settings is the slice of connector configuration lookups consume
type Settings struct {
	APIURL       string
	CanCreate    bool
	CanAssociate bool
	Permissions  Permissions
}

// The host renders one synthetic row per batch under this identity
const (
	summaryEntityValue = "OpenCTI IOC Submission"
	summaryEntityType  = "custom"
)

// Service assembles host lookup batches into the single-envelope response
type Service struct {
	fetcher    Fetcher
	markings   MarkingsProvider
	normalizer *Normalizer
	settings   Settings
	metrics    *metrics.Metrics
}

// NewService creates the lookup service
func NewService(fetcher Fetcher, markings MarkingsProvider, settings Settings, m *metrics.Metrics) *Service {
	return &Service{
		fetcher:    fetcher,
		markings:   markings,
		normalizer: NewNormalizer(settings.Permissions),
		settings:   settings,
		metrics:    m,
	}
}

// Assemble runs one batch lookup end to end: classify every entity, drop
// ignored addresses, search the platform once per remaining entity,
// unify each entity's hits, dedupe across entities and wrap the result
// in the envelope the host expects.
//
// A failed search for any entity fails the whole batch. A partial list
// would misreport what the platform does and does not know.
func (s *Service) Assemble(ctx context.Context, entities []entity.InputEntity) ([]entity.LookupResult, error) {
	start := time.Now()

	canonical := classify.ClassifyAll(entities)
	toSearch, ignored := classify.Partition(canonical)

	// One slot per entity keeps results in input order regardless of
	// response timing. The dedup pass below runs only after the barrier,
	// so an abandoned late fetch can never reach a finalized response.
	perEntity := make([][]entity.UnifiedItem, len(toSearch))
	fetchErrs := make([]error, len(toSearch))

	var wg sync.WaitGroup
	for i, e := range toSearch {
		wg.Add(1)
		go func(i int, e entity.CanonicalEntity) {
			defer wg.Done()
			res, err := s.fetcher.FetchEntity(ctx, e)
			if err != nil {
				fetchErrs[i] = fmt.Errorf("search %s %q: %w", e.CanonicalType, e.Value, err)
				return
			}
			perEntity[i] = s.normalizer.Unify(res, e)
		}(i, e)
	}
	wg.Wait()

	for _, err := range fetchErrs {
		if err != nil {
			s.metrics.RemoteError()
			return nil, err
		}
	}

	items := Dedupe(perEntity)
	summary := summarize(items)

	details := entity.LookupDetails{
		APIURL:          s.settings.APIURL,
		CanCreate:       s.settings.CanCreate,
		CanAssociate:    s.settings.CanAssociate,
		Items:           items,
		IgnoredEntities: ignored,
	}
	if s.markings != nil {
		details.Markings = s.markings.Get()
	}

	s.metrics.LookupCompleted(len(toSearch), countFound(items), time.Since(start))

	slog.Debug("lookup assembled",
		"entities", len(entities),
		"searched", len(toSearch),
		"ignored", len(ignored),
		"items", len(items),
		"duration", time.Since(start),
	)

	return []entity.LookupResult{
		{
			Entity:       entity.SummaryEntity{Value: summaryEntityValue, Type: summaryEntityType},
			DisplayValue: summaryEntityValue,
			IsVolatile:   true,
			Data: entity.LookupData{
				Summary: summary,
				Details: details,
			},
		},
	}, nil
}

// summarize reports which of the two summary tags the batch earns.
// Found and new items can coexist; tag order is fixed.
func summarize(items []entity.UnifiedItem) []string {
	var found, missing bool
	for _, item := range items {
		if item.FoundInRemote {
			found = true
		} else {
			missing = true
		}
	}

	summary := make([]string, 0, 2)
	if found {
		summary = append(summary, entity.SummaryItemsFound)
	}
	if missing {
		summary = append(summary, entity.SummaryNewItems)
	}
	return summary
}

func countFound(items []entity.UnifiedItem) int {
	count := 0
	for _, item := range items {
		if item.FoundInRemote {
			count++
		}
	}
	return count
}
