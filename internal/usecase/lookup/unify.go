package lookup

import (
	"sort"
	"time"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// Unify merges one entity's indicator and observable hits into a single
// list ordered newest first. Indicators precede observables on equal
// timestamps; a record without a timestamp sorts last. When the platform
// knows nothing about the entity the list is one placeholder row.
func (n *Normalizer) Unify(res *entity.SearchResults, e entity.CanonicalEntity) []entity.UnifiedItem {
	if res == nil {
		res = &entity.SearchResults{}
	}

	items := make([]entity.UnifiedItem, 0, len(res.Indicators)+len(res.Observables))
	for _, rec := range res.Indicators {
		items = append(items, n.Indicator(rec, e))
	}
	for _, rec := range res.Observables {
		items = append(items, n.Observable(rec, e))
	}

	if len(items) == 0 {
		return []entity.UnifiedItem{entity.NewPlaceholderItem(e.Value, e.CanonicalType)}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})

	return items
}

// createdAt treats a missing timestamp as the epoch so undated records
// sort after everything dated
func createdAt(item entity.UnifiedItem) time.Time {
	if item.CreatedAt == nil {
		return time.Time{}
	}
	return *item.CreatedAt
}
