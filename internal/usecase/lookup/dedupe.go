package lookup

import (
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// Dedupe flattens per-entity unified lists in input order and drops
// repeated remote ids, keeping the first occurrence of each. Two input
// entities can resolve to the same platform record (a domain and a URL
// embedding it); the operator should see that record once. Rows without
// an id are placeholders and are never merged: every not-found entity
// stays visible with its own value and type.
func Dedupe(lists [][]entity.UnifiedItem) []entity.UnifiedItem {
	total := 0
	for _, list := range lists {
		total += len(list)
	}

	out := make([]entity.UnifiedItem, 0, total)
	seen := make(map[string]struct{}, total)

	for _, list := range lists {
		for _, item := range list {
			if item.ID != "" {
				if _, dup := seen[item.ID]; dup {
					continue
				}
				seen[item.ID] = struct{}{}
			}
			out = append(out, item)
		}
	}

	return out
}
