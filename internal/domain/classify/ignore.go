package classify

import (
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// IgnoredAddresses defines IPs that are never searched against the platform
var IgnoredAddresses = []string{
	"127.0.0.1",       // Loopback
	"255.255.255.255", // Broadcast
	"0.0.0.0",         // All-zeros
}

// IsIgnoredAddress reports whether the entity is an IP on the ignore list.
// Non-IP entities are never ignored, whatever their value.
func IsIgnoredAddress(e entity.InputEntity) bool {
	if !e.IsIP {
		return false
	}
	for _, addr := range IgnoredAddresses {
		if e.Value == addr {
			return true
		}
	}
	return false
}

// Partition splits a classified batch into entities to search and
// placeholder rows for the ignored ones. Ignored entities never reach the
// platform; their placeholders are reported separately and stay out of
// the batch summary.
func Partition(entities []entity.CanonicalEntity) (toSearch []entity.CanonicalEntity, ignored []entity.UnifiedItem) {
	toSearch = make([]entity.CanonicalEntity, 0, len(entities))
	ignored = make([]entity.UnifiedItem, 0)

	for _, e := range entities {
		if IsIgnoredAddress(e.InputEntity) {
			ignored = append(ignored, entity.NewPlaceholderItem(e.Value, e.CanonicalType))
			continue
		}
		toSearch = append(toSearch, e)
	}

	return toSearch, ignored
}
