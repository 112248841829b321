package lookup

import (
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// Defaults substituted when the platform omits an optional field
const (
	DefaultScore      = 50
	DefaultConfidence = 50
	DefaultCreator    = "Unknown"
)

// Permissions captures what the operator may do to platform records
type Permissions struct {
	DeletableKinds []entity.ItemKind
}

// CanDelete reports whether records of the given kind may be deleted
func (p Permissions) CanDelete(kind entity.ItemKind) bool {
	for _, k := range p.DeletableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Normalizer maps raw platform records onto the unified item shape.
// Every defaulting rule lives here; no other component substitutes
// missing fields.
type Normalizer struct {
	perms Permissions
}

// NewNormalizer creates a normalizer with the given permission set
func NewNormalizer(perms Permissions) *Normalizer {
	return &Normalizer{perms: perms}
}

// Indicator normalizes one raw indicator hit found for the given entity
func (n *Normalizer) Indicator(rec entity.IndicatorRecord, e entity.CanonicalEntity) entity.UnifiedItem {
	confidence := intOr(rec.Confidence, DefaultConfidence)

	return entity.UnifiedItem{
		ID:            rec.ID,
		Kind:          entity.KindIndicator,
		EntityValue:   e.Value,
		EntityType:    e.CanonicalType,
		FoundInRemote: true,
		DisplayName:   firstNonEmpty(strOr(rec.Name), strOr(rec.Pattern), e.Value),
		Description:   strOr(rec.Description),
		Score:         intOr(rec.Score, DefaultScore),
		Confidence:    &confidence,
		Labels:        labelValues(rec.Labels),
		Creator:       creatorName(rec.CreatedBy),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		CanEdit:       true,
		CanDelete:     n.perms.CanDelete(entity.KindIndicator),
	}
}

// Observable normalizes one raw observable hit found for the given entity.
// Observables carry no confidence; the field stays unset.
func (n *Normalizer) Observable(rec entity.ObservableRecord, e entity.CanonicalEntity) entity.UnifiedItem {
	return entity.UnifiedItem{
		ID:            rec.ID,
		Kind:          entity.KindObservable,
		EntityValue:   e.Value,
		EntityType:    e.CanonicalType,
		FoundInRemote: true,
		DisplayName:   firstNonEmpty(strOr(rec.Value), e.Value),
		Description:   strOr(rec.Description),
		Score:         intOr(rec.Score, DefaultScore),
		Labels:        labelValues(rec.Labels),
		Creator:       creatorName(rec.CreatedBy),
		CreatedAt:     rec.CreatedAt,
		UpdatedAt:     rec.UpdatedAt,
		CanEdit:       true,
		CanDelete:     n.perms.CanDelete(entity.KindObservable),
	}
}

func strOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func labelValues(labels []entity.LabelRef) []string {
	out := make([]string, 0, len(labels))
	for _, l := range labels {
		out = append(out, l.Value)
	}
	return out
}

func creatorName(c *entity.CreatorRef) string {
	if c == nil || c.Name == "" {
		return DefaultCreator
	}
	return c.Name
}
