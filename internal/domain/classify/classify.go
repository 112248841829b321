package classify

import (
	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// Resolve determines the canonical type for a host entity. The host may
// tag one value with several overlapping types ("hash" plus "MD5"); hash
// tags resolve through entity.HashPrecedence so the winner never depends
// on tag order. ok is false when no tag maps to a supported type.
func Resolve(e entity.InputEntity) (entity.EntityType, bool) {
	for _, h := range entity.HashPrecedence {
		if e.HasTag(h) {
			return h, true
		}
	}
	if e.Type.IsSupported() {
		return e.Type, true
	}
	return "", false
}

// Classify resolves one pre-validated entity to its canonical type.
// Entities that cannot be resolved are filtered out before the pipeline
// (see Resolve); Classify keeps the declared type as a last resort
// rather than failing.
func Classify(e entity.InputEntity) entity.CanonicalEntity {
	canonical, ok := Resolve(e)
	if !ok {
		canonical = e.Type
	}
	return entity.CanonicalEntity{
		InputEntity:   e,
		CanonicalType: canonical,
	}
}

// ClassifyAll resolves a whole batch, preserving input order
func ClassifyAll(entities []entity.InputEntity) []entity.CanonicalEntity {
	out := make([]entity.CanonicalEntity, 0, len(entities))
	for _, e := range entities {
		out = append(out, Classify(e))
	}
	return out
}
