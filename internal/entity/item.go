package entity

import "time"

// ItemKind distinguishes the two record families the platform stores
type ItemKind string

const (
	KindIndicator  ItemKind = "indicator"
	KindObservable ItemKind = "observable"
)

// IsValid reports whether k names a known record family
func (k ItemKind) IsValid() bool {
	return k == KindIndicator || k == KindObservable
}

// UnifiedItem is the single shape every lookup row takes, whether the
// entity came back as an indicator, an observable, or not at all.
// ID is empty only for placeholders, and is the sole identity key when
// deduplicating across entities.
type UnifiedItem struct {
	ID            string     `json:"id,omitempty"`
	Kind          ItemKind   `json:"kind,omitempty"`
	EntityValue   string     `json:"entityValue"`
	EntityType    EntityType `json:"entityType"`
	FoundInRemote bool       `json:"foundInRemote"`

	DisplayName string     `json:"displayName"`
	Description string     `json:"description"`
	Score       int        `json:"score"`
	Confidence  *int       `json:"confidence,omitempty"`
	Labels      []string   `json:"labels"`
	Creator     string     `json:"creator"`
	CreatedAt   *time.Time `json:"createdAt"`
	UpdatedAt   *time.Time `json:"updatedAt"`

	CanEdit   bool `json:"canEdit"`
	CanDelete bool `json:"canDelete"`

	// Submission round-trip flags, set by the operator, never by lookups
	ToBeSubmitted      bool `json:"toBeSubmitted"`
	SubmitAsIndicator  bool `json:"submitAsIndicator"`
	SubmitAsObservable bool `json:"submitAsObservable"`
}

// IsPlaceholder reports whether the item records a searched-but-not-found
// entity rather than a platform record
func (u UnifiedItem) IsPlaceholder() bool {
	return u.ID == ""
}

// NewPlaceholderItem builds the row shown for an entity the platform does
// not know. It carries the entity context and empty content fields.
func NewPlaceholderItem(value string, entityType EntityType) UnifiedItem {
	return UnifiedItem{
		EntityValue:   value,
		EntityType:    entityType,
		FoundInRemote: false,
		DisplayName:   value,
		Labels:        []string{},
	}
}
