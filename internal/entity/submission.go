package entity

// SubmissionRequest asks the connector to create platform records for one
// entity. At least one of AsIndicator/AsObservable must be set.
type SubmissionRequest struct {
	Entity       InputEntity `json:"entity"`
	AsIndicator  bool        `json:"asIndicator"`
	AsObservable bool        `json:"asObservable"`
	Description  string      `json:"description,omitempty"`
	Score        *int        `json:"score,omitempty"`
	Confidence   *int        `json:"confidence,omitempty"`
	Labels       []string    `json:"labels,omitempty"`
	MarkingIDs   []string    `json:"markingIds,omitempty"`
}

// EditRequest patches the mutable fields of an existing platform record.
// Nil fields are left untouched. Entity, when present, names the entity
// whose cached lookup should go stale.
type EditRequest struct {
	Description *string      `json:"description,omitempty"`
	Score       *int         `json:"score,omitempty"`
	Confidence  *int         `json:"confidence,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Entity      *InputEntity `json:"entity,omitempty"`
}
