package entity

import "time"

// LabelRef is a label object attached to a platform record
type LabelRef struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// CreatorRef is the identity that authored a platform record
type CreatorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// MarkingRef is a marking attached to a platform record
type MarkingRef struct {
	ID         string `json:"id"`
	Definition string `json:"definition"`
}

// HashRef is one hash encoding carried by a file observable
type HashRef struct {
	Algorithm string `json:"algorithm"`
	Hash      string `json:"hash"`
}

// MarkingDefinition is one platform-wide marking definition (TLP, PAP...)
type MarkingDefinition struct {
	ID             string `json:"id"`
	Definition     string `json:"definition"`
	DefinitionType string `json:"definition_type"`
	Order          int    `json:"x_opencti_order"`
}

// IndicatorRecord is a raw indicator hit from the platform search API.
// Optional fields are pointers so absence on the wire stays visible;
// defaulting happens in one place downstream, never here.
type IndicatorRecord struct {
	ID          string       `json:"id"`
	Name        *string      `json:"name"`
	Pattern     *string      `json:"pattern"`
	PatternType *string      `json:"pattern_type"`
	Description *string      `json:"description"`
	Score       *int         `json:"x_opencti_score"`
	Confidence  *int         `json:"confidence"`
	Labels      []LabelRef   `json:"objectLabel"`
	CreatedBy   *CreatorRef  `json:"createdBy"`
	Markings    []MarkingRef `json:"objectMarking"`
	CreatedAt   *time.Time   `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at"`
}

// ObservableRecord is a raw observable hit from the platform search API
type ObservableRecord struct {
	ID          string       `json:"id"`
	Value       *string      `json:"observable_value"`
	Description *string      `json:"x_opencti_description"`
	Score       *int         `json:"x_opencti_score"`
	Labels      []LabelRef   `json:"objectLabel"`
	CreatedBy   *CreatorRef  `json:"createdBy"`
	Markings    []MarkingRef `json:"objectMarking"`
	Hashes      []HashRef    `json:"hashes"`
	CreatedAt   *time.Time   `json:"created_at"`
	UpdatedAt   *time.Time   `json:"updated_at"`
}

// SearchResults groups one entity's raw hits from both search surfaces
type SearchResults struct {
	Indicators  []IndicatorRecord  `json:"indicators"`
	Observables []ObservableRecord `json:"observables"`
}
