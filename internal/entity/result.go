package entity

// Summary tags shown on the batch row. Order is fixed: found before new.
const (
	SummaryItemsFound = "Items Found"
	SummaryNewItems   = "New Items"
)

// SummaryEntity is the synthetic entity the host renders for one batch
type SummaryEntity struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// LookupDetails carries the unified items plus the configuration echoes
// the host needs to drive its submission form
type LookupDetails struct {
	APIURL          string              `json:"apiUrl"`
	CanCreate       bool                `json:"canCreate"`
	CanAssociate    bool                `json:"canAssociate"`
	Items           []UnifiedItem       `json:"items"`
	IgnoredEntities []UnifiedItem       `json:"ignoredEntities"`
	Markings        []MarkingDefinition `json:"availableMarkings,omitempty"`
}

// LookupData wraps the summary tags and details of one batch result
type LookupData struct {
	Summary []string      `json:"summary"`
	Details LookupDetails `json:"details"`
}

// LookupResult is the single envelope element returned per lookup batch.
// IsVolatile tells the host never to cache it.
type LookupResult struct {
	Entity       SummaryEntity `json:"entity"`
	DisplayValue string        `json:"displayValue"`
	IsVolatile   bool          `json:"isVolatile"`
	Data         LookupData    `json:"data"`
}
