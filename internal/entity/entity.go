package entity

// EntityType is the canonical type of an entity extracted by the host
type EntityType string

// Supported canonical entity types
const (
	TypeIPv4   EntityType = "IPv4"
	TypeIPv6   EntityType = "IPv6"
	TypeDomain EntityType = "domain"
	TypeEmail  EntityType = "email"
	TypeMAC    EntityType = "MAC"
	TypeMD5    EntityType = "MD5"
	TypeSHA1   EntityType = "SHA1"
	TypeSHA256 EntityType = "SHA256"
	TypeURL    EntityType = "url"
)

// HashPrecedence is the resolution order applied when an entity carries
// more than one hash type tag. First match wins.
var HashPrecedence = []EntityType{TypeMD5, TypeSHA1, TypeSHA256}

// SupportedTypes lists every entity type the connector can search
var SupportedTypes = []EntityType{
	TypeIPv4,
	TypeIPv6,
	TypeDomain,
	TypeEmail,
	TypeMAC,
	TypeMD5,
	TypeSHA1,
	TypeSHA256,
	TypeURL,
}

// IsSupported reports whether t is one of the canonical entity types
func (t EntityType) IsSupported() bool {
	for _, s := range SupportedTypes {
		if t == s {
			return true
		}
	}
	return false
}

// IsHash reports whether t is one of the file hash types
func (t EntityType) IsHash() bool {
	for _, h := range HashPrecedence {
		if t == h {
			return true
		}
	}
	return false
}

// InputEntity is one entity the host extracted from arbitrary text.
// Type is the host's primary classification; Types carries every tag the
// host attached, which may overlap (e.g. "hash" plus "MD5").
type InputEntity struct {
	Value string   `json:"value"`
	Type  EntityType `json:"type"`
	Types []string `json:"types,omitempty"`
	IsIP  bool     `json:"isIP"`
}

// HasTag reports whether the entity carries the given type tag, either as
// its primary type or in its tag list
func (e InputEntity) HasTag(t EntityType) bool {
	if e.Type == t {
		return true
	}
	for _, tag := range e.Types {
		if EntityType(tag) == t {
			return true
		}
	}
	return false
}

// CanonicalEntity is an InputEntity resolved to exactly one canonical type
type CanonicalEntity struct {
	InputEntity
	CanonicalType EntityType `json:"canonicalType"`
}
