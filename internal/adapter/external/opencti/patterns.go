package opencti

import (
	"fmt"
	"strings"

	"github.com/polarityio/opencti-ioc-submission-sub000/internal/entity"
)

// stixPatternTemplates maps entity types to their STIX 2.1 pattern shape
var stixPatternTemplates = map[entity.EntityType]string{
	entity.TypeIPv4:   "[ipv4-addr:value = '%s']",
	entity.TypeIPv6:   "[ipv6-addr:value = '%s']",
	entity.TypeDomain: "[domain-name:value = '%s']",
	entity.TypeEmail:  "[email-addr:value = '%s']",
	entity.TypeMAC:    "[mac-addr:value = '%s']",
	entity.TypeMD5:    "[file:hashes.'MD5' = '%s']",
	entity.TypeSHA1:   "[file:hashes.'SHA-1' = '%s']",
	entity.TypeSHA256: "[file:hashes.'SHA-256' = '%s']",
	entity.TypeURL:    "[url:value = '%s']",
}

// observableTypes maps entity types to the platform's observable type names
var observableTypes = map[entity.EntityType]string{
	entity.TypeIPv4:   "IPv4-Addr",
	entity.TypeIPv6:   "IPv6-Addr",
	entity.TypeDomain: "Domain-Name",
	entity.TypeEmail:  "Email-Addr",
	entity.TypeMAC:    "Mac-Addr",
	entity.TypeMD5:    "StixFile",
	entity.TypeSHA1:   "StixFile",
	entity.TypeSHA256: "StixFile",
	entity.TypeURL:    "Url",
}

// STIXPattern builds the detection pattern for one entity value
func STIXPattern(typ entity.EntityType, value string) (string, error) {
	tmpl, ok := stixPatternTemplates[typ]
	if !ok {
		return "", fmt.Errorf("no pattern template for type %q", typ)
	}
	return fmt.Sprintf(tmpl, escapePatternValue(value)), nil
}

// ObservableType returns the platform observable type for an entity type
func ObservableType(typ entity.EntityType) (string, error) {
	t, ok := observableTypes[typ]
	if !ok {
		return "", fmt.Errorf("no observable type for %q", typ)
	}
	return t, nil
}

// HashAlgorithm returns the platform hash key for a hash entity type
func HashAlgorithm(typ entity.EntityType) (string, bool) {
	switch typ {
	case entity.TypeMD5:
		return "MD5", true
	case entity.TypeSHA1:
		return "SHA-1", true
	case entity.TypeSHA256:
		return "SHA-256", true
	}
	return "", false
}

// escapePatternValue escapes the characters STIX patterns treat specially
// inside single-quoted literals
func escapePatternValue(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	return strings.ReplaceAll(escaped, `'`, `\'`)
}
