package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Kind names a catalog collection as clients spell it in check-slug.
type Kind string

const (
	KindBrand         Kind = "brand"
	KindCategory      Kind = "category"
	KindComponent     Kind = "component"
	KindComponentItem Kind = "component-item"
	KindAccessory     Kind = "accessory"
)

// Kinds lists every catalog kind.
var Kinds = []Kind{KindBrand, KindCategory, KindComponent, KindComponentItem, KindAccessory}

// ParseKind accepts a kind name, case-insensitively.
func ParseKind(s string) (Kind, bool) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, true
		}
	}
	return "", false
}

// SlugStyle reports whether the kind is identified by a slug rather than a name.
func (k Kind) SlugStyle() bool {
	return k == KindComponentItem || k == KindAccessory
}

// Title is the human name used in messages.
func (k Kind) Title() string {
	switch k {
	case KindBrand:
		return "Brand"
	case KindCategory:
		return "Category"
	case KindComponent:
		return "Component"
	case KindComponentItem:
		return "Component item"
	case KindAccessory:
		return "Accessory"
	}
	return string(k)
}

const (
	NameMinLen = 2
	NameMaxLen = 150
	SlugMaxLen = 200
)

// SlugPattern: lowercase alphanumeric segments joined by single hyphens.
var SlugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const SlugPatternMsg = "Slug can only contain lowercase letters, numbers and single hyphens, and cannot start or end with a hyphen"

// IdentifierFormat checks the format of a proposed identifier for kind and
// returns the value to look up. Both names and slugs are trimmed, matching
// what create and update store.
func IdentifierFormat(kind Kind, raw string) (string, string) {
	trimmed := strings.TrimSpace(raw)
	if kind.SlugStyle() {
		if trimmed == "" {
			return "", "Slug is required"
		}
		if utf8.RuneCountInString(trimmed) > SlugMaxLen {
			return "", fmt.Sprintf("Slug must be at most %d characters", SlugMaxLen)
		}
		if !SlugPattern.MatchString(trimmed) {
			return "", SlugPatternMsg
		}
		return trimmed, ""
	}

	if trimmed == "" {
		return "", fmt.Sprintf("%s name is required", kind.Title())
	}
	if n := utf8.RuneCountInString(trimmed); n < NameMinLen || n > NameMaxLen {
		return "", fmt.Sprintf("%s name must be between %d and %d characters", kind.Title(), NameMinLen, NameMaxLen)
	}
	return trimmed, ""
}
