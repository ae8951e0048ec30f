// Package models defines server-side data models persisted in the database.
package models

import (
	"fmt"
	"strings"
)

// Kind selects which specimen table a record lives in. Plants and fish share
// the same shape.
type Kind string

const (
	KindPlant Kind = "plant"
	KindFish  Kind = "fish"
)

// Kinds lists every specimen kind, in display order.
var Kinds = []Kind{KindPlant, KindFish}

// ParseKind accepts the singular kind name or the table/route name
// ("plants", "fish").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plant", "plants":
		return KindPlant, nil
	case "fish", "fishes":
		return KindFish, nil
	default:
		return "", fmt.Errorf("unknown specimen kind %q", s)
	}
}

// Table is the database table holding rows of this kind.
func (k Kind) Table() string {
	switch k {
	case KindPlant:
		return "plants"
	case KindFish:
		return "fish"
	default:
		panic(fmt.Sprintf("unknown specimen kind %q", string(k)))
	}
}

// ViewPage is the frontend page rendering a single specimen, e.g. "PlantView".
func (k Kind) ViewPage() string {
	s := string(k)
	if s == "" {
		return "View"
	}
	return strings.ToUpper(s[:1]) + s[1:] + "View"
}

func (k Kind) Valid() bool {
	return k == KindPlant || k == KindFish
}
