package model

import (
	"fmt"
	"strings"
)

// Category classifies a highlighted mention.
// Declaration order is priority order: Business outranks Competitor, and so on.
type Category int

const (
	CategoryNone       Category = iota // Plain, unannotated text
	CategoryBusiness                   // The business's own name
	CategoryCompetitor                 // A competitor's name
	CategoryIndustry                   // The industry label
	CategoryProduct                    // A product or service name
)

// Categories lists the annotatable categories in priority order
var Categories = []Category{
	CategoryBusiness,
	CategoryCompetitor,
	CategoryIndustry,
	CategoryProduct,
}

func (c Category) String() string {
	switch c {
	case CategoryBusiness:
		return "business"
	case CategoryCompetitor:
		return "competitor"
	case CategoryIndustry:
		return "industry"
	case CategoryProduct:
		return "product"
	default:
		return "none"
	}
}

// Priority returns the rank used to break ties; lower wins
func (c Category) Priority() int {
	if c == CategoryNone {
		return len(Categories) + 1
	}
	return int(c)
}

// MarshalText encodes the category as its lowercase name, or "" for none
func (c Category) MarshalText() ([]byte, error) {
	if c == CategoryNone {
		return []byte{}, nil
	}
	return []byte(c.String()), nil
}

// UnmarshalText decodes a category name
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseCategory parses a category name (case-insensitive)
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CategoryNone, nil
	case "business":
		return CategoryBusiness, nil
	case "competitor":
		return CategoryCompetitor, nil
	case "industry":
		return CategoryIndustry, nil
	case "product", "service":
		return CategoryProduct, nil
	default:
		return CategoryNone, fmt.Errorf("unknown category: %q", s)
	}
}
