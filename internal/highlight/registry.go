package highlight

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/spotlight/internal/model"
)

// Term is a literal string to search for, tagged with a category
type Term struct {
	Text     string
	Category model.Category
}

// NormalizedTerm is a registered term with its comparison form
type NormalizedTerm struct {
	Term
	Normalized string
	Length     int // rune length of Text

	bases int // base characters in Text, sizes the normalized window
}

// Registry normalizes and deduplicates the terms of one entity set
type Registry struct {
	terms []NormalizedTerm
	index map[string]int // normalized text -> position in terms
}

// NewRegistry builds a registry from entity values. Blank and malformed
// entries are dropped silently.
func NewRegistry(entities model.Entities) *Registry {
	r := &Registry{index: make(map[string]int)}

	r.Add(entities.BusinessName, model.CategoryBusiness)
	for _, v := range entities.Competitors {
		if name, ok := v.Resolve(); ok {
			r.Add(name, model.CategoryCompetitor)
		}
	}
	r.Add(entities.Industry, model.CategoryIndustry)
	for _, v := range entities.Products {
		if name, ok := v.Resolve(); ok {
			r.Add(name, model.CategoryProduct)
		}
	}

	return r
}

// Add registers text under category and reports whether the registry changed.
// When two terms normalize to the same string the higher-priority category
// keeps it; on equal priority the first one stays.
func (r *Registry) Add(text string, category model.Category) bool {
	if category == model.CategoryNone {
		return false
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	normalized := Normalize(text)
	if normalized == "" {
		return false
	}

	term := NormalizedTerm{
		Term:       Term{Text: text, Category: category},
		Normalized: normalized,
		Length:     utf8.RuneCountInString(text),
		bases:      baseCount(text),
	}

	if i, exists := r.index[normalized]; exists {
		if category.Priority() >= r.terms[i].Category.Priority() {
			return false
		}
		r.terms[i] = term
		return true
	}

	r.index[normalized] = len(r.terms)
	r.terms = append(r.terms, term)
	return true
}

// Terms returns the registered terms in registration order
func (r *Registry) Terms() []NormalizedTerm {
	out := make([]NormalizedTerm, len(r.terms))
	copy(out, r.terms)
	return out
}

// Len returns the number of registered terms
func (r *Registry) Len() int {
	return len(r.terms)
}
