// Package highlight finds business, competitor, industry and product mentions
// in free text and splits the text into annotated and plain spans.
//
// Matching runs in three tiers per term: exact substring, case-insensitive
// substring, and a niqqud-insensitive normalized comparison used only when the
// first two found nothing. Overlaps resolve greedily, longest match first.
// All offsets are byte offsets into the UTF-8 source.
package highlight

import (
	"github.com/ppiankov/spotlight/internal/model"
)

// Highlighter annotates texts against one precompiled entity set.
// It is immutable after Compile and safe for concurrent use.
type Highlighter struct {
	terms   []NormalizedTerm
	matcher *matcher
}

// Compile prepares a Highlighter for entities
func Compile(entities model.Entities) *Highlighter {
	terms := NewRegistry(entities).Terms()
	return &Highlighter{
		terms:   terms,
		matcher: newMatcher(terms),
	}
}

// Terms returns the compiled terms in registration order
func (h *Highlighter) Terms() []NormalizedTerm {
	out := make([]NormalizedTerm, len(h.terms))
	copy(out, h.terms)
	return out
}

// Annotate splits text into contiguous spans covering all of it.
// Empty text yields an empty, non-nil slice.
func (h *Highlighter) Annotate(text string) []model.Span {
	if text == "" {
		return []model.Span{}
	}

	spans := Resolve(h.matcher.find(text), len(text))
	for i := range spans {
		spans[i].Text = text[spans[i].Start:spans[i].End]
	}
	return spans
}

// Annotate is a one-shot Compile(entities).Annotate(text)
func Annotate(text string, entities model.Entities) []model.Span {
	return Compile(entities).Annotate(text)
}
