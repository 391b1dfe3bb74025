package model

// Span is a contiguous range of the source text, annotated or plain.
// Start and End are byte offsets into the UTF-8 source; End is exclusive.
type Span struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Category Category `json:"category,omitempty"` // CategoryNone for plain text
	Text     string   `json:"text"`
}

// Len returns the span length in bytes
func (s Span) Len() int {
	return s.End - s.Start
}

// IsAnnotated reports whether the span carries a category
func (s Span) IsAnnotated() bool {
	return s.Category != CategoryNone
}

// Annotated filters spans down to the annotated ones
func Annotated(spans []Span) []Span {
	var out []Span
	for _, s := range spans {
		if s.IsAnnotated() {
			out = append(out, s)
		}
	}
	return out
}
