package highlight

import (
	"sort"

	"github.com/ppiankov/spotlight/internal/model"
)

// Resolve turns overlapping candidates into spans that partition
// [0, sourceLength). Earlier starts win, then longer matches, then category
// priority. Candidates overlapping an accepted span are discarded and
// candidates outside the source are ignored.
//
// Span.Text is left empty; Annotate fills it in.
func Resolve(candidates []Candidate, sourceLength int) []model.Span {
	spans := make([]model.Span, 0, 2*len(candidates)+1)
	if sourceLength <= 0 {
		return spans
	}

	valid := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Start >= 0 && c.Start < c.End && c.End <= sourceLength {
			valid = append(valid, c)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		a, b := valid[i], valid[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.Len() != b.Len() {
			return a.Len() > b.Len()
		}
		return a.Category.Priority() < b.Category.Priority()
	})

	cursor := 0
	for _, c := range valid {
		if c.Start < cursor {
			continue
		}
		if c.Start > cursor {
			spans = append(spans, model.Span{Start: cursor, End: c.Start})
		}
		spans = append(spans, model.Span{Start: c.Start, End: c.End, Category: c.Category})
		cursor = c.End
	}

	if cursor < sourceLength {
		spans = append(spans, model.Span{Start: cursor, End: sourceLength})
	}

	return spans
}
