package highlight

import (
	"testing"

	"github.com/ppiankov/spotlight/internal/model"
)

func TestResolve(t *testing.T) {
	b, c, p := model.CategoryBusiness, model.CategoryCompetitor, model.CategoryProduct

	tests := []struct {
		name       string
		candidates []Candidate
		length     int
		want       []model.Span
	}{
		{
			name:   "no candidates",
			length: 5,
			want:   []model.Span{{Start: 0, End: 5}},
		},
		{
			name:   "empty source",
			length: 0,
			want:   []model.Span{},
		},
		{
			name:       "single match with gaps",
			candidates: []Candidate{{Start: 2, End: 4, Category: b}},
			length:     6,
			want: []model.Span{
				{Start: 0, End: 2},
				{Start: 2, End: 4, Category: b},
				{Start: 4, End: 6},
			},
		},
		{
			name: "longest match wins at same start",
			candidates: []Candidate{
				{Start: 0, End: 4, Category: c},
				{Start: 0, End: 13, Category: b},
			},
			length: 20,
			want: []model.Span{
				{Start: 0, End: 13, Category: b},
				{Start: 13, End: 20},
			},
		},
		{
			name: "earlier start beats longer overlap",
			candidates: []Candidate{
				{Start: 3, End: 12, Category: b},
				{Start: 0, End: 5, Category: p},
			},
			length: 12,
			want: []model.Span{
				{Start: 0, End: 5, Category: p},
				{Start: 5, End: 12},
			},
		},
		{
			name: "category priority breaks exact ties",
			candidates: []Candidate{
				{Start: 0, End: 4, Category: p},
				{Start: 0, End: 4, Category: b},
			},
			length: 4,
			want:   []model.Span{{Start: 0, End: 4, Category: b}},
		},
		{
			name: "adjacent matches have no gap",
			candidates: []Candidate{
				{Start: 4, End: 8, Category: c},
				{Start: 0, End: 4, Category: b},
			},
			length: 8,
			want: []model.Span{
				{Start: 0, End: 4, Category: b},
				{Start: 4, End: 8, Category: c},
			},
		},
		{
			name: "invalid candidates ignored",
			candidates: []Candidate{
				{Start: -1, End: 2, Category: b},
				{Start: 3, End: 3, Category: b},
				{Start: 4, End: 99, Category: b},
				{Start: 2, End: 1, Category: b},
			},
			length: 5,
			want:   []model.Span{{Start: 0, End: 5}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkSpans(t, Resolve(tt.candidates, tt.length), tt.want)
		})
	}
}

func TestResolve_DoesNotReorderInput(t *testing.T) {
	in := []Candidate{{Start: 5, End: 6, Category: model.CategoryBusiness}, {Start: 0, End: 1, Category: model.CategoryBusiness}}
	Resolve(in, 6)
	if in[0].Start != 5 {
		t.Errorf("input reordered: first candidate starts at %d, expected 5", in[0].Start)
	}
}
