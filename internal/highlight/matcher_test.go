package highlight

import (
	"reflect"
	"sort"
	"testing"

	"github.com/ppiankov/spotlight/internal/model"
)

func termsFor(e model.Entities) []NormalizedTerm {
	return NewRegistry(e).Terms()
}

// distinct drops candidates that both the exact and folded tiers produced
func distinct(cands []Candidate) []Candidate {
	seen := make(map[Candidate]bool)
	var out []Candidate
	for _, c := range cands {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// checkCandidates compares candidate lists ignoring order
func checkCandidates(t *testing.T, got, want []Candidate) {
	t.Helper()

	sorted := func(in []Candidate) []Candidate {
		out := append([]Candidate(nil), in...)
		sort.Slice(out, func(i, j int) bool {
			if out[i].Start != out[j].Start {
				return out[i].Start < out[j].Start
			}
			if out[i].End != out[j].End {
				return out[i].End < out[j].End
			}
			return out[i].Category < out[j].Category
		})
		return out
	}
	if !reflect.DeepEqual(sorted(got), sorted(want)) {
		t.Errorf("candidates mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

func TestFindCandidates_Exact(t *testing.T) {
	text := "Acme and Globex"
	cands := distinct(FindCandidates(text, termsFor(model.Entities{
		BusinessName: "Acme",
		Competitors:  model.Names("Globex"),
	})))

	checkCandidates(t, cands, []Candidate{
		{Start: 0, End: 4, Category: model.CategoryBusiness, Text: "Acme"},
		{Start: 9, End: 15, Category: model.CategoryCompetitor, Text: "Globex"},
	})
}

func TestFindCandidates_CaseInsensitive(t *testing.T) {
	text := "Acme makes ACME gadgets"
	cands := distinct(FindCandidates(text, termsFor(model.Entities{BusinessName: "acme"})))

	checkCandidates(t, cands, []Candidate{
		{Start: 0, End: 4, Category: model.CategoryBusiness, Text: "Acme"},
		{Start: 11, End: 15, Category: model.CategoryBusiness, Text: "ACME"},
	})
}

func TestFindCandidates_FoldedOffsetsMapBack(t *testing.T) {
	// KELVIN SIGN is three bytes and lowercases to a one-byte k
	text := "\u212Aelvin scale"
	cands := distinct(FindCandidates(text, termsFor(model.Entities{Industry: "kelvin"})))

	checkCandidates(t, cands, []Candidate{{Start: 0, End: 8, Category: model.CategoryIndustry, Text: "\u212Aelvin"}})
}

func TestFindCandidates_Overlapping(t *testing.T) {
	text := "Acme Robotics"
	cands := distinct(FindCandidates(text, termsFor(model.Entities{
		BusinessName: "Acme Robotics",
		Competitors:  model.Names("Acme"),
		Industry:     "Robotics",
	})))

	checkCandidates(t, cands, []Candidate{
		{Start: 0, End: 13, Category: model.CategoryBusiness, Text: "Acme Robotics"},
		{Start: 0, End: 4, Category: model.CategoryCompetitor, Text: "Acme"},
		{Start: 5, End: 13, Category: model.CategoryIndustry, Text: "Robotics"},
	})
}

func TestFindCandidates_NormalizedWindow(t *testing.T) {
	text := shalomPointed + " עולם"
	cands := FindCandidates(text, termsFor(model.Entities{BusinessName: shalomPlain}))

	checkCandidates(t, cands, []Candidate{{Start: 0, End: len(shalomPointed), Category: model.CategoryBusiness, Text: shalomPointed}})
}

func TestFindCandidates_NormalizedWindowPointedTerm(t *testing.T) {
	// The term carries the points and the text does not
	text := "אמר " + shalomPlain
	cands := FindCandidates(text, termsFor(model.Entities{BusinessName: shalomPointed}))

	if len(cands) != 1 {
		t.Fatalf("Expected 1 candidate, got %d: %+v", len(cands), cands)
	}
	if cands[0].Start != len("אמר ") || cands[0].End != len(text) {
		t.Errorf("candidate = [%d,%d), expected [%d,%d)", cands[0].Start, cands[0].End, len("אמר "), len(text))
	}
}

func TestFindCandidates_NormalizedWindowSkippedAfterDirectHit(t *testing.T) {
	text := shalomPlain + " " + shalomPointed
	cands := distinct(FindCandidates(text, termsFor(model.Entities{BusinessName: shalomPlain})))

	if len(cands) != 1 {
		t.Fatalf("Expected 1 candidate, got %d: %+v", len(cands), cands)
	}
	if cands[0].Start != 0 || cands[0].End != len(shalomPlain) {
		t.Errorf("candidate = [%d,%d), expected [0,%d)", cands[0].Start, cands[0].End, len(shalomPlain))
	}
}

func TestFindCandidates_NoMatch(t *testing.T) {
	acme := termsFor(model.Entities{BusinessName: "Acme"})
	if got := FindCandidates("nothing relevant here", acme); len(got) != 0 {
		t.Errorf("Expected no candidates, got %+v", got)
	}
	if got := FindCandidates("", acme); len(got) != 0 {
		t.Errorf("Expected no candidates in empty text, got %+v", got)
	}
	if got := FindCandidates("Acme", nil); len(got) != 0 {
		t.Errorf("Expected no candidates without terms, got %+v", got)
	}
}

func TestWindowEnd(t *testing.T) {
	end, ok := windowEnd(shalomPointed+" x", 0, 4)
	if !ok || end != len(shalomPointed) {
		t.Errorf("windowEnd = %d, %v; expected trailing points absorbed up to %d", end, ok, len(shalomPointed))
	}

	if _, ok = windowEnd("ab", 0, 3); ok {
		t.Error("Expected no window when the text is too short")
	}
}

func TestPatternSet_BuiltOnce(t *testing.T) {
	ps := newPatternSet([]string{"acme", "globex", "acme"})
	if len(ps.patterns) != 2 {
		t.Fatalf("Expected 2 deduplicated patterns, got %v", ps.patterns)
	}
	if ps.automaton.PatternCount() != 2 {
		t.Errorf("automaton holds %d patterns, expected 2", ps.automaton.PatternCount())
	}

	type hit struct{ term, start, end int }
	collect := func(haystack string) []hit {
		var hits []hit
		ps.scan(haystack, func(term, start, end int) {
			hits = append(hits, hit{term, start, end})
		})
		return hits
	}

	want := []hit{{0, 0, 4}, {2, 0, 4}, {1, 5, 11}}
	for i := 0; i < 3; i++ {
		if got := collect("acme globex"); !reflect.DeepEqual(got, want) {
			t.Errorf("scan %d = %v, expected %v", i, got, want)
		}
	}
	if got := collect(""); got != nil {
		t.Errorf("Expected no hits in empty text, got %v", got)
	}

	empty := newPatternSet(nil)
	empty.scan("acme", func(int, int, int) {
		t.Error("Expected an empty pattern set to report nothing")
	})
}
