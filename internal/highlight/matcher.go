package highlight

import (
	"unicode"
	"unicode/utf8"

	aho "github.com/petar-dambovaliev/aho-corasick"

	"github.com/ppiankov/spotlight/internal/model"
)

// Candidate is one possible match of a term in the source text.
// Start and End are byte offsets into the source.
type Candidate struct {
	Start    int
	End      int
	Category model.Category
	Text     string // Matched source text, as written
}

// Len returns the candidate length in bytes
func (c Candidate) Len() int {
	return c.End - c.Start
}

// patternSet maps deduplicated search patterns back to the terms that own them.
// The automaton is built once and only read afterwards.
type patternSet struct {
	automaton aho.AhoCorasick
	patterns  []string
	owners    [][]int
}

func newPatternSet(keys []string) patternSet {
	var ps patternSet
	index := make(map[string]int, len(keys))

	for ti, key := range keys {
		pi, ok := index[key]
		if !ok {
			pi = len(ps.patterns)
			index[key] = pi
			ps.patterns = append(ps.patterns, key)
			ps.owners = append(ps.owners, nil)
		}
		ps.owners[pi] = append(ps.owners[pi], ti)
	}

	if len(ps.patterns) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{DFA: true})
		ps.automaton = builder.Build(ps.patterns)
	}

	return ps
}

// scan reports every overlapping occurrence of every pattern in haystack
func (ps *patternSet) scan(haystack string, visit func(term, start, end int)) {
	if len(ps.patterns) == 0 || len(haystack) == 0 {
		return
	}

	iter := ps.automaton.IterOverlappingByte([]byte(haystack))
	for m := iter.Next(); m != nil; m = iter.Next() {
		for _, ti := range ps.owners[m.Pattern()] {
			visit(ti, m.Start(), m.End())
		}
	}
}

// matcher runs the three match tiers for a fixed term list.
// It holds no per-call state and is safe for concurrent use.
type matcher struct {
	terms  []NormalizedTerm
	exact  patternSet
	folded patternSet
}

func newMatcher(terms []NormalizedTerm) *matcher {
	exact := make([]string, len(terms))
	folded := make([]string, len(terms))
	for i, t := range terms {
		exact[i] = t.Text
		folded[i], _ = lowerWithOffsets(t.Text)
	}

	return &matcher{
		terms:  terms,
		exact:  newPatternSet(exact),
		folded: newPatternSet(folded),
	}
}

// FindCandidates returns every match of every term in text, unordered
func FindCandidates(text string, terms []NormalizedTerm) []Candidate {
	return newMatcher(terms).find(text)
}

func (m *matcher) find(text string) []Candidate {
	if text == "" || len(m.terms) == 0 {
		return nil
	}

	var out []Candidate
	found := make([]bool, len(m.terms))

	// Tier 1: exact substring
	m.exact.scan(text, func(ti, start, end int) {
		found[ti] = true
		out = append(out, Candidate{Start: start, End: end, Category: m.terms[ti].Category, Text: text[start:end]})
	})

	// Tier 2: case-insensitive, mapped back to source offsets
	lowered, offsets := lowerWithOffsets(text)
	m.folded.scan(lowered, func(ti, start, end int) {
		s, e := offsets[start], offsets[end]
		if s >= e {
			return
		}
		found[ti] = true
		out = append(out, Candidate{Start: s, End: e, Category: m.terms[ti].Category, Text: text[s:e]})
	})

	// Tier 3: normalized window, only for terms nothing else found
	for ti, t := range m.terms {
		if !found[ti] {
			out = append(out, scanNormalized(text, t)...)
		}
	}

	return out
}

// scanNormalized slides a window holding as many base characters as the term
// across text and compares normalized forms. Windows never start on whitespace
// or a combining mark, and absorb marks trailing their last base character.
func scanNormalized(text string, t NormalizedTerm) []Candidate {
	var out []Candidate

	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if unicode.IsSpace(r) || isMark(r) {
			i += size
			continue
		}

		end, ok := windowEnd(text, i, t.bases)
		if ok && Normalize(text[i:end]) == t.Normalized {
			out = append(out, Candidate{Start: i, End: end, Category: t.Category, Text: text[i:end]})
			i = end
			continue
		}

		i += size
	}

	return out
}

// windowEnd returns the end of the window starting at start that holds
// exactly bases base characters plus trailing marks
func windowEnd(text string, start, bases int) (int, bool) {
	n := 0
	j := start
	for j < len(text) {
		r, size := utf8.DecodeRuneInString(text[j:])
		w := baseWeight(r)
		if w > 0 && n >= bases {
			break
		}
		n += w
		j += size
	}
	return j, n == bases
}
