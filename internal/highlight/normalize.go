package highlight

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// niqqud covers the Hebrew points and cantillation block, U+0591 through U+05C7
var niqqud = &unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0591, Hi: 0x05C7, Stride: 1}},
}

// newStripper builds the NFD -> remove niqqud -> NFC chain.
// Chained transformers keep internal buffers, so each call gets its own.
func newStripper() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(niqqud)), norm.NFC)
}

// Normalize converts s to its comparison form: niqqud stripped, canonically
// composed, lowercased and trimmed. Code points outside the niqqud block are
// left untouched.
func Normalize(s string) string {
	if isASCII(s) {
		return strings.TrimSpace(strings.ToLower(s))
	}

	stripped, _, err := transform.String(newStripper(), s)
	if err != nil {
		stripped = s
	}

	return strings.TrimSpace(strings.Map(unicode.ToLower, stripped))
}

// isMark reports whether r attaches to a preceding base character
func isMark(r rune) bool {
	return unicode.In(r, unicode.M, niqqud)
}

// baseWeight is the number of base (non-mark) characters r decomposes into
func baseWeight(r rune) int {
	if r < utf8.RuneSelf {
		return 1
	}
	if isMark(r) {
		return 0
	}

	n := 0
	for _, dr := range norm.NFD.String(string(r)) {
		if !isMark(dr) {
			n++
		}
	}
	return n
}

// baseCount counts base characters in s. Normalize never changes it, which is
// what sizes the normalized scan window.
func baseCount(s string) int {
	n := 0
	for _, r := range s {
		n += baseWeight(r)
	}
	return n
}

// lowerWithOffsets lowercases s rune by rune and returns, for every byte of the
// result plus one past the end, the byte offset in s it came from.
func lowerWithOffsets(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		n, _ := b.WriteRune(unicode.ToLower(r))
		for k := 0; k < n; k++ {
			offsets = append(offsets, i)
		}
	}
	offsets = append(offsets, len(s))

	return b.String(), offsets
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
