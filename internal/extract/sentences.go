package extract

import (
	"sort"
	"unicode"
	"unicode/utf8"
)

// Sentence is a sentence-sized byte range of a text
type Sentence struct {
	Start int
	End   int
	Text  string
}

// Sentences splits text into sentences (simple heuristic). Sentences end at a
// terminator followed by whitespace, or at a line break. Ranges are trimmed and
// never empty.
func Sentences(text string) []Sentence {
	var sentences []Sentence
	start := 0

	emit := func(end int) {
		s, e := trimRange(text, start, end)
		if s < e {
			sentences = append(sentences, Sentence{Start: s, End: e, Text: text[s:e]})
		}
		start = end
	}

	for end := 0; end < len(text); {
		r, size := utf8.DecodeRuneInString(text[end:])
		end += size

		if r == '\n' {
			emit(end)
			continue
		}

		if isTerminator(r) {
			// Look ahead to avoid splitting on abbreviations and decimals
			next, _ := utf8.DecodeRuneInString(text[end:])
			if end == len(text) || unicode.IsSpace(next) {
				emit(end)
			}
		}
	}
	emit(len(text))

	return sentences
}

// Enclosing returns the sentence containing byte offset pos
func Enclosing(sentences []Sentence, pos int) (Sentence, bool) {
	i := sort.Search(len(sentences), func(i int) bool {
		return sentences[i].End > pos
	})
	if i < len(sentences) && sentences[i].Start <= pos {
		return sentences[i], true
	}
	return Sentence{}, false
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '。', '׃':
		return true
	}
	return false
}

func trimRange(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
