package score

import (
	"github.com/ppiankov/spotlight/internal/extract"
	"github.com/ppiankov/spotlight/internal/model"
)

// Summarizer aggregates annotated spans into a mention summary
type Summarizer struct {
	withSentences bool
}

// NewSummarizer creates a new summarizer
func NewSummarizer() *Summarizer {
	return &Summarizer{withSentences: true}
}

// WithoutSentences returns a summarizer that skips sentence context
func (s *Summarizer) WithoutSentences() *Summarizer {
	return &Summarizer{withSentences: false}
}

// Summarize counts the annotated spans of text per category.
// Spans must come from annotating text; plain spans are ignored.
func (s *Summarizer) Summarize(text string, spans []model.Span) model.MentionSummary {
	summary := model.MentionSummary{
		Counts: make(map[model.Category]int, len(model.Categories)),
		Forms:  make(map[model.Category][]string),
	}
	for _, c := range model.Categories {
		summary.Counts[c] = 0
	}

	var sentences []extract.Sentence
	if s.withSentences {
		sentences = extract.Sentences(text)
	}

	seen := make(map[model.Category]map[string]bool)

	for _, span := range spans {
		if !span.IsAnnotated() {
			continue
		}

		summary.Total++
		summary.Counts[span.Category]++
		if summary.FirstMention == model.CategoryNone {
			summary.FirstMention = span.Category
		}

		form := span.Text
		if form == "" && span.End <= len(text) {
			form = text[span.Start:span.End]
		}
		if seen[span.Category] == nil {
			seen[span.Category] = make(map[string]bool)
		}
		if !seen[span.Category][form] {
			seen[span.Category][form] = true
			summary.Forms[span.Category] = append(summary.Forms[span.Category], form)
		}

		mention := model.Mention{
			Category: span.Category,
			Text:     form,
			Start:    span.Start,
			End:      span.End,
		}
		if sentence, ok := extract.Enclosing(sentences, span.Start); ok {
			mention.Sentence = sentence.Text
		}
		summary.Mentions = append(summary.Mentions, mention)
	}

	summary.BusinessShare = businessShare(summary.Counts)
	return summary
}

// businessShare is business / (business + competitor), 0 when neither occurs
func businessShare(counts map[model.Category]int) float64 {
	business := counts[model.CategoryBusiness]
	total := business + counts[model.CategoryCompetitor]
	if total == 0 {
		return 0
	}
	return float64(business) / float64(total)
}
