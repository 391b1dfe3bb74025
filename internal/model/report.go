package model

import "time"

// Document is one text to annotate
type Document struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Format string `json:"format,omitempty"` // text, html, auto
	URL    string `json:"url,omitempty"`    // Fetched and annotated when Text is empty
}

// Report is the annotation result for a single text
type Report struct {
	Subject   string    `json:"subject"`              // Document ID, URL or prompt label
	Source    string    `json:"source"`               // text, url, llm
	SourceURL string    `json:"source_url,omitempty"` // Set for scanned pages
	CreatedAt time.Time `json:"created_at"`
	Entities  Entities  `json:"entities"`

	AnnotatedText

	Prompt    *AnnotatedText `json:"prompt,omitempty"` // The annotated prompt for LLM reports
	LLM       *LLMInfo       `json:"llm,omitempty"`
	FetchMeta *FetchMeta     `json:"fetch_meta,omitempty"`
}

// AnnotatedText is a text with its spans and mention summary
type AnnotatedText struct {
	Text    string         `json:"text"`
	Spans   []Span         `json:"spans"`
	Summary MentionSummary `json:"summary"`
}

// MentionSummary aggregates the annotated spans of one text
type MentionSummary struct {
	Total         int                   `json:"total"`
	Counts        map[Category]int      `json:"counts"`
	Forms         map[Category][]string `json:"forms,omitempty"` // Distinct matched surface forms
	FirstMention  Category              `json:"first_mention,omitempty"`
	BusinessShare float64               `json:"business_share"` // business / (business + competitor)
	Mentions      []Mention             `json:"mentions,omitempty"`
}

// Mention is one annotated span with the sentence it appears in
type Mention struct {
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Sentence string   `json:"sentence,omitempty"`
}

// LLMInfo describes the model call behind an LLM report
type LLMInfo struct {
	Provider   string `json:"provider"`
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
	Cached     bool   `json:"cached"`
}

// FetchMeta contains HTTP metadata from fetching a scanned page
type FetchMeta struct {
	StatusCode   int               `json:"status_code"`
	ContentType  string            `json:"content_type,omitempty"`
	LastModified string            `json:"last_modified,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Headers      map[string]string `json:"headers,omitempty"`
}
