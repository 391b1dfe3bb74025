// Package tool exposes entity highlighting as MCP tools.
package tool

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/pipeline"
)

// ErrTextRequired is returned for an empty text argument
var ErrTextRequired = errors.New("text is required")

// entityItemSchema accepts a bare name or a record carrying one
var entityItemSchema = map[string]interface{}{
	"anyOf": []interface{}{
		map[string]interface{}{"type": "string"},
		map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"name": map[string]interface{}{"type": "string"},
			},
		},
	},
}

// MetadataAnnotateText describes the annotate_text tool.
var MetadataAnnotateText = &mcp.Tool{
	Name: "annotate_text",
	Description: "Highlight mentions of a business, its competitors, its industry and its products in a text. " +
		"Matching is case-insensitive, ignores Hebrew niqqud and Unicode normalization differences, " +
		"and returns byte-offset spans that cover the whole text, plain spans included. " +
		"The summary counts mentions per category and reports the business's share of " +
		"business-plus-competitor mentions.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "The text to annotate, e.g. an AI assistant's answer",
			},
			"business_name": map[string]interface{}{
				"type":        "string",
				"description": "The business's own name",
			},
			"competitors": map[string]interface{}{
				"type":        "array",
				"items":       entityItemSchema,
				"description": "Competitor names, as strings or {\"name\": ...} records",
			},
			"industry": map[string]interface{}{
				"type":        "string",
				"description": "The industry label, e.g. robotics",
			},
			"products": map[string]interface{}{
				"type":        "array",
				"items":       entityItemSchema,
				"description": "Product or service names, as strings or {\"name\": ...} records",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Input format. text (default) annotates as is, html annotates the visible text, auto detects HTML.",
				"enum":        []string{"text", "html", "auto"},
			},
		},
	},
}

// InputAnnotateText is the input for the AnnotateText tool.
// Competitors and Products take names or {"name": ...} records; entries
// without a usable name are skipped.
type InputAnnotateText struct {
	Text         string              `json:"text"`
	BusinessName string              `json:"business_name"`
	Competitors  []model.EntityValue `json:"competitors"`
	Industry     string              `json:"industry"`
	Products     []model.EntityValue `json:"products"`
	Format       string              `json:"format"`
}

// Entities converts the tool arguments to engine entities
func (in InputAnnotateText) Entities() model.Entities {
	return model.Entities{
		BusinessName: in.BusinessName,
		Competitors:  in.Competitors,
		Industry:     in.Industry,
		Products:     in.Products,
	}
}

// OutputAnnotateText is the output for the AnnotateText tool.
type OutputAnnotateText struct {
	// Text is the annotated text; differs from the input only for HTML input.
	Text string `json:"text"`
	// Spans partition Text in order.
	Spans []Span `json:"spans"`
	// Summary aggregates the annotated spans.
	Summary Summary `json:"summary"`
}

// Span is one range of the annotated text. Category is empty for plain text.
type Span struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Category string `json:"category,omitempty"`
	Text     string `json:"text"`
}

// Summary counts mentions per category name
type Summary struct {
	Total         int                 `json:"total"`
	Counts        map[string]int      `json:"counts"`
	Forms         map[string][]string `json:"forms,omitempty"`
	FirstMention  string              `json:"first_mention,omitempty"`
	BusinessShare float64             `json:"business_share"`
}

// Annotator serves annotate_text through a pipeline
type Annotator struct {
	pipeline *pipeline.Pipeline
}

// NewAnnotator creates a new tool handler
func NewAnnotator(p *pipeline.Pipeline) *Annotator {
	return &Annotator{pipeline: p}
}

// AnnotateText highlights the entity mentions of the input text
func (a *Annotator) AnnotateText(ctx context.Context, _ *mcp.CallToolRequest, input InputAnnotateText) (*mcp.CallToolResult, OutputAnnotateText, error) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, OutputAnnotateText{}, ErrTextRequired
	}

	report, err := a.pipeline.AnnotateText(ctx, model.Document{
		ID:     "mcp",
		Text:   input.Text,
		Format: input.Format,
	}, input.Entities())
	if err != nil {
		return nil, OutputAnnotateText{}, fmt.Errorf("annotate: %w", err)
	}

	return nil, toOutput(report), nil
}

func toOutput(report *model.Report) OutputAnnotateText {
	spans := make([]Span, 0, len(report.Spans))
	for _, s := range report.Spans {
		span := Span{Start: s.Start, End: s.End, Text: s.Text}
		if s.IsAnnotated() {
			span.Category = s.Category.String()
		}
		spans = append(spans, span)
	}

	summary := Summary{
		Total:         report.Summary.Total,
		Counts:        make(map[string]int, len(report.Summary.Counts)),
		Forms:         make(map[string][]string, len(report.Summary.Forms)),
		BusinessShare: report.Summary.BusinessShare,
	}
	for c, n := range report.Summary.Counts {
		summary.Counts[c.String()] = n
	}
	for c, forms := range report.Summary.Forms {
		summary.Forms[c.String()] = forms
	}
	if report.Summary.FirstMention != model.CategoryNone {
		summary.FirstMention = report.Summary.FirstMention.String()
	}

	return OutputAnnotateText{Text: report.Text, Spans: spans, Summary: summary}
}
