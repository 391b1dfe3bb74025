package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/spotlight/internal/model"
)

// Renderer writes reports as JSON or Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a new renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// WriteJSON writes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderJSON writes the report as JSON to path, creating parent directories
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, report)
	})
}

// RenderMarkdown writes the report as Markdown to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// Markdown renders the report with mentions as **term**<sub>category</sub>
// followed by a summary table
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Spotlight: %s\n\n", escapeMarkdown(report.Subject))

	switch {
	case report.SourceURL != "":
		fmt.Fprintf(&b, "**Source:** %s  \n", report.SourceURL)
	case report.LLM != nil:
		fmt.Fprintf(&b, "**Source:** %s", report.LLM.Provider)
		if report.LLM.Model != "" {
			fmt.Fprintf(&b, " (%s)", report.LLM.Model)
		}
		if report.LLM.Cached {
			b.WriteString(", cached")
		}
		b.WriteString("  \n")
	default:
		fmt.Fprintf(&b, "**Source:** %s  \n", report.Source)
	}
	if !report.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Created:** %s\n", report.CreatedAt.Format("2006-01-02 15:04:05 UTC"))
	}
	b.WriteString("\n")

	if report.Prompt != nil {
		b.WriteString("## Prompt\n\n")
		b.WriteString(annotatedMarkdown(report.Prompt.Spans))
		b.WriteString("\n\n")
		b.WriteString("## Answer\n\n")
	} else {
		b.WriteString("## Text\n\n")
	}
	b.WriteString(annotatedMarkdown(report.Spans))
	b.WriteString("\n\n")

	b.WriteString("## Mentions\n\n")
	b.WriteString(summaryMarkdown(report.Summary))

	if r.includeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_Generated by spotlight. Mentions are matched against the configured entities only._\n")
	}

	return b.String()
}

// annotatedMarkdown rebuilds the text from its spans, marking annotated ones
func annotatedMarkdown(spans []model.Span) string {
	var b strings.Builder
	for _, s := range spans {
		text := escapeMarkdown(s.Text)
		if !s.IsAnnotated() {
			b.WriteString(text)
			continue
		}
		fmt.Fprintf(&b, "**%s**<sub>%s</sub>", text, s.Category)
	}
	return b.String()
}

func summaryMarkdown(summary model.MentionSummary) string {
	var b strings.Builder

	b.WriteString("| Category | Mentions | Forms |\n")
	b.WriteString("|---|---:|---|\n")
	for _, c := range model.Categories {
		forms := make([]string, 0, len(summary.Forms[c]))
		for _, f := range summary.Forms[c] {
			forms = append(forms, escapeMarkdown(f))
		}
		fmt.Fprintf(&b, "| %s | %d | %s |\n", c, summary.Counts[c], strings.Join(forms, ", "))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "- **Total mentions:** %d\n", summary.Total)
	if summary.FirstMention != model.CategoryNone {
		fmt.Fprintf(&b, "- **First mention:** %s\n", summary.FirstMention)
	}
	fmt.Fprintf(&b, "- **Business share:** %.0f%%\n", summary.BusinessShare*100)

	return b.String()
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", "&lt;",
	">", "&gt;",
	"|", `\|`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// writeFile creates path and its parent directories and writes through fn
func writeFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}

	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
