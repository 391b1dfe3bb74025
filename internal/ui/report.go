package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/muesli/termenv"

	"github.com/ppiankov/spotlight/internal/model"
)

// Category colors
var categoryColors = map[model.Category]lipgloss.Color{
	model.CategoryBusiness:   lipgloss.Color("42"),  // green
	model.CategoryCompetitor: lipgloss.Color("203"), // red
	model.CategoryIndustry:   lipgloss.Color("75"),  // blue
	model.CategoryProduct:    lipgloss.Color("214"), // orange
}

var (
	colorMuted  = lipgloss.Color("245")
	colorAccent = lipgloss.Color("99")
)

// Printer renders reports to a terminal
type Printer struct {
	w        io.Writer
	color    bool
	width    int
	renderer *lipgloss.Renderer

	header   lipgloss.Style
	muted    lipgloss.Style
	border   lipgloss.Style
	mentions map[model.Category]lipgloss.Style
}

// NewPrinter creates a printer writing to w. Without color, mentions are
// marked as [text|category].
func NewPrinter(w io.Writer, color bool, width int) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	if width <= 0 {
		width = 80
	}

	p := &Printer{
		w:        w,
		color:    color,
		width:    width,
		renderer: r,
		header:   r.NewStyle().Bold(true).Foreground(colorAccent),
		muted:    r.NewStyle().Foreground(colorMuted),
		border:   r.NewStyle().Foreground(colorMuted),
		mentions: make(map[model.Category]lipgloss.Style, len(categoryColors)),
	}
	for c, fg := range categoryColors {
		p.mentions[c] = r.NewStyle().Bold(true).Foreground(fg)
	}
	return p
}

// PrintReport writes the rendered report
func (p *Printer) PrintReport(report *model.Report) error {
	_, err := io.WriteString(p.w, p.RenderReport(report)+"\n")
	return err
}

// RenderReport renders the annotated text followed by the mention summary
func (p *Printer) RenderReport(report *model.Report) string {
	var sections []string

	sections = append(sections, p.header.Render("🔦 "+report.Subject))
	if source := describeSource(report); source != "" {
		sections = append(sections, p.muted.Render(source))
	}
	sections = append(sections, "")

	if report.Prompt != nil {
		sections = append(sections, p.header.Render("Prompt"))
		sections = append(sections, p.RenderSpans(report.Prompt.Spans), "")
		sections = append(sections, p.header.Render("Answer"))
	}
	sections = append(sections, p.RenderSpans(report.Spans), "")

	sections = append(sections, p.muted.Render(strings.Repeat("─", min(p.width, 60))))
	sections = append(sections, p.RenderSummary(report.Summary))

	return strings.Join(sections, "\n")
}

// RenderSpans rebuilds the text, styling annotated spans by category
func (p *Printer) RenderSpans(spans []model.Span) string {
	var b strings.Builder
	for _, s := range spans {
		if !s.IsAnnotated() {
			b.WriteString(s.Text)
			continue
		}
		if !p.color {
			fmt.Fprintf(&b, "[%s|%s]", s.Text, s.Category)
			continue
		}
		b.WriteString(p.mentions[s.Category].Render(s.Text))
	}
	return b.String()
}

// RenderSummary renders the per-category counts as a table
func (p *Printer) RenderSummary(summary model.MentionSummary) string {
	rows := make([][]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		rows = append(rows, []string{
			c.String(),
			strconv.Itoa(summary.Counts[c]),
			strings.Join(summary.Forms[c], ", "),
		})
	}

	t := table.New().
		Headers("Category", "Mentions", "Forms").
		Border(lipgloss.RoundedBorder()).
		BorderStyle(p.border).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return p.header.Padding(0, 1)
			}
			style := p.renderer.NewStyle().Padding(0, 1)
			if col == 0 && row >= 0 && row < len(model.Categories) {
				style = style.Foreground(categoryColors[model.Categories[row]])
			}
			if col == 1 {
				style = style.Align(lipgloss.Right)
			}
			return style
		})

	lines := []string{t.String()}
	line := fmt.Sprintf("Total %d", summary.Total)
	if summary.FirstMention != model.CategoryNone {
		line += fmt.Sprintf(" · first mention: %s", summary.FirstMention)
	}
	line += fmt.Sprintf(" · business share: %.0f%%", summary.BusinessShare*100)
	lines = append(lines, p.muted.Render(line))

	return strings.Join(lines, "\n")
}

// Legend renders the category color key
func (p *Printer) Legend() string {
	parts := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		if p.color {
			parts = append(parts, p.mentions[c].Render(c.String()))
		} else {
			parts = append(parts, "[text|"+c.String()+"]")
		}
	}
	return strings.Join(parts, "  ")
}

// describeSource summarizes where the report's text came from
func describeSource(report *model.Report) string {
	switch {
	case report.SourceURL != "":
		return report.SourceURL
	case report.LLM != nil:
		desc := report.LLM.Provider
		if report.LLM.Model != "" {
			desc += " · " + report.LLM.Model
		}
		if report.LLM.TokensUsed > 0 {
			desc += fmt.Sprintf(" · %d tokens", report.LLM.TokensUsed)
		}
		if report.LLM.Cached {
			desc += " · cached"
		}
		return desc
	default:
		return report.Source
	}
}
