package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spotlight/internal/llm"
	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/pipeline"
	"github.com/ppiankov/spotlight/internal/ui"
)

// Output formats
const (
	outputTerminal = "terminal"
	outputJSON     = "json"
	outputMarkdown = "markdown"
)

var (
	profilePath  string
	businessName string
	competitors  []string
	industry     string
	products     []string

	outJSON string
	outMD   string
)

// addEntityFlags registers the flags describing what to highlight
func addEntityFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&profilePath, "profile", "", "business profile file (YAML or JSON)")
	cmd.Flags().StringVar(&businessName, "business", "", "business name")
	cmd.Flags().StringArrayVar(&competitors, "competitor", nil, "competitor name (repeatable)")
	cmd.Flags().StringVar(&industry, "industry", "", "industry label")
	cmd.Flags().StringArrayVar(&products, "product", nil, "product or service name (repeatable)")
}

// addOutputFlags registers the report output flags
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputTerminal, "stdout format: terminal, json or markdown")
	cmd.Flags().String("color", "auto", "terminal colors: auto, always or never")
	cmd.Flags().Bool("no-footer", false, "disable footer in Markdown reports")
	cmd.Flags().StringVar(&outJSON, "json", "", "also write the JSON report to this path")
	cmd.Flags().StringVar(&outMD, "md", "", "also write the Markdown report to this path")
}

// addLLMFlags registers the LLM provider flags
func addLLMFlags(cmd *cobra.Command) {
	cmd.Flags().String("llm-provider", "", "LLM provider (openai, anthropic, gemini, ollama)")
	cmd.Flags().String("llm-model", "", "LLM model name (provider default when empty)")
	cmd.Flags().String("llm-base-url", "", "LLM API base URL (e.g. http://localhost:11434 for ollama)")
	cmd.Flags().Int("max-tokens", 1000, "maximum tokens in the LLM answer")
	cmd.Flags().String("system", "", "system prompt sent with the question")
}

// addHTTPFlags registers the page fetching flags
func addHTTPFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("http-timeout", 0, "per-request HTTP timeout (default from config)")
	cmd.Flags().String("ua", "", "HTTP User-Agent (default from config)")
	cmd.Flags().Int64("max-bytes", 0, "max response bytes to read (default from config)")
	cmd.Flags().Bool("insecure", false, "skip TLS certificate verification (use for self-signed certs)")
	cmd.Flags().String("http-proxy", "", "HTTP proxy URL")
	cmd.Flags().String("https-proxy", "", "HTTPS proxy URL")
	cmd.Flags().String("no-proxy", "", "comma-separated hosts that bypass the proxy")
}

// resolveEntities combines the profile file with the entity flags.
// Flag values win over the profile's business name and industry; lists are combined.
func resolveEntities() (model.Entities, error) {
	flags := model.Entities{
		BusinessName: businessName,
		Competitors:  model.Names(competitors...),
		Industry:     industry,
		Products:     model.Names(products...),
	}

	if profilePath == "" {
		return flags, nil
	}

	profile, err := model.LoadProfile(profilePath)
	if err != nil {
		return model.Entities{}, err
	}
	return flags.Merge(profile.Entities), nil
}

// availabilityTimeout bounds the verbose-mode provider check
const availabilityTimeout = 5 * time.Second

// newPipeline builds the pipeline, with an LLM provider when withLLM is set
func newPipeline(ctx context.Context, cfg *model.Config, withLLM bool) (*pipeline.Pipeline, error) {
	logger := newLogger(cfg)
	if !withLLM {
		p := pipeline.New(cfg, nil)
		p.SetLogger(logger)
		return p, nil
	}

	if cfg.LLM.Provider == "" {
		return nil, fmt.Errorf("%w: use --llm-provider or set llm.provider in the config file", pipeline.ErrLLMDisabled)
	}

	provider, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM, cfg.HTTP))
	if err != nil {
		return nil, fmt.Errorf("initialize LLM provider: %w", err)
	}

	if cfg.Output.Verbose {
		checkCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
		defer cancel()
		if !provider.IsAvailable(checkCtx) {
			logger.Warn("LLM provider %s did not answer its availability check", provider.Name())
		}
	}

	p := pipeline.New(cfg, provider)
	p.SetLogger(logger)
	return p, nil
}

// writeReport prints the report in the configured format and writes any requested files
func writeReport(w io.Writer, cfg *model.Config, report *model.Report) error {
	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	logger := newLogger(cfg)

	switch strings.ToLower(cfg.Output.Format) {
	case outputJSON:
		if err := renderer.WriteJSON(w, report); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
	case outputMarkdown, "md":
		if _, err := io.WriteString(w, renderer.Markdown(report)); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
	case outputTerminal, "":
		printer := ui.NewPrinter(w, ui.ColorEnabled(cfg.Output.Color), ui.GetWidth())
		if cfg.Output.Verbose {
			_, _ = fmt.Fprintln(w, printer.Legend())
		}
		if err := printer.PrintReport(report); err != nil {
			return fmt.Errorf("render report: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format %q (want terminal, json or markdown)", cfg.Output.Format)
	}

	if outJSON != "" {
		if err := renderer.RenderJSON(report, outJSON); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		logger.Done("Wrote JSON: %s", outJSON)
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(report, outMD); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		logger.Done("Wrote Markdown: %s", outMD)
	}

	return nil
}

// logMentions reports the mention counts of a report in verbose mode
func logMentions(logger *ui.Logger, report *model.Report) {
	counts := make([]string, 0, len(model.Categories))
	for _, c := range model.Categories {
		counts = append(counts, fmt.Sprintf("%s %d", c, report.Summary.Counts[c]))
	}
	logger.Done("Found %d mentions (%s)", report.Summary.Total, strings.Join(counts, ", "))
}

// sanitizeFilename turns a report subject into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(filepath.Clean(s), ".")

	// Limit length without splitting a UTF-8 sequence
	if len(s) > 100 {
		cut := 100
		for cut > 0 && !isRuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	if s == "" {
		s = "report"
	}

	return s
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
