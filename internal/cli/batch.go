package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spotlight/internal/pipeline"
	"github.com/ppiankov/spotlight/internal/worker"
)

var (
	outputDir    string
	batchTimeout time.Duration
	batchMD      bool
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file.jsonl>",
	Short: "Annotate many documents from a JSON Lines file in parallel",
	Long: `Batch annotates documents concurrently:
- Read documents from a JSON Lines file, one {"id", "text", "format", "url"} per line
- Documents with a url and no text are fetched like 'spotlight scan'
- Entities are compiled once and shared by all workers
- Write one JSON report (and optionally Markdown) per document

Example:
  spotlight batch answers.jsonl --profile acme.yaml
  spotlight batch answers.jsonl --profile acme.yaml --concurrency 8 --output-dir ./reports --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 4, "number of concurrent workers")
	batchCmd.Flags().Float64("rps", 2, "fetch requests per second per host")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./spotlight-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write a Markdown report per document")
	batchCmd.Flags().Bool("no-footer", false, "disable footer in Markdown reports")
	batchCmd.Flags().Int("max-input-bytes", 0, "reject documents larger than this (default from config)")

	addEntityFlags(batchCmd)
	addHTTPFlags(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	entities, err := resolveEntities()
	if err != nil {
		return err
	}
	if entities.IsEmpty() {
		logger.Warn("no entities given; documents will not be highlighted")
	}

	workers := cfg.Concurrency.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "  Spotlight Batch Processing\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	_, _ = fmt.Fprintf(stderr, "  Workers:      %d\n", workers)
	_, _ = fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	_, _ = fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	_, _ = fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := newPipeline(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}
	processor := worker.NewBatchProcessor(p.Annotator(entities), workers)

	logger.Step("Reading documents from %s...", file)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			_, _ = fmt.Fprintf(stderr, "✗ %s: %v\n", result.ID, result.Error)
			continue
		}

		slug := sanitizeFilename(result.ID)
		jsonPath := filepath.Join(outputDir, slug+".json")
		if err := renderer.RenderJSON(result.Report, jsonPath); err != nil {
			failureCount++
			_, _ = fmt.Fprintf(stderr, "✗ %s: failed to write JSON: %v\n", result.ID, err)
			continue
		}
		if batchMD {
			mdPath := filepath.Join(outputDir, slug+".md")
			if err := renderer.RenderMarkdown(result.Report, mdPath); err != nil {
				failureCount++
				_, _ = fmt.Fprintf(stderr, "✗ %s: failed to write Markdown: %v\n", result.ID, err)
				continue
			}
		}

		successCount++
		summary := result.Report.Summary
		_, _ = fmt.Fprintf(stderr, "✓ %s (%d mentions, business share %.0f%%)\n",
			result.ID, summary.Total, summary.BusinessShare*100)
	}

	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "  Batch Complete\n")
	_, _ = fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	_, _ = fmt.Fprintf(stderr, "\n")
	_, _ = fmt.Fprintf(stderr, "  Total:     %d documents\n", len(results))
	_, _ = fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	_, _ = fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	_, _ = fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	_, _ = fmt.Fprintf(stderr, "\n")

	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d documents failed", failureCount)
	}
	return nil
}
