package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	scanTimeout  time.Duration
	ignoreRobots bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <url>",
	Short: "Fetch a web page and highlight entity mentions in its visible text",
	Long: `Scan fetches a single web page and annotates its visible text:
- Honors robots.txt (disable with --ignore-robots)
- Retries transient failures with backoff
- Caches fetched pages (see cache.disk_ttl)
- Strips scripts, styles and markup before matching

Example:
  spotlight scan https://example.com/about --profile acme.yaml
  spotlight scan https://example.com --business Acme --competitor Globex --json report.json --md report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().DurationVar(&scanTimeout, "timeout", 2*time.Minute, "overall scan timeout")
	scanCmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "fetch pages even when robots.txt disallows them")
	scanCmd.Flags().Int("max-input-bytes", 0, "reject pages whose visible text is larger than this (default from config)")

	addEntityFlags(scanCmd)
	addHTTPFlags(scanCmd)
	addOutputFlags(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	url := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if ignoreRobots {
		cfg.HTTP.RespectRobots = false
	}
	logger := newLogger(cfg)

	entities, err := resolveEntities()
	if err != nil {
		return err
	}
	if entities.IsEmpty() {
		logger.Warn("no entities given; the page will not be highlighted")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
	defer cancel()

	if logger.Verbose() {
		logger.Step("Scanning: %s", url)
		logger.Step("Timeout: %v, cache: %v", scanTimeout, cfg.Cache.Enabled)
	}

	p, err := newPipeline(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}

	report, err := p.ScanURL(ctx, url, entities)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	if report.FetchMeta != nil {
		logger.Done("Fetched %s (%d, %s)", report.SourceURL, report.FetchMeta.StatusCode, report.FetchMeta.ContentType)
	}
	logMentions(logger, report)

	return writeReport(cmd.OutOrStdout(), cfg, report)
}
