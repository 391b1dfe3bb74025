package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/pipeline"
)

var (
	inputFile   string
	inputFormat string
)

// annotateCmd represents the annotate command
var annotateCmd = &cobra.Command{
	Use:   "annotate [text]",
	Short: "Highlight entity mentions in a text",
	Long: `Annotate finds the business, competitor, industry and product mentions
in a text and reports every span of it.

The text is read from the argument, from --file, or from stdin when neither is given.
HTML input is reduced to its visible text with --format html (or auto).

Example:
  spotlight annotate "Acme beats Globex on price" --business Acme --competitor Globex
  spotlight annotate --file answer.txt --profile acme.yaml --output json
  curl -s https://example.com | spotlight annotate --format html --profile acme.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(annotateCmd)

	annotateCmd.Flags().StringVarP(&inputFile, "file", "f", "", "read the text from a file")
	annotateCmd.Flags().StringVar(&inputFormat, "format", "text", "input format: text, html or auto")
	annotateCmd.Flags().Int("max-input-bytes", 0, "reject texts larger than this (default from config, 0 in config disables)")

	addEntityFlags(annotateCmd)
	addOutputFlags(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
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
		logger.Warn("no entities given; the text will not be highlighted (use --business, --competitor, --industry, --product or --profile)")
	}

	text, id, err := readInput(cmd, args, cfg.Highlight.MaxInputBytes)
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}

	logger.Step("Annotating %d bytes...", len(text))
	report, err := p.AnnotateText(cmd.Context(), model.Document{ID: id, Text: text, Format: inputFormat}, entities)
	if err != nil {
		return fmt.Errorf("annotate failed: %w", err)
	}
	logMentions(logger, report)

	return writeReport(cmd.OutOrStdout(), cfg, report)
}

// readInput returns the text to annotate and a document ID for it.
// File and stdin reads stop one byte past limit when limit is positive.
func readInput(cmd *cobra.Command, args []string, limit int) (string, string, error) {
	switch {
	case len(args) == 1 && inputFile != "":
		return "", "", fmt.Errorf("give the text as an argument or with --file, not both")
	case len(args) == 1:
		return args[0], "", nil
	case inputFile != "":
		f, err := os.Open(inputFile)
		if err != nil {
			return "", "", fmt.Errorf("read input: %w", err)
		}
		defer func() { _ = f.Close() }()

		data, err := readLimited(f, limit)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", inputFile, err)
		}
		return string(data), filepath.Base(inputFile), nil
	}

	data, err := readLimited(cmd.InOrStdin(), limit)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", "", fmt.Errorf("no text given: pass it as an argument, with --file, or on stdin")
	}
	return string(data), "", nil
}

// readLimited reads r to the end, failing with pipeline.ErrInputTooLarge
// once more than limit bytes arrive. A limit of zero or less reads everything.
func readLimited(r io.Reader, limit int) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}

	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, err
	}
	if len(data) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", pipeline.ErrInputTooLarge, limit)
	}
	return data, nil
}
