package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var askTimeout time.Duration

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <prompt>",
	Short: "Ask an LLM a question and highlight entity mentions in its answer",
	Long: `Ask sends a prompt to the configured LLM provider and annotates both the
prompt and the answer, so you can see whether the assistant mentions your
business or its competitors first.

Answers are cached, so asking the same question again is free until the
cache expires (see cache.disk_ttl).

API keys are read from the config file (llm.api_key), SPOTLIGHT_LLM_API_KEY,
or the provider's usual variable: OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY.

Example:
  spotlight ask "What is the best robot vacuum?" --llm-provider openai --profile acme.yaml
  spotlight ask "Who makes good roadrunner traps?" --llm-provider ollama --llm-model llama3.2 --business Acme`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().DurationVar(&askTimeout, "timeout", 2*time.Minute, "overall timeout for the question")

	addEntityFlags(askCmd)
	addLLMFlags(askCmd)
	addOutputFlags(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
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
		logger.Warn("no entities given; the answer will not be highlighted")
	}

	p, err := newPipeline(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), askTimeout)
	defer cancel()

	logger.Step("Asking %s...", cfg.LLM.Provider)
	report, err := p.Ask(ctx, args[0], entities)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}
	if report.LLM != nil && report.LLM.Cached {
		logger.Done("Answer loaded from cache")
	}
	logMentions(logger, report)

	return writeReport(cmd.OutOrStdout(), cfg, report)
}
