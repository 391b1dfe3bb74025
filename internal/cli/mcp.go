package cli

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/ppiankov/spotlight/internal/tool"
)

// mcpCmd represents the mcp command
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the annotate_text tool over MCP on stdio",
	Long: `Mcp runs a Model Context Protocol server on stdin/stdout, so AI
assistants can highlight entity mentions with the annotate_text tool.

Example client configuration:
  {"command": "spotlight", "args": ["mcp"]}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	rootCmd.AddCommand(mcpCmd)

	mcpCmd.Flags().Int("max-input-bytes", 0, "reject texts larger than this (default from config)")
}

func runMCP(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	p, err := newPipeline(cmd.Context(), cfg, false)
	if err != nil {
		return err
	}

	newLogger(cfg).Step("Serving MCP on stdio (spotlight v%s)", Version)
	server := tool.NewServer(Version, p)
	if err := server.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
