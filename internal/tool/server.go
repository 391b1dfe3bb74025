package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/spotlight/internal/pipeline"
)

// NewServer creates an MCP server with the spotlight tools registered
func NewServer(version string, p *pipeline.Pipeline) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "spotlight", Version: version}, nil)

	annotator := NewAnnotator(p)
	mcp.AddTool(server, MetadataAnnotateText, annotator.AnnotateText)

	return server
}
