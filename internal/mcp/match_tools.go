// ABOUTME: MCP tool implementation for comparing two catalogs.
// ABOUTME: Registers match_catalogs, which runs the matching pipeline and renders the report.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ctlmatch/internal/pipeline"
	"github.com/2389-research/ctlmatch/internal/report"
)

func (s *Server) registerMatchTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "match_catalogs",
		Description: "Find semantically similar controls between two OSCAL catalog JSON files. For every control part in the merge catalog, lists the closest parts of the base catalog whose similarity clears the threshold.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"base_path": {"type": "string", "description": "Path to the base OSCAL catalog JSON file"},
				"merge_path": {"type": "string", "description": "Path to the catalog to find matches for"},
				"threshold": {"type": "number", "description": "Minimum similarity score to consider a match (default 0.65)"},
				"top_k": {"type": "number", "description": "Number of top candidates considered per part (default 3)"},
				"format": {"type": "string", "enum": ["text", "json", "table"], "description": "Report format (default: text)"}
			},
			"required": ["base_path", "merge_path"]
		}`),
	}, s.handleMatchCatalogs)
}

func (s *Server) handleMatchCatalogs(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		BasePath  string   `json:"base_path"`
		MergePath string   `json:"merge_path"`
		Threshold *float64 `json:"threshold"`
		TopK      *int     `json:"top_k"`
		Format    string   `json:"format"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.BasePath == "" || args.MergePath == "" {
		return toolError("base_path and merge_path are required"), nil
	}

	opts := s.defaults
	if args.Threshold != nil {
		opts.Threshold = *args.Threshold
	}
	if args.TopK != nil {
		opts.TopK = *args.TopK
	}

	matcher := pipeline.NewMatcher(s.embedder, s.logger, opts)
	rep, err := matcher.Run(ctx, args.BasePath, args.MergePath)
	if errors.Is(err, pipeline.ErrEmptyCorpus) {
		return toolError("Error: %v.", err), nil
	}
	if err != nil {
		return toolError("match failed: %v", err), nil
	}

	var sb strings.Builder
	if err := report.Render(&sb, rep, report.Options{Format: args.Format}); err != nil {
		return toolError("failed to render report: %v", err), nil
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
	}, nil
}

// toolError creates an error result for MCP tool responses.
func toolError(format string, args ...interface{}) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
