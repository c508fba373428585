// ABOUTME: MCP tool implementation for inspecting a single catalog.
// ABOUTME: Registers flatten_catalog, which lists the text units the matcher would compare.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/2389-research/ctlmatch/internal/catalog"
	"github.com/2389-research/ctlmatch/internal/report"
)

func (s *Server) registerCatalogTools() {
	s.mcp.AddTool(&gomcp.Tool{
		Name:        "flatten_catalog",
		Description: "List every control and control part with prose in an OSCAL catalog, in document order, with the control each one belongs to.",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"path": {"type": "string", "description": "Path to the OSCAL catalog JSON file"},
				"include_enhancements": {"type": "boolean", "description": "Also flatten nested control enhancements (default: false)"}
			},
			"required": ["path"]
		}`),
	}, s.handleFlattenCatalog)
}

func (s *Server) handleFlattenCatalog(ctx context.Context, req *gomcp.CallToolRequest) (*gomcp.CallToolResult, error) {
	var args struct {
		Path                string `json:"path"`
		IncludeEnhancements *bool  `json:"include_enhancements"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError("invalid arguments: %v", err), nil
	}

	if args.Path == "" {
		return toolError("path is required"), nil
	}

	doc, err := catalog.Load(args.Path)
	if err != nil {
		return toolError("failed to load catalog: %v", err), nil
	}

	enhancements := s.defaults.IncludeEnhancements
	if args.IncludeEnhancements != nil {
		enhancements = *args.IncludeEnhancements
	}
	var opts []catalog.FlattenOption
	if enhancements {
		opts = append(opts, catalog.WithEnhancements())
	}
	units := catalog.Flatten(doc, opts...)

	if len(units) == 0 {
		return &gomcp.CallToolResult{
			Content: []gomcp.Content{&gomcp.TextContent{Text: "No controls or parts with prose found."}},
		}, nil
	}

	var sb strings.Builder
	if title := doc.Title(); title != "" {
		sb.WriteString(fmt.Sprintf("Catalog: %s\n", title))
	}
	sb.WriteString(fmt.Sprintf("Text units: %d\n", len(units)))
	for _, u := range units {
		sb.WriteString(fmt.Sprintf("\n- [%s] %s\n  %s\n", u.ParentControl.DisplayID(), u.DisplayID(), report.Preview(u.Text)))
	}

	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: sb.String()}},
	}, nil
}
