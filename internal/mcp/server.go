// Package mcp exposes the report catalog as MCP tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"
	"github.com/nasa/opera-sds-bach-api/internal/publish"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Server holds the state behind the tools.
type Server struct {
	dispatcher *catalog.Dispatcher
	// outDir receives artifacts that are not returned inline.
	outDir    string
	publisher publish.Publisher
}

// NewServer creates a tool server. publisher may be nil.
func NewServer(d *catalog.Dispatcher, outDir string, publisher publish.Publisher) *Server {
	return &Server{dispatcher: d, outDir: outDir, publisher: publisher}
}

// Build registers the tools on a fresh MCP server.
func (s *Server) Build(version string) (*mcp.Server, error) {
	srv := mcp.NewServer(&mcp.Implementation{Name: "bach-report", Version: version}, nil)
	if err := s.registerTools(srv); err != nil {
		return nil, err
	}
	return srv, nil
}

// Start serves the tools over stdio until the client disconnects or ctx ends.
func (s *Server) Start(ctx context.Context, version string) error {
	srv, err := s.Build(version)
	if err != nil {
		return err
	}
	log.Info().Msg("MCP server starting stdio loop")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("mcp server stopped: %w", err)
	}
	return nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}

func formatResult(data any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return problemResult(err, nil)
	}
	return textResult(string(out))
}

// problemResult reports a failure as a tool error whose text is the problem object.
func problemResult(err error, req *catalog.Request) *mcp.CallToolResult {
	res := textResult(catalog.NewProblem(err, req).JSON())
	res.IsError = true
	return res
}
