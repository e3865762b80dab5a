package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/timefmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

func (s *Server) handleListReports(ctx context.Context, _ *mcp.CallToolRequest, _ ListReportsInput) (*mcp.CallToolResult, any, error) {
	return formatResult(catalog.List()), nil, nil
}

func (s *Server) handleGenerateReport(ctx context.Context, _ *mcp.CallToolRequest, in GenerateReportInput) (*mcp.CallToolResult, any, error) {
	req := catalog.Request{
		Report:         in.Report,
		Start:          in.Start,
		End:            in.End,
		Mime:           in.Mime,
		Flavor:         in.Flavor,
		Histograms:     in.Histograms,
		DurationFormat: in.DurationFormat,
		CRID:           in.CRID,
		ProcessingMode: in.ProcessingMode,
	}
	if req.Mime == "" {
		req.Mime = render.MimeJSON
	}
	log.Debug().Str("report", req.Report).Str("mime", req.Mime).Msg("generate_report called")

	if req.Mime == render.MimeJSON && s.publisher == nil {
		var buf bytes.Buffer
		if _, err := s.dispatcher.Generate(ctx, req, &buf); err != nil {
			return problemResult(err, &req), nil, nil
		}
		return textResult(buf.String()), nil, nil
	}

	res, path, err := s.dispatcher.GenerateFile(ctx, req, s.outDir, "")
	if err != nil {
		return problemResult(err, &req), nil, nil
	}
	out := map[string]any{"result": res, "path": path}
	if s.publisher != nil {
		uri, err := s.publish(ctx, path, res)
		if err != nil {
			return problemResult(err, &req), nil, nil
		}
		out["uri"] = uri
	}
	if req.Mime == render.MimeJSON {
		payload, err := os.ReadFile(path)
		if err != nil {
			return problemResult(err, &req), nil, nil
		}
		return textResult(string(payload)), nil, nil
	}
	return formatResult(out), nil, nil
}

func (s *Server) publish(ctx context.Context, path string, res catalog.Result) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return s.publisher.Publish(ctx, res.Filename, f, res.Mime)
}

func (s *Server) handleCountDocuments(ctx context.Context, _ *mcp.CallToolRequest, in CountDocumentsInput) (*mcp.CallToolResult, any, error) {
	start, err := timefmt.Parse(in.Start)
	if err != nil {
		return problemResult(fmt.Errorf("%w: start: %v", catalog.ErrInvalidWindow, err), nil), nil, nil
	}
	end, err := timefmt.Parse(in.End)
	if err != nil {
		return problemResult(fmt.Errorf("%w: end: %v", catalog.ErrInvalidWindow, err), nil), nil, nil
	}

	counts, err := catalog.CountDocuments(ctx, s.dispatcher.Deps(), in.Category, start, end)
	if err != nil {
		return problemResult(err, nil), nil, nil
	}
	return formatResult(counts), nil, nil
}
