package mcp

import (
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ListReportsInput takes no arguments.
type ListReportsInput struct{}

// GenerateReportInput mirrors catalog.Request.
type GenerateReportInput struct {
	Report         string `json:"report" jsonschema:"report name as returned by list_reports"`
	Start          string `json:"start" jsonschema:"window start, ISO-8601"`
	End            string `json:"end" jsonschema:"window end, ISO-8601"`
	Mime           string `json:"mime,omitempty" jsonschema:"application/json (default), text/csv, text/html, text/xml, application/zip or image/png"`
	Flavor         string `json:"flavor,omitempty" jsonschema:"report flavor, e.g. summary or detailed; defaults to the report's first flavor"`
	Histograms     *bool  `json:"histograms,omitempty" jsonschema:"render duration histograms in summary reports"`
	DurationFormat string `json:"duration_format,omitempty" jsonschema:"days, hours or seconds"`
	CRID           string `json:"crid,omitempty" jsonschema:"composite release id filter"`
	ProcessingMode string `json:"processing_mode,omitempty" jsonschema:"processing mode filter, e.g. forward or reprocessing"`
}

// CountDocumentsInput selects a count category and window.
type CountDocumentsInput struct {
	Category string `json:"category,omitempty" jsonschema:"incoming, outgoing or all (default)"`
	Start    string `json:"start" jsonschema:"window start, ISO-8601"`
	End      string `json:"end" jsonschema:"window end, ISO-8601"`
}

func schemaFor[T any]() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		var zero T
		return nil, fmt.Errorf("failed to build schema for %T: %w", zero, err)
	}
	return schema, nil
}

func (s *Server) registerTools(srv *mcp.Server) error {
	listSchema, err := schemaFor[ListReportsInput]()
	if err != nil {
		return err
	}
	generateSchema, err := schemaFor[GenerateReportInput]()
	if err != nil {
		return err
	}
	countSchema, err := schemaFor[CountDocumentsInput]()
	if err != nil {
		return err
	}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_reports",
		Description: "List the available accountability reports with their flavors.",
		InputSchema: listSchema,
	}, s.handleListReports)

	mcp.AddTool(srv, &mcp.Tool{
		Name: "generate_report",
		Description: "Generate an accountability report for a time window. JSON reports are returned inline; " +
			"other formats are written to disk and the file path is returned. Failures come back as a problem object.",
		InputSchema: generateSchema,
	}, s.handleGenerateReport)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "count_documents",
		Description: "Count documents received per named collection in a time window.",
		InputSchema: countSchema,
	}, s.handleCountDocuments)
	return nil
}
