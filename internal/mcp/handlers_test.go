package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nasa/opera-sds-bach-api/internal/catalog"
	"github.com/nasa/opera-sds-bach-api/internal/config"
	"github.com/nasa/opera-sds-bach-api/internal/render"
	"github.com/nasa/opera-sds-bach-api/internal/report"
	"github.com/nasa/opera-sds-bach-api/internal/store"

	"github.com/goccy/go-json"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	fs := store.NewFile(t.TempDir())
	_ = fs.Save("grq_1_l3_dswx_hls", []store.Document{{ID: "p", Source: map[string]any{
		"creation_timestamp":   "2022-01-01T06:00:00Z",
		"daac_CNM_S_timestamp": "2022-01-01T07:00:00Z",
		"daac_CNM_S_status":    "SUCCESS",
		"metadata": map[string]any{
			"FileName":            "OPERA_L3_DSWx_HLS_T22VEQ_20210905T143156Z_v0.0",
			"ProductType":         "L3_DSWX_HLS",
			"ProductReceivedTime": "2022-01-01T05:00:00Z",
		},
	}}})

	d := catalog.NewDispatcher(report.Deps{Gateway: fs, Mappings: config.DefaultMappings()})
	d.Now = func() time.Time { return time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC) }
	out := t.TempDir()
	return NewServer(d, out, nil), out
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func TestHandleGenerateReport_InlineJSON(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleGenerateReport(context.Background(), nil, GenerateReportInput{
		Report: report.ProductionTimeName,
		Start:  "2022-01-01T00:00:00Z",
		End:    "2022-01-02T00:00:00Z",
		Flavor: report.Detailed,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}

	var doc struct {
		Payload []map[string]any `json:"payload"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Payload) != 1 || doc.Payload[0]["ProductionTime"] != "02:00:00" {
		t.Errorf("payload = %v", doc.Payload)
	}
}

func TestHandleGenerateReport_WritesArtifact(t *testing.T) {
	s, out := newTestServer(t)
	res, _, _ := s.handleGenerateReport(context.Background(), nil, GenerateReportInput{
		Report: report.DataAccountabilityName,
		Start:  "2022-01-01T00:00:00Z",
		End:    "2022-01-02T00:00:00Z",
		Mime:   render.MimeCSV,
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}

	var body struct {
		Path   string         `json:"path"`
		Result catalog.Result `json:"result"`
	}
	if err := json.Unmarshal([]byte(text(t, res)), &body); err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(body.Path) != out {
		t.Errorf("artifact written outside the output dir: %s", body.Path)
	}
	if _, err := os.Stat(body.Path); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
}

func TestHandleGenerateReport_Problem(t *testing.T) {
	s, _ := newTestServer(t)
	res, _, err := s.handleGenerateReport(context.Background(), nil, GenerateReportInput{
		Report: "ObservationAccountabilityReport",
		Start:  "2022-01-01T00:00:00Z",
		End:    "2022-01-02T00:00:00Z",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected a tool error")
	}

	var p catalog.Problem
	if err := json.Unmarshal([]byte(text(t, res)), &p); err != nil {
		t.Fatal(err)
	}
	if p.Status != 404 || p.Request == nil || p.Request.Report != "ObservationAccountabilityReport" {
		t.Errorf("problem = %+v", p)
	}
}

func TestHandleCountDocuments(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name    string
		in      CountDocumentsInput
		wantErr bool
		check   string
	}{
		{"Outgoing", CountDocumentsInput{Category: "outgoing", Start: "2022-01-01", End: "2022-01-02"}, false, `"DSWX_HLS": 0`},
		{"All", CountDocumentsInput{Start: "2022-01-01", End: "2022-01-02"}, false, `"DSWX_HLS": 1`},
		{"BadWindow", CountDocumentsInput{Start: "soon", End: "2022-01-02"}, true, `"status":400`},
		{"BadCategory", CountDocumentsInput{Category: "lost", Start: "2022-01-01", End: "2022-01-02"}, true, `"status":400`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _, _ := s.handleCountDocuments(context.Background(), nil, tt.in)
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v: %s", res.IsError, tt.wantErr, text(t, res))
			}
			if got := text(t, res); !strings.Contains(got, tt.check) {
				t.Errorf("result %s does not contain %s", got, tt.check)
			}
		})
	}
}

func TestServer_ToolsOverTransport(t *testing.T) {
	s, _ := newTestServer(t)
	srv, err := s.Build("test")
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatal(err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer session.Close()

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tool := range tools.Tools {
		names = append(names, tool.Name)
	}
	for _, want := range []string{"list_reports", "generate_report", "count_documents"} {
		if !strings.Contains(strings.Join(names, ","), want) {
			t.Errorf("tool %s not registered: %v", want, names)
		}
	}

	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_reports", Arguments: map[string]any{}})
	if err != nil {
		t.Fatal(err)
	}
	if got := text(t, res); !strings.Contains(got, report.RetrievalTimeName) {
		t.Errorf("list_reports returned %s", got)
	}
}
